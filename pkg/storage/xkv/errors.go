package xkv

import "errors"

// =============================================================================
// 通用错误
// =============================================================================

var (
	// ErrNotFound 表示 key 不存在。
	// 这是正常的查询结果，而非存储故障。
	ErrNotFound = errors.New("xkv: key not found")

	// ErrNilClient 表示传入的底层客户端为 nil。
	ErrNilClient = errors.New("xkv: nil client")

	// ErrNilStore 表示传入的 Store 为 nil。
	ErrNilStore = errors.New("xkv: nil store")

	// ErrEmptyKey 表示传入的 key 为空字符串。
	ErrEmptyKey = errors.New("xkv: empty key")

	// ErrClosed 表示存储已关闭。
	ErrClosed = errors.New("xkv: store closed")
)

// =============================================================================
// 后端相关错误
// =============================================================================

var (
	// ErrInvalidKey 表示 key 不满足后端的命名约束（如 ConfigMap key 规则）。
	ErrInvalidKey = errors.New("xkv: invalid key for backend")

	// ErrInvalidConfig 表示后端配置参数无效。
	ErrInvalidConfig = errors.New("xkv: invalid configuration")
)

// =============================================================================
// 容错相关错误
// =============================================================================

var (
	// ErrUnavailable 表示熔断器处于打开状态，请求被快速拒绝。
	ErrUnavailable = errors.New("xkv: store unavailable")
)

// IsNotFound 判断 err 是否表示 key 不存在。
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
