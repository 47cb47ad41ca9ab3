package xttl

import "errors"

var (
	// ErrNilStore 表示传入的 Store 为 nil。
	ErrNilStore = errors.New("xttl: nil store")

	// ErrInvalidNamespace 表示命名空间为空或包含分隔符 "-"。
	ErrInvalidNamespace = errors.New("xttl: invalid namespace")

	// ErrInvalidSchedule 表示清理计划的 cron 表达式无法解析。
	ErrInvalidSchedule = errors.New("xttl: invalid cleaning schedule")

	// ErrNotInNamespace 表示物理 key 不属于指定命名空间。
	ErrNotInNamespace = errors.New("xttl: key not in namespace")

	// ErrClosed 表示缓存已经关闭（重复调用 Close）。
	ErrClosed = errors.New("xttl: cache closed")
)
