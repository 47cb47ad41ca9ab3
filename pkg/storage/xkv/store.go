package xkv

import "context"

//go:generate mockgen -source=store.go -destination=xkvmock/store.go -package=xkvmock

// Store 定义持久化 KV 存储接口。
//
// 所有方法都是并发安全的，且都可能因后端不可用而失败。
// 调用方（xttl）负责把失败折叠为"不存在/空操作"。
type Store interface {
	// Get 读取 key 对应的值。key 不存在时返回 ErrNotFound。
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 写入 key 对应的值，已存在时覆盖。
	Set(ctx context.Context, key string, value []byte) error

	// Delete 删除 key。key 不存在时不返回错误。
	Delete(ctx context.Context, key string) error

	// Keys 返回物理 key 空间中的全部字符串 key，顺序不保证。
	Keys(ctx context.Context) ([]string, error)

	// Close 释放存储持有的资源。
	Close() error
}

// checkKey 校验 key 并检查 ctx 是否已结束。
func checkKey(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return ErrEmptyKey
	}
	return nil
}

// cloneBytes 返回 b 的独立副本，nil 保持为 nil。
func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
