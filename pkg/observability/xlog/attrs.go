package xlog

import (
	"log/slog"
	"time"
)

// 常用属性 Key
const (
	KeyError     = "error"
	KeyDuration  = "duration"
	KeyCount     = "count"
	KeyComponent = "component"
	KeyOperation = "operation"

	// KeyNamespace 缓存命名空间
	KeyNamespace = "namespace"
	// KeyKey 缓存逻辑 key
	KeyKey = "key"
)

// Err 创建错误属性，err 为 nil 时返回空属性（会被 slog 忽略）
//
//	if err != nil {
//	    logger.Debug(ctx, "store get failed", xlog.Err(err))
//	}
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Duration 创建耗时属性，输出人类可读格式（如 "1.5s"）
func Duration(d time.Duration) slog.Attr {
	return slog.String(KeyDuration, d.String())
}

// Component 创建组件名属性
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Operation 创建操作名属性
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

// Count 创建计数属性
func Count(n int64) slog.Attr {
	return slog.Int64(KeyCount, n)
}

// Namespace 创建缓存命名空间属性
func Namespace(ns string) slog.Attr {
	return slog.String(KeyNamespace, ns)
}

// Key 创建缓存 key 属性
func Key(key string) slog.Attr {
	return slog.String(KeyKey, key)
}
