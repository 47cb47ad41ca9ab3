package xttl

import (
	"encoding/json"
	"time"
)

// Entry 是存储中的持久化单元。
type Entry[V any] struct {
	Value V `json:"value"`
	// ExpiresAt 过期时刻（unix 毫秒），0 表示永不过期。
	ExpiresAt int64 `json:"expires,omitempty"`
}

// newEntry 根据 ttl 计算过期时刻。ttl <= 0 表示永不过期。
func newEntry[V any](value V, ttl time.Duration, now time.Time) Entry[V] {
	e := Entry[V]{Value: value}
	if ttl > 0 {
		e.ExpiresAt = now.Add(ttl).UnixMilli()
	}
	return e
}

// Expired 判断条目在 now 时是否已过期。
// 过期时刻恰好等于 now 的条目仍然有效。
func (e Entry[V]) Expired(now time.Time) bool {
	return e.ExpiresAt != 0 && e.ExpiresAt < now.UnixMilli()
}

// ExpiresTime 返回过期时刻，永不过期时 ok 为 false。
func (e Entry[V]) ExpiresTime() (t time.Time, ok bool) {
	if e.ExpiresAt == 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(e.ExpiresAt), true
}

// Codec 定义条目的编解码方式。
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSONCodec 使用 encoding/json 编解码，是默认的 Codec。
type JSONCodec struct{}

// Marshal 实现 Codec。
func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal 实现 Codec。
func (JSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
