package xkv

import (
	"context"
	"sync"
	"sync/atomic"
)

// memoryStore 基于 map 的进程内存储。
// 读写均复制字节切片，调用方修改返回值不会影响已存储的数据。
type memoryStore struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed atomic.Bool
}

// NewMemory 创建进程内存储。
// 数据只在进程生命周期内有效，主要用于测试和不需要持久化的场景。
func NewMemory() Store {
	return &memoryStore{data: make(map[string][]byte)}
}

func (s *memoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := s.check(ctx, key); err != nil {
		return nil, err
	}
	s.mu.RLock()
	v, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBytes(v), nil
}

func (s *memoryStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.check(ctx, key); err != nil {
		return err
	}
	s.mu.Lock()
	s.data[key] = cloneBytes(value)
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, key string) error {
	if err := s.check(ctx, key); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Keys(ctx context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func (s *memoryStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	s.mu.Lock()
	s.data = make(map[string][]byte)
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) check(ctx context.Context, key string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return checkKey(ctx, key)
}
