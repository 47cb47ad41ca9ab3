package xkv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"
	"unicode/utf8"

	bolt "go.etcd.io/bbolt"
)

// =============================================================================
// Bolt 配置选项
// =============================================================================

// BoltOptions 定义 bbolt 存储的配置选项。
type BoltOptions struct {
	// Bucket 存放条目的 bucket 名称。
	// 默认为 "xttl"。
	Bucket string

	// OpenTimeout 获取数据库文件锁的超时时间。
	// bbolt 同一时刻只允许一个进程打开文件，超时后返回错误而非无限等待。
	// 默认为 1 秒。
	OpenTimeout time.Duration

	// FileMode 数据库文件权限。
	// 默认为 0600。
	FileMode os.FileMode
}

// BoltOption 定义配置 bbolt 存储的函数类型。
type BoltOption func(*BoltOptions)

func defaultBoltOptions() *BoltOptions {
	return &BoltOptions{
		Bucket:      "xttl",
		OpenTimeout: time.Second,
		FileMode:    0o600,
	}
}

// WithBoltBucket 设置 bucket 名称。空字符串会被忽略。
func WithBoltBucket(name string) BoltOption {
	return func(o *BoltOptions) {
		if name != "" {
			o.Bucket = name
		}
	}
}

// WithBoltOpenTimeout 设置获取文件锁的超时时间。
// 如果 d <= 0，将忽略此设置并使用默认值。
func WithBoltOpenTimeout(d time.Duration) BoltOption {
	return func(o *BoltOptions) {
		if d > 0 {
			o.OpenTimeout = d
		}
	}
}

// WithBoltFileMode 设置数据库文件权限。
func WithBoltFileMode(mode os.FileMode) BoltOption {
	return func(o *BoltOptions) {
		if mode != 0 {
			o.FileMode = mode
		}
	}
}

// =============================================================================
// Bolt 存储实现
// =============================================================================

// boltStore 基于 bbolt 的嵌入式持久化存储。
type boltStore struct {
	db     *bolt.DB
	bucket []byte
	closed atomic.Bool
}

// NewBolt 打开（或创建）path 处的 bbolt 数据库文件。
// 返回的 Store 持有文件锁，使用完毕必须调用 Close。
func NewBolt(path string, opts ...BoltOption) (Store, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty bolt path", ErrInvalidConfig)
	}
	options := defaultBoltOptions()
	for _, opt := range opts {
		opt(options)
	}

	db, err := bolt.Open(path, options.FileMode, &bolt.Options{Timeout: options.OpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("xkv: open bolt %q: %w", path, err)
	}

	bucket := []byte(options.Bucket)
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		return nil, errors.Join(fmt.Errorf("xkv: create bolt bucket: %w", err), db.Close())
	}

	return &boltStore{db: db, bucket: bucket}, nil
}

func (s *boltStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := s.check(ctx, key); err != nil {
		return nil, err
	}
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		// bbolt 返回的切片只在事务内有效
		value = cloneBytes(v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *boltStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.check(ctx, key); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), value)
	})
}

func (s *boltStore) Delete(ctx context.Context, key string) error {
	if err := s.check(ctx, key); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	})
}

func (s *boltStore) Keys(ctx context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).ForEach(func(k, _ []byte) error {
			if utf8.Valid(k) {
				keys = append(keys, string(k))
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *boltStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	return s.db.Close()
}

func (s *boltStore) check(ctx context.Context, key string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return checkKey(ctx, key)
}
