package xkv

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
)

// =============================================================================
// Redis 配置选项
// =============================================================================

// RedisOptions 定义 Redis 存储的配置选项。
type RedisOptions struct {
	// KeyPrefix 所有物理 key 的前缀，用于与同一 Redis 实例中的其他数据隔离。
	// Keys 只遍历带此前缀的 key，并在返回前去掉前缀。
	// 默认为空（使用整个 keyspace）。
	KeyPrefix string

	// ScanCount 每次 SCAN 的 COUNT 提示值。
	// 默认为 256。
	ScanCount int64
}

// RedisOption 定义配置 Redis 存储的函数类型。
type RedisOption func(*RedisOptions)

func defaultRedisOptions() *RedisOptions {
	return &RedisOptions{
		KeyPrefix: "",
		ScanCount: 256,
	}
}

// WithRedisKeyPrefix 设置物理 key 前缀。
func WithRedisKeyPrefix(prefix string) RedisOption {
	return func(o *RedisOptions) {
		o.KeyPrefix = prefix
	}
}

// WithRedisScanCount 设置 SCAN 的 COUNT 提示值。
// 如果 n <= 0，将忽略此设置并使用默认值。
func WithRedisScanCount(n int64) RedisOption {
	return func(o *RedisOptions) {
		if n > 0 {
			o.ScanCount = n
		}
	}
}

// =============================================================================
// Redis 存储实现
// =============================================================================

// redisStore 基于 go-redis 的存储实现。
type redisStore struct {
	client  redis.UniversalClient
	options *RedisOptions
	closed  atomic.Bool
}

// NewRedis 创建 Redis 存储。
// client 必须是已初始化的 redis.UniversalClient，Close 时会一并关闭。
//
// 对于 *redis.ClusterClient，Keys 会在每个 master 节点上分别执行 SCAN。
func NewRedis(client redis.UniversalClient, opts ...RedisOption) (Store, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	options := defaultRedisOptions()
	for _, opt := range opts {
		opt(options)
	}
	return &redisStore{client: client, options: options}, nil
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := s.check(ctx, key); err != nil {
		return nil, err
	}
	value, err := s.client.Get(ctx, s.options.KeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *redisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.check(ctx, key); err != nil {
		return err
	}
	// 过期由 xttl 的条目时间戳控制，这里不设置 Redis TTL
	return s.client.Set(ctx, s.options.KeyPrefix+key, value, 0).Err()
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	if err := s.check(ctx, key); err != nil {
		return err
	}
	return s.client.Del(ctx, s.options.KeyPrefix+key).Err()
}

func (s *redisStore) Keys(ctx context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	match := escapeGlob(s.options.KeyPrefix) + "*"

	cluster, ok := s.client.(*redis.ClusterClient)
	if !ok {
		return s.scan(ctx, s.client, match, nil)
	}

	var (
		mu   sync.Mutex
		keys []string
	)
	err := cluster.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
		nodeKeys, err := s.scan(ctx, node, match, nil)
		if err != nil {
			return err
		}
		mu.Lock()
		keys = append(keys, nodeKeys...)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// scan 在单个节点上遍历匹配 match 的 key，并去掉 KeyPrefix 后追加到 dst。
func (s *redisStore) scan(ctx context.Context, c redis.Cmdable, match string, dst []string) ([]string, error) {
	iter := c.Scan(ctx, 0, match, s.options.ScanCount).Iterator()
	for iter.Next(ctx) {
		dst = append(dst, strings.TrimPrefix(iter.Val(), s.options.KeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return dst, nil
}

func (s *redisStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	return s.client.Close()
}

func (s *redisStore) check(ctx context.Context, key string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return checkKey(ctx, key)
}

// escapeGlob 转义 Redis MATCH 模式中的特殊字符，使前缀按字面匹配。
func escapeGlob(s string) string {
	if !strings.ContainsAny(s, `*?[]\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
