package xttl

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/omeyang/xttl/pkg/observability/xlog"
	"github.com/omeyang/xttl/pkg/observability/xmetrics"
	"github.com/omeyang/xttl/pkg/storage/xkv"
)

const (
	componentName = "xttl"

	opGet    = "get"
	opSet    = "set"
	opDelete = "delete"
	opKeys   = "keys"
	opSweep  = "sweep"

	attrNamespace = xmetrics.AttrNamespace
	attrResult    = xmetrics.AttrResult
)

// Cache 是带命名空间和过期时间的缓存。
//
// Cache 是并发安全的。它不持有条目，所有状态都在 Store 中；
// 同一 key 的并发写入以最后一次为准。
type Cache[V any] struct {
	store     xkv.Store
	namespace string
	opts      *Options
	logger    xlog.Logger
	schedule  cron.Schedule // nil 表示不定时清理

	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool
}

// New 创建缓存并按配置启动后台清理。
//
// Store 的生命周期由调用方管理，Close 不会关闭 Store。
func New[V any](store xkv.Store, opts ...Option) (*Cache[V], error) {
	if store == nil {
		return nil, ErrNilStore
	}
	options := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}
	if err := validateNamespace(options.Namespace); err != nil {
		return nil, err
	}

	schedule, err := newSchedule(options)
	if err != nil {
		return nil, err
	}

	logger := options.Logger
	if logger == nil {
		logger = xlog.Default()
	}

	c := &Cache[V]{
		store:     store,
		namespace: options.Namespace,
		opts:      options,
		logger:    logger.With(xlog.Component(componentName), xlog.Namespace(options.Namespace)),
		schedule:  schedule,
	}
	c.startMaintenance()
	return c, nil
}

// Namespace 返回命名空间。
func (c *Cache[V]) Namespace() string {
	return c.namespace
}

// DefaultTTL 返回默认存活时间。
func (c *Cache[V]) DefaultTTL() time.Duration {
	return c.opts.DefaultTTL
}

// Set 以默认 TTL 写入 key。存储故障被记录后忽略。
func (c *Cache[V]) Set(ctx context.Context, key string, value V) {
	c.SetWithTTL(ctx, key, value, UseDefaultTTL)
}

// SetWithTTL 以指定 TTL 写入 key，覆盖已有条目。
// ttl 为 UseDefaultTTL 时使用默认 TTL，为负值（NoTTL）时永不过期。
// 0 表示默认 TTL 而不是立即过期；需要几乎立即过期时传入小于 1ms 的正值
// （如 time.Nanosecond），过期时刻按毫秒截断，条目在下一毫秒后不再可读。
func (c *Cache[V]) SetWithTTL(ctx context.Context, key string, value V, ttl time.Duration) {
	ctx, span := c.startSpan(ctx, opSet, xmetrics.KindClient)
	err := c.set(ctx, key, value, ttl)
	if err != nil {
		c.logger.Debug(ctx, "xttl: set failed", xlog.Key(key), xlog.Err(err))
	}
	span.End(xmetrics.Result{Err: err})
}

func (c *Cache[V]) set(ctx context.Context, key string, value V, ttl time.Duration) error {
	if ttl == UseDefaultTTL {
		ttl = c.opts.DefaultTTL
	}
	data, err := c.opts.Codec.Marshal(newEntry(value, ttl, c.opts.Clock()))
	if err != nil {
		return fmt.Errorf("xttl: encode %q: %w", key, err)
	}
	return c.store.Set(ctx, PhysicalKey(c.namespace, key), data)
}

// Get 读取 key。
// 条目不存在、已过期、无法解码或存储故障时返回零值和 false。
// 已过期和无法解码的条目会被删除，删除完成后才返回。
func (c *Cache[V]) Get(ctx context.Context, key string) (V, bool) {
	ctx, span := c.startSpan(ctx, opGet, xmetrics.KindClient)
	value, result, err := c.lookup(ctx, key)
	if err != nil {
		c.logger.Debug(ctx, "xttl: get failed", xlog.Key(key), xlog.Err(err))
	}
	span.End(xmetrics.Result{
		Err:   err,
		Attrs: []xmetrics.Attr{xmetrics.String(attrResult, result.String())},
	})
	return value, result == resultHit
}

// Delete 删除 key，key 不存在时为空操作。存储故障被记录后忽略。
func (c *Cache[V]) Delete(ctx context.Context, key string) {
	ctx, span := c.startSpan(ctx, opDelete, xmetrics.KindClient)
	err := c.store.Delete(ctx, PhysicalKey(c.namespace, key))
	if err != nil {
		c.logger.Debug(ctx, "xttl: delete failed", xlog.Key(key), xlog.Err(err))
	}
	span.End(xmetrics.Result{Err: err})
}

// Keys 返回本命名空间中当前存储的逻辑 key（包括尚未清理的过期条目），按字典序排列。
// 存储故障时返回 nil。
func (c *Cache[V]) Keys(ctx context.Context) []string {
	ctx, span := c.startSpan(ctx, opKeys, xmetrics.KindClient)
	keys, err := c.logicalKeys(ctx)
	if err != nil {
		c.logger.Debug(ctx, "xttl: list keys failed", xlog.Err(err))
	}
	span.End(xmetrics.Result{Err: err})
	slices.Sort(keys)
	return keys
}

// logicalKeys 列出存储中属于本命名空间的逻辑 key。
func (c *Cache[V]) logicalKeys(ctx context.Context) ([]string, error) {
	all, err := c.store.Keys(ctx)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, pk := range all {
		if key, err := LogicalKey(c.namespace, pk); err == nil {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Close 停止定时清理，并等待正在进行的后台清理结束。
// 再次调用返回 ErrClosed。Close 之后缓存的读写仍然可用。
func (c *Cache[V]) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	return nil
}

// =============================================================================
// 惰性过期检查
// =============================================================================

// lookupResult 是单个 key 的检查结果。
type lookupResult int

const (
	resultHit lookupResult = iota
	resultMiss
	resultExpired
	resultInvalid
	resultError
)

func (r lookupResult) String() string {
	switch r {
	case resultHit:
		return "hit"
	case resultMiss:
		return "miss"
	case resultExpired:
		return "expired"
	case resultInvalid:
		return "invalid"
	default:
		return "error"
	}
}

// lookup 读取并检查 key，Get 和清理共用。
// 过期或无法解码的条目在返回前删除；删除失败时返回该错误，结果不变。
func (c *Cache[V]) lookup(ctx context.Context, key string) (V, lookupResult, error) {
	var zero V
	pk := PhysicalKey(c.namespace, key)

	raw, err := c.store.Get(ctx, pk)
	if xkv.IsNotFound(err) {
		return zero, resultMiss, nil
	}
	if err != nil {
		return zero, resultError, err
	}

	var entry Entry[V]
	if err := c.opts.Codec.Unmarshal(raw, &entry); err != nil {
		c.logger.Debug(ctx, "xttl: dropping undecodable entry", xlog.Key(key), xlog.Err(err))
		return zero, resultInvalid, c.store.Delete(ctx, pk)
	}
	if entry.Expired(c.opts.Clock()) {
		return zero, resultExpired, c.store.Delete(ctx, pk)
	}
	return entry.Value, resultHit, nil
}

func (c *Cache[V]) startSpan(ctx context.Context, op string, kind xmetrics.Kind) (context.Context, xmetrics.Span) {
	return xmetrics.Start(ctx, c.opts.Observer, xmetrics.SpanOptions{
		Component: componentName,
		Operation: op,
		Kind:      kind,
		Attrs:     []xmetrics.Attr{xmetrics.String(attrNamespace, c.namespace)},
	})
}
