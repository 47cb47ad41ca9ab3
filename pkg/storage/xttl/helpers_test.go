package xttl

import (
	"bytes"
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/omeyang/xttl/pkg/observability/xlog"
	"github.com/omeyang/xttl/pkg/storage/xkv"
)

// fakeClock 可手动推进的时钟。
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// newTestLogger 返回写入 buf 的 Debug 级别日志器。
func newTestLogger(t *testing.T) (xlog.Logger, *safeBuffer) {
	t.Helper()
	buf := &safeBuffer{}
	logger, cleanup, err := xlog.New().SetOutput(buf).SetLevel(xlog.LevelDebug).Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = cleanup() })
	return logger, buf
}

// safeBuffer 供并发写日志使用。
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// newManualCache 创建不启动任何后台清理的缓存。
func newManualCache[V any](t *testing.T, store xkv.Store, opts ...Option) *Cache[V] {
	t.Helper()
	logger, _ := newTestLogger(t)
	base := []Option{
		WithImmediateClean(false),
		WithDisableCleaning(true),
		WithLogger(logger),
	}
	c, err := New[V](store, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// storeHas 直接检查存储中是否存在物理 key。
func storeHas(t *testing.T, store xkv.Store, physical string) bool {
	t.Helper()
	_, err := store.Get(context.Background(), physical)
	if xkv.IsNotFound(err) {
		return false
	}
	require.NoError(t, err)
	return true
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
