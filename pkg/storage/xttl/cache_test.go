package xttl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/omeyang/xttl/pkg/storage/xkv"
	"github.com/omeyang/xttl/pkg/storage/xkv/xkvmock"
)

type profile struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

func TestNew_Validation(t *testing.T) {
	_, err := New[string](nil)
	assert.ErrorIs(t, err, ErrNilStore)

	store := xkv.NewMemory()
	_, err = New[string](store, WithNamespace(""))
	assert.ErrorIs(t, err, ErrInvalidNamespace)

	_, err = New[string](store, WithNamespace("a-b"))
	assert.ErrorIs(t, err, ErrInvalidNamespace)

	_, err = New[string](store, WithCleaningSchedule("not a cron"))
	assert.ErrorIs(t, err, ErrInvalidSchedule)
}

func TestNew_Defaults(t *testing.T) {
	c := newManualCache[string](t, xkv.NewMemory())
	assert.Equal(t, DefaultNamespace, c.Namespace())
	assert.Equal(t, DefaultTTL, c.DefaultTTL())
}

func TestCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := newManualCache[profile](t, xkv.NewMemory())

	c.Set(ctx, "alice", profile{Name: "alice", Score: 7})
	got, ok := c.Get(ctx, "alice")
	require.True(t, ok)
	assert.Equal(t, profile{Name: "alice", Score: 7}, got)

	// 覆盖写
	c.Set(ctx, "alice", profile{Name: "alice", Score: 9})
	got, ok = c.Get(ctx, "alice")
	require.True(t, ok)
	assert.Equal(t, 9, got.Score)

	got, ok = c.Get(ctx, "bob")
	assert.False(t, ok)
	assert.Zero(t, got)
}

func TestCache_StoredFormat(t *testing.T) {
	ctx := context.Background()
	clk := newFakeClock()
	store := xkv.NewMemory()
	c := newManualCache[string](t, store, WithClock(clk.Now), WithNamespace("sessions"))

	c.SetWithTTL(ctx, "k", "v", 5*time.Second)
	raw, err := store.Get(ctx, "sessions-k")
	require.NoError(t, err)

	want := clk.Now().Add(5 * time.Second).UnixMilli()
	assert.JSONEq(t, `{"value":"v","expires":`+itoa(want)+`}`, string(raw))

	c.SetWithTTL(ctx, "forever", "v", NoTTL)
	raw, err = store.Get(ctx, "sessions-forever")
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":"v"}`, string(raw))
}

func TestCache_Expiry(t *testing.T) {
	ctx := context.Background()
	clk := newFakeClock()
	store := xkv.NewMemory()
	c := newManualCache[string](t, store, WithClock(clk.Now))

	c.SetWithTTL(ctx, "k", "v", 5*time.Second)

	clk.Advance(time.Second)
	v, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	// 恰好到期仍然有效
	clk.Advance(4 * time.Second)
	_, ok = c.Get(ctx, "k")
	assert.True(t, ok)

	clk.Advance(time.Millisecond)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)

	// Get 返回前已删除物理条目
	assert.False(t, storeHas(t, store, "LocalCache-k"))
}

func TestCache_DefaultTTL(t *testing.T) {
	ctx := context.Background()
	clk := newFakeClock()
	c := newManualCache[int](t, xkv.NewMemory(), WithClock(clk.Now), WithDefaultTTL(time.Minute))

	c.Set(ctx, "a", 1)
	c.SetWithTTL(ctx, "b", 2, UseDefaultTTL)
	c.SetWithTTL(ctx, "c", 3, time.Hour)

	clk.Advance(time.Minute + time.Millisecond)
	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "b")
	assert.False(t, ok)
	v, ok := c.Get(ctx, "c")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestCache_SubMillisecondTTL(t *testing.T) {
	ctx := context.Background()
	clk := newFakeClock()
	c := newManualCache[string](t, xkv.NewMemory(), WithClock(clk.Now), WithDefaultTTL(time.Hour))

	c.SetWithTTL(ctx, "soon", "v", time.Nanosecond)
	c.SetWithTTL(ctx, "default", "v", UseDefaultTTL)

	clk.Advance(2 * time.Millisecond)
	_, ok := c.Get(ctx, "soon")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "default")
	assert.True(t, ok, "0 是默认 TTL，不是立即过期")
}

func TestCache_NoExpiry(t *testing.T) {
	ctx := context.Background()
	clk := newFakeClock()

	c := newManualCache[int](t, xkv.NewMemory(), WithClock(clk.Now), WithDefaultTTL(NoTTL))
	c.Set(ctx, "a", 1)
	c.SetWithTTL(ctx, "b", 2, -time.Hour)

	clk.Advance(24 * 365 * time.Hour)
	_, ok := c.Get(ctx, "a")
	assert.True(t, ok)
	_, ok = c.Get(ctx, "b")
	assert.True(t, ok)
}

func TestCache_Delete(t *testing.T) {
	ctx := context.Background()
	store := xkv.NewMemory()
	c := newManualCache[string](t, store)

	c.Set(ctx, "k", "v")
	c.Delete(ctx, "k")
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	assert.False(t, storeHas(t, store, "LocalCache-k"))

	// 重复删除为空操作
	c.Delete(ctx, "k")
	c.Delete(ctx, "never-set")
}

func TestCache_NamespaceIsolation(t *testing.T) {
	ctx := context.Background()
	store := xkv.NewMemory()
	a := newManualCache[string](t, store, WithNamespace("a"))
	b := newManualCache[string](t, store, WithNamespace("b"))

	a.Set(ctx, "k", "from-a")
	b.Set(ctx, "k", "from-b")

	v, ok := a.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "from-a", v)
	v, ok = b.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "from-b", v)

	a.Delete(ctx, "k")
	_, ok = b.Get(ctx, "k")
	assert.True(t, ok)
}

func TestCache_UndecodableEntry(t *testing.T) {
	ctx := context.Background()
	store := xkv.NewMemory()
	logger, buf := newTestLogger(t)
	c := newManualCache[profile](t, store, WithLogger(logger))

	require.NoError(t, store.Set(ctx, "LocalCache-bad", []byte("{not json")))
	_, ok := c.Get(ctx, "bad")
	assert.False(t, ok)
	assert.False(t, storeHas(t, store, "LocalCache-bad"))
	assert.Contains(t, buf.String(), "undecodable")

	// 值类型不匹配同样视为无法解码
	require.NoError(t, store.Set(ctx, "LocalCache-typed", []byte(`{"value":"str"}`)))
	_, ok = c.Get(ctx, "typed")
	assert.False(t, ok)
	assert.False(t, storeHas(t, store, "LocalCache-typed"))
}

func TestCache_Keys(t *testing.T) {
	ctx := context.Background()
	clk := newFakeClock()
	store := xkv.NewMemory()
	c := newManualCache[int](t, store, WithClock(clk.Now), WithNamespace("ns"))

	assert.Empty(t, c.Keys(ctx))

	c.Set(ctx, "b", 1)
	c.Set(ctx, "a-1", 2)
	c.SetWithTTL(ctx, "old", 3, time.Second)
	require.NoError(t, store.Set(ctx, "other-x", []byte("{}")))
	require.NoError(t, store.Set(ctx, "nsx-y", []byte("{}")))
	require.NoError(t, store.Set(ctx, "plain", []byte("{}")))

	clk.Advance(time.Minute)
	// 未清理的过期条目仍会列出
	assert.Equal(t, []string{"a-1", "b", "old"}, c.Keys(ctx))
}

func TestCache_Close(t *testing.T) {
	ctx := context.Background()
	c, err := New[string](xkv.NewMemory(), WithCleaningInterval(10*time.Millisecond))
	require.NoError(t, err)

	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Close(), ErrClosed)

	// Close 之后读写仍可用
	c.Set(ctx, "k", "v")
	v, ok := c.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestCache_CloseDoesNotCloseStore(t *testing.T) {
	ctx := context.Background()
	store := xkv.NewMemory()
	c, err := New[string](store, WithImmediateClean(false), WithDisableCleaning(true))
	require.NoError(t, err)
	require.NoError(t, c.Close())

	require.NoError(t, store.Set(ctx, "k", []byte("v")))
}

func TestCache_StoreFailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	store := xkvmock.NewMockStore(ctrl)
	logger, buf := newTestLogger(t)
	c := newManualCache[string](t, store, WithLogger(logger))

	down := errors.New("backend down")
	store.EXPECT().Set(gomock.Any(), "LocalCache-k", gomock.Any()).Return(down)
	store.EXPECT().Get(gomock.Any(), "LocalCache-k").Return(nil, down)
	store.EXPECT().Delete(gomock.Any(), "LocalCache-k").Return(down)
	store.EXPECT().Keys(gomock.Any()).Return(nil, down)

	c.Set(ctx, "k", "v")
	v, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Empty(t, v)
	c.Delete(ctx, "k")
	assert.Nil(t, c.Keys(ctx))

	out := buf.String()
	assert.Contains(t, out, "backend down")
	assert.Contains(t, out, "xttl: set failed")
	assert.Contains(t, out, "xttl: get failed")
}

func TestCache_ExpiredDeleteFailure(t *testing.T) {
	ctx := context.Background()
	clk := newFakeClock()
	ctrl := gomock.NewController(t)
	store := xkvmock.NewMockStore(ctrl)
	c := newManualCache[string](t, store, WithClock(clk.Now))

	expired := []byte(`{"value":"v","expires":` + itoa(clk.Now().Add(-time.Second).UnixMilli()) + `}`)
	store.EXPECT().Get(gomock.Any(), "LocalCache-k").Return(expired, nil)
	store.EXPECT().Delete(gomock.Any(), "LocalCache-k").Return(errors.New("delete failed"))

	// 删除失败时依旧报告未命中
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := newManualCache[int](t, xkv.NewMemory(), WithDefaultTTL(time.Hour))

	done := make(chan struct{})
	for i := range 8 {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := range 100 {
				key := itoa(int64(j % 10))
				c.Set(ctx, key, i)
				c.Get(ctx, key)
				if j%7 == 0 {
					c.Delete(ctx, key)
				}
			}
		}()
	}
	for range 8 {
		<-done
	}
	assert.LessOrEqual(t, len(c.Keys(ctx)), 10)
}
