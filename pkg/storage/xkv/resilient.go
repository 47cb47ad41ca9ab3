package xkv

import (
	"context"
	"errors"
	"time"

	retry "github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker/v2"
)

// =============================================================================
// 容错配置选项
// =============================================================================

// ResilientOptions 定义容错包装的配置选项。
type ResilientOptions struct {
	// Name 熔断器名称，出现在状态变化回调中。
	// 默认为 "xkv"。
	Name string

	// MaxAttempts 单次调用的最大尝试次数（含首次）。
	// 默认为 3。
	MaxAttempts uint

	// InitialDelay 首次重试前的等待时间，后续按指数退避。
	// 默认为 20ms。
	InitialDelay time.Duration

	// MaxDelay 退避等待的上限。
	// 默认为 500ms。
	MaxDelay time.Duration

	// FailureThreshold 连续失败多少次后熔断器打开。
	// 默认为 5。
	FailureThreshold uint32

	// OpenTimeout 熔断器打开后多久进入半开状态。
	// 默认为 30s。
	OpenTimeout time.Duration

	// OnStateChange 熔断器状态变化回调。
	OnStateChange func(name string, from, to gobreaker.State)
}

// ResilientOption 定义配置容错包装的函数类型。
type ResilientOption func(*ResilientOptions)

func defaultResilientOptions() *ResilientOptions {
	return &ResilientOptions{
		Name:             "xkv",
		MaxAttempts:      3,
		InitialDelay:     20 * time.Millisecond,
		MaxDelay:         500 * time.Millisecond,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

// WithBreakerName 设置熔断器名称。
func WithBreakerName(name string) ResilientOption {
	return func(o *ResilientOptions) {
		if name != "" {
			o.Name = name
		}
	}
}

// WithMaxAttempts 设置最大尝试次数。n 为 0 时忽略。
func WithMaxAttempts(n uint) ResilientOption {
	return func(o *ResilientOptions) {
		if n > 0 {
			o.MaxAttempts = n
		}
	}
}

// WithRetryDelay 设置退避的初始等待和上限。
// 非正值将被忽略。
func WithRetryDelay(initial, maxDelay time.Duration) ResilientOption {
	return func(o *ResilientOptions) {
		if initial > 0 {
			o.InitialDelay = initial
		}
		if maxDelay > 0 {
			o.MaxDelay = maxDelay
		}
	}
}

// WithFailureThreshold 设置触发熔断的连续失败次数。n 为 0 时忽略。
func WithFailureThreshold(n uint32) ResilientOption {
	return func(o *ResilientOptions) {
		if n > 0 {
			o.FailureThreshold = n
		}
	}
}

// WithOpenTimeout 设置熔断器打开状态的持续时间。
func WithOpenTimeout(d time.Duration) ResilientOption {
	return func(o *ResilientOptions) {
		if d > 0 {
			o.OpenTimeout = d
		}
	}
}

// WithStateChange 设置熔断器状态变化回调。
func WithStateChange(fn func(name string, from, to gobreaker.State)) ResilientOption {
	return func(o *ResilientOptions) {
		o.OnStateChange = fn
	}
}

// =============================================================================
// 容错包装实现
// =============================================================================

// Resilient 为 Store 增加重试与熔断。
//
// 每次尝试都经过熔断器：连续失败达到阈值后熔断器打开，
// 之后的调用直接返回 ErrUnavailable，不再访问后端。
// ErrNotFound、ErrEmptyKey、ErrInvalidKey、ErrClosed 以及 context 错误
// 不会重试，也不计入熔断失败。
type Resilient struct {
	store   Store
	options *ResilientOptions
	cb      *gobreaker.CircuitBreaker[any]
}

var _ Store = (*Resilient)(nil)

// NewResilient 用重试和熔断包装 store。
func NewResilient(store Store, opts ...ResilientOption) (*Resilient, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	options := defaultResilientOptions()
	for _, opt := range opts {
		opt(options)
	}

	threshold := options.FailureThreshold
	st := gobreaker.Settings{
		Name:        options.Name,
		MaxRequests: 1,
		Timeout:     options.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !isStoreFailure(err)
		},
	}
	if options.OnStateChange != nil {
		st.OnStateChange = options.OnStateChange
	}

	return &Resilient{
		store:   store,
		options: options,
		cb:      gobreaker.NewCircuitBreaker[any](st),
	}, nil
}

// State 返回熔断器当前状态。
func (r *Resilient) State() gobreaker.State {
	return r.cb.State()
}

// Unwrap 返回被包装的 Store。
func (r *Resilient) Unwrap() Store {
	return r.store
}

func (r *Resilient) Get(ctx context.Context, key string) ([]byte, error) {
	return run(ctx, r, func() ([]byte, error) {
		return r.store.Get(ctx, key)
	})
}

func (r *Resilient) Set(ctx context.Context, key string, value []byte) error {
	_, err := run(ctx, r, func() (struct{}, error) {
		return struct{}{}, r.store.Set(ctx, key, value)
	})
	return err
}

func (r *Resilient) Delete(ctx context.Context, key string) error {
	_, err := run(ctx, r, func() (struct{}, error) {
		return struct{}{}, r.store.Delete(ctx, key)
	})
	return err
}

func (r *Resilient) Keys(ctx context.Context) ([]string, error) {
	return run(ctx, r, func() ([]string, error) {
		return r.store.Keys(ctx)
	})
}

// Close 关闭被包装的 Store，不经过重试和熔断。
func (r *Resilient) Close() error {
	return r.store.Close()
}

// run 在熔断器保护下按退避策略重试 fn。
func run[T any](ctx context.Context, r *Resilient, fn func() (T, error)) (T, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}

	return retry.NewWithData[T](
		retry.Context(ctx),
		retry.Attempts(r.options.MaxAttempts),
		retry.Delay(r.options.InitialDelay),
		retry.MaxDelay(r.options.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return ctx.Err() == nil && isStoreFailure(err)
		}),
	).Do(func() (T, error) {
		out, err := r.cb.Execute(func() (any, error) {
			return fn()
		})
		if err != nil {
			var zero T
			return zero, breakerError(err)
		}
		v, ok := out.(T)
		if !ok {
			var zero T
			return zero, nil
		}
		return v, nil
	})
}

// breakerError 把熔断器拒绝转换为 ErrUnavailable，其余错误原样返回。
func breakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrUnavailable
	}
	return err
}

// isStoreFailure 判断 err 是否属于后端故障（可重试，计入熔断）。
func isStoreFailure(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrEmptyKey),
		errors.Is(err, ErrInvalidKey),
		errors.Is(err, ErrClosed),
		errors.Is(err, ErrUnavailable),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}
