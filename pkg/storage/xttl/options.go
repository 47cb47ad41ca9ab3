package xttl

import (
	"time"

	"github.com/omeyang/xttl/pkg/observability/xlog"
	"github.com/omeyang/xttl/pkg/observability/xmetrics"
)

// 默认配置
const (
	// DefaultNamespace 默认命名空间。
	DefaultNamespace = "LocalCache"

	// DefaultTTL 默认条目存活时间。
	DefaultTTL = 15 * time.Minute

	// DefaultCleaningInterval 默认定时清理间隔。
	DefaultCleaningInterval = time.Minute

	// DefaultSweepConcurrency 单次清理中并发检查的最大 key 数。
	DefaultSweepConcurrency = 64
)

// SetWithTTL 的特殊 ttl 取值
const (
	// UseDefaultTTL 使用实例的默认 TTL。
	UseDefaultTTL time.Duration = 0

	// NoTTL 条目永不过期。任何负值效果相同。
	NoTTL time.Duration = -1
)

// Options 定义缓存的配置选项。
type Options struct {
	// Namespace 命名空间，非空且不能包含 "-"。
	// 默认为 "LocalCache"。
	Namespace string

	// DefaultTTL Set 以及 SetWithTTL(UseDefaultTTL) 使用的存活时间。
	// 小于等于 0 表示永不过期。
	// 默认为 15 分钟。
	DefaultTTL time.Duration

	// CleaningInterval 定时清理间隔，支持亚秒级。
	// 默认为 1 分钟。
	CleaningInterval time.Duration

	// CleaningSchedule 标准 5 段 cron 表达式（如 "*/5 * * * *"）。
	// 非空时替代 CleaningInterval。
	CleaningSchedule string

	// DisableCleaning 关闭定时清理。
	DisableCleaning bool

	// ImmediateClean New 时在后台立即执行一次清理。
	// 默认为 true。
	ImmediateClean bool

	// SweepConcurrency 单次清理的并发度。
	// 默认为 64。
	SweepConcurrency int

	// Codec 条目编解码器。
	// 默认为 JSONCodec。
	Codec Codec

	// Logger 日志器。
	// 默认为 xlog.Default()。
	Logger xlog.Logger

	// Observer 观测器。
	// 默认为 xmetrics.NoopObserver。
	Observer xmetrics.Observer

	// Clock 返回当前时间，用于计算和判断过期。
	// 默认为 time.Now。
	Clock func() time.Time
}

// Option 定义配置缓存的函数类型。
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		Namespace:        DefaultNamespace,
		DefaultTTL:       DefaultTTL,
		CleaningInterval: DefaultCleaningInterval,
		ImmediateClean:   true,
		SweepConcurrency: DefaultSweepConcurrency,
		Codec:            JSONCodec{},
		Observer:         xmetrics.NoopObserver{},
		Clock:            time.Now,
	}
}

// WithNamespace 设置命名空间。非法值由 New 报告 ErrInvalidNamespace。
func WithNamespace(ns string) Option {
	return func(o *Options) {
		o.Namespace = ns
	}
}

// WithDefaultTTL 设置默认存活时间，d <= 0 表示默认永不过期。
func WithDefaultTTL(d time.Duration) Option {
	return func(o *Options) {
		o.DefaultTTL = d
	}
}

// WithCleaningInterval 设置定时清理间隔。
// 如果 d <= 0，将忽略此设置并使用默认值。
func WithCleaningInterval(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.CleaningInterval = d
		}
	}
}

// WithCleaningSchedule 使用标准 cron 表达式安排定时清理。
func WithCleaningSchedule(spec string) Option {
	return func(o *Options) {
		o.CleaningSchedule = spec
	}
}

// WithDisableCleaning 设置是否关闭定时清理。
func WithDisableCleaning(disable bool) Option {
	return func(o *Options) {
		o.DisableCleaning = disable
	}
}

// WithImmediateClean 设置 New 时是否立即清理一次。
func WithImmediateClean(enable bool) Option {
	return func(o *Options) {
		o.ImmediateClean = enable
	}
}

// WithSweepConcurrency 设置清理并发度。n <= 0 时忽略。
func WithSweepConcurrency(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.SweepConcurrency = n
		}
	}
}

// WithCodec 设置条目编解码器。nil 时忽略。
func WithCodec(c Codec) Option {
	return func(o *Options) {
		if c != nil {
			o.Codec = c
		}
	}
}

// WithLogger 设置日志器。nil 时忽略。
func WithLogger(l xlog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithObserver 设置观测器。nil 时忽略。
func WithObserver(obs xmetrics.Observer) Option {
	return func(o *Options) {
		if obs != nil {
			o.Observer = obs
		}
	}
}

// WithClock 设置时钟。nil 时忽略。
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		if now != nil {
			o.Clock = now
		}
	}
}
