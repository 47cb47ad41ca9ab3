package xmetrics

import (
	"context"
	"strconv"
)

// Kind 表示观测跨度类型。
//
// 缓存只有两类跨度：读写存储的调用，以及不由调用方直接触发的后台清理。
type Kind int

const (
	// KindInternal 表示缓存内部工作：立即清理、定时清理和 CleanExpired。
	// 跨度覆盖整次清理，其中对存储的读写不再单独开跨度。
	KindInternal Kind = iota
	// KindClient 表示由调用方发起、落到 xkv.Store 后端的操作（get/set/delete/keys）。
	KindClient
)

// 缓存跨度的标准属性 key。两者都是低基数，适合写入指标维度；
// 逻辑 key 等高基数值只能作为 trace 属性。
const (
	// AttrNamespace 缓存命名空间。
	AttrNamespace = "namespace"
	// AttrResult 读取结果：hit / miss / expired / invalid / error。
	AttrResult = "result"
)

// CacheMetricAttrKeys 返回缓存观测默认写入指标的属性 key，
// 与 WithMetricAttrKeys 搭配使用。
func CacheMetricAttrKeys() []string {
	return []string{AttrNamespace, AttrResult}
}

// String 返回 Kind 的可读字符串表示。
func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "Internal"
	case KindClient:
		return "Client"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Status 表示观测结果状态。
// 缓存未命中和条目过期不是错误，状态仍为 ok；结果通过 AttrResult 区分。
type Status string

const (
	// StatusOK 表示成功。
	StatusOK Status = "ok"
	// StatusError 表示失败。
	StatusError Status = "error"
)

// Attr 表示观测属性。
type Attr struct {
	Key   string
	Value any
}

// SpanOptions 定义观测跨度的创建参数。
type SpanOptions struct {
	// Component 标识组件名称。
	Component string
	// Operation 标识操作名称。
	Operation string
	// Kind 标识跨度类型。
	Kind Kind
	// Attrs 附加属性。
	Attrs []Attr
}

// Result 表示观测跨度结束时的结果。
type Result struct {
	// Status 表示操作状态；为空时根据 Err 推导。
	Status Status
	// Err 表示操作错误。
	Err error
	// Attrs 附加属性，与 SpanOptions.Attrs 同名时覆盖。
	Attrs []Attr
}

// Span 表示一次观测跨度。
type Span interface {
	// End 结束观测并记录结果。
	End(result Result)
}

// Observer 定义统一观测接口。
type Observer interface {
	// Start 开始一次观测跨度。
	Start(ctx context.Context, opts SpanOptions) (context.Context, Span)
}

// NoopObserver 是空实现。
type NoopObserver struct{}

// Start 返回 ctx 和空跨度。
func (NoopObserver) Start(ctx context.Context, _ SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx, NoopSpan{}
}

// NoopSpan 是空跨度实现。
type NoopSpan struct{}

// End 空实现。
func (NoopSpan) End(Result) {}

// Start 使用 observer 开始观测。
// 保证返回非 nil 的 context 和 Span：nil observer 或自定义 Observer 返回 nil 时兜底为 NoopSpan。
func Start(ctx context.Context, observer Observer, opts SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	if observer == nil {
		return ctx, NoopSpan{}
	}
	retCtx, span := observer.Start(ctx, opts)
	if retCtx == nil {
		retCtx = ctx
	}
	if span == nil {
		span = NoopSpan{}
	}
	return retCtx, span
}
