// Package xmetrics 提供统一的可观测性接口（metrics + tracing）。
//
// # 设计理念
//
// xmetrics 仅定义最小化接口：Observer/Span/Attr，
// 业务代码只依赖接口；具体实现可替换。
// 默认实现基于 OpenTelemetry，兼容主流可观测栈。
//
// # 使用示例
//
//	obs, _ := xmetrics.NewOTelObserver(xmetrics.WithMetricAttrKeys("namespace", "result"))
//	ctx, span := xmetrics.Start(ctx, obs, xmetrics.SpanOptions{
//		Component: "xttl",
//		Operation: "get",
//		Kind:      xmetrics.KindClient,
//	})
//	defer span.End(xmetrics.Result{Err: err})
//
// # 指标命名
//
// 统一指标：
//   - xttl.operation.total
//   - xttl.operation.duration
//
// 统一属性：component / operation / status。
// 通过 WithMetricAttrKeys 声明的低基数属性（如 namespace、result）也会写入指标；
// 其余属性只出现在 trace 上，避免 key 等高基数值进入指标维度。
package xmetrics
