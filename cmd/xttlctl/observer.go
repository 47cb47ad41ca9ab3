package main

import (
	"context"
	"sync"

	"github.com/omeyang/xttl/pkg/observability/xmetrics"
)

// failureObserver 记录操作中出现的第一个存储错误。
// 缓存 API 不返回存储错误，命令行通过它把错误转换为退出码。
type failureObserver struct {
	next xmetrics.Observer

	mu  sync.Mutex
	err error
}

func newFailureObserver(next xmetrics.Observer) *failureObserver {
	if next == nil {
		next = xmetrics.NoopObserver{}
	}
	return &failureObserver{next: next}
}

func (o *failureObserver) Start(ctx context.Context, opts xmetrics.SpanOptions) (context.Context, xmetrics.Span) {
	ctx, span := xmetrics.Start(ctx, o.next, opts)
	return ctx, &failureSpan{next: span, observer: o}
}

// Err 返回记录到的第一个错误。
func (o *failureObserver) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

func (o *failureObserver) record(err error) {
	o.mu.Lock()
	if o.err == nil {
		o.err = err
	}
	o.mu.Unlock()
}

type failureSpan struct {
	next     xmetrics.Span
	observer *failureObserver
}

func (s *failureSpan) End(result xmetrics.Result) {
	if result.Err != nil {
		s.observer.record(result.Err)
	}
	s.next.End(result)
}
