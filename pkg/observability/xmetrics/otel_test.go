package xmetrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newTestProviders(t *testing.T) (*tracetest.InMemoryExporter, *sdkmetric.ManualReader, []Option) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})
	return exporter, reader, []Option{WithTracerProvider(tp), WithMeterProvider(mp)}
}

// collectTotals 返回 xttl.operation.total 的数据点。
func collectTotals(t *testing.T, reader *sdkmetric.ManualReader) []metricdata.DataPoint[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != metricOperationTotal {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			return sum.DataPoints
		}
	}
	return nil
}

func TestNewOTelObserver_Default(t *testing.T) {
	obs, err := NewOTelObserver(WithInstrumentationName(""), WithTracerProvider(nil), WithMeterProvider(nil), nil)
	require.NoError(t, err)
	require.NotNil(t, obs)
}

func TestOTelObserver_SpanAndMetrics(t *testing.T) {
	exporter, reader, opts := newTestProviders(t)
	obs, err := NewOTelObserver(append(opts, WithMetricAttrKeys("namespace", "result", "namespace", ""))...)
	require.NoError(t, err)

	ctx, span := obs.Start(context.Background(), SpanOptions{
		Component: "xttl",
		Operation: "get",
		Kind:      KindClient,
		Attrs:     []Attr{String("namespace", "LocalCache"), String("key", "user-1")},
	})
	assert.True(t, trace.SpanFromContext(ctx).SpanContext().IsValid())
	span.End(Result{Attrs: []Attr{String("result", "hit")}})
	span.End(Result{Err: errors.New("ignored")})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "xttl.get", spans[0].Name)
	assert.Equal(t, trace.SpanKindClient, spans[0].SpanKind)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
	assert.Contains(t, spans[0].Attributes, attribute.String("key", "user-1"))
	assert.Contains(t, spans[0].Attributes, attribute.String("result", "hit"))

	points := collectTotals(t, reader)
	require.Len(t, points, 1)
	assert.Equal(t, int64(1), points[0].Value)

	set := points[0].Attributes
	v, ok := set.Value("namespace")
	require.True(t, ok)
	assert.Equal(t, "LocalCache", v.AsString())
	v, ok = set.Value("result")
	require.True(t, ok)
	assert.Equal(t, "hit", v.AsString())
	v, ok = set.Value("status")
	require.True(t, ok)
	assert.Equal(t, "ok", v.AsString())
	_, ok = set.Value("key")
	assert.False(t, ok, "key must not become a metric dimension")
}

func TestOTelObserver_ErrorResult(t *testing.T) {
	exporter, reader, opts := newTestProviders(t)
	obs, err := NewOTelObserver(opts...)
	require.NoError(t, err)

	_, span := obs.Start(context.Background(), SpanOptions{Operation: "sweep"})
	span.End(Result{Err: errors.New("store down")})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "unknown.sweep", spans[0].Name)
	assert.Equal(t, trace.SpanKindInternal, spans[0].SpanKind)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "store down", spans[0].Status.Description)
	require.Len(t, spans[0].Events, 1)

	points := collectTotals(t, reader)
	require.Len(t, points, 1)
	v, _ := points[0].Attributes.Value("status")
	assert.Equal(t, "error", v.AsString())
}

func TestOTelObserver_ExplicitErrorStatus(t *testing.T) {
	exporter, _, opts := newTestProviders(t)
	obs, err := NewOTelObserver(opts...)
	require.NoError(t, err)

	_, span := obs.Start(context.Background(), SpanOptions{Component: "xttl", Operation: "set"})
	span.End(Result{Status: StatusError})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "operation failed", spans[0].Status.Description)
}

func TestToKeyValue(t *testing.T) {
	assert.Equal(t, attribute.Int64("d", int64(time.Second)), toKeyValue(Duration("d", time.Second)))
	assert.Equal(t, attribute.Float64("f", 1.5), toKeyValue(Attr{Key: "f", Value: 1.5}))
	assert.Equal(t, attribute.String("s", "[1 2]"), toKeyValue(Attr{Key: "s", Value: []int{1, 2}}))
	assert.Nil(t, attrsToOTel(nil))
	assert.Empty(t, attrsToOTel([]Attr{{Key: "", Value: 1}, {Key: "nil"}}))
}
