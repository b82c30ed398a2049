package telemetry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

type logExporter struct {
	mu      sync.Mutex
	records []sdklog.Record
}

func (e *logExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, rec := range records {
		e.records = append(e.records, rec.Clone())
	}
	return nil
}

func (e *logExporter) Shutdown(context.Context) error   { return nil }
func (e *logExporter) ForceFlush(context.Context) error { return nil }

// restoreGlobals puts back the providers a test replaced.
func restoreGlobals(t *testing.T) {
	tp := otel.GetTracerProvider()
	mp := otel.GetMeterProvider()
	lp := global.GetLoggerProvider()
	prop := otel.GetTextMapPropagator()

	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetMeterProvider(mp)
		global.SetLoggerProvider(lp)
		otel.SetTextMapPropagator(prop)
	})
}

func TestNewResource(t *testing.T) {
	res, err := newResource(Config{ServiceName: "strand", ServiceVersion: "1.2.3"})
	require.NoError(t, err)

	name, found := res.Set().Value(semconv.ServiceNameKey)
	require.True(t, found)
	require.Equal(t, "strand", name.AsString())

	version, found := res.Set().Value(semconv.ServiceVersionKey)
	require.True(t, found)
	require.Equal(t, "1.2.3", version.AsString())
}

func TestInstall(t *testing.T) {
	restoreGlobals(t)

	res, err := newResource(Config{ServiceName: "strand-test"})
	require.NoError(t, err)

	spans := tracetest.NewInMemoryExporter()
	reader := sdkmetric.NewManualReader()
	logs := &logExporter{}

	shutdown := install(res, exporters{span: spans, metric: reader, log: logs}, false)

	ctx, span := otel.Tracer("test").Start(context.Background(), "work")
	counter, err := otel.Meter("test").Int64Counter("work.done")
	require.NoError(t, err)
	counter.Add(ctx, 2)
	otelslog.NewLogger("test").InfoContext(ctx, "working")
	span.End()

	require.Len(t, spans.GetSpans(), 1)
	got := spans.GetSpans()[0]
	require.Equal(t, "work", got.Name)
	name, _ := got.Resource.Set().Value(semconv.ServiceNameKey)
	require.Equal(t, "strand-test", name.AsString())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	sum, ok := rm.ScopeMetrics[0].Metrics[0].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Equal(t, int64(2), sum.DataPoints[0].Value)

	logs.mu.Lock()
	require.Len(t, logs.records, 1)
	require.Equal(t, "working", logs.records[0].Body().AsString())
	require.Equal(t, got.SpanContext.TraceID(), logs.records[0].TraceID())
	logs.mu.Unlock()

	require.ElementsMatch(t, []string{"traceparent", "tracestate", "baggage"}, otel.GetTextMapPropagator().Fields())

	require.NoError(t, shutdown(context.Background()))
}

func TestSetup(t *testing.T) {
	restoreGlobals(t)

	shutdown, err := Setup(context.Background(), Config{
		ServiceName:    "strand-test",
		Endpoint:       "127.0.0.1:4317",
		Insecure:       true,
		MetricInterval: time.Hour,
	})
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	// Nothing listens on the endpoint, so only the shutdown path is exercised.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = shutdown(ctx)
}
