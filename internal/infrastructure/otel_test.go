package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"

	"excelcleaner/internal/config"
	apierrors "excelcleaner/internal/errors"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitializeOTelWithPrometheus(t *testing.T) {
	cfg := OTelConfigFrom(config.Default().Telemetry, "test")
	providers, err := InitializeOTel(cfg, discardLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	assert.Nil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)
	require.NotNil(t, providers.MeterProvider)
	require.NotNil(t, providers.PrometheusHTTP)

	metrics, err := NewPipelineMetrics(providers.Meter)
	require.NoError(t, err)
	ctx := context.Background()
	metrics.RecordRun(ctx, "process", nil)
	metrics.RecordStage(ctx, "clean", 15*time.Millisecond, nil)
	metrics.RecordStage(ctx, "calculate", time.Millisecond, apierrors.NewComputationError("boom", nil))
	metrics.RecordRows(ctx, "clean", 12)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "pipeline_runs_total")
	assert.Contains(t, body, "pipeline_stage_duration_seconds")
	assert.Contains(t, body, "pipeline_errors_total")
	assert.Contains(t, body, "go_goroutines")
}

func TestInitializeOTelWithTracing(t *testing.T) {
	cfg := &OTelConfig{
		ServiceName:   "test",
		EnableTracing: true,
		TraceExporter: "stdout",
		SampleRatio:   1,
	}
	providers, err := InitializeOTel(cfg, discardLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	require.NotNil(t, providers.TracerProvider)
	ctx, span := providers.Tracer.Start(context.Background(), "unit")
	defer span.End()

	assert.True(t, span.SpanContext().IsValid())
	assert.True(t, span.IsRecording())
	RecordError(ctx, errors.New("failed"))
	AddSpanEvent(ctx, "event", attribute.Int("rows", 3), attribute.String("sheet", "Sales"))
}

func TestInitializeOTelRejectsUnknownExporter(t *testing.T) {
	_, err := InitializeOTel(&OTelConfig{EnableTracing: true, TraceExporter: "zipkin"}, discardLogger())
	assert.Error(t, err)

	_, err = InitializeOTel(&OTelConfig{EnableMetrics: true, MetricExporter: "statsd"}, discardLogger())
	assert.Error(t, err)
}

func TestNoopProviders(t *testing.T) {
	providers := NoopProviders(discardLogger())
	metrics, err := NewPipelineMetrics(providers.Meter)
	require.NoError(t, err)

	metrics.RecordStage(context.Background(), "read", time.Second, nil)
	assert.NoError(t, providers.Shutdown(context.Background()))

	var nilMetrics *PipelineMetrics
	nilMetrics.RecordRun(context.Background(), "process", nil)
}

func TestErrorType(t *testing.T) {
	assert.Equal(t, "VALIDATION", ErrorType(apierrors.NewAppValidationError("bad")))
	assert.Equal(t, "CANCELLED", ErrorType(context.Canceled))
	assert.Equal(t, "INTERNAL", ErrorType(errors.New("other")))
}

func TestRegisterGaugeAndSystemStats(t *testing.T) {
	cfg := OTelConfigFrom(config.Default().Telemetry, "test")
	providers, err := InitializeOTel(cfg, discardLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	require.NoError(t, RegisterGauge(providers.Meter, "cache_entries", "Entries in cache", func() int64 { return 7 }))

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "cache_entries")

	stats := CollectSystemStats(time.Now().Add(-time.Minute))
	assert.Positive(t, stats.GoRoutines)
	assert.GreaterOrEqual(t, stats.Uptime, time.Minute)
	assert.Contains(t, stats.FormatStats(), "uptime_seconds")
}
