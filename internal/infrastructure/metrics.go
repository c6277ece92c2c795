package infrastructure

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	apierrors "excelcleaner/internal/errors"
)

// PipelineMetrics are the instruments shared by the pipeline service and
// the HTTP middleware. A nil *PipelineMetrics records nothing.
type PipelineMetrics struct {
	RunsTotal     metric.Int64Counter
	StageDuration metric.Float64Histogram
	ErrorsTotal   metric.Int64Counter
	RowsProcessed metric.Int64Counter

	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter
}

// NewPipelineMetrics creates every instrument on meter
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	var m PipelineMetrics
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.RunsTotal, "pipeline_runs_total", "Pipeline operations run"},
		{&m.ErrorsTotal, "pipeline_errors_total", "Pipeline stage failures"},
		{&m.RowsProcessed, "pipeline_rows_processed_total", "Table rows produced by pipeline stages"},
		{&m.HTTPRequestsTotal, "http_requests_total", "HTTP requests served"},
	}
	for _, c := range counters {
		inst, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, err
		}
		*c.dst = inst
	}

	histograms := []struct {
		dst  *metric.Float64Histogram
		name string
		desc string
	}{
		{&m.StageDuration, "pipeline_stage_duration_seconds", "Pipeline stage duration"},
		{&m.HTTPRequestDuration, "http_request_duration_seconds", "HTTP request duration"},
	}
	for _, h := range histograms {
		inst, err := meter.Float64Histogram(h.name, metric.WithDescription(h.desc), metric.WithUnit("s"))
		if err != nil {
			return nil, err
		}
		*h.dst = inst
	}

	active, err := meter.Int64UpDownCounter("http_active_requests", metric.WithDescription("HTTP requests in flight"))
	if err != nil {
		return nil, err
	}
	m.HTTPActiveRequests = active

	return &m, nil
}

// RecordStage records how long a stage took and counts a failure when err
// is set.
func (m *PipelineMetrics) RecordStage(ctx context.Context, stage string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	stageAttr := attribute.String("stage", stage)
	m.StageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(stageAttr, statusAttr(err)))
	if err != nil {
		m.ErrorsTotal.Add(ctx, 1, metric.WithAttributes(stageAttr, attribute.String("error.type", ErrorType(err))))
	}
}

// RecordRun counts one top level operation: process, pivot, chart or export
func (m *PipelineMetrics) RecordRun(ctx context.Context, operation string, err error) {
	if m == nil {
		return
	}
	m.RunsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation), statusAttr(err)))
}

// RecordRows counts rows a stage produced
func (m *PipelineMetrics) RecordRows(ctx context.Context, stage string, rows int) {
	if m == nil || rows <= 0 {
		return
	}
	m.RowsProcessed.Add(ctx, int64(rows), metric.WithAttributes(attribute.String("stage", stage)))
}

func statusAttr(err error) attribute.KeyValue {
	if err != nil {
		return attribute.String("status", "failure")
	}
	return attribute.String("status", "success")
}

// ErrorType is the error.type attribute value for err: the AppError type,
// CANCELLED for context errors, or INTERNAL.
func ErrorType(err error) string {
	if appErr, ok := apierrors.AsAppError(err); ok {
		return string(appErr.Type)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "CANCELLED"
	}
	return "INTERNAL"
}
