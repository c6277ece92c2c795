package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"excelcleaner/internal/dataprocessing"
	apierrors "excelcleaner/internal/errors"
	"excelcleaner/internal/pivot"
	"excelcleaner/internal/serialize"
	"excelcleaner/internal/table"
	api "excelcleaner/pkg/contracts/api/v1"
	"excelcleaner/pkg/contracts/domain"
)

// Pivot runs every spec against the named sheet, or every sheet when
// sheetName is empty. A failing spec is reported in its entry; only an
// unknown file or sheet fails the call.
func (s *PipelineService) Pivot(ctx context.Context, fileID, sheetName string, specs []pivot.Spec) (_ *api.PivotResult, err error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.pivot", trace.WithAttributes(
		attribute.String("file.id", fileID),
		attribute.Int("pivot.specs", len(specs)),
	))
	defer func() {
		s.finish(ctx, span, "pivot", err)
	}()

	sheets, err := s.sheets(fileID, sheetName)
	if err != nil {
		return nil, err
	}

	result := &api.PivotResult{
		FileID:      fileID,
		PivotTables: make(map[string][]api.PivotTable, len(sheets)),
		SheetName:   sheetLabel(sheetName),
	}
	failed := 0
	for _, sheet := range sheets {
		tables := make([]api.PivotTable, 0, len(specs))
		for i, spec := range specs {
			pt := s.pivotOne(ctx, sheet, spec)
			pt.Name = fmt.Sprintf("pivot_%d", i+1)
			if !pt.Success {
				failed++
			}
			tables = append(tables, pt)
		}
		result.PivotTables[sheet.Name] = tables
	}

	span.SetAttributes(attribute.Int("pivot.failed", failed))
	s.logger.InfoContext(ctx, "pivot tables generated",
		slog.String("file_id", fileID),
		slog.Int("sheets", len(sheets)),
		slog.Int("specs", len(specs)),
		slog.Int("failed", failed))
	return result, nil
}

func (s *PipelineService) pivotOne(ctx context.Context, sheet dataprocessing.Sheet, spec pivot.Spec) api.PivotTable {
	pt := api.PivotTable{Config: &spec}

	err := spec.Validate()
	if err == nil {
		start := time.Now()
		var res *pivot.Result
		res, err = pivot.Create(sheet.Table, spec)
		s.metrics.RecordStage(ctx, "pivot", time.Since(start), err)
		if err == nil {
			data := serialize.FromPivot(res)
			pt.Success = true
			pt.Data = &data
			s.metrics.RecordRows(ctx, "pivot", res.Table.NumRows())
			return pt
		}
	}

	pt.Error, pt.Message = failure(err, "Invalid pivot configuration")
	s.logger.DebugContext(ctx, "pivot spec failed",
		slog.String("sheet", sheet.Name),
		slog.String("error", err.Error()))
	return pt
}

// ChartData resolves every chart config against the named sheet, or
// every sheet when sheetName is empty, and returns the category and
// series values a renderer needs. Drawing is left to the caller.
func (s *PipelineService) ChartData(ctx context.Context, fileID, sheetName string, configs []domain.ChartConfig) (_ *api.ChartResult, err error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.chart", trace.WithAttributes(
		attribute.String("file.id", fileID),
		attribute.Int("chart.configs", len(configs)),
	))
	defer func() {
		s.finish(ctx, span, "chart", err)
	}()

	sheets, err := s.sheets(fileID, sheetName)
	if err != nil {
		return nil, err
	}

	result := &api.ChartResult{
		FileID:    fileID,
		Charts:    make(map[string][]api.Chart, len(sheets)),
		SheetName: sheetLabel(sheetName),
	}
	for _, sheet := range sheets {
		charts := make([]api.Chart, 0, len(configs))
		for i, cfg := range configs {
			chart := resolveChart(sheet.Table, cfg)
			chart.Name = fmt.Sprintf("chart_%d", i+1)
			charts = append(charts, chart)
		}
		result.Charts[sheet.Name] = charts
	}

	s.logger.InfoContext(ctx, "chart data resolved",
		slog.String("file_id", fileID),
		slog.Int("sheets", len(sheets)),
		slog.Int("charts", len(configs)))
	return result, nil
}

func resolveChart(t *table.Table, cfg domain.ChartConfig) api.Chart {
	chart := api.Chart{Type: cfg.ChartType, Config: cfg}

	if problems := cfg.Problems(); len(problems) > 0 {
		chart.Error = strings.Join(problems, "; ")
		return chart
	}
	if missing := t.Missing(cfg.Referenced()...); len(missing) > 0 {
		msgs := make([]string, len(missing))
		for i, name := range missing {
			msgs[i] = fmt.Sprintf("Column '%s' not found", name)
		}
		chart.Error = strings.Join(msgs, "; ")
		return chart
	}

	if cfg.X != "" {
		x, _ := t.Column(cfg.X)
		chart.Categories = cells(x)
	}
	for _, name := range cfg.Series() {
		col, _ := t.Column(name)
		chart.Series = append(chart.Series, api.Series{Name: name, Values: numbers(col)})
	}
	chart.Success = true
	return chart
}

func cells(c *table.Column) []any {
	out := make([]any, c.Len())
	for i := range out {
		out[i] = serialize.Cell(c.Value(i))
	}
	return out
}

// numbers coerces a value column for plotting; cells that are not
// numeric become null.
func numbers(c *table.Column) []any {
	out := make([]any, c.Len())
	for i := range out {
		if f, ok := c.Value(i).Float(); ok && !math.IsNaN(f) && !math.IsInf(f, 0) {
			out[i] = f
		}
	}
	return out
}

// sheets looks up a file and selects the requested sheets from it.
func (s *PipelineService) sheets(fileID, sheetName string) ([]dataprocessing.Sheet, error) {
	file, err := s.lookup(fileID)
	if err != nil {
		return nil, err
	}
	return file.Select(sheetName)
}

func sheetLabel(name string) string {
	if name == "" {
		return api.AllSheets
	}
	return name
}

// failure splits err into the short error and the longer message reported
// for a failed item.
func failure(err error, fallback string) (string, string) {
	if appErr, ok := apierrors.AsAppError(err); ok {
		return appErr.Message, appErr.Detail()
	}
	return fallback, err.Error()
}
