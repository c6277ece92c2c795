package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"excelcleaner/internal/dataprocessing"
	apierrors "excelcleaner/internal/errors"
	"excelcleaner/internal/exporter"
	api "excelcleaner/pkg/contracts/api/v1"
)

// Media types of exported files.
const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeCSV  = "text/csv; charset=utf-8"
)

var extensions = map[string]string{
	api.FormatExcel: "xlsx",
	api.FormatCSV:   "csv",
	api.FormatPDF:   "pdf",
}

// ExportFile is an encoded export ready to be sent.
type ExportFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

// Export encodes the cached sheets of fileID. Excel exports hold one
// worksheet per sheet and, when q.IncludeCharts is set, the charts of req.
// Csv exports hold a single sheet. Pdf is not produced here.
func (s *PipelineService) Export(ctx context.Context, fileID string, q api.ExportQuery, req api.ExportRequest) (_ *ExportFile, err error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.export", trace.WithAttributes(
		attribute.String("file.id", fileID),
		attribute.String("export.format", q.Format),
	))
	defer func() {
		s.finish(ctx, span, "export", err)
	}()

	sheets, err := s.sheets(fileID, q.SheetName)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var buf bytes.Buffer
	out := &ExportFile{FileName: exportFileName(fileID, q.Format, start)}

	switch q.Format {
	case api.FormatExcel:
		out.ContentType = ContentTypeXLSX
		err = s.workbook.Write(&buf, workbookSheets(sheets, q, req))
	case api.FormatCSV:
		out.ContentType = ContentTypeCSV
		err = writeCSV(&buf, sheets)
	case api.FormatPDF:
		err = apierrors.NewAppValidationError("Unsupported export format",
			apierrors.Violation("format", "PDF export is not available; use excel or csv"))
	default:
		err = apierrors.NewAppValidationError("Unsupported export format",
			apierrors.Violation("format", fmt.Sprintf("Unsupported export format: %s", q.Format)))
	}
	s.metrics.RecordStage(ctx, "export", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	out.Content = buf.Bytes()
	span.SetAttributes(attribute.Int("export.bytes", len(out.Content)))
	s.logger.InfoContext(ctx, "file exported",
		slog.String("file_id", fileID),
		slog.String("format", q.Format),
		slog.Int("sheets", len(sheets)),
		slog.Int("bytes", len(out.Content)))
	return out, nil
}

// ExportPreview reports which sheets, sizes and charts an export with the
// same arguments would contain.
func (s *PipelineService) ExportPreview(ctx context.Context, fileID string, q api.ExportQuery, req api.ExportRequest) (*api.ExportPreview, error) {
	sheets, err := s.sheets(fileID, q.SheetName)
	if err != nil {
		return nil, err
	}

	preview := &api.ExportPreview{
		FileID:   fileID,
		Format:   q.Format,
		FileName: exportFileName(fileID, q.Format, time.Now()),
		Sheets:   make([]api.ExportSheet, 0, len(sheets)),
	}
	for _, sheet := range sheets {
		t := sheet.Table
		es := api.ExportSheet{
			Name:        sheet.Name,
			Rows:        t.NumRows(),
			Columns:     t.NumCols(),
			ColumnsList: t.ColumnNames(),
		}
		if q.IncludeCharts {
			for _, cfg := range req.Charts[sheet.Name] {
				es.Charts = append(es.Charts, api.ChartSummary{Type: cfg.ChartType, Title: cfg.Title})
			}
		}
		preview.TotalRows += es.Rows
		preview.TotalColumns = max(preview.TotalColumns, es.Columns)
		preview.Sheets = append(preview.Sheets, es)
	}

	s.logger.DebugContext(ctx, "export previewed",
		slog.String("file_id", fileID),
		slog.String("format", q.Format),
		slog.Int("sheets", len(sheets)))
	return preview, nil
}

func workbookSheets(sheets []dataprocessing.Sheet, q api.ExportQuery, req api.ExportRequest) []exporter.SheetData {
	out := make([]exporter.SheetData, len(sheets))
	for i, sheet := range sheets {
		out[i] = exporter.SheetData{Name: sheet.Name, Table: sheet.Table}
		if q.IncludeCharts {
			out[i].Charts = req.Charts[sheet.Name]
		}
	}
	return out
}

func writeCSV(buf *bytes.Buffer, sheets []dataprocessing.Sheet) error {
	if len(sheets) != 1 {
		names := make([]string, len(sheets))
		for i, s := range sheets {
			names[i] = s.Name
		}
		return apierrors.NewAppValidationError("Csv export needs a single sheet",
			apierrors.Violation("sheet_name", fmt.Sprintf("Choose one of: %s", strings.Join(names, ", "))))
	}
	return exporter.WriteCSV(buf, sheets[0].Table, exporter.CSVOptions{BOMPrefix: true})
}

func exportFileName(fileID, format string, at time.Time) string {
	ext, ok := extensions[format]
	if !ok {
		ext = format
	}
	return fmt.Sprintf("export_%s_%s.%s", fileID, at.Format("20060102_150405"), ext)
}
