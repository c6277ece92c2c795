package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"excelcleaner/internal/table"
	"excelcleaner/pkg/contracts/domain"
)

// SheetData is one worksheet of an exported workbook.
type SheetData struct {
	Name   string
	Table  *table.Table
	Charts []domain.ChartConfig
}

// chartRowSpacing is how many rows apart stacked charts are anchored.
const chartRowSpacing = 20

var chartTypes = map[domain.ChartType]excelize.ChartType{
	domain.ChartBar:  excelize.Col,
	domain.ChartLine: excelize.Line,
	domain.ChartPie:  excelize.Pie,
}

// WorkbookWriter encodes tables as an xlsx workbook.
type WorkbookWriter struct {
	logger *slog.Logger
}

// NewWorkbookWriter creates a workbook writer. A nil logger uses slog.Default.
func NewWorkbookWriter(logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{logger: logger.With(slog.String("component", "workbook_writer"))}
}

// Write encodes sheets in order and writes the workbook to out. A chart
// that cannot be drawn is logged and skipped; the workbook is still
// written.
func (w *WorkbookWriter) Write(out io.Writer, sheets []SheetData) error {
	f := excelize.NewFile()
	defer f.Close()

	first := f.GetSheetName(0)
	used := make(map[string]bool, len(sheets))
	for i, s := range sheets {
		name := sheetName(s.Name, used)
		if i == 0 {
			if err := f.SetSheetName(first, name); err != nil {
				return fmt.Errorf("failed to name sheet %s: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}

		if err := writeTable(f, name, s.Table); err != nil {
			return err
		}
		if len(s.Charts) > 0 {
			w.addCharts(f, name, s.Table, s.Charts)
		}
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeTable(f *excelize.File, sheet string, t *table.Table) error {
	header := make([]interface{}, 0, t.NumCols())
	for _, name := range t.ColumnNames() {
		header = append(header, name)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", sheet, err)
	}

	cols := t.Columns()
	for i := 0; i < t.NumRows(); i++ {
		row := make([]interface{}, len(cols))
		for j, c := range cols {
			row[j] = cellValue(c.Value(i))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i, sheet, err)
		}
	}

	for j, c := range cols {
		col, err := excelize.ColumnNumberToName(j + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, columnWidth(c)); err != nil {
			return fmt.Errorf("failed to size column %s of %s: %w", col, sheet, err)
		}
	}
	return nil
}

func (w *WorkbookWriter) addCharts(f *excelize.File, sheet string, t *table.Table, charts []domain.ChartConfig) {
	if t.NumRows() == 0 {
		w.logger.Warn("charts skipped for empty sheet", slog.String("sheet", sheet))
		return
	}

	placed := 0
	for i, cfg := range charts {
		chart, err := buildChart(sheet, t, cfg)
		if err == nil {
			anchor := fmt.Sprintf("H%d", 2+placed*chartRowSpacing)
			err = f.AddChart(sheet, anchor, chart)
		}
		if err != nil {
			w.logger.Warn("chart skipped",
				slog.String("sheet", sheet),
				slog.Int("chart", i+1),
				slog.String("error", err.Error()))
			continue
		}
		placed++
	}
}

func buildChart(sheet string, t *table.Table, cfg domain.ChartConfig) (*excelize.Chart, error) {
	if problems := cfg.Problems(); len(problems) > 0 {
		return nil, fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	if missing := t.Missing(cfg.Referenced()...); len(missing) > 0 {
		return nil, fmt.Errorf("columns not found: %s", strings.Join(missing, ", "))
	}

	ref := quoteSheet(sheet)
	last := t.NumRows() + 1
	var categories string
	if cfg.X != "" {
		col, err := columnLetter(t, cfg.X)
		if err != nil {
			return nil, err
		}
		categories = fmt.Sprintf("%s!$%s$2:$%s$%d", ref, col, col, last)
	}

	chart := &excelize.Chart{
		Type:   chartTypes[cfg.ChartType],
		Format: excelize.GraphicOptions{OffsetX: 25, OffsetY: 10},
	}
	for _, y := range cfg.Series() {
		col, err := columnLetter(t, y)
		if err != nil {
			return nil, err
		}
		chart.Series = append(chart.Series, excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!$%s$1", ref, col),
			Categories: categories,
			Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", ref, col, col, last),
		})
	}
	if cfg.Title != "" {
		chart.Title = []excelize.RichTextRun{{Text: cfg.Title}}
	}
	if cfg.XLabel != "" {
		chart.XAxis.Title = []excelize.RichTextRun{{Text: cfg.XLabel}}
	}
	if cfg.YLabel != "" {
		chart.YAxis.Title = []excelize.RichTextRun{{Text: cfg.YLabel}}
	}
	return chart, nil
}

func columnLetter(t *table.Table, name string) (string, error) {
	for j, n := range t.ColumnNames() {
		if n == name {
			return excelize.ColumnNumberToName(j + 1)
		}
	}
	return "", fmt.Errorf("column not found: %s", name)
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
