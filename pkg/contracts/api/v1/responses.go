package api

import (
	"excelcleaner/internal/pivot"
	"excelcleaner/internal/serialize"
	"excelcleaner/pkg/contracts/domain"
)

// AllSheets is reported as the sheet name when a request covered every sheet.
const AllSheets = "all"

// Response is the envelope of every successful JSON response.
type Response[T any] struct {
	Success          bool    `json:"success"`
	Message          string  `json:"message"`
	Data             T       `json:"data"`
	ProcessingTimeMs float64 `json:"processing_time_ms,omitempty"`
}

// OK wraps data in a successful envelope.
func OK[T any](message string, data T) Response[T] {
	return Response[T]{Success: true, Message: message, Data: data}
}

// PivotTable is the outcome of one pivot spec on one sheet. A spec that
// fails is reported here with Success false; it does not fail the request.
type PivotTable struct {
	Name    string               `json:"name"`
	Success bool                 `json:"success"`
	Data    *serialize.Structure `json:"data,omitempty"`
	Config  *pivot.Spec          `json:"config,omitempty"`
	Error   string               `json:"error,omitempty"`
	Message string               `json:"message,omitempty"`
}

// PivotResult groups pivot outcomes per sheet.
type PivotResult struct {
	FileID      string                  `json:"file_id"`
	PivotTables map[string][]PivotTable `json:"pivot_tables"`
	SheetName   string                  `json:"sheet_name"`
}

// Series is one plotted value column.
type Series struct {
	Name   string `json:"name"`
	Values []any  `json:"values"`
}

// Chart is the resolved data of one chart config on one sheet.
type Chart struct {
	Name       string             `json:"name"`
	Type       domain.ChartType   `json:"type"`
	Success    bool               `json:"success"`
	Config     domain.ChartConfig `json:"config"`
	Categories []any              `json:"categories,omitempty"`
	Series     []Series           `json:"series,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// ChartResult groups chart outcomes per sheet.
type ChartResult struct {
	FileID    string             `json:"file_id"`
	Charts    map[string][]Chart `json:"charts"`
	SheetName string             `json:"sheet_name"`
}

// ChartSummary names a chart that an export would draw.
type ChartSummary struct {
	Type  domain.ChartType `json:"type"`
	Title string           `json:"title"`
}

// ExportSheet describes one sheet of an export preview.
type ExportSheet struct {
	Name        string         `json:"name"`
	Rows        int            `json:"rows"`
	Columns     int            `json:"columns"`
	ColumnsList []string       `json:"columns_list"`
	Charts      []ChartSummary `json:"charts,omitempty"`
}

// ExportPreview describes what an export would contain without producing it.
type ExportPreview struct {
	FileID       string        `json:"file_id"`
	Format       string        `json:"format"`
	FileName     string        `json:"file_name"`
	Sheets       []ExportSheet `json:"sheets"`
	TotalRows    int           `json:"total_rows"`
	TotalColumns int           `json:"total_columns"`
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Version   string         `json:"version"`
	Runtime   map[string]any `json:"runtime,omitempty"`
	Checks    map[string]any `json:"checks,omitempty"`
}
