// Package api contains the request and response contracts of the
// excelcleaner HTTP API. Version v1 is served under /api/v1.
package api

import (
	"bytes"
	"encoding/json"

	"excelcleaner/internal/calculation"
	"excelcleaner/internal/cleaning"
	"excelcleaner/internal/pivot"
	"excelcleaner/pkg/contracts/domain"
)

// Export formats accepted by the export endpoints.
const (
	FormatExcel = "excel"
	FormatCSV   = "csv"
	FormatPDF   = "pdf"
)

// UploadOptions is the optional "options" form field of POST /files.
type UploadOptions struct {
	CleaningOptions *cleaning.Options  `json:"cleaning_options,omitempty"`
	Calculations    []calculation.Rule `json:"calculations,omitempty" validate:"omitempty,max=100"`
}

// ExportRequest is the optional body of POST /export/{fileID}; charts are
// keyed by sheet name. Chart configs are checked when the workbook is drawn
// and a bad one is skipped rather than failing the export.
type ExportRequest struct {
	Charts map[string][]domain.ChartConfig `json:"charts,omitempty" validate:"omitempty,dive,keys,required,endkeys"`
}

// ExportQuery holds the query parameters of the export endpoints.
type ExportQuery struct {
	Format        string `json:"format" validate:"required,oneof=excel csv pdf"`
	SheetName     string `json:"sheet_name,omitempty" validate:"omitempty,max=255"`
	IncludeCharts bool   `json:"include_charts"`
}

// PivotRequest is the body of POST /pivot/{fileID}: a JSON array of pivot
// specs, or an object carrying them under "configs". Each spec is checked
// on its own and reported in the result.
type PivotRequest struct {
	Configs []pivot.Spec `json:"configs" validate:"required,min=1,max=50"`
}

// UnmarshalJSON accepts the bare array form.
func (p *PivotRequest) UnmarshalJSON(data []byte) error {
	type plain PivotRequest
	return decodeList(data, &p.Configs, (*plain)(p))
}

// ChartRequest is the body of POST /chart/{fileID}, shaped like PivotRequest.
type ChartRequest struct {
	Configs []domain.ChartConfig `json:"configs" validate:"required,min=1,max=50"`
}

// UnmarshalJSON accepts the bare array form.
func (c *ChartRequest) UnmarshalJSON(data []byte) error {
	type plain ChartRequest
	return decodeList(data, &c.Configs, (*plain)(c))
}

func decodeList(data []byte, list, obj any) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, list)
	}
	return json.Unmarshal(data, obj)
}
