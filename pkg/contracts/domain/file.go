package domain

// FileMetadata summarizes a processed upload.
type FileMetadata struct {
	FileID             string                  `json:"file_id"`
	FileName           string                  `json:"file_name"`
	FileExtension      string                  `json:"file_extension"`
	FileSize           int64                   `json:"file_size"`
	SheetNames         []string                `json:"sheet_names"`
	CleaningApplied    bool                    `json:"cleaning_applied"`
	CleaningOperations []CleaningOperation     `json:"cleaning_operations"`
	Sheets             map[string]SheetSummary `json:"sheets"`
	Calculations       map[string]Calculation  `json:"calculation_results,omitempty"`
}

// SheetSummary describes one sheet after processing.
type SheetSummary struct {
	RowCount    int              `json:"row_count"`
	ColumnCount int              `json:"column_count"`
	Columns     []string         `json:"columns"`
	SampleData  []map[string]any `json:"sample_data"`
}

// CleaningOperation is one entry of a sheet's cleaning log.
type CleaningOperation struct {
	Sheet     string         `json:"sheet,omitempty"`
	Operation string         `json:"operation"`
	Details   map[string]any `json:"details"`
}

// Calculation reports how the calculation rules fared on one sheet.
type Calculation struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message"`
	ColumnsAdded []string `json:"columns_added,omitempty"`
	Error        string   `json:"error,omitempty"`
}
