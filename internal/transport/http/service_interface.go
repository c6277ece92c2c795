package http

import (
	"context"

	"excelcleaner/internal/pivot"
	"excelcleaner/internal/services"
	api "excelcleaner/pkg/contracts/api/v1"
	"excelcleaner/pkg/contracts/domain"
)

// PipelineService defines the operations the file, pivot, chart and export
// handlers need
type PipelineService interface {
	ProcessFile(ctx context.Context, in services.UploadInput) (*domain.FileMetadata, error)
	File(ctx context.Context, fileID string) (*domain.FileMetadata, error)
	Pivot(ctx context.Context, fileID, sheetName string, specs []pivot.Spec) (*api.PivotResult, error)
	ChartData(ctx context.Context, fileID, sheetName string, configs []domain.ChartConfig) (*api.ChartResult, error)
	Export(ctx context.Context, fileID string, q api.ExportQuery, req api.ExportRequest) (*services.ExportFile, error)
	ExportPreview(ctx context.Context, fileID string, q api.ExportQuery, req api.ExportRequest) (*api.ExportPreview, error)
}
