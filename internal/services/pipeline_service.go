package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"excelcleaner/internal/cache"
	"excelcleaner/internal/calculation"
	"excelcleaner/internal/cleaning"
	"excelcleaner/internal/dataprocessing"
	apierrors "excelcleaner/internal/errors"
	"excelcleaner/internal/exporter"
	"excelcleaner/internal/infrastructure"
	"excelcleaner/internal/serialize"
	"excelcleaner/internal/table"
	api "excelcleaner/pkg/contracts/api/v1"
	"excelcleaner/pkg/contracts/domain"
)

// sampleRows is how many rows of each sheet the upload summary carries.
const sampleRows = 5

// UploadInput is one uploaded file and its processing options.
type UploadInput struct {
	FileName  string
	Size      int64
	Content   io.Reader
	SheetName string
	Options   api.UploadOptions
}

// ProcessedFile is what the cache keeps per upload. Sheets keep file order.
type ProcessedFile struct {
	ID        string
	Metadata  domain.FileMetadata
	Sheets    []dataprocessing.Sheet
	CreatedAt time.Time
}

// Select returns the named sheet, or every sheet when name is empty.
func (f *ProcessedFile) Select(name string) ([]dataprocessing.Sheet, error) {
	if name == "" {
		return f.Sheets, nil
	}
	for _, s := range f.Sheets {
		if s.Name == name {
			return []dataprocessing.Sheet{s}, nil
		}
	}
	return nil, apierrors.NewNotFoundError(fmt.Sprintf("Sheet '%s'", name)).
		WithContext("file_id", f.ID)
}

// FileStore is the cache of processed files.
type FileStore = cache.FIFO[string, *ProcessedFile]

// NewFileStore creates a store that keeps at most maxFiles uploads.
func NewFileStore(maxFiles int) *FileStore {
	return cache.NewFIFO[string, *ProcessedFile](maxFiles)
}

// PipelineService runs uploads through cleaning and calculation and serves
// the derived views of cached files.
type PipelineService struct {
	store    *FileStore
	engine   *calculation.Engine
	tracer   trace.Tracer
	metrics  *infrastructure.PipelineMetrics
	logger   *slog.Logger
	workers  int
	workbook *exporter.WorkbookWriter
}

// NewPipelineService wires the pipeline. metrics may be nil.
func NewPipelineService(store *FileStore, engine *calculation.Engine, tracer trace.Tracer,
	metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *PipelineService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("service", "pipeline"))

	store.OnEvict(func(id string, f *ProcessedFile) {
		logger.Info("evicted processed file from cache",
			slog.String("file_id", id),
			slog.String("file_name", f.Metadata.FileName))
	})

	return &PipelineService{
		store:    store,
		engine:   engine,
		tracer:   tracer,
		metrics:  metrics,
		logger:   logger,
		workers:  runtime.GOMAXPROCS(0),
		workbook: exporter.NewWorkbookWriter(logger),
	}
}

// CachedFiles reports how many processed files are held.
func (s *PipelineService) CachedFiles() int {
	return s.store.Len()
}

// ProcessFile reads the upload, cleans and calculates every sheet
// concurrently, caches the result under a new file id and returns its
// metadata. A calculation failure is reported per sheet and leaves that
// sheet's cleaned table in place.
func (s *PipelineService) ProcessFile(ctx context.Context, in UploadInput) (_ *domain.FileMetadata, err error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.process_file", trace.WithAttributes(
		attribute.String("file.name", in.FileName),
		attribute.Int64("file.size", in.Size),
	))
	defer func() {
		s.finish(ctx, span, "process", err)
	}()

	if in.Size == 0 {
		return nil, apierrors.NewAppValidationError("Uploaded file is empty",
			apierrors.Violation("file", "Uploaded file is empty"))
	}
	if opts := in.Options.CleaningOptions; opts != nil {
		if err := opts.Validate(); err != nil {
			return nil, err
		}
	}

	sheets, err := s.read(ctx, in)
	if err != nil {
		return nil, err
	}

	outcomes := make([]sheetOutcome, len(sheets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, sheet := range sheets {
		g.Go(func() error {
			out, err := s.processSheet(gctx, sheet, in.Options)
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	file := &ProcessedFile{
		ID:        uuid.New().String(),
		Sheets:    make([]dataprocessing.Sheet, len(outcomes)),
		CreatedAt: time.Now(),
	}
	file.Metadata = buildMetadata(file.ID, in, outcomes)
	for i, out := range outcomes {
		file.Sheets[i] = out.sheet
	}
	s.store.Put(file.ID, file)

	span.SetAttributes(attribute.String("file.id", file.ID), attribute.Int("file.sheets", len(outcomes)))
	s.logger.InfoContext(ctx, "file processed",
		slog.String("file_id", file.ID),
		slog.String("file_name", in.FileName),
		slog.Int("sheets", len(outcomes)),
		slog.Bool("cleaning_applied", in.Options.CleaningOptions != nil),
		slog.Int("calculations", len(in.Options.Calculations)),
	)
	return &file.Metadata, nil
}

// File returns the metadata of a cached file.
func (s *PipelineService) File(ctx context.Context, fileID string) (*domain.FileMetadata, error) {
	file, err := s.lookup(fileID)
	if err != nil {
		return nil, err
	}
	return &file.Metadata, nil
}

func (s *PipelineService) read(ctx context.Context, in UploadInput) ([]dataprocessing.Sheet, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.read")
	defer span.End()

	start := time.Now()
	sheets, err := dataprocessing.Read(in.Content, in.FileName, dataprocessing.ReadOptions{SheetName: in.SheetName})
	s.metrics.RecordStage(ctx, "read", time.Since(start), err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}
	for _, sh := range sheets {
		s.metrics.RecordRows(ctx, "read", sh.Table.NumRows())
	}
	return sheets, nil
}

// sheetOutcome is one sheet after processing.
type sheetOutcome struct {
	sheet       dataprocessing.Sheet
	cleaningLog cleaning.Log
	calculation *calculation.Result
}

func (s *PipelineService) processSheet(ctx context.Context, sheet dataprocessing.Sheet, opts api.UploadOptions) (sheetOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.sheet", trace.WithAttributes(
		attribute.String("sheet.name", sheet.Name),
		attribute.Int("sheet.rows", sheet.Table.NumRows()),
	))
	defer span.End()

	out := sheetOutcome{sheet: sheet}

	if opts.CleaningOptions != nil {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		start := time.Now()
		cleaned, log, err := cleaning.Clean(sheet.Table, *opts.CleaningOptions)
		s.metrics.RecordStage(ctx, "clean", time.Since(start), err)
		if err != nil {
			infrastructure.RecordError(ctx, err)
			return out, err
		}
		s.metrics.RecordRows(ctx, "clean", cleaned.NumRows())
		infrastructure.AddSpanEvent(ctx, "sheet.cleaned",
			attribute.Int("rows", cleaned.NumRows()),
			attribute.Int("operations", len(log)))
		out.sheet.Table = cleaned
		out.cleaningLog = log
	}

	if len(opts.Calculations) > 0 {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		start := time.Now()
		result := s.engine.Apply(out.sheet.Table, opts.Calculations)
		s.metrics.RecordStage(ctx, "calculate", time.Since(start), result.Err)
		if result.Success {
			out.sheet.Table = result.Table
		} else {
			s.logger.WarnContext(ctx, "calculations failed",
				slog.String("sheet", sheet.Name),
				slog.String("error", result.Error))
		}
		out.calculation = &result
	}

	return out, nil
}

func buildMetadata(fileID string, in UploadInput, outcomes []sheetOutcome) domain.FileMetadata {
	meta := domain.FileMetadata{
		FileID:             fileID,
		FileName:           in.FileName,
		FileExtension:      strings.ToLower(filepath.Ext(in.FileName)),
		FileSize:           in.Size,
		SheetNames:         make([]string, 0, len(outcomes)),
		CleaningApplied:    in.Options.CleaningOptions != nil,
		CleaningOperations: []domain.CleaningOperation{},
		Sheets:             make(map[string]domain.SheetSummary, len(outcomes)),
	}

	for _, out := range outcomes {
		name := out.sheet.Name
		meta.SheetNames = append(meta.SheetNames, name)
		meta.Sheets[name] = summarize(out.sheet.Table)

		for _, entry := range out.cleaningLog {
			meta.CleaningOperations = append(meta.CleaningOperations, domain.CleaningOperation{
				Sheet:     name,
				Operation: string(entry.Operation),
				Details:   entry.Details,
			})
		}

		if out.calculation != nil {
			if meta.Calculations == nil {
				meta.Calculations = make(map[string]domain.Calculation, len(outcomes))
			}
			meta.Calculations[name] = domain.Calculation{
				Success:      out.calculation.Success,
				Message:      out.calculation.Message,
				ColumnsAdded: out.calculation.ColumnsAdded,
				Error:        out.calculation.Error,
			}
		}
	}
	return meta
}

func summarize(t *table.Table) domain.SheetSummary {
	return domain.SheetSummary{
		RowCount:    t.NumRows(),
		ColumnCount: t.NumCols(),
		Columns:     t.ColumnNames(),
		SampleData:  serialize.Head(t, sampleRows),
	}
}

func (s *PipelineService) lookup(fileID string) (*ProcessedFile, error) {
	file, ok := s.store.Get(fileID)
	if !ok {
		return nil, apierrors.NewNotFoundError(fmt.Sprintf("File %s", fileID)).
			WithContext("file_id", fileID)
	}
	return file, nil
}

// finish closes an operation span and records its outcome.
func (s *PipelineService) finish(ctx context.Context, span trace.Span, operation string, err error) {
	if err != nil {
		infrastructure.RecordError(ctx, err)
	}
	s.metrics.RecordRun(ctx, operation, err)
	span.End()
}
