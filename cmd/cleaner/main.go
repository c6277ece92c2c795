package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"excelcleaner/internal/calculation"
	"excelcleaner/internal/config"
	"excelcleaner/internal/files"
	"excelcleaner/internal/infrastructure"
	"excelcleaner/internal/middleware"
	"excelcleaner/internal/services"
	api "excelcleaner/pkg/contracts/api/v1"
)

// params are the command line inputs of one run
type params struct {
	In          string
	Dir         string
	Out         string
	OutDir      string
	OptionsFile string
	Sheet       string
	CSV         bool
}

func main() {
	var p params
	flag.StringVar(&p.In, "in", "", "input .xlsx, .xls or .csv file")
	flag.StringVar(&p.Dir, "dir", "", "clean every spreadsheet in this directory instead of -in")
	flag.StringVar(&p.Out, "out", "", "output file for -in; a .csv extension writes CSV (defaults to <in>_cleaned.xlsx)")
	flag.StringVar(&p.OutDir, "out-dir", "", "output directory for -dir (defaults to the input directory)")
	flag.StringVar(&p.OptionsFile, "options", "", "JSON file with cleaning_options and calculations")
	flag.StringVar(&p.Sheet, "sheet", "", "process only this sheet")
	flag.BoolVar(&p.CSV, "csv", false, "write CSV instead of a workbook in -dir mode")
	flag.Parse()

	if (p.In == "") == (p.Dir == "") {
		fmt.Fprintln(os.Stderr, "usage: cleaner -in <file> [-out <file>] | -dir <dir> [-out-dir <dir>] [-csv]  [-options <json>] [-sheet <name>]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// one trace id for the whole run so batch log lines correlate
	ctx = infrastructure.EnsureTraceID(ctx)

	if p.Dir != "" {
		err = runBatch(ctx, cfg, p, logger)
	} else {
		err = run(ctx, cfg, p, logger)
	}
	if err != nil {
		logger.ErrorContext(ctx, "Cleaning failed", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}

// cleaner holds what every file of a run shares
type cleaner struct {
	cfg    *config.Config
	opts   api.UploadOptions
	svc    *services.PipelineService
	logger *slog.Logger
}

func newCleaner(cfg *config.Config, optionsFile string, logger *slog.Logger) (*cleaner, error) {
	opts, err := loadOptions(optionsFile, middleware.NewValidator(logger, 0))
	if err != nil {
		return nil, err
	}

	providers := infrastructure.NoopProviders(logger)
	engine := calculation.NewEngine(calculation.WithCustomExpressions(cfg.Calculation.AllowCustom))
	// one file at a time, so the cache never needs more than one entry
	svc := services.NewPipelineService(services.NewFileStore(1), engine, providers.Tracer, nil, logger)

	return &cleaner{cfg: cfg, opts: opts, svc: svc, logger: logger}, nil
}

// run cleans p.In and writes the export to p.Out
func run(ctx context.Context, cfg *config.Config, p params, logger *slog.Logger) error {
	c, err := newCleaner(cfg, p.OptionsFile, logger)
	if err != nil {
		return err
	}
	out := p.Out
	if out == "" {
		out = files.CleanedPath(p.In, "", ".xlsx")
	}
	return c.clean(ctx, p.In, out, p.Sheet)
}

// runBatch cleans every spreadsheet in p.Dir. A file that fails is logged
// and the batch moves on; the returned error counts the failures.
func runBatch(ctx context.Context, cfg *config.Config, p params, logger *slog.Logger) error {
	c, err := newCleaner(cfg, p.OptionsFile, logger)
	if err != nil {
		return err
	}

	inputs, err := files.NewDiscovery(".").FindSpreadsheets(p.Dir, cfg.Upload.AllowedExtensions)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		logger.WarnContext(ctx, "No spreadsheets found", slog.String("directory", p.Dir))
		return nil
	}

	if p.OutDir != "" {
		if err := os.MkdirAll(p.OutDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	ext := ".xlsx"
	if p.CSV {
		ext = ".csv"
	}

	failed := 0
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.clean(ctx, in.Path, files.CleanedPath(in.Path, p.OutDir, ext), p.Sheet); err != nil {
			failed++
			logger.ErrorContext(ctx, "File failed", slog.String("input", in.Name), slog.String("error", err.Error()))
		}
	}

	logger.InfoContext(ctx, "Batch complete",
		slog.Int("files", len(inputs)),
		slog.Int("failed", failed))
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(inputs))
	}
	return nil
}

// clean runs one file through the pipeline. The extension of out selects
// the export format.
func (c *cleaner) clean(ctx context.Context, in, out, sheet string) error {
	f, err := os.Open(in)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat input: %w", err)
	}
	if c.cfg.Upload.MaxSizeBytes > 0 && info.Size() > c.cfg.Upload.MaxSizeBytes {
		return fmt.Errorf("input is %d bytes, limit is %d", info.Size(), c.cfg.Upload.MaxSizeBytes)
	}

	meta, err := c.svc.ProcessFile(ctx, services.UploadInput{
		FileName:  filepath.Base(in),
		Size:      info.Size(),
		Content:   f,
		SheetName: sheet,
		Options:   c.opts,
	})
	if err != nil {
		return err
	}

	for _, name := range meta.SheetNames {
		summary := meta.Sheets[name]
		c.logger.InfoContext(ctx, "Sheet processed",
			slog.String("input", in),
			slog.String("sheet", name),
			slog.Int("rows", summary.RowCount),
			slog.Int("columns", summary.ColumnCount))
	}
	for name, calc := range meta.Calculations {
		if !calc.Success {
			c.logger.WarnContext(ctx, "Calculations failed",
				slog.String("input", in),
				slog.String("sheet", name),
				slog.String("error", calc.Error))
		}
	}

	format := api.FormatExcel
	if strings.EqualFold(filepath.Ext(out), ".csv") {
		format = api.FormatCSV
	}

	exported, err := c.svc.Export(ctx, meta.FileID, api.ExportQuery{Format: format, SheetName: sheet}, api.ExportRequest{})
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, exported.Content, 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	c.logger.InfoContext(ctx, "Cleaned file written",
		slog.String("output", out),
		slog.String("format", format),
		slog.Int("bytes", len(exported.Content)))
	return nil
}

func loadOptions(path string, v *middleware.Validator) (api.UploadOptions, error) {
	var opts api.UploadOptions
	if path == "" {
		return opts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("failed to read options: %w", err)
	}
	if err := json.Unmarshal(data, &opts); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return opts, fmt.Errorf("failed to parse options at offset %d: %w", syntaxErr.Offset, err)
		}
		return opts, fmt.Errorf("failed to parse options: %w", err)
	}
	if err := v.Struct(&opts); err != nil {
		return opts, err
	}
	return opts, nil
}
