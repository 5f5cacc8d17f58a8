package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	snap2print "github.com/alnah/go-snap2print"
	"github.com/alnah/go-snap2print/internal/assets"
	"github.com/alnah/go-snap2print/internal/config"
	"github.com/alnah/go-snap2print/internal/fileutil"
	"github.com/alnah/go-snap2print/internal/logging"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput     = errors.New("no input specified")
	ErrReadInput   = errors.New("failed to read input")
	ErrWriteOutput = errors.New("failed to write output")
	ErrReadStyle   = errors.New("failed to read CSS file")
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// defaultOutputName is used when --output is not given.
const defaultOutputName = "snap2print.pdf"

// resolveConfig loads the named config (flag first, then SNAP2PRINT_CONFIG)
// over the defaults and applies environment overrides.
func resolveConfig(name string, env *envConfig) (*config.Config, error) {
	if name == "" {
		name = env.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	applyEnvConfig(env, cfg)
	return cfg, nil
}

// newLogger builds the run logger. --quiet wins over --verbose, and both
// win over --log-level and SNAP2PRINT_LOG_LEVEL.
func newLogger(w io.Writer, f *commonFlags, env *envConfig) (*slog.Logger, error) {
	lc := logging.Config{Level: env.LogLevel, Format: env.LogFormat}
	if f.logLevel != "" {
		lc.Level = f.logLevel
	}
	if f.logFormat != "" {
		lc.Format = f.logFormat
	}
	switch {
	case f.quiet:
		lc.Level = "error"
	case f.verbose:
		lc.Level = "debug"
	}

	logger, err := logging.New(w, lc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return logger, nil
}

// mergeDocumentFlags overlays explicitly set document flags onto cfg.
func mergeDocumentFlags(f *documentFlags, cfg *config.Config) error {
	if f.export.title != "" {
		cfg.Export.Title = f.export.title
	}
	if f.export.headerFile != "" {
		data, err := os.ReadFile(f.export.headerFile) // #nosec G304 -- user-provided path
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrReadInput, f.export.headerFile, err)
		}
		cfg.Export.Header = string(data)
	}
	if f.export.header != "" {
		cfg.Export.Header = f.export.header
	}
	if f.export.style != "" {
		cfg.Export.Style = f.export.style
	}
	if f.export.solutions != "" {
		cfg.Export.Solutions = f.export.solutions
	}
	if f.export.pageNumbers {
		cfg.Export.PageNumbers = true
	}

	if f.page.size != "" {
		cfg.Page.Size = f.page.size
	}
	if f.page.orientation != "" {
		cfg.Page.Orientation = f.page.orientation
	}
	if f.page.margin != 0 {
		cfg.Page.Margin = f.page.margin
	}

	if f.watermark.disabled {
		cfg.Watermark.Enabled = false
		return nil
	}
	if f.watermark.text != "" {
		cfg.Watermark.Text = f.watermark.text
		cfg.Watermark.Enabled = true
	}
	if f.watermark.color != "" {
		cfg.Watermark.Color = f.watermark.color
	}
	if f.watermark.opacity != 0 {
		cfg.Watermark.Opacity = f.watermark.opacity
	}
	if f.watermark.angle != watermarkAngleSentinel {
		cfg.Watermark.Angle = f.watermark.angle
	}
	return nil
}

// mergeConvertFlags overlays convert-only flags onto cfg.
func mergeConvertFlags(f *convertFlags, cfg *config.Config) error {
	if err := mergeDocumentFlags(&f.documentFlags, cfg); err != nil {
		return err
	}
	if f.ai.model != "" {
		cfg.AI.Model = f.ai.model
	}
	if f.ai.instructions != "" {
		cfg.AI.Instructions = f.ai.instructions
	}
	if f.ai.timeout != "" {
		cfg.AI.Timeout = f.ai.timeout
	}
	if f.processing.parallel {
		cfg.Processing.Parallel = true
	}
	if f.processing.workers != 0 {
		cfg.Processing.Workers = f.processing.workers
	}
	if f.processing.delay != "" {
		cfg.Processing.Delay = f.processing.delay
	}
	if f.processing.maxDimension != 0 {
		cfg.Processing.MaxDimension = f.processing.maxDimension
	}
	if f.processing.retries != retriesUnset {
		cfg.Processing.Retries = f.processing.retries
	}
	return nil
}

// clampWorkers keeps an explicit worker count within what the pool allows.
func clampWorkers(cfg *config.Config) {
	switch {
	case cfg.Processing.Workers < 0:
		cfg.Processing.Workers = 0
	case cfg.Processing.Workers > config.MaxWorkers:
		cfg.Processing.Workers = config.MaxWorkers
	}
}

// buildPageSettings maps the page section onto PageSettings.
func buildPageSettings(cfg *config.Config) *snap2print.PageSettings {
	p := snap2print.DefaultPageSettings()
	if cfg.Page.Size != "" {
		p.Size = cfg.Page.Size
	}
	if cfg.Page.Orientation != "" {
		p.Orientation = cfg.Page.Orientation
	}
	if cfg.Page.Margin != 0 {
		p.Margin = cfg.Page.Margin
	}
	return p
}

// buildWatermark returns nil when the watermark is disabled.
func buildWatermark(cfg *config.Config) *snap2print.Watermark {
	if !cfg.Watermark.Enabled || cfg.Watermark.Text == "" {
		return nil
	}
	w := snap2print.NewWatermark(cfg.Watermark.Text)
	if cfg.Watermark.Color != "" {
		w.Color = cfg.Watermark.Color
	}
	if cfg.Watermark.Opacity != 0 {
		w.Opacity = cfg.Watermark.Opacity
	}
	w.Angle = cfg.Watermark.Angle
	return w
}

// resolveStyle loads export.style: a path is read from disk, a name is
// looked up in assets.basePath and then among the built-in styles.
func resolveStyle(cfg *config.Config) (string, error) {
	style := cfg.Export.Style
	if style == "" {
		style = assets.DefaultStyle
	}
	if fileutil.IsFilePath(style) {
		data, err := os.ReadFile(style) // #nosec G304 -- user-provided path
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrReadStyle, style, err)
		}
		return string(data), nil
	}

	resolver, err := assets.NewAssetResolver(cfg.Assets.BasePath)
	if err != nil {
		return "", err
	}
	return resolver.LoadStyle(style)
}

// exporterOptions turns cfg into Exporter options.
func exporterOptions(cfg *config.Config, pdfTimeout time.Duration, now func() time.Time) ([]snap2print.ExporterOption, error) {
	mode, err := snap2print.ParseSolutionsMode(cfg.Export.Solutions)
	if err != nil {
		return nil, err
	}
	css, err := resolveStyle(cfg)
	if err != nil {
		return nil, err
	}
	page := buildPageSettings(cfg)
	if err := page.Validate(); err != nil {
		return nil, err
	}
	wm := buildWatermark(cfg)
	if err := wm.Validate(); err != nil {
		return nil, err
	}

	return []snap2print.ExporterOption{
		snap2print.WithPageSettings(page),
		snap2print.WithWatermark(wm),
		snap2print.WithSolutions(mode),
		snap2print.WithStyle(css),
		snap2print.WithPageNumbers(cfg.Export.PageNumbers),
		snap2print.WithPDFTimeout(pdfTimeout),
		snap2print.WithClock(now),
	}, nil
}

// processorOptions turns cfg into Processor options.
func processorOptions(cfg *config.Config, logger *slog.Logger) ([]snap2print.ProcessorOption, error) {
	delay, err := cfg.RequestDelay()
	if err != nil {
		return nil, err
	}
	opts := []snap2print.ProcessorOption{
		snap2print.WithDelay(delay),
		snap2print.WithInstructions(cfg.AI.Instructions),
		snap2print.WithLogger(logger),
	}
	if cfg.Processing.Parallel {
		opts = append(opts, snap2print.WithParallel(cfg.Processing.Workers))
	}
	return opts, nil
}

// newDocument builds the export Document from config text and pages.
func newDocument(cfg *config.Config, doc *snap2print.Document) *snap2print.Document {
	doc.Title = cfg.Export.Title
	doc.Header = cfg.Export.Header
	return doc
}

// writeOutput writes data to path, creating parent directories.
func writeOutput(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	if err := os.WriteFile(path, data, filePermissions); err != nil { // #nosec G306 -- output is meant to be shared
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	return nil
}
