package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	snap2print "github.com/alnah/go-snap2print"
	"github.com/alnah/go-snap2print/internal/config"
)

// ---------------------------------------------------------------------------
// TestResolveConfig - defaults < file
// ---------------------------------------------------------------------------

func TestResolveConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults without a name", func(t *testing.T) {
		t.Parallel()
		cfg, err := resolveConfig("", &envConfig{})
		if err != nil {
			t.Fatalf("resolveConfig() error = %v", err)
		}
		if cfg.Export.Style != "print" {
			t.Errorf("Style = %q, want default print", cfg.Export.Style)
		}
	})

	t.Run("file path layered over defaults", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "exam.yaml")
		if err := os.WriteFile(path, []byte("export:\n  style: exam\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		cfg, err := resolveConfig("", &envConfig{ConfigPath: path, Model: "env-model"})
		if err != nil {
			t.Fatalf("resolveConfig() error = %v", err)
		}
		if cfg.Export.Style != "exam" {
			t.Errorf("Style = %q, want exam", cfg.Export.Style)
		}
		if cfg.Page.Size != "a4" {
			t.Errorf("Page.Size = %q, want default a4", cfg.Page.Size)
		}
		if cfg.AI.Model != "env-model" {
			t.Errorf("Model = %q, want env override", cfg.AI.Model)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := resolveConfig("./nope.yaml", &envConfig{})
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestMergeFlags - flags > config
// ---------------------------------------------------------------------------

func TestMergeConvertFlags(t *testing.T) {
	t.Parallel()

	f, _, err := parseConvertFlags([]string{
		"--model", "m2", "--timeout", "30s", "--parallel", "-w", "12", "--delay", "0s",
		"--title", "T", "--header", "H", "--solutions", "only", "--page-numbers",
		"-p", "letter", "--orientation", "landscape", "--margin", "1",
		"--wm-text", "KEY", "--wm-angle", "0", "--max-dimension", "1024",
	}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseConvertFlags() error = %v", err)
	}

	cfg := config.DefaultConfig()
	if err := mergeConvertFlags(f, cfg); err != nil {
		t.Fatalf("mergeConvertFlags() error = %v", err)
	}
	clampWorkers(cfg)

	if cfg.AI.Model != "m2" || cfg.AI.Timeout != "30s" {
		t.Errorf("ai = %+v", cfg.AI)
	}
	if !cfg.Processing.Parallel || cfg.Processing.Workers != config.MaxWorkers || cfg.Processing.Delay != "0s" || cfg.Processing.MaxDimension != 1024 {
		t.Errorf("processing = %+v", cfg.Processing)
	}
	if cfg.Export.Title != "T" || cfg.Export.Header != "H" || cfg.Export.Solutions != "only" || !cfg.Export.PageNumbers {
		t.Errorf("export = %+v", cfg.Export)
	}
	if cfg.Page.Size != "letter" || cfg.Page.Orientation != "landscape" || cfg.Page.Margin != 1 {
		t.Errorf("page = %+v", cfg.Page)
	}
	if !cfg.Watermark.Enabled || cfg.Watermark.Text != "KEY" || cfg.Watermark.Angle != 0 {
		t.Errorf("watermark = %+v", cfg.Watermark)
	}
}

func TestMergeDocumentFlags_Watermark(t *testing.T) {
	t.Parallel()

	t.Run("angle sentinel keeps config", func(t *testing.T) {
		t.Parallel()
		cfg := config.DefaultConfig()
		f := &documentFlags{watermark: watermarkFlags{angle: watermarkAngleSentinel}}
		if err := mergeDocumentFlags(f, cfg); err != nil {
			t.Fatal(err)
		}
		if cfg.Watermark.Angle != -45 {
			t.Errorf("Angle = %v, want -45", cfg.Watermark.Angle)
		}
	})

	t.Run("no-watermark disables", func(t *testing.T) {
		t.Parallel()
		cfg := config.DefaultConfig()
		cfg.Watermark.Enabled = true
		cfg.Watermark.Text = "DRAFT"
		f := &documentFlags{watermark: watermarkFlags{disabled: true, angle: watermarkAngleSentinel}}
		if err := mergeDocumentFlags(f, cfg); err != nil {
			t.Fatal(err)
		}
		if buildWatermark(cfg) != nil {
			t.Error("watermark still built after --no-watermark")
		}
	})
}

func TestMergeDocumentFlags_HeaderFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "header.md")
	if err := os.WriteFile(path, []byte("**Name:** ______"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	f := &documentFlags{export: exportFlags{headerFile: path}, watermark: watermarkFlags{angle: watermarkAngleSentinel}}
	if err := mergeDocumentFlags(f, cfg); err != nil {
		t.Fatalf("mergeDocumentFlags() error = %v", err)
	}
	if cfg.Export.Header != "**Name:** ______" {
		t.Errorf("Header = %q", cfg.Export.Header)
	}

	f.export.headerFile = path + ".missing"
	if err := mergeDocumentFlags(f, cfg); !errors.Is(err, ErrReadInput) {
		t.Errorf("missing header file error = %v, want ErrReadInput", err)
	}
}

// ---------------------------------------------------------------------------
// TestBuilders - config to library types
// ---------------------------------------------------------------------------

func TestBuildPageSettings(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Page = config.PageConfig{Size: "legal"}
	p := buildPageSettings(cfg)
	if p.Size != "legal" || p.Orientation != snap2print.OrientationPortrait || p.Margin != snap2print.DefaultMargin {
		t.Errorf("buildPageSettings() = %+v", p)
	}
}

func TestBuildWatermark(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	if buildWatermark(cfg) != nil {
		t.Error("disabled watermark built")
	}

	cfg.Watermark.Enabled = true
	cfg.Watermark.Text = "KEY"
	cfg.Watermark.Color = "#ff0000"
	w := buildWatermark(cfg)
	if w == nil || w.Text != "KEY" || w.Color != "#ff0000" || w.Angle != -45 || w.Opacity != 0.1 {
		t.Errorf("buildWatermark() = %+v", w)
	}
}

func TestResolveStyle(t *testing.T) {
	t.Parallel()

	t.Run("built-in name", func(t *testing.T) {
		t.Parallel()
		cfg := config.DefaultConfig()
		cfg.Export.Style = "exam"
		css, err := resolveStyle(cfg)
		if err != nil || css == "" {
			t.Errorf("resolveStyle(exam) = %d bytes, %v", len(css), err)
		}
	})

	t.Run("file path", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "mine.css")
		if err := os.WriteFile(path, []byte("body{margin:0}"), 0o644); err != nil {
			t.Fatal(err)
		}
		cfg := config.DefaultConfig()
		cfg.Export.Style = path
		css, err := resolveStyle(cfg)
		if err != nil || css != "body{margin:0}" {
			t.Errorf("resolveStyle(path) = %q, %v", css, err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		cfg := config.DefaultConfig()
		cfg.Export.Style = "./missing.css"
		if _, err := resolveStyle(cfg); !errors.Is(err, ErrReadStyle) {
			t.Errorf("error = %v, want ErrReadStyle", err)
		}
	})
}

func TestExporterOptions(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Export.Title = "Quiz {date:iso}"
	opts, err := exporterOptions(cfg, 0, func() time.Time { return time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC) })
	if err != nil {
		t.Fatalf("exporterOptions() error = %v", err)
	}
	e, err := snap2print.NewExporter(opts...)
	if err != nil {
		t.Fatalf("NewExporter() error = %v", err)
	}
	doc := newDocument(cfg, &snap2print.Document{Pages: []snap2print.Page{{Name: "p", HTML: "<p>x</p>"}}})
	out, err := e.ExportHTML(t.Context(), doc)
	if err != nil {
		t.Fatalf("ExportHTML() error = %v", err)
	}
	if !strings.Contains(string(out), "Quiz 2026-01-02") {
		t.Error("title placeholder not expanded with the injected clock")
	}

	cfg.Page.Margin = 9
	if _, err := exporterOptions(cfg, 0, time.Now); !errors.Is(err, snap2print.ErrInvalidMargin) {
		t.Errorf("error = %v, want ErrInvalidMargin", err)
	}
}

func TestProcessorOptions(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Processing.Delay = "soon"
	if _, err := processorOptions(cfg, nil); !errors.Is(err, config.ErrInvalidValue) {
		t.Errorf("error = %v, want ErrInvalidValue", err)
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := newLogger(&buf, &commonFlags{quiet: true, verbose: true}, &envConfig{LogLevel: "debug"})
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	logger.Warn("hidden")
	logger.Error("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("quiet logger output = %q", buf.String())
	}

	if _, err := newLogger(&buf, &commonFlags{logLevel: "loud"}, &envConfig{}); !errors.Is(err, ErrUsage) {
		t.Errorf("error = %v, want ErrUsage", err)
	}
}
