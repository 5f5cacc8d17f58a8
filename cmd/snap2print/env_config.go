package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alnah/go-snap2print/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	// Tier 1 - Essential
	ConfigPath string // SNAP2PRINT_CONFIG: config file path
	APIKey     string // SNAP2PRINT_API_KEY: read directly by the generator
	Model      string // SNAP2PRINT_MODEL: model name
	Style      string // SNAP2PRINT_STYLE: CSS style name or path

	// Tier 2 - I/O and pacing
	OutputDir string // SNAP2PRINT_OUTPUT_DIR: default output directory
	Timeout   string // SNAP2PRINT_TIMEOUT: per-request timeout
	Delay     string // SNAP2PRINT_DELAY: pause between requests
	Workers   int    // SNAP2PRINT_WORKERS: parallel workers

	// Tier 3 - Extended
	PageSize      string // SNAP2PRINT_PAGE_SIZE: a4, letter, legal
	WatermarkText string // SNAP2PRINT_WATERMARK_TEXT: watermark text
	LogLevel      string // SNAP2PRINT_LOG_LEVEL: debug, info, warn, error
	LogFormat     string // SNAP2PRINT_LOG_FORMAT: text, json
}

// knownEnvVars lists valid SNAP2PRINT_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	// Tier 1 - Essential
	"SNAP2PRINT_CONFIG":  true,
	"SNAP2PRINT_API_KEY": true,
	"SNAP2PRINT_MODEL":   true,
	"SNAP2PRINT_STYLE":   true,
	// Tier 2 - I/O and pacing
	"SNAP2PRINT_OUTPUT_DIR": true,
	"SNAP2PRINT_TIMEOUT":    true,
	"SNAP2PRINT_DELAY":      true,
	"SNAP2PRINT_WORKERS":    true,
	// Tier 3 - Extended
	"SNAP2PRINT_PAGE_SIZE":      true,
	"SNAP2PRINT_WATERMARK_TEXT": true,
	"SNAP2PRINT_LOG_LEVEL":      true,
	"SNAP2PRINT_LOG_FORMAT":     true,
	"SNAP2PRINT_CONTAINER":      true,
}

// loadEnvConfig reads configuration from environment variables.
// Returns a struct with all recognized SNAP2PRINT_* values.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath:    os.Getenv("SNAP2PRINT_CONFIG"),
		APIKey:        os.Getenv("SNAP2PRINT_API_KEY"),
		Model:         os.Getenv("SNAP2PRINT_MODEL"),
		Style:         os.Getenv("SNAP2PRINT_STYLE"),
		OutputDir:     os.Getenv("SNAP2PRINT_OUTPUT_DIR"),
		Timeout:       os.Getenv("SNAP2PRINT_TIMEOUT"),
		Delay:         os.Getenv("SNAP2PRINT_DELAY"),
		PageSize:      os.Getenv("SNAP2PRINT_PAGE_SIZE"),
		WatermarkText: os.Getenv("SNAP2PRINT_WATERMARK_TEXT"),
		LogLevel:      os.Getenv("SNAP2PRINT_LOG_LEVEL"),
		LogFormat:     os.Getenv("SNAP2PRINT_LOG_FORMAT"),
	}

	// Invalid worker counts are ignored rather than fatal.
	if workers := os.Getenv("SNAP2PRINT_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized SNAP2PRINT_* variables.
// Helps catch typos like SNAP2PRINT_MODLE.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "SNAP2PRINT_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// A set variable overrides the config file; CLI flags are applied
// afterwards by mergeFlags, so: flags > env > config file > defaults.
// The API key is not copied: the generator reads it from the environment.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Model != "" {
		cfg.AI.Model = env.Model
	}
	if env.Style != "" {
		cfg.Export.Style = env.Style
	}
	if env.OutputDir != "" {
		cfg.Output.DefaultDir = env.OutputDir
	}
	if env.Timeout != "" {
		cfg.AI.Timeout = env.Timeout
	}
	if env.Delay != "" {
		cfg.Processing.Delay = env.Delay
	}
	if env.Workers > 0 {
		cfg.Processing.Workers = env.Workers
	}
	if env.PageSize != "" {
		cfg.Page.Size = env.PageSize
	}
	if env.WatermarkText != "" {
		cfg.Watermark.Text = env.WatermarkText
		cfg.Watermark.Enabled = true
	}
}
