package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-snap2print/internal/fileutil"
	"github.com/alnah/go-snap2print/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxModelLength          = 100
	MaxAPIKeyLength         = 200
	MaxInstructionsLength   = 2000
	MaxTitleLength          = 200
	MaxHeaderLength         = 5000
	MaxStyleLength          = 2048 // name or path
	MaxPathLength           = 4096
	MaxPageSizeLength       = 10 // "letter", "a4", "legal"
	MaxOrientationLength    = 10 // "portrait", "landscape"
	MaxWatermarkTextLength  = 50 // "ANSWER KEY", "DRAFT"
	MaxWatermarkColorLength = 20
	MaxDurationLength       = 20
)

// Processing bounds.
const (
	MaxWorkers      = 8
	MaxRetries      = 5
	MaxDimensionCap = 8192
	MinDimension    = 256
)

// Config holds every setting of a conversion run.
type Config struct {
	AI         AIConfig         `yaml:"ai"`
	Processing ProcessingConfig `yaml:"processing"`
	Export     ExportConfig     `yaml:"export"`
	Page       PageConfig       `yaml:"page"`
	Watermark  WatermarkConfig  `yaml:"watermark"`
	Assets     AssetsConfig     `yaml:"assets"`
	Output     OutputConfig     `yaml:"output"`
}

// AIConfig configures the generative model.
type AIConfig struct {
	Model        string  `yaml:"model"`        // empty = library default
	APIKey       string  `yaml:"apiKey"`       // empty = read from environment
	Temperature  float64 `yaml:"temperature"`  // 0.0 to 2.0
	Timeout      string  `yaml:"timeout"`      // per call, e.g. "2m"
	Instructions string  `yaml:"instructions"` // appended to every prompt
}

// ProcessingConfig configures the job loop and image preparation.
type ProcessingConfig struct {
	Parallel     bool   `yaml:"parallel"`
	Workers      int    `yaml:"workers"`      // 0 = auto
	Delay        string `yaml:"delay"`        // between sequential requests, e.g. "1.5s"
	MaxDimension int    `yaml:"maxDimension"` // longest image side in pixels
	JPEGQuality  int    `yaml:"jpegQuality"`  // 1 to 100
	Retries      int    `yaml:"retries"`      // extra passes over failed jobs
}

// ExportConfig configures the assembled document.
type ExportConfig struct {
	Title       string `yaml:"title"`  // supports {date} placeholders
	Header      string `yaml:"header"` // Markdown above the first page
	Style       string `yaml:"style"`  // style name or CSS file path
	Solutions   string `yaml:"solutions"`
	PageNumbers bool   `yaml:"pageNumbers"` // PDF only
}

// PageConfig defines page settings.
type PageConfig struct {
	Size        string  `yaml:"size"`        // "letter", "a4", "legal"
	Orientation string  `yaml:"orientation"` // "portrait", "landscape"
	Margin      float64 `yaml:"margin"`      // inches
}

// WatermarkConfig defines background watermark options.
type WatermarkConfig struct {
	Enabled bool    `yaml:"enabled"`
	Text    string  `yaml:"text"`
	Color   string  `yaml:"color"`
	Opacity float64 `yaml:"opacity"`
	Angle   float64 `yaml:"angle"`
}

// AssetsConfig defines where custom styles are read from.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // empty = embedded styles only
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // empty = current directory
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		AI: AIConfig{
			Temperature: 0.2,
			Timeout:     "2m",
		},
		Processing: ProcessingConfig{
			Delay:        "1.5s",
			MaxDimension: 2048,
			JPEGQuality:  85,
		},
		Export: ExportConfig{
			Style:     "print",
			Solutions: "none",
		},
		Page: PageConfig{
			Size:        "a4",
			Orientation: "portrait",
			Margin:      0.5,
		},
		Watermark: WatermarkConfig{
			Color:   "#888888",
			Opacity: 0.1,
			Angle:   -45,
		},
	}
}

// Validate checks field lengths and ranges. Called by LoadConfig and
// available to callers that build a Config by hand.
func (c *Config) Validate() error {
	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"ai.model", c.AI.Model, MaxModelLength},
		{"ai.apiKey", c.AI.APIKey, MaxAPIKeyLength},
		{"ai.timeout", c.AI.Timeout, MaxDurationLength},
		{"ai.instructions", c.AI.Instructions, MaxInstructionsLength},
		{"processing.delay", c.Processing.Delay, MaxDurationLength},
		{"export.title", c.Export.Title, MaxTitleLength},
		{"export.header", c.Export.Header, MaxHeaderLength},
		{"export.style", c.Export.Style, MaxStyleLength},
		{"page.size", c.Page.Size, MaxPageSizeLength},
		{"page.orientation", c.Page.Orientation, MaxOrientationLength},
		{"assets.basePath", c.Assets.BasePath, MaxPathLength},
		{"output.defaultDir", c.Output.DefaultDir, MaxPathLength},
	}
	for _, f := range fields {
		if err := validateFieldLength(f.name, f.value, f.max); err != nil {
			return err
		}
	}

	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("%w: ai.temperature must be between 0 and 2, got %.2f", ErrInvalidValue, c.AI.Temperature)
	}
	if _, err := c.CallTimeout(); err != nil {
		return err
	}
	if _, err := c.RequestDelay(); err != nil {
		return err
	}

	if c.Processing.Workers < 0 || c.Processing.Workers > MaxWorkers {
		return fmt.Errorf("%w: processing.workers must be between 0 and %d, got %d", ErrInvalidValue, MaxWorkers, c.Processing.Workers)
	}
	if c.Processing.Retries < 0 || c.Processing.Retries > MaxRetries {
		return fmt.Errorf("%w: processing.retries must be between 0 and %d, got %d", ErrInvalidValue, MaxRetries, c.Processing.Retries)
	}
	if d := c.Processing.MaxDimension; d != 0 && (d < MinDimension || d > MaxDimensionCap) {
		return fmt.Errorf("%w: processing.maxDimension must be between %d and %d, got %d", ErrInvalidValue, MinDimension, MaxDimensionCap, d)
	}
	if q := c.Processing.JPEGQuality; q < 0 || q > 100 {
		return fmt.Errorf("%w: processing.jpegQuality must be between 1 and 100, got %d", ErrInvalidValue, q)
	}

	switch strings.ToLower(c.Export.Solutions) {
	case "", "none", "append", "only":
	default:
		return fmt.Errorf("%w: export.solutions %q (must be none, append, or only)", ErrInvalidValue, c.Export.Solutions)
	}

	if c.Watermark.Enabled {
		if c.Watermark.Text == "" {
			return fmt.Errorf("%w: watermark.text required when watermark is enabled", ErrInvalidValue)
		}
		if err := validateFieldLength("watermark.text", c.Watermark.Text, MaxWatermarkTextLength); err != nil {
			return err
		}
		if err := validateFieldLength("watermark.color", c.Watermark.Color, MaxWatermarkColorLength); err != nil {
			return err
		}
		if c.Watermark.Opacity < 0 || c.Watermark.Opacity > 1 {
			return fmt.Errorf("%w: watermark.opacity must be between 0 and 1, got %.2f", ErrInvalidValue, c.Watermark.Opacity)
		}
		if c.Watermark.Angle < -90 || c.Watermark.Angle > 90 {
			return fmt.Errorf("%w: watermark.angle must be between -90 and 90, got %.2f", ErrInvalidValue, c.Watermark.Angle)
		}
	}
	return nil
}

// CallTimeout parses ai.timeout. Empty means zero (library default).
func (c *Config) CallTimeout() (time.Duration, error) {
	return parseDuration("ai.timeout", c.AI.Timeout)
}

// RequestDelay parses processing.delay. Empty means zero.
func (c *Config) RequestDelay() (time.Duration, error) {
	return parseDuration("processing.delay", c.Processing.Delay)
}

func parseDuration(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q: %v", ErrInvalidValue, field, s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative", ErrInvalidValue, field)
	}
	return d, nil
}

func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// LoadConfig loads a config from a file path or a config name.
// Names are searched as ./NAME.yaml, ./NAME.yml, then in the user config
// directory under snap2print/. Fields missing from the file keep their
// DefaultConfig values. A missing file is an error.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal renders the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yamlutil.Marshal(c)
}

// resolveConfigPath searches standard locations for NAME.yaml or NAME.yml.
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	tried := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		local := name + ext
		if fileutil.FileExists(local) {
			return local, nil
		}
		tried = append(tried, local)
	}

	if dir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(dir, "snap2print", name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			tried = append(tried, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}
