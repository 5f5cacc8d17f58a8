package snap2print

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

// Gemini defaults.
const (
	DefaultModel       = "gemini-2.5-flash"
	DefaultTemperature = 0.2
	DefaultCallTimeout = 2 * time.Minute
)

// API key environment variables, checked in order.
var apiKeyEnvVars = []string{"SNAP2PRINT_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"}

// contentGenerator is the subset of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Compile-time interface checks.
var (
	_ contentGenerator = (*genai.Models)(nil)
	_ Generator        = (*GeminiGenerator)(nil)
)

// GeminiConfig configures a GeminiGenerator.
type GeminiConfig struct {
	APIKey      string        // empty = first of SNAP2PRINT_API_KEY, GEMINI_API_KEY, GOOGLE_API_KEY
	Model       string        // empty = DefaultModel
	Temperature *float32      // nil = DefaultTemperature
	Timeout     time.Duration // per call, 0 = DefaultCallTimeout
}

// GeminiGenerator calls a Gemini model through the Google Gen AI SDK.
type GeminiGenerator struct {
	cfg    GeminiConfig
	models contentGenerator
	logger *slog.Logger
}

// APIKeyEnvVars returns the environment variables searched for an API key,
// in priority order.
func APIKeyEnvVars() []string {
	return append([]string(nil), apiKeyEnvVars...)
}

// ResolveAPIKey returns key if set, otherwise the first non-empty API key
// environment variable.
func ResolveAPIKey(key string) string {
	if key != "" {
		return key
	}
	for _, name := range apiKeyEnvVars {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// NewGeminiGenerator creates a generator backed by the Gemini API.
// Returns ErrMissingAPIKey when no key is configured.
func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig, logger *slog.Logger) (*GeminiGenerator, error) {
	cfg.APIKey = ResolveAPIKey(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: set %s", ErrMissingAPIKey, strings.Join(apiKeyEnvVars, " or "))
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneratorSetup, err)
	}
	return newGeminiGenerator(cfg, client.Models, logger), nil
}

func newGeminiGenerator(cfg GeminiConfig, models contentGenerator, logger *slog.Logger) *GeminiGenerator {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == nil {
		cfg.Temperature = genai.Ptr[float32](DefaultTemperature)
	} else {
		cfg.Temperature = genai.Ptr(*cfg.Temperature)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultCallTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GeminiGenerator{cfg: cfg, models: models, logger: logger}
}

// Model returns the configured model name.
func (g *GeminiGenerator) Model() string { return g.cfg.Model }

// Generate sends the image (or source HTML) with the task prompt and
// returns the raw model text.
func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	prompt, err := BuildPrompt(req)
	if err != nil {
		return "", err
	}

	rid := uuid.NewString()
	start := time.Now()
	g.logger.Info("ai.generate.start",
		"req_id", rid,
		"model", g.cfg.Model,
		"task", string(req.Task),
		"image_bytes", len(req.Image),
		"source_len", len(req.SourceHTML),
	)

	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	if len(req.Image) > 0 {
		mime := req.MIMEType
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, genai.NewPartFromBytes(req.Image, mime))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		Temperature:       g.cfg.Temperature,
	}

	callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	resp, err := g.models.GenerateContent(callCtx, g.cfg.Model, contents, config)
	if err != nil {
		g.logger.Error("ai.generate.error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	text := ""
	if resp != nil {
		text = strings.TrimSpace(resp.Text())
	}
	if text == "" {
		g.logger.Warn("ai.generate.empty", "req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
		return "", ErrEmptyResponse
	}

	g.logger.Info("ai.generate.ok",
		"req_id", rid,
		"chars", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}
