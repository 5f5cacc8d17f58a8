package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	snap2print "github.com/alnah/go-snap2print"
	"github.com/alnah/go-snap2print/internal/config"
)

// GeneratorFactory builds the model client for a run.
type GeneratorFactory func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (snap2print.Generator, error)

// Environment holds injectable dependencies for testability.
// Includes I/O, time, and the model client.
type Environment struct {
	Now          func() time.Time
	Stdout       io.Writer
	Stderr       io.Writer
	NewGenerator GeneratorFactory
}

// DefaultEnv returns the production environment backed by Gemini.
func DefaultEnv() *Environment {
	return &Environment{
		Now:          time.Now,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		NewGenerator: newGeminiGenerator,
	}
}

// newGeminiGenerator maps the ai config section onto a GeminiGenerator.
func newGeminiGenerator(ctx context.Context, cfg *config.Config, logger *slog.Logger) (snap2print.Generator, error) {
	timeout, err := cfg.CallTimeout()
	if err != nil {
		return nil, err
	}
	temperature := float32(cfg.AI.Temperature)
	return snap2print.NewGeminiGenerator(ctx, snap2print.GeminiConfig{
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		Temperature: &temperature,
		Timeout:     timeout,
	}, logger)
}
