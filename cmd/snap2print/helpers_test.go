package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	snap2print "github.com/alnah/go-snap2print"
	"github.com/alnah/go-snap2print/internal/config"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Fake model and environment
// ---------------------------------------------------------------------------

// fakeModel answers every request with canned HTML and records the tasks.
// failCalls lists 1-based page calls that return an error.
type fakeModel struct {
	mu        sync.Mutex
	tasks     []snap2print.Task
	pageCalls int
	failCalls map[int]bool
}

func (m *fakeModel) Generate(_ context.Context, req snap2print.Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, req.Task)

	switch req.Task {
	case snap2print.TaskSolution:
		return "<html><body><h1>ANSWERS</h1></body></html>", nil
	case snap2print.TaskRemix:
		m.pageCalls++
		return "```html\n<html><body><h1>REMIXED</h1></body></html>\n```", nil
	default:
		m.pageCalls++
		if m.failCalls[m.pageCalls] {
			return "", errors.New("AI generation failed: quota")
		}
		return "```html\n<html><head><style>h1{color:navy}</style></head><body><h1>WORKSHEET</h1></body></html>\n```", nil
	}
}

func (m *fakeModel) count(task snap2print.Task) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tasks {
		if t == task {
			n++
		}
	}
	return n
}

// testEnv returns an Environment with buffers and a fixed clock.
func testEnv(model snap2print.Generator) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	env := &Environment{
		Now:    func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) },
		Stdout: &stdout,
		Stderr: &stderr,
		NewGenerator: func(context.Context, *config.Config, *slog.Logger) (snap2print.Generator, error) {
			return model, nil
		},
	}
	return env, &stdout, &stderr
}

// writePNG writes a small solid PNG and returns its path.
func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

// readFile returns the content of path or fails the test.
func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}
