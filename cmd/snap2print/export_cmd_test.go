package main

// Notes:
// - runExport reads page files written by 'convert --pages-dir' (or edited by
//   hand) and never calls the model; the environment has no generator.

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	snap2print "github.com/alnah/go-snap2print"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
}

// ---------------------------------------------------------------------------
// TestRunExport - Assembling edited pages
// ---------------------------------------------------------------------------

func TestRunExport(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"002-b.html":          snap2print.Page{HTML: "<h1>SECOND</h1>"}.Standalone(),
		"001-a.html":          snap2print.Page{HTML: "<h1>FIRST</h1><img src=\"fig.png\">", CSS: "h1{color:teal}"}.Standalone(),
		"001-a.solution.html": snap2print.Page{HTML: "<p>KEY</p>"}.Standalone(),
		"notes.txt":           "ignored",
	})
	out := filepath.Join(dir, "book.html")

	env, stdout, _ := testEnv(nil)
	err := runExport(context.Background(), []string{dir, "-o", out, "--solutions", "append", "--title", "Unit 3"}, env)
	if err != nil {
		t.Fatalf("runExport() error = %v", err)
	}

	html := readFile(t, out)
	first, second, key := strings.Index(html, "FIRST"), strings.Index(html, "SECOND"), strings.Index(html, "KEY")
	if first < 0 || second < 0 || key < 0 {
		t.Fatalf("output missing pages:\n%s", html)
	}
	if !(first < second && second < key) {
		t.Error("pages out of order: want 001, 002, then answer key")
	}
	if !strings.Contains(html, "color:teal") {
		t.Error("page CSS lost")
	}
	if !strings.Contains(html, "file://") {
		t.Error("relative image path not rewritten against the page directory")
	}
	if !strings.Contains(stdout.String(), "(3 pages)") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

// ---------------------------------------------------------------------------
// TestRunExport_SolutionsOnly - Answer keys without pages
// ---------------------------------------------------------------------------

func TestRunExport_SolutionsOnly(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"001-a.html":          snap2print.Page{HTML: "<h1>PAGE</h1>"}.Standalone(),
		"001-a.solution.html": snap2print.Page{HTML: "<p>KEY</p>"}.Standalone(),
	})
	out := filepath.Join(dir, "keys.md")

	env, _, _ := testEnv(nil)
	if err := runExport(context.Background(), []string{dir, "-o", out, "--solutions", "only", "-q"}, env); err != nil {
		t.Fatalf("runExport() error = %v", err)
	}
	md := readFile(t, out)
	if strings.Contains(md, "PAGE") || !strings.Contains(md, "KEY") {
		t.Errorf("solutions-only export = %q", md)
	}
}

// ---------------------------------------------------------------------------
// TestRunExport_Errors
// ---------------------------------------------------------------------------

func TestRunExport_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"page.txt": "x"})

	tests := []struct {
		name     string
		args     []string
		wantCode int
	}{
		{"no input", []string{}, ExitIO},
		{"no html files", []string{dir}, ExitIO},
		{"not html", []string{filepath.Join(dir, "page.txt")}, ExitUsage},
		{"missing", []string{filepath.Join(dir, "gone.html")}, ExitIO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env, _, _ := testEnv(nil)
			err := runExport(context.Background(), tt.args, env)
			if got := exitCodeFor(err); got != tt.wantCode {
				t.Errorf("exit code = %d, want %d (err: %v)", got, tt.wantCode, err)
			}
		})
	}
}
