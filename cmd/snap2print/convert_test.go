package main

// Notes:
// - runConvert is driven end to end with a fake model injected through
//   Environment.NewGenerator. Outputs use .html, .md and .doc so no browser
//   is needed; PDF export is covered by the root package integration tests.
// - --delay 0s keeps sequential runs fast.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	snap2print "github.com/alnah/go-snap2print"
	"github.com/alnah/go-snap2print/internal/config"
	"github.com/alnah/go-snap2print/internal/fileutil"
	"github.com/alnah/go-snap2print/internal/logging"
)

// ---------------------------------------------------------------------------
// TestRunConvert_SingleDocument - Happy path
// ---------------------------------------------------------------------------

func TestRunConvert_SingleDocument(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writePNG(t, dir, "a.png", 40, 30)
	writePNG(t, dir, "b.png", 40, 30)
	out := filepath.Join(dir, "out", "quiz.html")

	model := &fakeModel{}
	env, stdout, _ := testEnv(model)

	err := runConvert(context.Background(), []string{dir, "-o", out, "--delay", "0s", "--title", "Quiz"}, env)
	if err != nil {
		t.Fatalf("runConvert() error = %v", err)
	}

	html := readFile(t, out)
	if strings.Count(html, "WORKSHEET") != 2 {
		t.Errorf("expected 2 pages in output, got:\n%s", html)
	}
	if !strings.Contains(html, "<title>Quiz</title>") {
		t.Error("output missing title")
	}
	if model.count(snap2print.TaskSolution) != 0 {
		t.Error("answer keys generated without --solutions")
	}
	if !strings.Contains(stdout.String(), "Converted 2/2 images") {
		t.Errorf("stdout = %q, want summary", stdout.String())
	}
}

// ---------------------------------------------------------------------------
// TestRunConvert_Solutions - Answer keys appended
// ---------------------------------------------------------------------------

func TestRunConvert_Solutions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	img := writePNG(t, dir, "page.png", 20, 20)
	out := filepath.Join(dir, "quiz.md")

	model := &fakeModel{}
	env, _, _ := testEnv(model)

	err := runConvert(context.Background(), []string{img, "-o", out, "--delay", "0s", "--solutions", "append"}, env)
	if err != nil {
		t.Fatalf("runConvert() error = %v", err)
	}
	if model.count(snap2print.TaskSolution) != 1 {
		t.Errorf("solution calls = %d, want 1", model.count(snap2print.TaskSolution))
	}
	md := readFile(t, out)
	if !strings.Contains(md, "WORKSHEET") || !strings.Contains(md, "ANSWERS") {
		t.Errorf("markdown missing page or answer key:\n%s", md)
	}
}

// ---------------------------------------------------------------------------
// TestRunConvert_Remix - Remix mode from the start
// ---------------------------------------------------------------------------

func TestRunConvert_Remix(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	img := writePNG(t, dir, "page.png", 20, 20)
	out := filepath.Join(dir, "remix.html")

	model := &fakeModel{}
	env, _, _ := testEnv(model)

	if err := runConvert(context.Background(), []string{img, "-o", out, "--delay", "0s", "--remix"}, env); err != nil {
		t.Fatalf("runConvert() error = %v", err)
	}
	if model.count(snap2print.TaskRemix) != 1 || model.count(snap2print.TaskReplicate) != 0 {
		t.Errorf("tasks = %v, want one remix", model.tasks)
	}
	if !strings.Contains(readFile(t, out), "REMIXED") {
		t.Error("output missing remixed page")
	}
}

// ---------------------------------------------------------------------------
// TestRunConvert_PartialFailure - Failed images are reported, rest exported
// ---------------------------------------------------------------------------

func TestRunConvert_PartialFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writePNG(t, dir, "1.png", 20, 20)
	writePNG(t, dir, "2.png", 20, 20)
	writePNG(t, dir, "3.png", 20, 20)
	out := filepath.Join(dir, "quiz.html")
	report := filepath.Join(dir, "report.xlsx")

	model := &fakeModel{failCalls: map[int]bool{2: true}}
	env, _, stderr := testEnv(model)

	err := runConvert(context.Background(), []string{dir, "-o", out, "--delay", "0s", "--report", report}, env)
	if !errors.Is(err, ErrBatchFailed) {
		t.Fatalf("runConvert() error = %v, want ErrBatchFailed", err)
	}
	if strings.Count(readFile(t, out), "WORKSHEET") != 2 {
		t.Error("expected the 2 successful pages to be exported")
	}
	if !strings.Contains(stderr.String(), "FAILED 2.png") {
		t.Errorf("stderr = %q, want FAILED line for 2.png", stderr.String())
	}

	f, err := excelize.OpenFile(report)
	if err != nil {
		t.Fatalf("opening report: %v", err)
	}
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("report rows = %d, want header + 3", len(rows))
	}
	if rows[2][3] != string(snap2print.StatusError) {
		t.Errorf("row for 2.png status = %q, want ERROR", rows[2][3])
	}
}

// ---------------------------------------------------------------------------
// TestRunConvert_Retries - Failed images get another pass
// ---------------------------------------------------------------------------

func TestRunConvert_Retries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		retries   string
		failCalls map[int]bool
		wantErr   bool
		wantCalls int
		wantPages int
	}{
		{
			name:      "transient failure recovered",
			retries:   "1",
			failCalls: map[int]bool{2: true},
			wantCalls: 4,
			wantPages: 3,
		},
		{
			name:      "no retries keeps the failure",
			retries:   "0",
			failCalls: map[int]bool{2: true},
			wantErr:   true,
			wantCalls: 3,
			wantPages: 2,
		},
		{
			name:      "retries exhausted",
			retries:   "2",
			failCalls: map[int]bool{2: true, 4: true, 5: true},
			wantErr:   true,
			wantCalls: 5,
			wantPages: 2,
		},
		{
			name:      "stops once everything succeeded",
			retries:   "3",
			failCalls: map[int]bool{1: true},
			wantCalls: 4,
			wantPages: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writePNG(t, dir, "1.png", 20, 20)
			writePNG(t, dir, "2.png", 20, 20)
			writePNG(t, dir, "3.png", 20, 20)
			out := filepath.Join(t.TempDir(), "quiz.html")

			model := &fakeModel{failCalls: tt.failCalls}
			env, stdout, _ := testEnv(model)

			err := runConvert(context.Background(), []string{dir, "-o", out, "--delay", "0s", "--retries", tt.retries}, env)
			if tt.wantErr != errors.Is(err, ErrBatchFailed) {
				t.Fatalf("runConvert() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("runConvert() error = %v", err)
			}
			if got := model.count(snap2print.TaskReplicate); got != tt.wantCalls {
				t.Errorf("model calls = %d, want %d", got, tt.wantCalls)
			}
			if got := strings.Count(readFile(t, out), "WORKSHEET"); got != tt.wantPages {
				t.Errorf("exported pages = %d, want %d", got, tt.wantPages)
			}
			want := fmt.Sprintf("Converted %d/3 images", tt.wantPages)
			if !strings.Contains(stdout.String(), want) {
				t.Errorf("stdout = %q, want %q", stdout.String(), want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRunConvert_AllFailed - Nothing to export
// ---------------------------------------------------------------------------

func TestRunConvert_AllFailed(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	img := writePNG(t, dir, "page.png", 20, 20)
	out := filepath.Join(dir, "quiz.html")

	model := &fakeModel{failCalls: map[int]bool{1: true}}
	env, _, _ := testEnv(model)

	err := runConvert(context.Background(), []string{img, "-o", out, "--delay", "0s"}, env)
	if err == nil {
		t.Fatal("runConvert() error = nil, want failure")
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("output written although every image failed")
	}
}

// ---------------------------------------------------------------------------
// TestRunConvert_PagesDirAndSplit - Editable pages and one file per image
// ---------------------------------------------------------------------------

func TestRunConvert_PagesDirAndSplit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writePNG(t, dir, "alpha.png", 20, 20)
	writePNG(t, dir, "beta.png", 20, 20)
	pages := filepath.Join(dir, "pages")
	split := filepath.Join(dir, "split")

	model := &fakeModel{}
	env, _, _ := testEnv(model)

	args := []string{dir, "--delay", "0s", "--solutions", "append", "--pages-dir", pages, "--split", "-o", split, "-f", "doc"}
	if err := runConvert(context.Background(), args, env); err != nil {
		t.Fatalf("runConvert() error = %v", err)
	}

	for _, name := range []string{"001-alpha.html", "001-alpha.solution.html", "002-beta.html", "002-beta.solution.html"} {
		if !fileutil.FileExists(filepath.Join(pages, name)) {
			t.Errorf("pages dir missing %s", name)
		}
	}
	page := readFile(t, filepath.Join(pages, "001-alpha.html"))
	if !strings.Contains(page, "h1{color:navy}") || !strings.Contains(page, "WORKSHEET") {
		t.Errorf("standalone page lost its CSS or body:\n%s", page)
	}

	for _, name := range []string{"001-alpha.doc", "002-beta.doc"} {
		doc := readFile(t, filepath.Join(split, name))
		if !strings.Contains(doc, "urn:schemas-microsoft-com:office:word") {
			t.Errorf("%s is not a Word document", name)
		}
	}
}

// ---------------------------------------------------------------------------
// TestExportSplit_SameStem - Inputs sharing a name get distinct files
// ---------------------------------------------------------------------------

func TestExportSplit_SameStem(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	env, _, _ := testEnv(&fakeModel{})
	opts, err := exporterOptions(cfg, 0, env.Now)
	if err != nil {
		t.Fatalf("exporterOptions() error = %v", err)
	}
	r := &convertRun{cfg: cfg, flags: &convertFlags{}, env: env, logger: logging.Discard(), expOpts: opts}

	jobs := []snap2print.Job{
		{Name: "scan.png", Status: snap2print.StatusCompleted, Result: "<p>PAGE-A</p>"},
		{Name: "scan.jpg", Status: snap2print.StatusCompleted, Result: "<p>PAGE-B</p>"},
		{Name: "skipped.png", Status: snap2print.StatusError},
	}

	written, err := r.exportSplit(context.Background(), jobs, snap2print.FormatHTML, dir)
	if err != nil {
		t.Fatalf("exportSplit() error = %v", err)
	}
	want := []string{filepath.Join(dir, "001-scan.html"), filepath.Join(dir, "002-scan.html")}
	if len(written) != len(want) {
		t.Fatalf("written = %v, want %v", written, want)
	}
	for i, path := range want {
		if written[i] != path {
			t.Errorf("written[%d] = %q, want %q", i, written[i], path)
		}
	}
	if !strings.Contains(readFile(t, want[0]), "PAGE-A") {
		t.Error("first file lost PAGE-A")
	}
	if !strings.Contains(readFile(t, want[1]), "PAGE-B") {
		t.Error("second file lost PAGE-B")
	}
}

// ---------------------------------------------------------------------------
// TestWritePages_SameName - Answer keys stay with their own page
// ---------------------------------------------------------------------------

func TestWritePages_SameName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	jobs := []snap2print.Job{
		{Name: "p.png", Status: snap2print.StatusCompleted, Result: "<p>PAGE-A</p>", Solution: "<p>SOL-A</p>"},
		{Name: "p.png", Status: snap2print.StatusCompleted, Result: "<p>PAGE-B</p>", Solution: "<p>SOL-B</p>"},
		{Name: "p.png", Status: snap2print.StatusCompleted, Result: "<p>PAGE-C</p>"},
	}
	if err := writePages(dir, jobs); err != nil {
		t.Fatalf("writePages() error = %v", err)
	}

	tests := []struct {
		file    string
		want    string
		notWant string
	}{
		{"001-p.html", "PAGE-A", "PAGE-B"},
		{"001-p.solution.html", "SOL-A", "SOL-B"},
		{"002-p.html", "PAGE-B", "PAGE-A"},
		{"002-p.solution.html", "SOL-B", "SOL-A"},
		{"003-p.html", "PAGE-C", "SOL"},
	}
	for _, tt := range tests {
		got := readFile(t, filepath.Join(dir, tt.file))
		if !strings.Contains(got, tt.want) || strings.Contains(got, tt.notWant) {
			t.Errorf("%s = %q, want %s only", tt.file, got, tt.want)
		}
	}
	if fileutil.FileExists(filepath.Join(dir, "003-p.solution.html")) {
		t.Error("answer key written for a page without one")
	}
}

// ---------------------------------------------------------------------------
// TestRunConvert_Errors - Validation before any model call
// ---------------------------------------------------------------------------

func TestRunConvert_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	img := writePNG(t, dir, "page.png", 20, 20)
	txt := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(txt, []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		args     []string
		wantCode int
	}{
		{"no input", []string{}, ExitIO},
		{"unknown flag", []string{img, "--bogus"}, ExitUsage},
		{"bad format", []string{img, "-o", filepath.Join(dir, "x.rtf")}, ExitUsage},
		{"bad page size", []string{img, "-p", "a9", "-o", filepath.Join(dir, "x.html")}, ExitUsage},
		{"bad solutions", []string{img, "--solutions", "later"}, ExitUsage},
		{"bad style", []string{img, "--style", "fancy"}, ExitUsage},
		{"missing file", []string{filepath.Join(dir, "nope.png")}, ExitIO},
		{"unsupported file", []string{txt}, ExitUsage},
		{"empty dir", []string{t.TempDir()}, ExitIO},
		{"missing config", []string{img, "-c", "does-not-exist"}, ExitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			model := &fakeModel{}
			env, _, _ := testEnv(model)

			err := runConvert(context.Background(), tt.args, env)
			if err == nil {
				t.Fatal("runConvert() error = nil, want error")
			}
			if got := exitCodeFor(err); got != tt.wantCode {
				t.Errorf("exit code = %d, want %d (err: %v)", got, tt.wantCode, err)
			}
			if len(model.tasks) != 0 {
				t.Errorf("model called %d times before validation failed", len(model.tasks))
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRunConvert_GeneratorSetupError - Missing key surfaces as model error
// ---------------------------------------------------------------------------

func TestRunConvert_GeneratorSetupError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	img := writePNG(t, dir, "page.png", 20, 20)
	env, _, _ := testEnv(nil)
	env.NewGenerator = func(context.Context, *config.Config, *slog.Logger) (snap2print.Generator, error) {
		return nil, snap2print.ErrMissingAPIKey
	}

	err := runConvert(context.Background(), []string{img, "-o", filepath.Join(dir, "x.html")}, env)
	if got := exitCodeFor(err); got != ExitAI {
		t.Errorf("exit code = %d, want %d (err: %v)", got, ExitAI, err)
	}
}

// ---------------------------------------------------------------------------
// TestRunConvert_Cancelled - Interrupted runs export nothing
// ---------------------------------------------------------------------------

func TestRunConvert_Cancelled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	img := writePNG(t, dir, "page.png", 20, 20)
	out := filepath.Join(dir, "x.html")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	env, _, _ := testEnv(&fakeModel{})

	err := runConvert(ctx, []string{img, "-o", out, "--delay", "0s"}, env)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("runConvert() error = %v, want context.Canceled", err)
	}
	if fileutil.FileExists(out) {
		t.Error("output written after cancellation")
	}
}
