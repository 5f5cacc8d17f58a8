package main

// Notes:
// - Tests use black-box approach: testing through runDoctorCmd() observable outputs
// - Container and API key detection tests modify environment variables,
//   cannot use t.Parallel()
// - Chrome detection depends on system state, tested via observable JSON output

import (
	"bytes"
	"encoding/json"
	"runtime"
	"strings"
	"testing"
)

func runDoctorJSON(t *testing.T) (doctorResult, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	env := &Environment{Stdout: &stdout, Stderr: &stderr}

	code := runDoctorCmd([]string{"--json"}, env)

	var result doctorResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		t.Fatalf("Invalid JSON output: %v\nOutput was: %s", err, stdout.String())
	}
	return result, code
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd_JSONOutput - Verifies JSON output format and structure
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_JSONOutput(t *testing.T) {
	t.Parallel()

	result, code := runDoctorJSON(t)

	if result.Env.OS != runtime.GOOS || result.Env.Arch != runtime.GOARCH {
		t.Errorf("platform = %s/%s, want %s/%s", result.Env.OS, result.Env.Arch, runtime.GOOS, runtime.GOARCH)
	}
	validStatuses := map[string]bool{"ready": true, "warnings": true, "errors": true}
	if !validStatuses[result.Status] {
		t.Errorf("Invalid status %q, expected ready/warnings/errors", result.Status)
	}
	if result.Status == "errors" && code != ExitGeneral {
		t.Errorf("Expected exit code %d for errors status, got %d", ExitGeneral, code)
	}
	if result.Status != "errors" && code != ExitSuccess {
		t.Errorf("Expected exit code %d for non-error status, got %d", ExitSuccess, code)
	}
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd_APIKey - Key detection without revealing the key
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_APIKey(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		t.Setenv("SNAP2PRINT_API_KEY", "")
		t.Setenv("GEMINI_API_KEY", "secret-value")
		t.Setenv("GOOGLE_API_KEY", "")

		var stdout bytes.Buffer
		runDoctorCmd([]string{"--json"}, &Environment{Stdout: &stdout, Stderr: &bytes.Buffer{}})

		if strings.Contains(stdout.String(), "secret-value") {
			t.Fatal("doctor output leaks the API key")
		}
		var result doctorResult
		if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
			t.Fatal(err)
		}
		if !result.AI.KeyFound || result.AI.KeySource != "GEMINI_API_KEY" {
			t.Errorf("ai = %+v, want found via GEMINI_API_KEY", result.AI)
		}
	})

	t.Run("missing is a warning", func(t *testing.T) {
		t.Setenv("SNAP2PRINT_API_KEY", "")
		t.Setenv("GEMINI_API_KEY", "")
		t.Setenv("GOOGLE_API_KEY", "")

		result, _ := runDoctorJSON(t)
		if result.AI.KeyFound {
			t.Error("KeyFound = true with no key set")
		}
		found := false
		for _, w := range result.Warnings {
			if strings.Contains(w, "API key") {
				found = true
			}
		}
		if !found {
			t.Errorf("warnings = %v, want an API key warning", result.Warnings)
		}
	})
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd_Container - Explicit container override
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_Container(t *testing.T) {
	t.Setenv("SNAP2PRINT_CONTAINER", "1")
	t.Setenv("ROD_NO_SANDBOX", "")

	result, _ := runDoctorJSON(t)

	if !result.Env.Container || result.Env.ContainerHint != "SNAP2PRINT_CONTAINER=1" {
		t.Errorf("env = %+v, want container via SNAP2PRINT_CONTAINER", result.Env)
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "ROD_NO_SANDBOX") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want sandbox warning", result.Warnings)
	}
}

// ---------------------------------------------------------------------------
// TestPrintDoctorResult - Human-readable output
// ---------------------------------------------------------------------------

func TestPrintDoctorResult(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printDoctorResult(&buf, &doctorResult{
		Status:   "warnings",
		Chrome:   chromeInfo{Found: true, Path: "/usr/bin/chromium", Version: "Chromium 130", Sandbox: true},
		AI:       aiInfo{},
		Env:      envInfo{OS: "linux", Arch: "amd64"},
		System:   systemInfo{TempWritable: true},
		Warnings: []string{"No API key in the environment"},
	})

	out := buf.String()
	for _, want := range []string{
		"snap2print doctor",
		"[OK] Found at /usr/bin/chromium",
		"[WARN] API key: not set",
		"[OK] Platform: linux/amd64",
		"[WARN] No API key in the environment",
		"Status: READY (with warnings)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
