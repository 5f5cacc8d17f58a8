// Package hints appends actionable advice to error messages, formatted as
// "\n  hint: <text>".
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-snap2print/internal/fileutil"
)

// IsInContainer detects Docker-like environments via /.dockerenv.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForBrowserConnect returns hints for browser connection errors.
func ForBrowserConnect() string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	if (inCI || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}
	return formatHints(hints)
}

// ForAPIKey returns a hint listing where the API key is read from.
func ForAPIKey(envVars []string) string {
	return format("set " + strings.Join(envVars, " or ") + ", or ai.apiKey in the config file")
}

// ForRateLimit returns a hint for quota or rate-limit errors.
func ForRateLimit() string {
	return format("increase --delay or lower --workers to stay under the API rate limit")
}

// ForTimeout returns a hint about raising the timeout.
func ForTimeout() string {
	return format("for large batches, use --timeout flag")
}

// ForConfigNotFound suggests --config or creating a user config file.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"
	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/snap2print") {
			hint += " or create " + p
			break
		}
	}
	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForStyleNotFound lists the available style names.
func ForStyleNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
