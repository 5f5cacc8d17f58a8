package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	snap2print "github.com/alnah/go-snap2print"
	"github.com/alnah/go-snap2print/internal/assets"
	"github.com/alnah/go-snap2print/internal/config"
	"github.com/alnah/go-snap2print/internal/fileutil"
	"github.com/alnah/go-snap2print/internal/hints"
)

// Exit codes for the snap2print CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful run
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitBrowser = 4 // Browser/Chrome errors
	ExitAI      = 5 // Model call failed or no API key
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, snap2print.ErrBrowserConnect) ||
		errors.Is(err, snap2print.ErrPageCreate) ||
		errors.Is(err, snap2print.ErrPageLoad) ||
		errors.Is(err, snap2print.ErrPDFGeneration) {
		return ExitBrowser
	}

	// Model errors (exit 5)
	if errors.Is(err, snap2print.ErrGeneration) ||
		errors.Is(err, snap2print.ErrEmptyResponse) ||
		errors.Is(err, snap2print.ErrMissingAPIKey) ||
		errors.Is(err, snap2print.ErrGeneratorSetup) {
		return ExitAI
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, fileutil.ErrNoImages) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrReadStyle) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, ErrNoInput) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, snap2print.ErrInvalidPageSize) ||
		errors.Is(err, snap2print.ErrInvalidOrientation) ||
		errors.Is(err, snap2print.ErrInvalidMargin) ||
		errors.Is(err, snap2print.ErrInvalidWatermarkColor) ||
		errors.Is(err, snap2print.ErrInvalidWatermarkOpacity) ||
		errors.Is(err, snap2print.ErrInvalidWatermarkAngle) ||
		errors.Is(err, snap2print.ErrUnsupportedFormat) ||
		errors.Is(err, snap2print.ErrInvalidSolutions) ||
		errors.Is(err, snap2print.ErrInvalidCrop) ||
		errors.Is(err, snap2print.ErrUnsupportedImage) ||
		errors.Is(err, snap2print.ErrImageTooLarge) ||
		errors.Is(err, fileutil.ErrUnsupportedExtension) ||
		errors.Is(err, assets.ErrStyleNotFound) ||
		errors.Is(err, assets.ErrInvalidAssetName) ||
		errors.Is(err, assets.ErrInvalidBasePath) ||
		errors.Is(err, ErrUnsupportedShell) {
		return ExitUsage
	}

	return ExitGeneral
}

// hintFor returns actionable advice for err, or "" when there is none.
func hintFor(err error) string {
	switch {
	case errors.Is(err, snap2print.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, snap2print.ErrMissingAPIKey):
		return hints.ForAPIKey(snap2print.APIKeyEnvVars())
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, config.ErrConfigNotFound):
		var searched []string
		if dir, dirErr := os.UserConfigDir(); dirErr == nil {
			searched = append(searched, filepath.Join(dir, "snap2print", "default.yaml"))
		}
		return hints.ForConfigNotFound(searched)
	case errors.Is(err, assets.ErrStyleNotFound):
		return hints.ForStyleNotFound(assets.AvailableStyles())
	case errors.Is(err, ErrWriteOutput):
		return hints.ForOutputDirectory()
	case errors.Is(err, snap2print.ErrGeneration) && isRateLimit(err):
		return hints.ForRateLimit()
	}
	return ""
}

// isRateLimit recognises quota errors by the status the API reports.
func isRateLimit(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}
