package snap2print

import (
	"fmt"
	"path/filepath"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Page size constants.
const (
	PageSizeLetter = "letter"
	PageSizeA4     = "a4"
	PageSizeLegal  = "legal"
)

// Orientation constants.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// Margin bounds in inches.
const (
	MinMargin     = 0.25
	MaxMargin     = 3.0
	DefaultMargin = 0.5
)

// paperSizes holds portrait width and height in inches.
var paperSizes = map[string][2]float64{
	PageSizeLetter: {8.5, 11},
	PageSizeA4:     {8.27, 11.69},
	PageSizeLegal:  {8.5, 14},
}

// PageSettings configures the printed page.
type PageSettings struct {
	Size        string  // "letter", "a4", "legal"
	Orientation string  // "portrait", "landscape"
	Margin      float64 // inches, applied to all sides
}

// DefaultPageSettings returns A4 portrait with half-inch margins.
func DefaultPageSettings() *PageSettings {
	return &PageSettings{
		Size:        PageSizeA4,
		Orientation: OrientationPortrait,
		Margin:      DefaultMargin,
	}
}

// Validate checks that page settings are valid.
// Returns nil if p is nil (nil means use defaults).
func (p *PageSettings) Validate() error {
	if p == nil {
		return nil
	}
	if _, ok := paperSizes[strings.ToLower(p.Size)]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidPageSize, p.Size)
	}
	switch strings.ToLower(p.Orientation) {
	case OrientationPortrait, OrientationLandscape:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOrientation, p.Orientation)
	}
	if p.Margin < MinMargin || p.Margin > MaxMargin {
		return fmt.Errorf("%w: %.2f (must be between %.2f and %.2f)", ErrInvalidMargin, p.Margin, MinMargin, MaxMargin)
	}
	return nil
}

// Dimensions returns paper width and height in inches after orientation.
func (p *PageSettings) Dimensions() (width, height float64) {
	dims := paperSizes[strings.ToLower(p.Size)]
	if strings.EqualFold(p.Orientation, OrientationLandscape) {
		return dims[1], dims[0]
	}
	return dims[0], dims[1]
}

// Watermark defaults.
const (
	DefaultWatermarkColor   = "#888888"
	DefaultWatermarkOpacity = 0.1
	DefaultWatermarkAngle   = -45.0
)

// Watermark configures a diagonal background text, e.g. "ANSWER KEY".
type Watermark struct {
	Text    string
	Color   string  // hex color
	Opacity float64 // 0.0 to 1.0
	Angle   float64 // degrees, -90 to 90
}

// Validate checks that watermark settings are valid.
// Returns nil if w is nil (nil means no watermark).
func (w *Watermark) Validate() error {
	if w == nil {
		return nil
	}
	if _, err := colorful.Hex(w.Color); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidWatermarkColor, w.Color)
	}
	if w.Opacity < 0 || w.Opacity > 1 {
		return fmt.Errorf("%w: %.2f (must be between 0 and 1)", ErrInvalidWatermarkOpacity, w.Opacity)
	}
	if w.Angle < -90 || w.Angle > 90 {
		return fmt.Errorf("%w: %.1f (must be between -90 and 90)", ErrInvalidWatermarkAngle, w.Angle)
	}
	return nil
}

// NewWatermark returns a watermark with default color, opacity and angle.
func NewWatermark(text string) *Watermark {
	return &Watermark{
		Text:    text,
		Color:   DefaultWatermarkColor,
		Opacity: DefaultWatermarkOpacity,
		Angle:   DefaultWatermarkAngle,
	}
}

// Format is an export format.
type Format string

// Export formats.
const (
	FormatHTML     Format = "html"
	FormatWord     Format = "doc"
	FormatPDF      Format = "pdf"
	FormatMarkdown Format = "md"
)

// ParseFormat accepts a format name or a file extension with or without dot.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(s), ".") {
	case "html", "htm":
		return FormatHTML, nil
	case "doc", "word":
		return FormatWord, nil
	case "pdf":
		return FormatPDF, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// FormatFromPath infers the export format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Extension returns the file extension (with dot) for the format.
func (f Format) Extension() string { return "." + string(f) }

// ContentType returns the MIME type of exported documents.
func (f Format) ContentType() string {
	switch f {
	case FormatWord:
		return "application/msword"
	case FormatPDF:
		return "application/pdf"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "text/html; charset=utf-8"
	}
}

// SolutionsMode controls where answer keys go in an export.
type SolutionsMode string

// Solutions modes.
const (
	SolutionsNone   SolutionsMode = "none"   // pages only
	SolutionsAppend SolutionsMode = "append" // pages, then answer keys
	SolutionsOnly   SolutionsMode = "only"   // answer keys only
)

// ParseSolutionsMode validates a solutions mode; empty means none.
func ParseSolutionsMode(s string) (SolutionsMode, error) {
	switch SolutionsMode(strings.ToLower(s)) {
	case "", SolutionsNone:
		return SolutionsNone, nil
	case SolutionsAppend:
		return SolutionsAppend, nil
	case SolutionsOnly:
		return SolutionsOnly, nil
	}
	return "", fmt.Errorf("%w: %q (must be none, append, or only)", ErrInvalidSolutions, s)
}
