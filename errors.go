package snap2print

import "errors"

// Sentinel errors for library operations.
var (
	// Job and queue errors.
	ErrJobNotFound       = errors.New("job not found")
	ErrInvalidTransition = errors.New("invalid job status transition")
	ErrEmptyResult       = errors.New("result HTML cannot be empty")
	ErrNothingToProcess  = errors.New("no jobs to process")

	// Generation errors.
	ErrGeneration     = errors.New("AI generation failed")
	ErrEmptyResponse  = errors.New("model returned an empty response")
	ErrMissingAPIKey  = errors.New("missing API key")
	ErrEmptyImage     = errors.New("image data cannot be empty")
	ErrUnknownTask    = errors.New("unknown generation task")
	ErrMissingSource  = errors.New("source HTML required for solution task")
	ErrGeneratorSetup = errors.New("failed to initialize generator")

	// Image errors.
	ErrUnsupportedImage = errors.New("unsupported image format")
	ErrImageDecode      = errors.New("failed to decode image")
	ErrImageTooLarge    = errors.New("image has too many pixels")
	ErrImageEncode      = errors.New("failed to encode image")
	ErrInvalidCrop      = errors.New("invalid crop rectangle")

	// Export errors.
	ErrNoPages            = errors.New("document has no pages")
	ErrUnsupportedFormat  = errors.New("unsupported export format")
	ErrInvalidSolutions   = errors.New("invalid solutions mode")
	ErrHeaderRender       = errors.New("header rendering failed")
	ErrMarkdownConversion = errors.New("markdown conversion failed")

	// PDF rendering errors.
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")

	// Page settings validation errors.
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrInvalidMargin      = errors.New("invalid margin")

	// Watermark validation errors.
	ErrInvalidWatermarkColor   = errors.New("invalid watermark color")
	ErrInvalidWatermarkOpacity = errors.New("invalid watermark opacity")
	ErrInvalidWatermarkAngle   = errors.New("invalid watermark angle")
)
