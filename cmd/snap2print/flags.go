package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	flag "github.com/spf13/pflag"
)

// ErrUsage marks command-line mistakes.
var ErrUsage = errors.New("usage error")

// watermarkAngleSentinel detects if --wm-angle was explicitly set.
// Since 0 is a valid angle (horizontal), we use an out-of-range sentinel.
// Valid range is -90 to 90; -999 is safely outside this range.
const watermarkAngleSentinel = -999.0

// retriesUnset detects if --retries was explicitly set.
const retriesUnset = -1

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config    string
	quiet     bool
	verbose   bool
	logLevel  string
	logFormat string
}

// aiFlags holds model-related flags.
type aiFlags struct {
	model        string
	instructions string
	timeout      string
}

// processingFlags holds job loop flags.
type processingFlags struct {
	parallel     bool
	workers      int
	delay        string
	maxDimension int
	retries      int
}

// exportFlags holds document assembly flags.
type exportFlags struct {
	title       string
	header      string
	headerFile  string
	style       string
	solutions   string
	pageNumbers bool
	pdfTimeout  time.Duration
}

// pageFlags holds page layout flags.
type pageFlags struct {
	size        string
	orientation string
	margin      float64
}

// watermarkFlags holds watermark-related flags.
type watermarkFlags struct {
	text     string
	color    string
	opacity  float64
	angle    float64
	disabled bool
}

// documentFlags groups what both convert and export need to render.
type documentFlags struct {
	common    commonFlags
	export    exportFlags
	page      pageFlags
	watermark watermarkFlags
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	documentFlags
	ai         aiFlags
	processing processingFlags
	output     string
	format     string
	remix      bool
	pagesDir   string
	report     string
	split      bool
}

// exportCmdFlags holds flags for the export command.
type exportCmdFlags struct {
	documentFlags
	output string
}

// cropFlags holds flags for the crop command.
type cropFlags struct {
	common commonFlags
	rect   string
	output string
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: text, json")
}

// addAIFlags adds model flags to a FlagSet.
func addAIFlags(fs *flag.FlagSet, f *aiFlags) {
	fs.StringVarP(&f.model, "model", "m", "", "model name")
	fs.StringVar(&f.instructions, "instructions", "", "extra instructions appended to every prompt")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-request timeout (e.g., 90s, 2m)")
}

// addProcessingFlags adds job loop flags to a FlagSet.
func addProcessingFlags(fs *flag.FlagSet, f *processingFlags) {
	fs.BoolVar(&f.parallel, "parallel", false, "send requests concurrently")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.StringVar(&f.delay, "delay", "", "pause between sequential requests (e.g., 1.5s)")
	fs.IntVar(&f.maxDimension, "max-dimension", 0, "longest image side in pixels before upload")
	fs.IntVar(&f.retries, "retries", retriesUnset, "extra passes over failed images")
}

// addExportFlags adds document assembly flags to a FlagSet.
func addExportFlags(fs *flag.FlagSet, f *exportFlags) {
	fs.StringVar(&f.title, "title", "", "document title (supports {date})")
	fs.StringVar(&f.header, "header", "", "Markdown header above the first page")
	fs.StringVar(&f.headerFile, "header-file", "", "read the header from a Markdown file")
	fs.StringVar(&f.style, "style", "", "CSS style name or file path")
	fs.StringVar(&f.solutions, "solutions", "", "answer keys: none, append, only")
	fs.BoolVar(&f.pageNumbers, "page-numbers", false, "print page numbers (PDF only)")
	fs.DurationVar(&f.pdfTimeout, "pdf-timeout", 0, "PDF rendering timeout (0 = 60s)")
}

// addPageFlags adds page layout flags to a FlagSet.
func addPageFlags(fs *flag.FlagSet, f *pageFlags) {
	fs.StringVarP(&f.size, "page-size", "p", "", "page size: letter, a4, legal")
	fs.StringVar(&f.orientation, "orientation", "", "page orientation: portrait, landscape")
	fs.Float64Var(&f.margin, "margin", 0, "page margin in inches (0.25-3.0)")
}

// addWatermarkFlags adds watermark flags to a FlagSet.
func addWatermarkFlags(fs *flag.FlagSet, f *watermarkFlags) {
	fs.StringVar(&f.text, "wm-text", "", "watermark text")
	fs.StringVar(&f.color, "wm-color", "", "watermark color (hex)")
	fs.Float64Var(&f.opacity, "wm-opacity", 0, "watermark opacity (0.0-1.0)")
	fs.Float64Var(&f.angle, "wm-angle", watermarkAngleSentinel, "watermark angle in degrees")
	fs.BoolVar(&f.disabled, "no-watermark", false, "disable watermark")
}

// addDocumentFlags adds the flag groups shared by convert and export.
func addDocumentFlags(fs *flag.FlagSet, f *documentFlags) {
	addCommonFlags(fs, &f.common)
	addExportFlags(fs, &f.export)
	addPageFlags(fs, &f.page)
	addWatermarkFlags(fs, &f.watermark)
}

// newConvertFlagSet builds the convert FlagSet bound to f.
func newConvertFlagSet(f *convertFlags, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVarP(&f.output, "output", "o", "", "output file (.pdf, .html, .doc, .md) or directory with --split")
	fs.BoolVar(&f.remix, "remix", false, "generate altered versions instead of replicas")
	fs.StringVar(&f.pagesDir, "pages-dir", "", "also write each page as an editable HTML file")
	fs.StringVar(&f.report, "report", "", "write a job report (.xlsx)")
	fs.BoolVar(&f.split, "split", false, "export one file per image")
	fs.StringVarP(&f.format, "format", "f", "", "output format when --output has no extension: pdf, html, doc, md")

	addDocumentFlags(fs, &f.documentFlags)
	addAIFlags(fs, &f.ai)
	addProcessingFlags(fs, &f.processing)

	fs.Usage = func() { printConvertUsage(stderr) }
	return fs
}

// newExportFlagSet builds the export FlagSet bound to f.
func newExportFlagSet(f *exportCmdFlags, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVarP(&f.output, "output", "o", "", "output file (.pdf, .html, .doc, .md)")
	addDocumentFlags(fs, &f.documentFlags)

	fs.Usage = func() { printExportUsage(stderr) }
	return fs
}

// newCropFlagSet builds the crop FlagSet bound to f.
func newCropFlagSet(f *cropFlags, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("crop", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVarP(&f.rect, "rect", "r", "", "crop rectangle X,Y,WIDTH,HEIGHT in pixels")
	fs.StringVarP(&f.output, "output", "o", "", "output image path")
	addCommonFlags(fs, &f.common)

	fs.Usage = func() { printCropUsage(stderr) }
	return fs
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string, stderr io.Writer) (*convertFlags, []string, error) {
	f := &convertFlags{}
	fs := newConvertFlagSet(f, stderr)
	if err := parseFlagSet(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseExportFlags parses export command flags and returns positional args.
func parseExportFlags(args []string, stderr io.Writer) (*exportCmdFlags, []string, error) {
	f := &exportCmdFlags{}
	fs := newExportFlagSet(f, stderr)
	if err := parseFlagSet(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseCropFlags parses crop command flags and returns positional args.
func parseCropFlags(args []string, stderr io.Writer) (*cropFlags, []string, error) {
	f := &cropFlags{}
	fs := newCropFlagSet(f, stderr)
	if err := parseFlagSet(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseFlagSet parses args, printing usage on --help and tagging every
// other failure as a usage error.
func parseFlagSet(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fs.Usage()
			return err
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}
