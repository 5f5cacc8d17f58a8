package snap2print

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"sync"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/alnah/go-snap2print/internal/assets"
	"github.com/alnah/go-snap2print/internal/dateutil"
	"github.com/alnah/go-snap2print/internal/pipeline"
)

// DefaultTitle is used when a document has no title.
const DefaultTitle = "Snap2Print Document"

// solutionHeading labels answer key pages.
const solutionHeading = "Answer key"

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithPageSettings sets paper size, orientation and margins.
func WithPageSettings(p *PageSettings) ExporterOption {
	return func(e *Exporter) {
		if p != nil {
			e.page = p
		}
	}
}

// WithWatermark draws w behind every page of HTML and PDF exports.
func WithWatermark(w *Watermark) ExporterOption {
	return func(e *Exporter) { e.watermark = w }
}

// WithSolutions selects which pages go into the export.
func WithSolutions(mode SolutionsMode) ExporterOption {
	return func(e *Exporter) { e.solutions = mode }
}

// WithStyle replaces the built-in print CSS.
func WithStyle(css string) ExporterOption {
	return func(e *Exporter) { e.style = css }
}

// WithPageNumbers prints "n / total" in the PDF footer.
func WithPageNumbers(enabled bool) ExporterOption {
	return func(e *Exporter) { e.pageNumbers = enabled }
}

// WithImageDir resolves relative image paths in page HTML against dir.
// Used when exporting pages edited on disk.
func WithImageDir(dir string) ExporterOption {
	return func(e *Exporter) { e.imageDir = dir }
}

// WithPDFTimeout bounds browser rendering when ctx has no deadline.
func WithPDFTimeout(d time.Duration) ExporterOption {
	return func(e *Exporter) { e.pdfTimeout = d }
}

// WithClock sets the time used for {date} placeholders.
func WithClock(now func() time.Time) ExporterOption {
	return func(e *Exporter) {
		if now != nil {
			e.now = now
		}
	}
}

// Exporter turns a Document into printable HTML, Word, PDF or Markdown.
// PDF rendering starts a browser on first use; call Close when done.
type Exporter struct {
	page        *PageSettings
	watermark   *Watermark
	solutions   SolutionsMode
	style       string
	wordStyle   string
	pageNumbers bool
	imageDir    string
	pdfTimeout  time.Duration
	now         func() time.Time

	header   pipeline.FragmentConverter
	injector pipeline.CSSInjector
	markdown *md.Converter

	pdfOnce sync.Once
	pdf     pdfConverter
}

// NewExporter validates options and returns an Exporter.
func NewExporter(opts ...ExporterOption) (*Exporter, error) {
	loader := assets.NewEmbeddedLoader()
	printCSS, err := loader.LoadStyle(assets.DefaultStyle)
	if err != nil {
		return nil, err
	}
	wordCSS, err := loader.LoadStyle(assets.WordStyle)
	if err != nil {
		return nil, err
	}

	e := &Exporter{
		page:      DefaultPageSettings(),
		solutions: SolutionsNone,
		style:     printCSS,
		wordStyle: wordCSS,
		now:       time.Now,
		header:    pipeline.NewGoldmarkConverter(),
		injector:  &pipeline.CSSInjection{},
		markdown:  md.NewConverter("", true, nil),
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.page.Validate(); err != nil {
		return nil, err
	}
	if err := e.watermark.Validate(); err != nil {
		return nil, err
	}
	mode, err := ParseSolutionsMode(string(e.solutions))
	if err != nil {
		return nil, err
	}
	e.solutions = mode
	return e, nil
}

// Close releases the browser if a PDF was rendered.
func (e *Exporter) Close() error {
	if e.pdf != nil {
		return e.pdf.Close()
	}
	return nil
}

// Export renders doc in the given format.
func (e *Exporter) Export(ctx context.Context, doc *Document, format Format) ([]byte, error) {
	switch format {
	case FormatHTML:
		return e.ExportHTML(ctx, doc)
	case FormatWord:
		return e.ExportWord(ctx, doc)
	case FormatPDF:
		return e.ExportPDF(ctx, doc)
	case FormatMarkdown:
		return e.ExportMarkdown(ctx, doc)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// printData feeds printTemplate.
type printData struct {
	Title  string
	CSS    template.CSS
	Header template.HTML
	Pages  []printPage
}

type printPage struct {
	ID       string
	Name     string
	Solution bool
	Heading  string
	Body     template.HTML
}

var printTemplate = template.Must(template.New("print").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="generator" content="snap2print">
<title>{{.Title}}</title>
<style>{{.CSS}}</style>
</head>
<body>
{{- if .Header}}
<header class="snap2print-header">{{.Header}}</header>
{{- end}}
{{- range .Pages}}
<section class="snap2print-page{{if .Solution}} snap2print-solution{{end}}" data-page="{{.ID}}" data-source="{{.Name}}">
{{- if .Solution}}
<p class="snap2print-solution-title">{{.Heading}}</p>
{{- end}}
{{.Body}}
</section>
{{- end}}
</body>
</html>
`))

// ExportHTML renders a standalone printable HTML document: one section per
// page with a page break after each, @page sizing, print CSS, and the
// watermark when configured.
func (e *Exporter) ExportHTML(ctx context.Context, doc *Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pages, err := doc.layout(e.solutions)
	if err != nil {
		return nil, err
	}

	title, err := e.title(doc)
	if err != nil {
		return nil, err
	}
	header, err := e.renderHeader(ctx, doc)
	if err != nil {
		return nil, err
	}

	var css strings.Builder
	css.WriteString(buildPageCSS(e.page))
	css.WriteString(pipeline.SanitizeCSS(e.style))
	css.WriteString(buildWatermarkCSS(e.watermark))

	data := printData{Title: title, Header: template.HTML(header)} // #nosec G203 -- rendered by goldmark without raw HTML
	for _, p := range pages {
		body, err := e.pageBody(p)
		if err != nil {
			return nil, err
		}
		css.WriteString(scopePageCSS(p.CSS, p.ID))
		data.Pages = append(data.Pages, printPage{
			ID:       p.ID,
			Name:     p.Name,
			Solution: p.Solution,
			Heading:  solutionHeading + ": " + p.Name,
			Body:     template.HTML(body), // #nosec G203 -- sanitized by CleanHTML
		})
	}
	data.CSS = template.CSS(css.String()) // #nosec G203 -- built from sanitized parts

	var buf bytes.Buffer
	if err := printTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering HTML export: %w", err)
	}
	return buf.Bytes(), nil
}

// wordPageBreak is the manual page break Word recognises in HTML.
const wordPageBreak = `<br clear=all style='mso-special-character:line-break;page-break-before:always'>`

// ExportWord renders an HTML document Word opens in print layout.
// Word does not support the watermark CSS, so it is omitted.
func (e *Exporter) ExportWord(ctx context.Context, doc *Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pages, err := doc.layout(e.solutions)
	if err != nil {
		return nil, err
	}

	title, err := e.title(doc)
	if err != nil {
		return nil, err
	}
	header, err := e.renderHeader(ctx, doc)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(`<html xmlns:o="urn:schemas-microsoft-com:office:office" xmlns:w="urn:schemas-microsoft-com:office:word" xmlns="http://www.w3.org/TR/REC-html40">` + "\n")
	b.WriteString("<head>\n<meta charset=\"utf-8\">\n")
	b.WriteString("<title>" + template.HTMLEscapeString(title) + "</title>\n")
	b.WriteString("<!--[if gte mso 9]><xml><w:WordDocument><w:View>Print</w:View><w:Zoom>100</w:Zoom><w:DoNotOptimizeForBrowser/></w:WordDocument></xml><![endif]-->\n")
	b.WriteString("</head>\n<body>\n<div class=\"Section1\">\n")

	if header != "" {
		b.WriteString(header)
		b.WriteString("\n")
	}

	var css strings.Builder
	css.WriteString(buildWordPageCSS(e.page))
	css.WriteString(e.wordStyle)

	for i, p := range pages {
		if i > 0 {
			b.WriteString(wordPageBreak + "\n")
		}
		body, err := e.pageBody(p)
		if err != nil {
			return nil, err
		}
		if p.Solution {
			b.WriteString(`<p class="snap2print-solution-title">` + template.HTMLEscapeString(solutionHeading+": "+p.Name) + "</p>\n")
		}
		b.WriteString(body)
		b.WriteString("\n")
		if p.CSS != "" {
			css.WriteString("\n")
			css.WriteString(p.CSS)
		}
	}
	b.WriteString("</div>\n</body>\n</html>\n")

	return []byte(e.injector.InjectCSS(ctx, b.String(), css.String())), nil
}

// ExportPDF renders the printable HTML through headless Chrome.
func (e *Exporter) ExportPDF(ctx context.Context, doc *Document) ([]byte, error) {
	htmlDoc, err := e.ExportHTML(ctx, doc)
	if err != nil {
		return nil, err
	}

	e.pdfOnce.Do(func() {
		if e.pdf == nil {
			e.pdf = newRodConverter(e.pdfTimeout)
		}
	})
	return e.pdf.ToPDF(ctx, string(htmlDoc), &pdfOptions{Page: e.page, PageNumbers: e.pageNumbers})
}

// ExportMarkdown converts every page to Markdown, separated by rules.
func (e *Exporter) ExportMarkdown(ctx context.Context, doc *Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pages, err := doc.layout(e.solutions)
	if err != nil {
		return nil, err
	}
	title, err := e.title(doc)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("# " + title + "\n\n")
	if h := strings.TrimSpace(doc.Header); h != "" {
		header, err := dateutil.ExpandPlaceholders(h, e.now())
		if err != nil {
			return nil, err
		}
		b.WriteString(header + "\n\n")
	}

	for i, p := range pages {
		if i > 0 {
			b.WriteString("\n\n---\n\n")
		}
		if p.Solution {
			b.WriteString("## " + solutionHeading + ": " + p.Name + "\n\n")
		}
		text, err := e.markdown.ConvertString(p.HTML)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMarkdownConversion, p.Name, err)
		}
		b.WriteString(strings.TrimSpace(text))
	}
	b.WriteString("\n")
	return []byte(b.String()), nil
}

// title expands {date} placeholders in the document title.
func (e *Exporter) title(doc *Document) (string, error) {
	t := strings.TrimSpace(doc.Title)
	if t == "" {
		return DefaultTitle, nil
	}
	return dateutil.ExpandPlaceholders(t, e.now())
}

// renderHeader renders the Markdown header, if any.
func (e *Exporter) renderHeader(ctx context.Context, doc *Document) (string, error) {
	if strings.TrimSpace(doc.Header) == "" {
		return "", nil
	}
	src, err := dateutil.ExpandPlaceholders(doc.Header, e.now())
	if err != nil {
		return "", err
	}
	out, err := e.header.ToFragment(ctx, src)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHeaderRender, err)
	}
	return out, nil
}

// pageBody returns the page HTML with image paths resolved.
func (e *Exporter) pageBody(p exportPage) (string, error) {
	if e.imageDir == "" {
		return p.HTML, nil
	}
	out, err := pipeline.RewriteRelativePaths(p.HTML, e.imageDir)
	if err != nil {
		return "", fmt.Errorf("%s: rewriting image paths: %w", p.Name, err)
	}
	return out, nil
}
