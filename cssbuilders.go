package snap2print

import (
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/alnah/go-snap2print/internal/pipeline"
)

// defaultFontFamily is the font stack for footers and the watermark.
const defaultFontFamily = "sans-serif"

// watermarkFontSize is the font size of the watermark text.
const watermarkFontSize = "8rem"

// buildPageCSS sets the printed paper size and margins.
func buildPageCSS(p *PageSettings) string {
	w, h := p.Dimensions()
	return fmt.Sprintf(`
@page {
  size: %.2fin %.2fin;
  margin: %.2fin;
}
`, w, h, p.Margin)
}

// buildWordPageCSS declares the Section1 page Word applies to the body div.
func buildWordPageCSS(p *PageSettings) string {
	w, h := p.Dimensions()
	return fmt.Sprintf(`
@page Section1 {
  size: %.2fin %.2fin;
  mso-page-orientation: %s;
  margin: %.2fin;
}
div.Section1 {
  page: Section1;
}
`, w, h, strings.ToLower(p.Orientation), p.Margin)
}

// buildWatermarkCSS draws w diagonally behind every printed page.
// position:fixed repeats the element on each page when printed.
func buildWatermarkCSS(w *Watermark) string {
	if w == nil || w.Text == "" {
		return ""
	}

	color := w.Color
	if c, err := colorful.Hex(w.Color); err == nil {
		color = c.Hex()
	}

	return fmt.Sprintf(`
/* Watermark */
body::before {
  content: "%s";
  position: fixed;
  top: 50%%;
  left: 50%%;
  transform: translate(-50%%, -50%%) rotate(%.1fdeg);
  font-size: %s;
  font-weight: bold;
  color: %s;
  opacity: %.2f;
  z-index: -1;
  pointer-events: none;
  white-space: nowrap;
  font-family: %s;
}
`, escapeCSSString(breakURLPattern(w.Text)), w.Angle, watermarkFontSize, color, w.Opacity, defaultFontFamily)
}

// scopePageCSS confines the CSS generated for one page to its section so
// rules from different pages cannot collide.
func scopePageCSS(css, pageID string) string {
	css = strings.TrimSpace(css)
	if css == "" {
		return ""
	}
	return fmt.Sprintf("@scope (.snap2print-page[data-page=%q]) {\n%s\n}\n", pageID, pipeline.SanitizeCSS(css))
}

// escapeCSSString escapes s for a CSS content string.
func escapeCSSString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\A `)
	s = strings.ReplaceAll(s, "\r", "")
	return s
}

// breakURLPattern swaps dots for ONE DOT LEADER (U+2024) so PDF viewers do
// not turn watermark text into links.
func breakURLPattern(text string) string {
	return strings.ReplaceAll(text, ".", "\u2024")
}
