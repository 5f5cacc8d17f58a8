package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// ErrHTMLConversion indicates Markdown conversion failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// FragmentConverter renders Markdown to an HTML fragment.
type FragmentConverter interface {
	ToFragment(ctx context.Context, content string) (string, error)
}

// GoldmarkConverter renders Markdown headers (name, class, instructions)
// placed above the first page.
type GoldmarkConverter struct {
	md   goldmark.Markdown
	prep *CommonMarkPreprocessor
}

// NewGoldmarkConverter creates a GoldmarkConverter with GFM tables and
// syntax highlighting. Raw HTML in the input is not rendered.
func NewGoldmarkConverter() *GoldmarkConverter {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	return &GoldmarkConverter{md: md, prep: &CommonMarkPreprocessor{}}
}

// ToFragment converts Markdown to HTML without a document wrapper.
// Blank input yields an empty fragment.
func (c *GoldmarkConverter) ToFragment(ctx context.Context, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(content) == "" {
		return "", nil
	}

	content = c.prep.PreprocessMarkdown(ctx, content)

	var buf bytes.Buffer
	if err := c.md.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}
	return ConvertMarkPlaceholders(buf.String()), nil
}

// Compile-time interface check.
var _ FragmentConverter = (*GoldmarkConverter)(nil)
