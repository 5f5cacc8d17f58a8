package snap2print

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// fencePattern matches a Markdown code fence around the model output.
var fencePattern = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*\\n(.*?)\\n?```")

// droppedElements are removed together with their content.
var droppedElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Noscript: true,
	atom.Iframe:   true,
	atom.Object:   true,
	atom.Embed:    true,
	atom.Link:     true,
	atom.Meta:     true,
	atom.Base:     true,
	atom.Title:    true,
}

// StripFences returns the content of the first fenced code block, or the
// trimmed input when there is none.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// CleanHTML normalises raw model output into a body fragment and the CSS
// gathered from its <style> blocks. Scripts, embedded objects, event
// handler attributes and javascript: URLs are removed.
func CleanHTML(raw string) (body, css string, err error) {
	src := StripFences(raw)
	if src == "" {
		return "", "", ErrEmptyResponse
	}

	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return "", "", fmt.Errorf("parsing generated HTML: %w", err)
	}

	var styles []string
	sanitizeNode(doc, &styles)

	bodyNode := findElement(doc, atom.Body)
	if bodyNode == nil {
		return "", "", ErrEmptyResponse
	}

	var buf bytes.Buffer
	for c := bodyNode.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", "", fmt.Errorf("rendering cleaned HTML: %w", err)
		}
	}

	body = strings.TrimSpace(buf.String())
	if body == "" {
		return "", "", ErrEmptyResponse
	}
	return body, strings.TrimSpace(strings.Join(styles, "\n")), nil
}

// sanitizeNode walks the tree, collecting <style> text into styles and
// removing unsafe nodes and attributes in place.
func sanitizeNode(n *html.Node, styles *[]string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode {
			switch {
			case c.DataAtom == atom.Style:
				if c.FirstChild != nil {
					*styles = append(*styles, strings.TrimSpace(c.FirstChild.Data))
				}
				n.RemoveChild(c)
			case droppedElements[c.DataAtom]:
				n.RemoveChild(c)
			default:
				c.Attr = safeAttrs(c.Attr)
				sanitizeNode(c, styles)
			}
		} else if c.Type == html.CommentNode {
			n.RemoveChild(c)
		} else {
			sanitizeNode(c, styles)
		}
		c = next
	}
}

// urlAttributes hold a URL a browser may follow or load.
var urlAttributes = map[string]bool{
	"href":       true,
	"src":        true,
	"action":     true,
	"formaction": true,
	"xlink:href": true,
	"poster":     true,
	"background": true,
	"data":       true,
	"cite":       true,
	"srcset":     true,
}

// scriptSchemes are URL schemes that run code.
var scriptSchemes = []string{"javascript:", "vbscript:"}

func safeAttrs(attrs []html.Attribute) []html.Attribute {
	out := attrs[:0]
	for _, a := range attrs {
		key := strings.ToLower(a.Key)
		if strings.HasPrefix(key, "on") {
			continue
		}
		val := compactValue(a.Val)
		if urlAttributes[key] && hasScriptScheme(val) {
			continue
		}
		if key == "style" && (containsScriptScheme(val) || strings.Contains(val, "expression(")) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// compactValue lowercases v and drops the whitespace and control characters
// browsers ignore inside a scheme, so "java\tscript:" is still caught.
func compactValue(v string) string {
	return strings.Map(func(r rune) rune {
		if r <= ' ' || r == 0x7f {
			return -1
		}
		return r
	}, strings.ToLower(v))
}

func hasScriptScheme(v string) bool {
	for _, s := range scriptSchemes {
		if strings.HasPrefix(v, s) {
			return true
		}
	}
	return false
}

func containsScriptScheme(v string) bool {
	for _, s := range scriptSchemes {
		if strings.Contains(v, s) {
			return true
		}
	}
	return false
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}
