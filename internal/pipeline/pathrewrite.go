package pipeline

import (
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RewriteRelativePaths turns relative img[src] paths in an HTML fragment
// into absolute file:// URLs rooted at baseDir. Edited pages loaded from
// disk keep their pictures when rendered from a temp file.
// An empty baseDir returns the fragment unchanged.
func RewriteRelativePaths(fragment, baseDir string) (string, error) {
	if baseDir == "" {
		return fragment, nil
	}
	absDir, err := filepath.Abs(baseDir)
	if err != nil {
		return "", err
	}

	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, n := range nodes {
		rewriteImages(n, absDir)
		if err := html.Render(&sb, n); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

func rewriteImages(n *html.Node, dir string) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Img {
		for i, a := range n.Attr {
			if a.Key != "src" || !isRelativePath(a.Val) {
				continue
			}
			abs := filepath.Clean(filepath.Join(dir, filepath.FromSlash(a.Val)))
			if !isPathUnderDir(abs, dir) {
				continue
			}
			n.Attr[i].Val = pathToFileURL(abs)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewriteImages(c, dir)
	}
}

// isRelativePath reports whether p is a plain relative file path.
func isRelativePath(p string) bool {
	if p == "" || strings.HasPrefix(p, "#") || strings.HasPrefix(p, "/") || strings.HasPrefix(p, "\\") {
		return false
	}
	if u, err := url.Parse(p); err != nil || u.Scheme != "" {
		return false
	}
	return !filepath.IsAbs(p)
}

func isPathUnderDir(absPath, dir string) bool {
	rel, err := filepath.Rel(dir, absPath)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func pathToFileURL(absPath string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(absPath)}
	if !strings.HasPrefix(u.Path, "/") {
		u.Path = "/" + u.Path
	}
	return u.String()
}
