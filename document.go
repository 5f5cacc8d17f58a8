package snap2print

import (
	"fmt"
	"strings"

	"github.com/alnah/go-snap2print/internal/pipeline"
)

// Page is one generated page ready for export.
type Page struct {
	Name string // source image or file name
	HTML string // body fragment
	CSS  string // styles the model emitted for this page
}

// Document is the unit of export: an optional title and Markdown header,
// the pages in order, and their answer keys.
type Document struct {
	Title     string
	Header    string // Markdown rendered above the first page
	Pages     []Page
	Solutions []Page
}

// DocumentFromJobs collects the COMPLETED jobs in order. Jobs in any other
// status are skipped; a solution is included only when one was generated.
func DocumentFromJobs(jobs []Job) *Document {
	doc := &Document{}
	for _, j := range jobs {
		if j.Status != StatusCompleted {
			continue
		}
		doc.Pages = append(doc.Pages, Page{Name: j.Name, HTML: j.Result, CSS: j.CSS})
		if strings.TrimSpace(j.Solution) != "" {
			doc.Solutions = append(doc.Solutions, Page{Name: j.Name, HTML: j.Solution, CSS: j.SolutionCSS})
		}
	}
	return doc
}

// DocumentFromQueue is DocumentFromJobs over a snapshot of q.
func DocumentFromQueue(q *Queue) *Document {
	return DocumentFromJobs(q.Jobs())
}

// exportPage is a page placed in the output with its position and role.
type exportPage struct {
	Page
	ID       string // unique within the document, e.g. "3" or "s3"
	Solution bool
}

// layout returns the pages to export for mode in print order.
// Returns ErrNoPages when the selection is empty.
func (d *Document) layout(mode SolutionsMode) ([]exportPage, error) {
	if d == nil {
		return nil, ErrNoPages
	}

	var out []exportPage
	if mode != SolutionsOnly {
		for i, p := range d.Pages {
			out = append(out, exportPage{Page: p, ID: fmt.Sprintf("%d", i+1)})
		}
	}
	if mode == SolutionsAppend || mode == SolutionsOnly {
		for i, p := range d.Solutions {
			out = append(out, exportPage{Page: p, ID: fmt.Sprintf("s%d", i+1), Solution: true})
		}
	}

	if len(out) == 0 {
		if mode == SolutionsOnly && len(d.Pages) > 0 {
			return nil, fmt.Errorf("%w: no answer keys have been generated", ErrNoPages)
		}
		return nil, ErrNoPages
	}
	return out, nil
}

// Standalone renders p as a complete HTML file, its CSS in a <style> block,
// for editing outside the program. ParsePage reads it back.
func (p Page) Standalone() string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	if p.CSS != "" {
		b.WriteString("<style>\n" + pipeline.SanitizeCSS(p.CSS) + "\n</style>\n")
	}
	b.WriteString("</head>\n<body>\n")
	b.WriteString(p.HTML)
	b.WriteString("\n</body>\n</html>\n")
	return b.String()
}

// ParsePage reads an HTML page file, typically one written by Standalone
// and edited by hand. It goes through CleanHTML like model output does.
func ParsePage(name, raw string) (Page, error) {
	body, css, err := CleanHTML(raw)
	if err != nil {
		return Page{}, fmt.Errorf("%s: %w", name, err)
	}
	return Page{Name: name, HTML: body, CSS: css}, nil
}
