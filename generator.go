package snap2print

import (
	"context"
	"fmt"
	"strings"
)

// Task names what the model is asked to produce.
type Task string

// Generation tasks.
const (
	TaskReplicate Task = "replicate"
	TaskRemix     Task = "remix"
	TaskSolution  Task = "solution"
)

// taskForMode maps a job mode to its generation task.
func taskForMode(m Mode) Task {
	if m == ModeRemix {
		return TaskRemix
	}
	return TaskReplicate
}

// Request is one call to the model.
type Request struct {
	Task         Task
	Image        []byte // required for replicate and remix
	MIMEType     string
	SourceHTML   string // required for solution
	Instructions string // optional extra guidance appended to the prompt
}

// Validate checks that the request carries what its task needs.
func (r Request) Validate() error {
	switch r.Task {
	case TaskReplicate, TaskRemix:
		if len(r.Image) == 0 {
			return ErrEmptyImage
		}
	case TaskSolution:
		if strings.TrimSpace(r.SourceHTML) == "" {
			return ErrMissingSource
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTask, r.Task)
	}
	return nil
}

// Generator turns a request into an HTML document.
// Implementations are remote and may be slow or rate limited.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

// Generate calls f(ctx, req).
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// systemInstruction is sent with every request.
const systemInstruction = `You convert photographs and scans of printed documents into clean, print-ready HTML.
Output a single complete HTML document and nothing else: no explanations, no Markdown code fences.
Use only inline <style> blocks for CSS. Never include <script> elements, external resources or event handlers.
Preserve the reading order, headings, numbering, tables and blank answer spaces of the original.
Size the layout for a printed A4 or Letter page.`

// Prompt templates per task.
const (
	replicatePrompt = `Recreate this document page as HTML and CSS.
Reproduce the text exactly, including numbering, punctuation and spacing.
Keep tables as <table> elements and draw answer lines or boxes with CSS borders.
Represent diagrams you cannot reproduce with a bordered placeholder describing them.`

	remixPrompt = `This image is an exam or worksheet page. Produce a NEW version of it as HTML and CSS.
Keep the same layout, sections, number of questions, question types, marks and difficulty.
Change every question: use different numbers, names, values and wording so answers differ from the original.
Keep instructions and headers unchanged.`

	solutionPrompt = `Below is the HTML of an exam or worksheet. Produce an answer key as HTML.
For each question give its number, the correct answer and, where useful, a short worked solution.
Use a clear heading "Answer Key" and keep the original question numbering.

Exam HTML:
`
)

// BuildPrompt returns the user prompt for a request.
func BuildPrompt(req Request) (string, error) {
	var b strings.Builder
	switch req.Task {
	case TaskReplicate:
		b.WriteString(replicatePrompt)
	case TaskRemix:
		b.WriteString(remixPrompt)
	case TaskSolution:
		b.WriteString(solutionPrompt)
		b.WriteString(req.SourceHTML)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTask, req.Task)
	}
	if s := strings.TrimSpace(req.Instructions); s != "" {
		b.WriteString("\n\nAdditional instructions: ")
		b.WriteString(s)
	}
	return b.String(), nil
}
