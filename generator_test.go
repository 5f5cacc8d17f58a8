package snap2print

import (
	"errors"
	"strings"
	"testing"
)

func TestRequest_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{"replicate with image", Request{Task: TaskReplicate, Image: []byte("x")}, nil},
		{"remix with image", Request{Task: TaskRemix, Image: []byte("x")}, nil},
		{"solution with source", Request{Task: TaskSolution, SourceHTML: "<p>q</p>"}, nil},
		{"replicate without image", Request{Task: TaskReplicate}, ErrEmptyImage},
		{"solution without source", Request{Task: TaskSolution, SourceHTML: "  "}, ErrMissingSource},
		{"unknown task", Request{Task: "translate"}, ErrUnknownTask},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.req.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     Request
		want    []string
		notWant []string
	}{
		{
			name: "replicate",
			req:  Request{Task: TaskReplicate},
			want: []string{"Recreate this document page"},
		},
		{
			name:    "remix keeps layout",
			req:     Request{Task: TaskRemix},
			want:    []string{"NEW version", "same layout"},
			notWant: []string{"Additional instructions"},
		},
		{
			name: "solution embeds source",
			req:  Request{Task: TaskSolution, SourceHTML: "<ol><li>2+2</li></ol>"},
			want: []string{"answer key", "<ol><li>2+2</li></ol>"},
		},
		{
			name: "instructions appended",
			req:  Request{Task: TaskReplicate, Instructions: "  translate to French "},
			want: []string{"Additional instructions: translate to French"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := BuildPrompt(tt.req)
			if err != nil {
				t.Fatalf("BuildPrompt() error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("prompt missing %q:\n%s", w, got)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(got, w) {
					t.Errorf("prompt contains %q", w)
				}
			}
		})
	}

	if _, err := BuildPrompt(Request{Task: "other"}); !errors.Is(err, ErrUnknownTask) {
		t.Errorf("BuildPrompt(other) error = %v, want ErrUnknownTask", err)
	}
}

func TestTaskForMode(t *testing.T) {
	t.Parallel()

	if taskForMode(ModeRemix) != TaskRemix || taskForMode(ModeReplicate) != TaskReplicate || taskForMode("") != TaskReplicate {
		t.Error("taskForMode mapping wrong")
	}
}
