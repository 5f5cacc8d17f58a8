package snap2print

import (
	"fmt"
	"time"
)

// Status is the processing state of a Job.
type Status string

// Job statuses. A job starts IDLE, enters PROCESSING when sent to the model,
// and ends COMPLETED or ERROR. ERROR and COMPLETED jobs may re-enter
// PROCESSING (retry, remix).
const (
	StatusIdle       Status = "IDLE"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusError      Status = "ERROR"
)

// String implements fmt.Stringer.
func (s Status) String() string { return string(s) }

// allowedTransitions lists every legal from -> to pair.
var allowedTransitions = map[Status][]Status{
	StatusIdle:       {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusError},
	StatusError:      {StatusProcessing},
	StatusCompleted:  {StatusProcessing},
}

// CanTransition reports whether a job may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Mode selects how a job's image is turned into HTML.
type Mode string

// Generation modes.
const (
	ModeReplicate Mode = "replicate" // faithful replica of the page
	ModeRemix     Mode = "remix"     // same layout, altered questions
)

// IsValid reports whether m is a known mode.
func (m Mode) IsValid() bool {
	return m == ModeReplicate || m == ModeRemix
}

// Job is one uploaded image and everything generated from it.
type Job struct {
	ID          string
	Name        string // source file name, used for page titles
	Image       []byte
	MIMEType    string
	Status      Status
	Mode        Mode
	Result      string // generated HTML body fragment
	CSS         string // styles collected from the generated document
	Solution    string // answer key HTML, empty until generated
	SolutionCSS string
	Err         string // last error message, set only in ERROR
	Attempts    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// transition moves the job to status "to", enforcing the state machine.
func (j *Job) transition(to Status, now time.Time) error {
	if !CanTransition(j.Status, to) {
		return fmt.Errorf("%w: %s -> %s (job %s)", ErrInvalidTransition, j.Status, to, j.ID)
	}
	j.Status = to
	j.UpdatedAt = now
	return nil
}

// clone returns a copy that shares no mutable state with j.
func (j *Job) clone() Job {
	c := *j
	if j.Image != nil {
		c.Image = append([]byte(nil), j.Image...)
	}
	return c
}
