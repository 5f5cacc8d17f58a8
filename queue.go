package snap2print

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Queue holds image jobs in insertion order.
// All methods are safe for concurrent use; readers receive copies.
type Queue struct {
	mu   sync.Mutex
	jobs []*Job
	now  func() time.Time
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{now: time.Now}
}

// Add appends a new IDLE job for the given image and returns a copy of it.
// The queue keeps its own copy of image.
func (q *Queue) Add(name string, image []byte, mimeType string) Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	j := &Job{
		ID:        uuid.NewString(),
		Name:      name,
		Image:     bytes.Clone(image),
		MIMEType:  mimeType,
		Status:    StatusIdle,
		Mode:      ModeReplicate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	q.jobs = append(q.jobs, j)
	return j.clone()
}

// Remove deletes a job. Returns ErrJobNotFound for unknown IDs.
func (q *Queue) Remove(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, j := range q.jobs {
		if j.ID == id {
			q.jobs = append(q.jobs[:i], q.jobs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrJobNotFound, id)
}

// Clear removes every job.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = nil
}

// Len returns the number of jobs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Get returns a copy of the job with the given ID.
func (q *Queue) Get(id string) (Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	j, err := q.find(id)
	if err != nil {
		return Job{}, err
	}
	return j.clone(), nil
}

// Jobs returns copies of all jobs in insertion order.
func (q *Queue) Jobs() []Job {
	return q.filter(func(*Job) bool { return true })
}

// Pending returns jobs that still need processing (IDLE or ERROR).
func (q *Queue) Pending() []Job {
	return q.filter(func(j *Job) bool {
		return j.Status == StatusIdle || j.Status == StatusError
	})
}

// Completed returns jobs with a result, in insertion order.
func (q *Queue) Completed() []Job {
	return q.filter(func(j *Job) bool { return j.Status == StatusCompleted })
}

// Counts returns the number of jobs per status.
func (q *Queue) Counts() map[Status]int {
	q.mu.Lock()
	defer q.mu.Unlock()

	counts := make(map[Status]int, 4)
	for _, j := range q.jobs {
		counts[j.Status]++
	}
	return counts
}

// Begin moves a job into PROCESSING for the given mode.
// Clears any previous error and counts the attempt.
func (q *Queue) Begin(id string, mode Mode) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	j, err := q.find(id)
	if err != nil {
		return err
	}
	if err := j.transition(StatusProcessing, q.now()); err != nil {
		return err
	}
	j.Err = ""
	j.Mode = mode
	j.Attempts++
	return nil
}

// Complete stores the generated HTML and moves the job to COMPLETED.
// A remix replaces the previous result; any earlier solution is dropped
// because it no longer matches.
func (q *Queue) Complete(id, body, css string) error {
	if strings.TrimSpace(body) == "" {
		return ErrEmptyResult
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	j, err := q.find(id)
	if err != nil {
		return err
	}
	if err := j.transition(StatusCompleted, q.now()); err != nil {
		return err
	}
	j.Result = body
	j.CSS = css
	j.Solution = ""
	j.SolutionCSS = ""
	return nil
}

// Fail records an error message and moves the job to ERROR.
// The previous result is kept on the job, but exports skip ERROR jobs until
// a retry completes them again.
func (q *Queue) Fail(id string, cause error) error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	j, err := q.find(id)
	if err != nil {
		return err
	}
	if err := j.transition(StatusError, q.now()); err != nil {
		return err
	}
	j.Err = msg
	return nil
}

// SetMode chooses how a pending job will be generated. Only IDLE and
// ERROR jobs accept a new mode.
func (q *Queue) SetMode(id string, mode Mode) error {
	if !mode.IsValid() {
		return fmt.Errorf("%w: unknown mode %q", ErrUnknownTask, mode)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	j, err := q.find(id)
	if err != nil {
		return err
	}
	if j.Status != StatusIdle && j.Status != StatusError {
		return fmt.Errorf("%w: cannot change mode of job %s in status %s", ErrInvalidTransition, id, j.Status)
	}
	j.Mode = mode
	j.UpdatedAt = q.now()
	return nil
}

// SetResult replaces the HTML of a completed job (manual edit).
func (q *Queue) SetResult(id, body string) error {
	if strings.TrimSpace(body) == "" {
		return ErrEmptyResult
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	j, err := q.find(id)
	if err != nil {
		return err
	}
	if j.Status != StatusCompleted {
		return fmt.Errorf("%w: cannot edit job %s in status %s", ErrInvalidTransition, id, j.Status)
	}
	j.Result = body
	j.UpdatedAt = q.now()
	return nil
}

// SetSolution stores the answer key of a completed job.
func (q *Queue) SetSolution(id, body, css string) error {
	if strings.TrimSpace(body) == "" {
		return ErrEmptyResult
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	j, err := q.find(id)
	if err != nil {
		return err
	}
	if j.Status != StatusCompleted {
		return fmt.Errorf("%w: cannot attach solution to job %s in status %s", ErrInvalidTransition, id, j.Status)
	}
	j.Solution = body
	j.SolutionCSS = css
	j.UpdatedAt = q.now()
	return nil
}

// find must be called with q.mu held.
func (q *Queue) find(id string) (*Job, error) {
	for _, j := range q.jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
}

func (q *Queue) filter(keep func(*Job) bool) []Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Job, 0, len(q.jobs))
	for _, j := range q.jobs {
		if keep(j) {
			out = append(out, j.clone())
		}
	}
	return out
}
