package snap2print

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultDelay spaces sequential requests to stay under API rate limits.
const DefaultDelay = 1500 * time.Millisecond

// Summary counts the outcome of a batch run.
type Summary struct {
	Succeeded int
	Failed    int
	Skipped   int // not started because the context was cancelled
}

// Total returns the number of jobs the batch covered.
func (s Summary) Total() int { return s.Succeeded + s.Failed + s.Skipped }

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithDelay sets the pause between sequential requests.
// Panics if d < 0 (programmer error).
func WithDelay(d time.Duration) ProcessorOption {
	if d < 0 {
		panic("snap2print: WithDelay duration must not be negative")
	}
	return func(p *Processor) { p.delay = d }
}

// WithParallel switches to parallel processing with at most n requests in
// flight. n <= 0 resolves from GOMAXPROCS.
func WithParallel(n int) ProcessorOption {
	return func(p *Processor) {
		p.parallel = true
		p.concurrency = ResolvePoolSize(n)
	}
}

// WithInstructions appends free-form guidance to every prompt.
func WithInstructions(s string) ProcessorOption {
	return func(p *Processor) { p.instructions = s }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// Processor drives queued jobs through a Generator.
type Processor struct {
	queue        *Queue
	gen          Generator
	delay        time.Duration
	parallel     bool
	concurrency  int
	instructions string
	logger       *slog.Logger
	sleep        func(ctx context.Context, d time.Duration) error
}

// NewProcessor creates a sequential Processor with DefaultDelay.
func NewProcessor(q *Queue, gen Generator, opts ...ProcessorOption) *Processor {
	p := &Processor{
		queue:       q,
		gen:         gen,
		delay:       DefaultDelay,
		concurrency: 1,
		logger:      slog.Default(),
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Queue returns the queue the processor works on.
func (p *Processor) Queue() *Queue { return p.queue }

// ProcessAll sends every IDLE or ERROR job to the model.
// Failures are recorded on their job and joined into the returned error;
// they never stop the batch.
func (p *Processor) ProcessAll(ctx context.Context) (Summary, error) {
	jobs := p.queue.Pending()
	if len(jobs) == 0 {
		return Summary{}, ErrNothingToProcess
	}
	return p.each(ctx, jobs, func(ctx context.Context, j Job) error {
		mode := j.Mode
		if !mode.IsValid() {
			mode = ModeReplicate
		}
		return p.generatePage(ctx, j, mode)
	})
}

// Retry re-runs a job in ERROR with its last mode.
func (p *Processor) Retry(ctx context.Context, id string) error {
	j, err := p.queue.Get(id)
	if err != nil {
		return err
	}
	if j.Status != StatusError {
		return fmt.Errorf("%w: retry requires %s, job %s is %s", ErrInvalidTransition, StatusError, id, j.Status)
	}
	return p.generatePage(ctx, j, j.Mode)
}

// Remix regenerates a completed job with altered questions.
func (p *Processor) Remix(ctx context.Context, id string) error {
	j, err := p.queue.Get(id)
	if err != nil {
		return err
	}
	return p.generatePage(ctx, j, ModeRemix)
}

// RemixAll remixes every completed job.
func (p *Processor) RemixAll(ctx context.Context) (Summary, error) {
	jobs := p.queue.Completed()
	if len(jobs) == 0 {
		return Summary{}, ErrNothingToProcess
	}
	return p.each(ctx, jobs, func(ctx context.Context, j Job) error {
		return p.generatePage(ctx, j, ModeRemix)
	})
}

// Solve generates the answer key of a completed job.
// A failure leaves the job COMPLETED with no solution.
func (p *Processor) Solve(ctx context.Context, id string) error {
	j, err := p.queue.Get(id)
	if err != nil {
		return err
	}
	return p.generateSolution(ctx, j)
}

// SolveAll generates answer keys for every completed job.
func (p *Processor) SolveAll(ctx context.Context) (Summary, error) {
	jobs := p.queue.Completed()
	if len(jobs) == 0 {
		return Summary{}, ErrNothingToProcess
	}
	return p.each(ctx, jobs, p.generateSolution)
}

// generatePage runs one image through the model and records the outcome.
func (p *Processor) generatePage(ctx context.Context, j Job, mode Mode) error {
	if err := p.queue.Begin(j.ID, mode); err != nil {
		return err
	}
	p.logger.Debug("job.processing", "job_id", j.ID, "name", j.Name, "mode", string(mode))

	raw, err := p.gen.Generate(ctx, Request{
		Task:         taskForMode(mode),
		Image:        j.Image,
		MIMEType:     j.MIMEType,
		Instructions: p.instructions,
	})
	var body, css string
	if err == nil {
		body, css, err = CleanHTML(raw)
	}
	if err != nil {
		p.logger.Warn("job.error", "job_id", j.ID, "name", j.Name, "error", err)
		if failErr := p.queue.Fail(j.ID, err); failErr != nil {
			return errors.Join(err, failErr)
		}
		return fmt.Errorf("%s: %w", j.Name, err)
	}

	if err := p.queue.Complete(j.ID, body, css); err != nil {
		return err
	}
	p.logger.Info("job.completed", "job_id", j.ID, "name", j.Name, "mode", string(mode))
	return nil
}

func (p *Processor) generateSolution(ctx context.Context, j Job) error {
	if j.Status != StatusCompleted {
		return fmt.Errorf("%w: solution requires %s, job %s is %s", ErrInvalidTransition, StatusCompleted, j.ID, j.Status)
	}

	raw, err := p.gen.Generate(ctx, Request{
		Task:         TaskSolution,
		SourceHTML:   j.Result,
		Instructions: p.instructions,
	})
	var body, css string
	if err == nil {
		body, css, err = CleanHTML(raw)
	}
	if err != nil {
		p.logger.Warn("job.solution_error", "job_id", j.ID, "name", j.Name, "error", err)
		return fmt.Errorf("%s: solution: %w", j.Name, err)
	}
	if err := p.queue.SetSolution(j.ID, body, css); err != nil {
		return err
	}
	p.logger.Info("job.solution_ready", "job_id", j.ID, "name", j.Name)
	return nil
}

// each applies fn to jobs sequentially (with the configured delay between
// calls) or in parallel, and aggregates the outcome.
func (p *Processor) each(ctx context.Context, jobs []Job, fn func(context.Context, Job) error) (Summary, error) {
	errs := make([]error, len(jobs))
	started := make([]bool, len(jobs))

	if p.parallel {
		p.runParallel(ctx, jobs, fn, errs, started)
	} else {
		p.runSequential(ctx, jobs, fn, errs, started)
	}

	var sum Summary
	var failures []error
	for i := range jobs {
		switch {
		case !started[i]:
			sum.Skipped++
		case errs[i] != nil:
			sum.Failed++
			failures = append(failures, errs[i])
		default:
			sum.Succeeded++
		}
	}

	if sum.Skipped > 0 && ctx.Err() != nil {
		failures = append(failures, ctx.Err())
	}
	return sum, errors.Join(failures...)
}

func (p *Processor) runSequential(ctx context.Context, jobs []Job, fn func(context.Context, Job) error, errs []error, started []bool) {
	for i, j := range jobs {
		if i > 0 && p.delay > 0 {
			if err := p.sleep(ctx, p.delay); err != nil {
				return
			}
		}
		if ctx.Err() != nil {
			return
		}
		started[i] = true
		errs[i] = fn(ctx, j)
	}
}

func (p *Processor) runParallel(ctx context.Context, jobs []Job, fn func(context.Context, Job) error, errs []error, started []bool) {
	workers := p.concurrency
	if workers > len(jobs) {
		workers = len(jobs)
	}
	if workers < 1 {
		workers = 1
	}

	indexes := make(chan int, len(jobs))
	for i := range jobs {
		indexes <- i
	}
	close(indexes)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indexes {
				if ctx.Err() != nil {
					continue
				}
				started[idx] = true
				errs[idx] = fn(ctx, jobs[idx])
			}
		}()
	}
	wg.Wait()
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
