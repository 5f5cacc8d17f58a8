package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	snap2print "github.com/alnah/go-snap2print"
	"github.com/alnah/go-snap2print/internal/config"
	"github.com/alnah/go-snap2print/internal/fileutil"
)

// ErrBatchFailed is returned when at least one image could not be converted.
var ErrBatchFailed = errors.New("some images failed")

// convertRun carries the resolved state of one convert invocation.
type convertRun struct {
	cfg     *config.Config
	flags   *convertFlags
	env     *Environment
	logger  *slog.Logger
	expOpts []snap2print.ExporterOption
}

// runConvert turns images into a printable document.
func runConvert(ctx context.Context, args []string, env *Environment) error {
	f, positional, err := parseConvertFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) == 0 {
		return fmt.Errorf("%w: pass at least one image or directory", ErrNoInput)
	}

	envCfg := loadEnvConfig()
	warnUnknownEnvVars(env.Stderr)

	cfg, err := resolveConfig(f.common.config, envCfg)
	if err != nil {
		return err
	}
	if err := mergeConvertFlags(f, cfg); err != nil {
		return err
	}
	clampWorkers(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(env.Stderr, &f.common, envCfg)
	if err != nil {
		return err
	}
	expOpts, err := exporterOptions(cfg, f.export.pdfTimeout, env.Now)
	if err != nil {
		return err
	}

	run := &convertRun{cfg: cfg, flags: f, env: env, logger: logger, expOpts: expOpts}
	return run.execute(ctx, positional)
}

// execute loads the images, generates pages and writes every output.
func (r *convertRun) execute(ctx context.Context, inputs []string) error {
	format, output, err := r.resolveOutput()
	if err != nil {
		return err
	}

	q, err := r.loadQueue(inputs)
	if err != nil {
		return err
	}

	gen, err := r.env.NewGenerator(ctx, r.cfg, r.logger)
	if err != nil {
		return err
	}
	procOpts, err := processorOptions(r.cfg, r.logger)
	if err != nil {
		return err
	}
	proc := snap2print.NewProcessor(q, gen, procOpts...)

	summary, procErr := proc.ProcessAll(ctx)
	if summary.Failed > 0 && r.cfg.Processing.Retries > 0 {
		summary, procErr = r.retryFailed(ctx, proc, summary, procErr)
	}
	r.logger.Info("pages generated",
		"succeeded", summary.Succeeded, "failed", summary.Failed, "skipped", summary.Skipped)
	if err := ctx.Err(); err != nil {
		return err
	}

	if summary.Succeeded > 0 && r.wantSolutions() {
		solved, solveErr := proc.SolveAll(ctx)
		r.logger.Info("answer keys generated", "succeeded", solved.Succeeded, "failed", solved.Failed)
		if solveErr != nil && !errors.Is(solveErr, snap2print.ErrNothingToProcess) {
			r.logger.Warn("some answer keys failed", "error", solveErr)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	jobs := q.Jobs()
	if r.flags.report != "" {
		if err := writeReport(r.flags.report, jobs); err != nil {
			return err
		}
	}
	if r.flags.pagesDir != "" {
		if err := writePages(r.flags.pagesDir, jobs); err != nil {
			return err
		}
	}

	r.printFailures(jobs)

	if summary.Succeeded == 0 {
		return procErr
	}

	var written []string
	if r.flags.split {
		written, err = r.exportSplit(ctx, jobs, format, output)
	} else {
		doc := newDocument(r.cfg, snap2print.DocumentFromJobs(jobs))
		err = exportDocument(ctx, doc, format, output, r.expOpts)
		written = []string{output}
	}
	if err != nil {
		return err
	}

	if !r.flags.common.quiet {
		for _, path := range written {
			fmt.Fprintf(r.env.Stdout, "Wrote %s\n", path)
		}
		fmt.Fprintf(r.env.Stdout, "Converted %d/%d images\n", summary.Succeeded, summary.Total())
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%w: %d of %d: %w", ErrBatchFailed, summary.Failed, summary.Total(), procErr)
	}
	return nil
}

// retryFailed re-runs the failed jobs up to processing.retries times,
// pausing for processing.delay before each pass. It stops early once every
// job has succeeded or ctx is done.
func (r *convertRun) retryFailed(ctx context.Context, proc *snap2print.Processor, summary snap2print.Summary, procErr error) (snap2print.Summary, error) {
	delay, err := r.cfg.RequestDelay()
	if err != nil {
		return summary, err
	}

	for pass := 1; pass <= r.cfg.Processing.Retries && summary.Failed > 0; pass++ {
		r.logger.Info("retrying failed images", "pass", pass, "failed", summary.Failed)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return summary, ctx.Err()
		case <-timer.C:
		}

		again, err := proc.ProcessAll(ctx)
		summary.Succeeded += again.Succeeded
		summary.Failed = again.Failed
		summary.Skipped += again.Skipped
		procErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return summary, procErr
}

// wantSolutions reports whether answer keys will be exported.
func (r *convertRun) wantSolutions() bool {
	mode, err := snap2print.ParseSolutionsMode(r.cfg.Export.Solutions)
	return err == nil && mode != snap2print.SolutionsNone
}

// resolveOutput picks the export format and target path. With --split the
// target is a directory and the format comes from --format (default PDF).
func (r *convertRun) resolveOutput() (snap2print.Format, string, error) {
	output := r.flags.output
	if output == "" && r.cfg.Output.DefaultDir != "" {
		output = r.cfg.Output.DefaultDir
		if !r.flags.split {
			output = filepath.Join(output, defaultOutputName)
		}
	}

	if r.flags.split {
		format := snap2print.FormatPDF
		if r.flags.format != "" {
			var err error
			if format, err = snap2print.ParseFormat(r.flags.format); err != nil {
				return "", "", err
			}
		}
		if output == "" {
			output = "."
		}
		return format, output, nil
	}

	if output == "" {
		output = defaultOutputName
		if r.flags.format != "" {
			format, err := snap2print.ParseFormat(r.flags.format)
			if err != nil {
				return "", "", err
			}
			output = "snap2print" + format.Extension()
		}
	}
	if filepath.Ext(output) == "" && r.flags.format != "" {
		format, err := snap2print.ParseFormat(r.flags.format)
		if err != nil {
			return "", "", err
		}
		return format, output + format.Extension(), nil
	}
	format, err := snap2print.FormatFromPath(output)
	if err != nil {
		return "", "", err
	}
	return format, output, nil
}

// loadQueue reads, shrinks and queues every input image.
func (r *convertRun) loadQueue(inputs []string) (*snap2print.Queue, error) {
	paths, err := fileutil.CollectImages(inputs)
	if err != nil {
		return nil, err
	}

	q := snap2print.NewQueue()
	for _, path := range paths {
		data, err := os.ReadFile(path) // #nosec G304 -- user-provided path
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrReadInput, path, err)
		}
		img, err := snap2print.PrepareImage(data, r.cfg.Processing.MaxDimension, r.cfg.Processing.JPEGQuality)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		j := q.Add(filepath.Base(path), img.Data, img.MIMEType)
		if r.flags.remix {
			if err := q.SetMode(j.ID, snap2print.ModeRemix); err != nil {
				return nil, err
			}
		}
		r.logger.Debug("image queued", "file", path, "width", img.Width, "height", img.Height, "bytes", len(img.Data))
	}
	return q, nil
}

// printFailures lists every job that ended in ERROR.
func (r *convertRun) printFailures(jobs []snap2print.Job) {
	for _, j := range jobs {
		if j.Status == snap2print.StatusError {
			fmt.Fprintf(r.env.Stderr, "FAILED %s: %s\n", j.Name, j.Err)
		}
	}
}

// splitTask is one single-page export of a --split run.
type splitTask struct {
	doc  *snap2print.Document
	path string
}

// exportSplit writes one document per completed job using a pool of
// exporters, so PDF rendering runs in parallel browsers.
func (r *convertRun) exportSplit(ctx context.Context, jobs []snap2print.Job, format snap2print.Format, dir string) ([]string, error) {
	var tasks []splitTask
	for _, j := range jobs {
		if j.Status != snap2print.StatusCompleted {
			continue
		}
		doc := newDocument(r.cfg, snap2print.DocumentFromJobs([]snap2print.Job{j}))
		if doc.Title == "" {
			doc.Title = baseName(j.Name)
		}
		tasks = append(tasks, splitTask{
			doc:  doc,
			path: filepath.Join(dir, pageStem(len(tasks)+1, j.Name)+format.Extension()),
		})
	}

	pool, err := snap2print.NewRendererPool(snap2print.ResolvePoolSize(r.cfg.Processing.Workers), r.expOpts...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := pool.Close(); err != nil {
			r.logger.Warn("closing renderers", "error", err)
		}
	}()

	taskChan := make(chan splitTask)
	errs := make([]error, 0, len(tasks))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for range pool.Size() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range taskChan {
				if err := exportWithPool(ctx, pool, t, format); err != nil {
					mu.Lock()
					errs = append(errs, fmt.Errorf("%s: %w", t.path, err))
					mu.Unlock()
				}
			}
		}()
	}

	for _, t := range tasks {
		select {
		case taskChan <- t:
		case <-ctx.Done():
		}
	}
	close(taskChan)
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	written := make([]string, 0, len(tasks))
	for _, t := range tasks {
		written = append(written, t.path)
	}
	return written, nil
}

// exportWithPool renders one split document on a pooled exporter.
func exportWithPool(ctx context.Context, pool *snap2print.RendererPool, t splitTask, format snap2print.Format) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e, err := pool.Acquire()
	if err != nil {
		return err
	}
	defer pool.Release(e)

	data, err := e.Export(ctx, t.doc, format)
	if err != nil {
		return err
	}
	return writeOutput(t.path, data)
}

// exportDocument renders doc with a dedicated exporter and writes it.
func exportDocument(ctx context.Context, doc *snap2print.Document, format snap2print.Format, path string, opts []snap2print.ExporterOption) (err error) {
	e, err := snap2print.NewExporter(opts...)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := e.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	data, err := e.Export(ctx, doc, format)
	if err != nil {
		return err
	}
	return writeOutput(path, data)
}

// writeReport saves the job table as an Excel workbook.
func writeReport(path string, jobs []snap2print.Job) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	f, err := os.Create(path) // #nosec G304 -- user-provided path
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	if err := snap2print.WriteReport(f, jobs); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	return nil
}

// writePages saves every completed page, and its answer key when there is
// one, as standalone HTML files that 'export' can assemble after editing.
// Files are numbered so their names sort in queue order.
func writePages(dir string, jobs []snap2print.Job) error {
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}

	n := 0
	for _, j := range jobs {
		if j.Status != snap2print.StatusCompleted {
			continue
		}
		n++
		stem := pageStem(n, j.Name)
		page := snap2print.Page{Name: j.Name, HTML: j.Result, CSS: j.CSS}
		if err := writeOutput(filepath.Join(dir, stem+pageSuffix), []byte(page.Standalone())); err != nil {
			return err
		}
		if strings.TrimSpace(j.Solution) == "" {
			continue
		}
		key := snap2print.Page{Name: j.Name, HTML: j.Solution, CSS: j.SolutionCSS}
		if err := writeOutput(filepath.Join(dir, stem+solutionSuffix), []byte(key.Standalone())); err != nil {
			return err
		}
	}
	return nil
}

// Page file suffixes written by --pages-dir and read by export.
const (
	pageSuffix     = ".html"
	solutionSuffix = ".solution.html"
)

// pageStem numbers a file name by its position among the exported pages so
// inputs sharing a name cannot overwrite each other.
func pageStem(n int, name string) string {
	return fmt.Sprintf("%03d-%s", n, baseName(name))
}

// baseName strips directory and extension from a file name.
func baseName(name string) string {
	name = filepath.Base(name)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
