package snap2print

import (
	"errors"
	"runtime"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one worker is available.
	MinPoolSize = 1

	// MaxPoolSize caps concurrent workers and browser instances (~200MB each).
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("renderer pool is closed")

// RendererPool hands out Exporters, each owning its own browser, so several
// documents can be rendered to PDF at once. Exporters are created lazily
// with the same options.
type RendererPool struct {
	size      int
	opts      []ExporterOption
	exporters []*Exporter
	sem       chan *Exporter
	mu        sync.Mutex
	created   int
	closed    bool
}

// NewRendererPool creates a pool with capacity for n Exporters.
// Options are validated once up front.
func NewRendererPool(n int, opts ...ExporterOption) (*RendererPool, error) {
	if n < 1 {
		n = 1
	}
	if _, err := NewExporter(opts...); err != nil {
		return nil, err
	}
	return &RendererPool{
		size:      n,
		opts:      opts,
		exporters: make([]*Exporter, 0, n),
		sem:       make(chan *Exporter, n),
	}, nil
}

// Acquire returns an idle Exporter, creating one while under capacity.
// Blocks when all are in use.
func (p *RendererPool) Acquire() (*Exporter, error) {
	select {
	case e, ok := <-p.sem:
		if !ok {
			return nil, ErrPoolClosed
		}
		return e, nil
	default:
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		e, err := NewExporter(p.opts...)
		p.mu.Lock()
		if err != nil {
			p.created--
			p.mu.Unlock()
			return nil, err
		}
		p.exporters = append(p.exporters, e)
		p.mu.Unlock()
		return e, nil
	}
	p.mu.Unlock()

	e, ok := <-p.sem
	if !ok {
		return nil, ErrPoolClosed
	}
	return e, nil
}

// Release returns an Exporter to the pool.
// The lock is released before sending so a full channel cannot deadlock.
func (p *RendererPool) Release(e *Exporter) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.sem <- e
}

// Close shuts down every browser the pool started.
func (p *RendererPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	exporters := p.exporters
	p.mu.Unlock()

	var errs []error
	for _, e := range exporters {
		if err := e.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *RendererPool) Size() int {
	return p.size
}

// ResolvePoolSize picks a worker count: an explicit value clamped to
// [MinPoolSize, MaxPoolSize], or half of GOMAXPROCS when workers <= 0.
func ResolvePoolSize(workers int) int {
	n := workers
	if n <= 0 {
		// GOMAXPROCS is container-aware once automaxprocs has run.
		n = runtime.GOMAXPROCS(0) / cpuDivisor
	}
	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
