// Package worker runs the pool that saves draft pick lists off the request path.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/mq/queue"
	"github.com/ckwame-jpg/fantasy-tool/pkg/logger"
	"github.com/ckwame-jpg/fantasy-tool/pkg/metrics"
)

const (
	poolShutdownTimeout = 30 * time.Second
	saveTimeout         = 10 * time.Second
)

// Job is what workers read off the queue.
type Job = queue.Job

// Saver writes pick lists to the authoritative store.
type Saver interface {
	SavePicks(ctx context.Context, draftID string, picks []Pick) error
	ClearPicks(ctx context.Context, draftID string) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs until its queue closes or it is shut down.
type Worker interface {
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// InMemoryWorker saves jobs taken from a queue.
type InMemoryWorker struct {
	queue  Queue
	saver  Saver
	guard  *generations
	name   string
	logger logger.Logger

	shutdown chan struct{}
	once     sync.Once
	done     chan struct{}
}

// NewInMemoryWorker creates a worker. It never applies an older job of a draft after a newer one.
func NewInMemoryWorker(q Queue, saver Saver, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		saver:    saver,
		guard:    newGenerations(),
		name:     "worker",
		logger:   logger.Nop(),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run consumes jobs until the queue is drained and closed, ctx is done, or Shutdown is called.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "pick save failed", logger.String("draft_id", job.DraftID), logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker and waits for the current job to finish.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.once.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(ctx context.Context, job Job) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	unlock := w.guard.lock(job.DraftID)
	defer unlock()

	if !w.guard.newer(job.DraftID, job.Generation) {
		w.logger.Debug(ctx, "skipping superseded save",
			logger.String("draft_id", job.DraftID), logger.Int64("generation", int64(job.Generation)))
		return nil
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()

	var err error
	if job.Clear {
		err = w.saver.ClearPicks(saveCtx, job.DraftID)
	} else {
		err = w.saver.SavePicks(saveCtx, job.DraftID, job.Picks)
	}
	metrics.RecordPicksPersistLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordPicksPersistError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "save_error")
		return fmt.Errorf("save picks for draft %s: %w", job.DraftID, err)
	}

	w.guard.commit(job.DraftID, job.Generation)
	metrics.RecordPicksPersisted()
	return nil
}

// generations serializes saves per draft and remembers the last applied generation.
type generations struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
	last  map[string]uint64
}

func newGenerations() *generations {
	return &generations{locks: make(map[string]*sync.Mutex), last: make(map[string]uint64)}
}

func (g *generations) lock(draftID string) func() {
	g.mu.Lock()
	l, ok := g.locks[draftID]
	if !ok {
		l = &sync.Mutex{}
		g.locks[draftID] = l
	}
	g.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (g *generations) newer(draftID string, gen uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return gen > g.last[draftID]
}

func (g *generations) commit(draftID string, gen uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last[draftID] = gen
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers. workerCount < 1 means one per CPU.
func NewPool(workerCount int, q Queue, saver Saver, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	base := &InMemoryWorker{logger: logger.Nop()}
	for _, opt := range opts {
		opt(base)
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  base.logger.Named("worker-pool"),
	}

	// Workers share one guard so saves of the same draft stay ordered across the pool.
	guard := newGenerations()
	for i := range p.workers {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		wopts = append(wopts, withGuard(guard))
		p.workers[i] = NewInMemoryWorker(q, saver, wopts...)
	}
	return p
}

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Shutdown closes the queue so workers drain pending saves, then waits for them.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
