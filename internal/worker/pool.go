package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

type sequenced struct {
	seq    int
	job    Job
	result Result
}

// Pool manages a pool of workers that execute jobs concurrently.
// Results are returned in submission order, not completion order.
type Pool struct {
	workers    int
	jobQueue   chan sequenced
	results    chan sequenced
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once

	mu        sync.Mutex
	submitted int
	slots     []Result
	collected chan struct{}
}

// NewPool creates a new worker pool with the specified number of workers
func NewPool(workers int) *Pool {
	return NewPoolWithContext(context.Background(), workers)
}

// NewPoolWithContext creates a pool whose jobs see a child of ctx.
// Cancelling ctx stops workers from picking up queued jobs.
func NewPoolWithContext(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	p := &Pool{
		workers:    workers,
		jobQueue:   make(chan sequenced, workers*2),
		results:    make(chan sequenced, workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
		collected:  make(chan struct{}),
	}
	go p.collect()
	return p
}

// collect drains results as workers produce them, so workers never stall
// on a full results channel while Submit is still queueing jobs
func (p *Pool) collect() {
	defer close(p.collected)
	for item := range p.results {
		p.mu.Lock()
		for len(p.slots) <= item.seq {
			p.slots = append(p.slots, nil)
		}
		p.slots[item.seq] = item.result
		p.mu.Unlock()
	}
}

// Start starts the worker pool
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case item, ok := <-p.jobQueue:
			if !ok {
				return
			}
			item.result = item.job.Execute(p.ctx)
			select {
			case p.results <- item:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit submits a job to the pool for execution. It reports false when
// the pool was shut down before the job could be queued.
func (p *Pool) Submit(job Job) bool {
	p.mu.Lock()
	seq := p.submitted
	p.submitted++
	p.mu.Unlock()

	if p.ctx.Err() != nil {
		return false
	}
	select {
	case <-p.ctx.Done():
		return false
	case p.jobQueue <- sequenced{seq: seq, job: job}:
		return true
	}
}

// Wait waits for all jobs to complete and returns their results in
// submission order. Jobs dropped by a shutdown or cancellation are omitted.
func (p *Pool) Wait() []Result {
	close(p.jobQueue)
	p.wg.Wait()
	p.closeResults()
	<-p.collected

	p.mu.Lock()
	defer p.mu.Unlock()
	results := make([]Result, 0, len(p.slots))
	for _, r := range p.slots {
		if r != nil {
			results = append(results, r)
		}
	}
	return results
}

// Shutdown shuts down the worker pool immediately
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		p.cancelFunc()
		close(p.results)
	})
}

// Map runs fn over items with at most workers goroutines and returns the
// outputs indexed like items.
func Map[T, R any](ctx context.Context, workers int, items []T, fn func(ctx context.Context, i int, item T) R) []R {
	out := make([]R, len(items))
	if len(items) == 0 {
		return out
	}

	pool := NewPoolWithContext(ctx, workers)
	pool.Start()
	for i, item := range items {
		pool.Submit(&mapJob[T, R]{index: i, item: item, fn: fn})
	}
	for _, r := range pool.Wait() {
		res := r.(*mapResult[R])
		out[res.index] = res.value
	}
	return out
}

type mapJob[T, R any] struct {
	index int
	item  T
	fn    func(ctx context.Context, i int, item T) R
}

type mapResult[R any] struct {
	index int
	value R
}

func (r *mapResult[R]) GetError() error { return nil }

func (j *mapJob[T, R]) Execute(ctx context.Context) Result {
	return &mapResult[R]{index: j.index, value: j.fn(ctx, j.index, j.item)}
}
