package worker

import (
	"context"
	"log/slog"
	"sync"
)

type ProcessFunc[J, R any] func(ctx context.Context, job J) (R, error)

type Result[J, R any] struct {
	Job   J
	Value R
	Err   error
}

// WorkerPool runs jobs on a fixed number of goroutines. Results must be
// drained by the caller until the channel is closed by Stop.
type WorkerPool[J, R any] struct {
	numWorkers int
	jobs       chan J
	results    chan Result[J, R]
	processor  ProcessFunc[J, R]
	wg         sync.WaitGroup
}

func NewWorkerPool[J, R any](numWorkers int, bufferSize int, processor ProcessFunc[J, R]) *WorkerPool[J, R] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &WorkerPool[J, R]{
		numWorkers: numWorkers,
		jobs:       make(chan J, bufferSize),
		results:    make(chan Result[J, R], bufferSize),
		processor:  processor,
	}
}

func (wp *WorkerPool[J, R]) Start(ctx context.Context) {
	for i := 1; i <= wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool[J, R]) worker(ctx context.Context, id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-wp.jobs:
			if !ok {
				return
			}
			value, err := wp.processor(ctx, job)
			if err != nil {
				slog.Debug("job failed", "worker", id, "error", err)
			}
			select {
			case wp.results <- Result[J, R]{Job: job, Value: value, Err: err}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job, blocking while the buffer is full. It must not be
// called after Stop.
func (wp *WorkerPool[J, R]) Submit(ctx context.Context, job J) error {
	select {
	case wp.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (wp *WorkerPool[J, R]) Results() <-chan Result[J, R] {
	return wp.results
}

// Stop closes the queue, waits for in-flight jobs and closes Results.
func (wp *WorkerPool[J, R]) Stop() {
	close(wp.jobs)
	wp.wg.Wait()
	close(wp.results)
}

// Run processes jobs on numWorkers goroutines with a queue of bufferSize and
// returns one result per job in input order. Jobs not reached before ctx is
// cancelled carry ctx.Err().
func Run[J, R any](ctx context.Context, numWorkers, bufferSize int, jobs []J, fn ProcessFunc[J, R]) []Result[J, R] {
	if bufferSize < 0 {
		bufferSize = 0
	}
	pool := NewWorkerPool[int, R](numWorkers, bufferSize, func(ctx context.Context, i int) (R, error) {
		return fn(ctx, jobs[i])
	})
	pool.Start(ctx)

	go func() {
		for i := range jobs {
			if err := pool.Submit(ctx, i); err != nil {
				break
			}
		}
		pool.Stop()
	}()

	out := make([]Result[J, R], len(jobs))
	done := make([]bool, len(jobs))
	for r := range pool.Results() {
		out[r.Job] = Result[J, R]{Job: jobs[r.Job], Value: r.Value, Err: r.Err}
		done[r.Job] = true
	}

	for i := range out {
		if !done[i] {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			out[i] = Result[J, R]{Job: jobs[i], Err: err}
		}
	}
	return out
}
