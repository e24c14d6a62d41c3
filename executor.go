package parzip

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Executor is the caller-supplied capability that runs compression tasks.
// Submit may block until a worker is free; every submitted task must
// eventually run exactly once. The archive builder never constructs a pool
// itself, so a shared process-wide executor can back several builders.
//
// Implementations must be safe for concurrent Submit calls.
type Executor interface {
	Submit(task func())
}

// WorkerPool is a fixed-size Executor backed by an errgroup with a
// concurrency limit. It is a convenience for callers without an existing
// pool; any Executor implementation works with the builder.
type WorkerPool struct {
	eg errgroup.Group
}

// NewWorkerPool creates a pool running at most workers tasks at a time.
// Non-positive worker counts use GOMAXPROCS.
func NewWorkerPool(workers int) *WorkerPool {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &WorkerPool{}
	p.eg.SetLimit(workers)
	return p
}

// Submit schedules task, blocking while all workers are busy.
func (p *WorkerPool) Submit(task func()) {
	p.eg.Go(func() error {
		task()
		return nil
	})
}

// Wait blocks until every submitted task has returned. Finalize does not
// require it, but calling Wait before discarding the pool guarantees no
// stray task is still running.
func (p *WorkerPool) Wait() {
	_ = p.eg.Wait() //nolint:errcheck // tasks never return errors
}

var _ Executor = (*WorkerPool)(nil)
