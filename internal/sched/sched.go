// Package sched turns registered entries into compression results in
// parallel and releases them downstream strictly in insertion order.
//
// Tasks run on a caller-supplied executor and complete in arbitrary order;
// a single consumer holds the next-expected cursor and a pending map,
// releasing each result to the sink as soon as the cursor's task has
// finished. A semaphore bounds the number of submitted-but-unserialized
// entries, which caps buffered memory at the reorder distance rather than
// the archive size.
package sched

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/meigma/parzip/internal/ziptype"
)

// DefaultMaxPending is the pending-entry budget used when none is configured.
const DefaultMaxPending = 64

// Executor runs submitted tasks, typically on a fixed-size worker pool.
// Submit may block until a worker is free; every submitted task must
// eventually run exactly once. The scheduler never constructs a pool of
// its own.
type Executor interface {
	Submit(task func())
}

// Sink consumes compression results in strictly ascending entry order.
type Sink interface {
	Consume(res *ziptype.Result) error
}

// Config carries scheduler tuning from the builder.
type Config struct {
	// Level is the flate compression level for Deflate entries.
	Level int

	// MaxPending bounds submitted-but-unserialized entries. Zero uses
	// DefaultMaxPending; negative disables the bound.
	MaxPending int

	// Logger receives debug events. Nil discards.
	Logger *slog.Logger
}

// Scheduler drives parallel compression for one finalize call.
type Scheduler struct {
	exec       Executor
	level      int
	maxPending int
	logger     *slog.Logger
}

// taskResult is one completion, successful or not, keyed by insertion index.
type taskResult struct {
	index int
	res   *ziptype.Result
	err   error
}

// New creates a scheduler submitting to exec.
func New(exec Executor, cfg Config) *Scheduler {
	maxPending := cfg.MaxPending
	if maxPending == 0 {
		maxPending = DefaultMaxPending
	}
	return &Scheduler{
		exec:       exec,
		level:      cfg.Level,
		maxPending: maxPending,
		logger:     cfg.Logger,
	}
}

// Run compresses every entry and delivers the results to sink in ascending
// ID order. It returns nil only after all N results have been consumed;
// otherwise it returns the first error in archive order (not completion
// order). After an error, already-dispatched tasks past the failure point
// run to completion wastefully and their results are discarded.
func (s *Scheduler) Run(ctx context.Context, entries []ziptype.Entry, sink Sink) error {
	if len(entries) == 0 {
		return nil
	}

	var budget *semaphore.Weighted
	if s.maxPending > 0 {
		budget = semaphore.NewWeighted(int64(s.maxPending))
	}

	// Buffered to N so a task send never blocks: abandoned tasks finish
	// and exit even after the consumer has gone.
	results := make(chan taskResult, len(entries))
	var stop atomic.Bool

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		for i := range entries {
			if stop.Load() {
				return nil
			}
			if budget != nil {
				if err := budget.Acquire(ctx, 1); err != nil {
					return err
				}
			}
			entry := &entries[i]
			index := i
			s.exec.Submit(func() {
				if stop.Load() || ctx.Err() != nil {
					results <- taskResult{index: index, err: context.Canceled}
					return
				}
				res, err := compress(ctx, entry, s.level)
				results <- taskResult{index: index, res: res, err: err}
			})
		}
		return nil
	})

	eg.Go(func() error {
		next := 0
		pending := make(map[int]taskResult)
		for next < len(entries) {
			select {
			case tr := <-results:
				pending[tr.index] = tr
				for {
					tr, ok := pending[next]
					if !ok {
						break
					}
					delete(pending, next)
					if tr.err != nil {
						stop.Store(true)
						return tr.err
					}
					if err := sink.Consume(tr.res); err != nil {
						stop.Store(true)
						return err
					}
					if budget != nil {
						budget.Release(1)
					}
					next++
				}
			case <-ctx.Done():
				stop.Store(true)
				return ctx.Err()
			}
		}
		s.log().Debug("scheduling complete", "entries", len(entries))
		return nil
	})

	return eg.Wait()
}

// log returns the logger, falling back to a discard logger if nil.
func (s *Scheduler) log() *slog.Logger {
	if s.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.logger
}
