package executor

import (
	"context"
	"fmt"
	"runtime/debug"

	"btor2run/internal/utils"

	"golang.org/x/sync/errgroup"
)

// RunFunc executes one item. Executor.Execute satisfies it.
type RunFunc func(ctx context.Context, item WorkItem) TaskOutcome

type poolOptions struct {
	onStart  func(WorkItem)
	onFinish func(TaskOutcome)
	logDir   string
}

// PoolOption configures RunAll.
type PoolOption func(*poolOptions)

// WithOnStart registers a hook called in the worker goroutine right before
// an item runs.
func WithOnStart(fn func(WorkItem)) PoolOption {
	return func(o *poolOptions) { o.onStart = fn }
}

// WithOnFinish registers a hook called in the worker goroutine right after an
// item produced its outcome.
func WithOnFinish(fn func(TaskOutcome)) PoolOption {
	return func(o *poolOptions) { o.onFinish = fn }
}

// WithLogDir sets the log directory used for outcomes the pool synthesizes
// itself (cancelled before start, recovered panics).
func WithLogDir(dir string) PoolOption {
	return func(o *poolOptions) { o.logDir = dir }
}

// RunAll runs every item with at most limit running at once and returns one
// outcome per item, in completion order. A slot is handed to the next item
// as soon as any running item finishes. Failures never cancel other items.
// Items still waiting when ctx is cancelled are reported as cancelled.
//
// RunAll returns only after every item has an outcome.
func RunAll(ctx context.Context, items []WorkItem, limit int, run RunFunc, opts ...PoolOption) []TaskOutcome {
	if len(items) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if limit < 1 {
		limit = 1
	}
	var o poolOptions
	for _, opt := range opts {
		opt(&o)
	}

	completed := make(chan TaskOutcome, utils.Min(limit, len(items)))
	outcomes := make([]TaskOutcome, 0, len(items))
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for outcome := range completed {
			outcomes = append(outcomes, outcome)
		}
	}()

	var g errgroup.Group
	g.SetLimit(limit)
	for _, item := range items {
		g.Go(func() error {
			outcome := runOne(ctx, item, run, &o)
			if o.onFinish != nil {
				o.onFinish(outcome)
			}
			completed <- outcome
			return nil
		})
	}
	_ = g.Wait()
	close(completed)
	<-collectorDone

	return outcomes
}

func runOne(ctx context.Context, item WorkItem, run RunFunc, o *poolOptions) (outcome TaskOutcome) {
	if err := ctx.Err(); err != nil {
		return cancelledOutcome(item, o.logDir, err)
	}

	defer func() {
		if r := recover(); r != nil {
			logWarnf("Task %s panicked: %v\n%s", item.Path, r, debug.Stack())
			outcome = TaskOutcome{
				Item:     item,
				ExitCode: ExitLaunchFailed,
				Reason:   ReasonLaunchError,
				Error:    fmt.Sprintf("panic: %v", r),
			}
			if o.logDir != "" {
				outcome.LogPath = LogPathFor(o.logDir, item)
			}
		}
	}()

	if o.onStart != nil {
		o.onStart(item)
	}
	return run(ctx, item)
}
