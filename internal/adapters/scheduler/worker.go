package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/merch/pkg/logger"
)

// Worker runs a job on a fixed interval until stopped. A failing job is
// logged by the job itself and retried on the next tick.
type Worker struct {
	name     string
	interval time.Duration
	job      func(ctx context.Context)

	done   chan struct{}
	logger logger.Logger
}

func newWorker(name string, interval time.Duration, job func(ctx context.Context), l logger.Logger) *Worker {
	return &Worker{
		name:     name,
		interval: interval,
		job:      job,
		done:     make(chan struct{}),
		logger:   l.Named(name),
	}
}

// Name identifies the worker.
func (w *Worker) Name() string { return w.name }

// Interval is the time between runs.
func (w *Worker) Interval() time.Duration { return w.interval }

// Run executes the job once, then on every interval until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Debug(ctx, "worker started", logger.Duration("interval", w.interval))
	if ctx.Err() == nil {
		w.job(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug(ctx, "worker stopped")
			return
		case <-ticker.C:
			w.job(ctx)
		}
	}
}

// Wait blocks until Run returns or ctx is done.
func (w *Worker) Wait(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker %s shutdown timed out: %w", w.name, ctx.Err())
	}
}
