// Package job runs named functions on a fixed interval until the context is
// cancelled.
package job

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

type Func func(ctx context.Context) error

type job struct {
	name     string
	interval time.Duration
	fn       Func
}

type Runner struct {
	jobs   []job
	wg     sync.WaitGroup
	logger *slog.Logger
}

func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{logger: logger}
}

func (r *Runner) Register(name string, interval time.Duration, fn Func) *Runner {
	return r.TryRegister(true, name, interval, fn)
}

// TryRegister registers the job only when enabled is true.
func (r *Runner) TryRegister(enabled bool, name string, interval time.Duration, fn Func) *Runner {
	if !enabled {
		return r
	}
	r.jobs = append(r.jobs, job{name: name, interval: interval, fn: fn})
	return r
}

// Start runs every job once immediately and then on its interval.
func (r *Runner) Start(ctx context.Context) {
	for _, j := range r.jobs {
		r.wg.Add(1)
		go r.loop(ctx, j)
	}
}

// RunOnce runs every job a single time in registration order and returns the
// first error.
func (r *Runner) RunOnce(ctx context.Context) error {
	for _, j := range r.jobs {
		if err := r.run(ctx, r.logger.With("job", j.name), j); err != nil {
			return fmt.Errorf("job %s: %w", j.name, err)
		}
	}
	return nil
}

// Wait blocks until every started job has observed cancellation.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) loop(ctx context.Context, j job) {
	defer r.wg.Done()

	l := r.logger.With("job", j.name)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		l.Debug("job started")
		if err := r.run(ctx, l, j); err != nil {
			l.Error("job failed", "error", err)
		} else {
			l.Debug("job done")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *Runner) run(ctx context.Context, l *slog.Logger, j job) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			l.Error("job panic", "error", rec, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return j.fn(ctx)
}
