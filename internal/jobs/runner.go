package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/Spok95/school-api/internal/observability"
)

type Job func(ctx context.Context) error

type Runner struct {
	ctx context.Context
}

func New(ctx context.Context) *Runner { return &Runner{ctx: ctx} }

// Every runs fn now and then on each tick until the runner's context is done.
// A non-positive interval runs fn once.
func (r *Runner) Every(interval time.Duration, name string, fn Job) {
	go func() {
		r.run(name, fn)
		if interval <= 0 {
			return
		}
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-r.ctx.Done():
				return
			case <-t.C:
				r.run(name, fn)
			}
		}
	}()
}

func (r *Runner) run(name string, fn Job) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			jobErrors.WithLabelValues(name).Inc()
			observability.CaptureErr(fmt.Errorf("panic in job %s: %v", name, p))
		}
		jobRuns.WithLabelValues(name).Inc()
		jobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()
	if err := fn(r.ctx); err != nil {
		jobErrors.WithLabelValues(name).Inc()
		observability.CaptureErr(fmt.Errorf("job %s: %w", name, err))
	}
}
