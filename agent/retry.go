package agent

import (
	"context"
	"time"

	"github.com/hupe1980/quillmesh/core"
	"github.com/hupe1980/quillmesh/logging"
)

// RetryOptions configures a Retry step.
type RetryOptions struct {
	// Backoff is the pause between attempts.
	Backoff time.Duration
	Logger  logging.Logger
}

// Retry re-executes a failing step until it succeeds or the attempt budget
// is spent. Each failed attempt leaves its own error record in the state; a
// successful attempt is never repeated.
type Retry struct {
	step     core.Step
	attempts int
	opts     RetryOptions
}

// NewRetry wraps step with an attempt budget. Values below 1 mean a single attempt.
func NewRetry(step core.Step, attempts int, optFns ...func(o *RetryOptions)) *Retry {
	opts := RetryOptions{Logger: logging.NoOpLogger{}}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	if attempts < 1 {
		attempts = 1
	}

	return &Retry{step: step, attempts: attempts, opts: opts}
}

// Name implements core.Step.
func (r *Retry) Name() string { return r.step.Name() }

// Execute implements core.Step.
func (r *Retry) Execute(ctx context.Context, st *core.State) core.Response {
	var (
		resp    core.Response
		elapsed float64
	)

	for i := 1; i <= r.attempts; i++ {
		resp = r.step.Execute(ctx, st)
		elapsed += resp.Elapsed

		if resp.Succeeded || i == r.attempts {
			break
		}

		r.opts.Logger.Warn("Retrying step", "step", r.step.Name(), "attempt", i, "max_attempts", r.attempts, "error", resp.Error)

		if !sleep(ctx, r.opts.Backoff) {
			break
		}
	}

	resp.Elapsed = elapsed

	return resp
}

// sleep waits for d or until ctx ends. It reports whether the wait completed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
