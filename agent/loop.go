package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/quillmesh/core"
	"github.com/hupe1980/quillmesh/logging"
)

// DefaultMaxIters bounds a Loop when no limit is configured.
const DefaultMaxIters = 3

// Loop coordinates the repeated execution of a body step.
//
// The body runs once, then again while the Until predicate reports false,
// up to the iteration limit. The same state is shared across iterations so
// each pass builds on the previous one.
//
// Loop is ideal for:
//   - Revision cycles (write, review, revise)
//   - Polling until a condition on the state holds
type Loop struct {
	name        string
	body        core.Step
	maxIters    int
	interval    time.Duration
	stopOnError bool
	until       func(*core.State) bool
	logger      logging.Logger
}

// LoopOption defines a configuration function for customizing Loop behavior.
type LoopOption func(*Loop)

// NewLoop constructs a looping coordinator around body.
//
// Default configuration:
//   - DefaultMaxIters iterations
//   - No interval between iterations
//   - Stop on the first failed iteration
//   - No Until predicate (runs all iterations)
func NewLoop(name string, body core.Step, opts ...LoopOption) *Loop {
	l := &Loop{
		name:        name,
		body:        body,
		maxIters:    DefaultMaxIters,
		stopOnError: true,
		logger:      logging.NoOpLogger{},
	}

	for _, o := range opts {
		o(l)
	}

	if l.maxIters < 1 {
		l.maxIters = 1
	}

	return l
}

// WithMaxIters sets the maximum number of iterations for the loop.
func WithMaxIters(n int) LoopOption {
	return func(l *Loop) { l.maxIters = n }
}

// WithInterval sets the time delay between loop iterations.
func WithInterval(d time.Duration) LoopOption {
	return func(l *Loop) { l.interval = d }
}

// WithUntil sets the termination predicate evaluated after each iteration.
//
// Example:
//
//	WithUntil(func(st *core.State) bool { return !st.NeedsRevision })
func WithUntil(pred func(*core.State) bool) LoopOption {
	return func(l *Loop) { l.until = pred }
}

// WithContinueOnError keeps iterating after a failed body execution.
func WithContinueOnError() LoopOption {
	return func(l *Loop) { l.stopOnError = false }
}

// WithLoopLogger sets the logger used for iteration diagnostics.
func WithLoopLogger(logger logging.Logger) LoopOption {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Name implements core.Step.
func (l *Loop) Name() string { return l.name }

// Execute implements core.Step.
func (l *Loop) Execute(ctx context.Context, st *core.State) core.Response {
	var (
		elapsed float64
		last    core.Response
	)

	for i := 1; i <= l.maxIters; i++ {
		if err := ctx.Err(); err != nil {
			return core.Response{
				AgentName: l.name,
				Error:     fmt.Sprintf("loop cancelled at iteration %d: %v", i, err),
				Elapsed:   elapsed,
			}
		}

		l.logger.Debug("Loop iteration started", "loop", l.name, "iteration", i, "run_id", st.RunID)

		last = l.body.Execute(ctx, st)
		elapsed += last.Elapsed

		if last.Failed() {
			if l.stopOnError {
				return core.Response{
					AgentName: last.AgentName,
					Error:     fmt.Sprintf("loop iteration %d failed: %s", i, last.Error),
					Elapsed:   elapsed,
				}
			}
			l.logger.Warn("Loop iteration failed, continuing", "loop", l.name, "iteration", i, "error", last.Error)
		}

		if l.until != nil && l.until(st) {
			l.logger.Debug("Loop condition satisfied", "loop", l.name, "iteration", i)
			break
		}

		if i == l.maxIters {
			l.logger.Info("Loop reached iteration limit", "loop", l.name, "max_iters", l.maxIters)
			break
		}

		if !sleep(ctx, l.interval) {
			return core.Response{
				AgentName: l.name,
				Error:     fmt.Sprintf("loop cancelled after iteration %d: %v", i, ctx.Err()),
				Elapsed:   elapsed,
			}
		}
	}

	if last.Failed() {
		return core.Response{AgentName: last.AgentName, Error: last.Error, Elapsed: elapsed}
	}

	return core.Response{Succeeded: true, AgentName: l.name, Elapsed: elapsed}
}
