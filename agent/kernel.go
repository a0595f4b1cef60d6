package agent

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/quillmesh/core"
	"github.com/hupe1980/quillmesh/logging"
	"github.com/hupe1980/quillmesh/telemetry"
)

// ErrTimeout is the cause recorded when the kernel stops waiting for an agent,
// either because KernelOptions.Timeout elapsed or the caller's context ended.
var ErrTimeout = errors.New("agent execution timed out")

// KernelOptions configures a Kernel instance.
//
// Use functional options with NewKernel to override defaults.
type KernelOptions struct {
	// Timeout bounds a single invocation. Zero means no kernel-imposed limit.
	Timeout time.Duration
	Logger  logging.Logger
	// Clock supplies error and modification timestamps.
	Clock func() time.Time
}

// Kernel wraps a domain agent with uniform execution semantics: status
// tracking, timing, error capture, panic recovery, timeouts and versioning.
//
// The kernel holds the agent by composition; domain logic never sees or
// writes execution metadata. Kernel is safe for concurrent use across
// independent runs.
//
// The invocation counter belongs to the kernel instance, not to a run. When
// one kernel serves several runs, ErrorRecord.Attempt keeps counting across
// them and interleaves under concurrency, so it orders retries within a run
// but does not restart at 1 for each run.
type Kernel struct {
	agent       core.Agent
	opts        KernelOptions
	logger      logging.Logger
	invocations atomic.Int64
}

// NewKernel wraps a with the execution kernel.
//
// Defaults:
//   - no timeout
//   - NoOpLogger
//   - time.Now as clock
func NewKernel(a core.Agent, optFns ...func(o *KernelOptions)) *Kernel {
	opts := KernelOptions{
		Logger: logging.NoOpLogger{},
		Clock:  time.Now,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Kernel{
		agent:  a,
		opts:   opts,
		logger: logging.With(opts.Logger, "component", "kernel"),
	}
}

// Name returns the wrapped agent's name.
func (k *Kernel) Name() string { return k.agent.Name() }

// Agent returns the wrapped domain agent.
func (k *Kernel) Agent() core.Agent { return k.agent }

// Invocations returns how many times Execute has been called on this kernel.
// Skipped gate evaluations are not counted.
func (k *Kernel) Invocations() int64 { return k.invocations.Load() }

// Execute runs the wrapped agent against st and folds the outcome into it.
//
// Lifecycle:
//  1. The invocation counter is incremented
//  2. st.AgentStatus[name] is set to in_progress
//  3. The agent runs on a private copy of st; only this call is timed
//  4. On success the agent's update is applied with kernel metadata
//     (completed, elapsed, version+1, last modified)
//  5. On failure the agent's domain changes are discarded and one
//     ErrorRecord is appended (failed, elapsed, version+1, last modified)
//
// Execute never returns an error and never panics because of the agent.
func (k *Kernel) Execute(ctx context.Context, st *core.State) core.Response {
	name := k.agent.Name()
	attempt := k.invocations.Add(1)

	ctx, span := telemetry.Tracer().Start(ctx, "agent.execute", trace.WithAttributes(
		telemetry.AttrAgent.String(name),
		telemetry.AttrRunID.String(st.RunID),
		telemetry.AttrAttempt.Int64(attempt),
	))
	defer span.End()

	logger := logging.With(k.logger, "run_id", st.RunID)

	st.SetStatus(name, core.StatusInProgress)
	logger.Debug("Agent execution started", "agent", name, "execution_count", attempt)

	snapshot := st.Clone()
	update, kind, elapsed, err := k.invoke(ctx, snapshot)
	secs := elapsed.Seconds()
	now := k.opts.Clock()

	status := core.StatusCompleted
	if err != nil {
		status = core.StatusFailed
		update = core.Update{
			Errors: []core.ErrorRecord{{
				Agent:     name,
				Error:     err.Error(),
				Kind:      kind,
				Timestamp: now,
				Attempt:   attempt,
			}},
		}
	} else {
		update = update.DomainOnly()
	}

	update.Status = map[string]core.Status{name: status}
	update.ExecutionTime = map[string]float64{name: secs}
	update.Version = core.Ptr(st.Version + 1)
	update.LastModifiedBy = core.Ptr(name)
	update.LastModifiedAt = core.Ptr(now)

	st.Apply(update)

	telemetry.RecordAgentExecution(ctx, name, status.String(), elapsed)
	logging.LogAgentExecution(logger, name, attempt, elapsed, err == nil, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return core.Response{
			Succeeded: false,
			AgentName: name,
			Update:    update,
			Error:     err.Error(),
			Elapsed:   secs,
		}
	}

	span.SetStatus(codes.Ok, "")

	return core.Response{
		Succeeded: true,
		AgentName: name,
		Update:    update,
		Elapsed:   secs,
	}
}

type outcome struct {
	update  core.Update
	kind    core.ErrorKind
	elapsed time.Duration
	err     error
}

// invoke runs the agent in its own goroutine so a timeout or cancellation
// can abandon it. The result channel is buffered; a late result is dropped.
// The returned duration covers the agent call only; when the kernel stops
// waiting it is the time the call had been running.
func (k *Kernel) invoke(ctx context.Context, snapshot *core.State) (core.Update, core.ErrorKind, time.Duration, error) {
	if k.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, k.opts.Timeout)
		defer cancel()
	}

	done := make(chan outcome, 1)
	started := make(chan time.Time, 1)

	go func() {
		start := time.Now()
		started <- start

		defer func() {
			if r := recover(); r != nil {
				done <- outcome{kind: core.ErrorKindPanic, elapsed: time.Since(start), err: fmt.Errorf("agent panicked: %v", r)}
			}
		}()

		update, err := k.agent.Execute(ctx, snapshot)
		done <- outcome{update: update, kind: core.ErrorKindAgent, elapsed: time.Since(start), err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil && out.kind == core.ErrorKindAgent && ctx.Err() != nil {
			return core.Update{}, core.ErrorKindTimeout, out.elapsed, k.timeoutError(ctx)
		}
		return out.update, out.kind, out.elapsed, out.err
	case <-ctx.Done():
		return core.Update{}, core.ErrorKindTimeout, time.Since(<-started), k.timeoutError(ctx)
	}
}

func (k *Kernel) timeoutError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && k.opts.Timeout > 0 {
		return fmt.Errorf("%w after %s", ErrTimeout, k.opts.Timeout)
	}
	return fmt.Errorf("%w: %w", ErrTimeout, context.Cause(ctx))
}
