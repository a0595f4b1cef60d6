package agent

import (
	"context"

	"github.com/hupe1980/quillmesh/core"
	"github.com/hupe1980/quillmesh/logging"
)

// Gate runs a kernel only when its predicate holds for the current state.
//
// A skipped agent is recorded as completed and nothing else changes: no
// timing entry, no error, no invocation count, no version bump.
type Gate struct {
	kernel        *Kernel
	shouldExecute func(*core.State) bool
	logger        logging.Logger
}

// NewGate wraps k with the predicate shouldExecute. A nil predicate always
// executes. The predicate must treat the state as read-only.
func NewGate(k *Kernel, shouldExecute func(*core.State) bool) *Gate {
	return &Gate{
		kernel:        k,
		shouldExecute: shouldExecute,
		logger:        logging.With(k.opts.Logger, "component", "gate"),
	}
}

// Name returns the gated agent's name.
func (g *Gate) Name() string { return g.kernel.Name() }

// Kernel returns the gated kernel.
func (g *Gate) Kernel() *Kernel { return g.kernel }

// Execute implements core.Step.
func (g *Gate) Execute(ctx context.Context, st *core.State) core.Response {
	if g.shouldExecute == nil || g.shouldExecute(st) {
		return g.kernel.Execute(ctx, st)
	}

	name := g.kernel.Name()
	update := core.Update{Status: map[string]core.Status{name: core.StatusCompleted}}
	st.Apply(update)

	g.logger.Info("Agent skipped", "agent", name, "run_id", st.RunID)

	return core.Response{
		Succeeded: true,
		AgentName: name,
		Update:    update,
		Skipped:   true,
	}
}
