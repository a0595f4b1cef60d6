package core

import "context"

// Agent is a unit of domain logic. It reads the run state and returns the
// partial update it wants applied, or an error.
//
// Implementations receive a private copy of the state; mutating it has no
// effect on the run. They must not populate the metadata block of Update
// (status, timing, error log, versioning); the kernel owns those fields.
//
// Agents may block on network I/O. They should honour ctx cancellation, but
// the kernel does not rely on it: it stops waiting once its timeout elapses.
type Agent interface {
	Name() string
	Execute(ctx context.Context, st *State) (Update, error)
}

// AgentFunc adapts an ordinary function into an Agent.
type AgentFunc struct {
	name string
	fn   func(ctx context.Context, st *State) (Update, error)
}

// NewAgentFunc creates an Agent named name backed by fn.
func NewAgentFunc(name string, fn func(ctx context.Context, st *State) (Update, error)) *AgentFunc {
	return &AgentFunc{name: name, fn: fn}
}

// Name implements Agent.
func (a *AgentFunc) Name() string { return a.name }

// Execute implements Agent.
func (a *AgentFunc) Execute(ctx context.Context, st *State) (Update, error) { return a.fn(ctx, st) }

// Step is anything a pipeline can execute against the shared state: a
// kernel-wrapped agent, a conditional gate, or a composition of steps.
//
// Execute applies its effects to st and always returns a well-formed
// Response; failures are reported through Response, never by panicking or
// by leaving st half-written.
type Step interface {
	Name() string
	Execute(ctx context.Context, st *State) Response
}
