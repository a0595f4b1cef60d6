package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/quillmesh/core"
)

// Sequential coordinates the execution of multiple steps in order.
//
// Each step sees the state as left by its predecessors. Execution halts at
// the first failed response; later steps do not run and the failure is
// reported under the failing step's name.
type Sequential struct {
	name  string
	steps []core.Step
}

// NewSequential creates a sequential coordinator over steps.
func NewSequential(name string, steps ...core.Step) *Sequential {
	return &Sequential{name: name, steps: steps}
}

// Name implements core.Step.
func (s *Sequential) Name() string { return s.name }

// Steps returns the child steps in execution order.
func (s *Sequential) Steps() []core.Step { return s.steps }

// Execute implements core.Step.
func (s *Sequential) Execute(ctx context.Context, st *core.State) core.Response {
	var elapsed float64

	for _, step := range s.steps {
		if err := ctx.Err(); err != nil {
			return core.Response{
				AgentName: s.name,
				Error:     fmt.Sprintf("sequential execution cancelled before %s: %v", step.Name(), err),
				Elapsed:   elapsed,
			}
		}

		resp := step.Execute(ctx, st)
		elapsed += resp.Elapsed

		if resp.Failed() {
			return core.Response{
				AgentName: resp.AgentName,
				Error:     fmt.Sprintf("sequential execution failed at %s: %s", step.Name(), resp.Error),
				Elapsed:   elapsed,
			}
		}
	}

	return core.Response{Succeeded: true, AgentName: s.name, Elapsed: elapsed}
}
