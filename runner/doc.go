// Package runner implements the orchestration layer of quillmesh.
//
// A Runner owns the root step of a pipeline (usually a composition of
// kernels built by the façade) and manages the lifecycle of individual runs:
//
//   - precondition validation of the initial state (a run never starts on
//     an invalid state)
//   - run scoped timeouts and cancellation by run id
//   - persistence of the final state snapshot (session store) and of the
//     rendered post (artifact store)
//   - bounded parallel execution of independent runs (RunBatch)
//
// Runs never share a State; each run is single-writer.
package runner
