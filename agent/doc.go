// Package agent contains the execution kernel and the step compositions a
// pipeline is built from. The package focuses on three concerns:
//
//  1. Uniform execution semantics for domain agents (Kernel)
//  2. Conditional execution (Gate)
//  3. Composition patterns (Sequential, Retry, Loop)
//
// Every type here implements core.Step: Execute applies its effects to the
// shared *core.State and reports the outcome through a core.Response. None of
// them returns an error or panics on agent failure.
//
// Execution model:
//   - The Kernel marks the agent in_progress, runs it on a private copy of
//     the state, and folds either the agent's update (success) or a failure
//     record (error, panic, timeout) back into the state
//   - Kernel-owned metadata (status, timing, error log, versioning) is always
//     written by the kernel, never by domain logic
//   - A Gate skips its agent when the predicate is false and records the
//     agent as completed without touching anything else
//
// A single State is mutated by one step at a time. Independent runs may
// execute concurrently on independent State values; a Kernel is safe to
// share between them.
package agent
