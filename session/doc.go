// Package session keeps run records: snapshots of the shared state keyed by
// run id.
//
// The runner saves a snapshot when a run finishes (successfully or not) so
// callers can inspect agent status, timings and the error log afterwards.
// Add additional backends in sub-packages without changing any calling
// code; only the wiring layer decides which implementation to instantiate.
package session
