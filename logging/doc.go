// Package logging provides a minimal logging interface and adapters for quillmesh.
//
// The Logger interface defines the standard leveled methods (Debug, Info,
// Warn, Error) taking slog-style key/value pairs. The kernel, search
// providers, model adapters and the runner all accept a Logger through their
// options. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping *slog.Logger, built by New from a Config
//   - With for attaching component / run attributes to any Logger
//   - Domain helpers (LogAgentExecution, LogSearch, LogLLMCall, LogRun)
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.New(&logging.Config{Level: logging.LogLevelInfo, Format: "json"})
//	kernel := agent.NewKernel(writer, func(o *agent.KernelOptions) { o.Logger = logger })
package logging
