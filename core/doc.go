// Package core provides the foundational domain types and contracts used by
// quillmesh. It defines:
//
//   - State, the single run record every agent reads and the kernel writes
//   - Update, the partial update an agent returns for the kernel to fold
//   - Status / ResearchQuality enumerations and ErrorRecord history entries
//   - Agent (domain logic) and Step (anything a pipeline can execute)
//   - Response, the value every kernel invocation produces
//
// The package intentionally keeps execution concerns (timing, status
// transitions, retries, persistence) out of scope; those live in the agent
// and runner packages and consume the small contracts declared here.
package core
