package core

// Response is the transient result of a single step execution. It is not
// part of State; the kernel has already folded Update into the state by the
// time the caller sees it.
type Response struct {
	Succeeded bool    `json:"success"`
	AgentName string  `json:"agent_name"`
	Update    Update  `json:"-"`
	Error     string  `json:"error,omitempty"`
	Elapsed   float64 `json:"execution_time"`
	// Skipped is true when a conditional gate decided not to run the agent.
	Skipped bool `json:"skipped,omitempty"`
}

// Failed reports whether the response represents a failed execution.
func (r Response) Failed() bool { return !r.Succeeded }
