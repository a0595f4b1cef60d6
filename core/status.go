package core

import "fmt"

// Status is the execution status of a single agent within a run.
//
// Transitions are unidirectional per invocation:
//
//	pending -> in_progress -> {completed | failed}
//
// A later pipeline iteration may invoke the same agent again, which restarts
// at in_progress. Pending only describes an agent that never executed.
type Status string

const (
	// StatusPending marks an agent that has not executed in this run.
	StatusPending Status = "pending"
	// StatusInProgress marks an agent whose domain logic is running.
	StatusInProgress Status = "in_progress"
	// StatusCompleted marks a successful (or skipped) execution.
	StatusCompleted Status = "completed"
	// StatusFailed marks an execution whose domain logic returned an error.
	StatusFailed Status = "failed"
)

// IsTerminal reports whether s ends an invocation.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// IsValid reports whether s is one of the four known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of the status.
func (s Status) String() string { return string(s) }

// ResearchQuality is the coarse classification a research agent assigns to
// the material it collected.
type ResearchQuality string

const (
	QualityHigh    ResearchQuality = "high"
	QualityMedium  ResearchQuality = "medium"
	QualityLow     ResearchQuality = "low"
	QualityUnknown ResearchQuality = "unknown"
)

// ParseResearchQuality converts a string into a ResearchQuality.
func ParseResearchQuality(s string) (ResearchQuality, error) {
	switch q := ResearchQuality(s); q {
	case QualityHigh, QualityMedium, QualityLow, QualityUnknown:
		return q, nil
	default:
		return QualityUnknown, fmt.Errorf("unknown research quality %q", s)
	}
}

// String returns the string representation of the quality.
func (q ResearchQuality) String() string { return string(q) }

// ErrorKind classifies an ErrorRecord. The kernel treats every kind as a
// plain agent failure; the kind only helps humans and runners read the log.
type ErrorKind string

const (
	// ErrorKindAgent is an error returned by domain logic.
	ErrorKindAgent ErrorKind = "agent"
	// ErrorKindTimeout is recorded when the kernel stopped waiting for the agent.
	ErrorKindTimeout ErrorKind = "timeout"
	// ErrorKindPanic is recorded when domain logic panicked.
	ErrorKindPanic ErrorKind = "panic"
)
