package core

import (
	"maps"
	"slices"
	"time"
)

// Default input values applied by New.
const (
	DefaultAudience     = "general"
	DefaultTone         = "professional"
	DefaultTargetLength = 500
)

// Source is a single research source record.
type Source struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// ErrorRecord is one entry of the append-only error log. Attempt is the
// per-agent invocation counter at the time of the failure.
type ErrorRecord struct {
	Agent     string    `json:"agent"`
	Error     string    `json:"error"`
	Kind      ErrorKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Attempt   int64     `json:"execution_count"`
}

// State is the shared run record. One State exists per run; agents read it
// and the kernel folds their updates into it, one writer at a time.
//
// Contract:
//   - Input fields are set once by New and never written by Apply
//   - ErrorLog only grows
//   - AgentStatus / ExecutionTime hold one entry per agent (latest wins)
//   - Version starts at 1 and never decreases
//
// State is not safe for concurrent mutation; independent runs use
// independent State values.
type State struct {
	RunID string `json:"run_id"`

	// Input
	Topic        string  `json:"topic"`
	Requirements *string `json:"user_requirements,omitempty"`
	Audience     string  `json:"target_audience"`
	Tone         string  `json:"tone"`
	TargetLength int     `json:"word_count"`

	// Research phase
	ResearchData      []string        `json:"research_data"`
	ResearchSources   []Source        `json:"research_sources"`
	ResearchQuality   ResearchQuality `json:"research_quality"`
	ResearchTimestamp *time.Time      `json:"research_timestamp,omitempty"`

	// Writing phase
	Draft           string         `json:"blog_post"`
	DraftTitle      *string        `json:"blog_title,omitempty"`
	DraftMetadata   map[string]any `json:"blog_metadata,omitempty"`
	DraftIterations int            `json:"draft_iterations"`

	// Editing phase
	EditorFeedback *string  `json:"editor_feedback,omitempty"`
	QualityScore   *float64 `json:"quality_score,omitempty"`
	NeedsRevision  bool     `json:"needs_revision"`

	// Execution metadata, written by the kernel only
	AgentStatus   map[string]Status  `json:"agent_status"`
	ExecutionTime map[string]float64 `json:"execution_time"`
	ErrorLog      []ErrorRecord      `json:"error_log"`

	// Versioning
	Version        int       `json:"version"`
	LastModifiedBy string    `json:"last_modified_by,omitempty"`
	LastModifiedAt time.Time `json:"last_modified_at"`
}

// Input carries the run inputs accepted by New.
type Input struct {
	Requirements string
	Audience     string
	Tone         string
	TargetLength int
}

// New creates the initial State for a run with defaults for every optional
// input, empty research/draft/review groups and version 1.
func New(topic string, optFns ...func(in *Input)) *State {
	in := Input{
		Audience:     DefaultAudience,
		Tone:         DefaultTone,
		TargetLength: DefaultTargetLength,
	}

	for _, fn := range optFns {
		fn(&in)
	}

	st := &State{
		RunID:           NewID(),
		Topic:           topic,
		Audience:        in.Audience,
		Tone:            in.Tone,
		TargetLength:    in.TargetLength,
		ResearchData:    []string{},
		ResearchSources: []Source{},
		ResearchQuality: QualityUnknown,
		AgentStatus:     map[string]Status{},
		ExecutionTime:   map[string]float64{},
		ErrorLog:        []ErrorRecord{},
		Version:         1,
		LastModifiedAt:  time.Now(),
	}
	if in.Requirements != "" {
		st.Requirements = Ptr(in.Requirements)
	}

	return st
}

// StatusOf returns the status recorded for the named agent, or StatusPending
// if the agent never executed in this run.
func (s *State) StatusOf(agent string) Status {
	if st, ok := s.AgentStatus[agent]; ok {
		return st
	}
	return StatusPending
}

// ErrorsFor returns the error log entries recorded for the named agent in
// append order.
func (s *State) ErrorsFor(agent string) []ErrorRecord {
	var out []ErrorRecord
	for _, rec := range s.ErrorLog {
		if rec.Agent == agent {
			out = append(out, rec)
		}
	}
	return out
}

// SetStatus records a status for the named agent in place.
func (s *State) SetStatus(agent string, status Status) {
	if s.AgentStatus == nil {
		s.AgentStatus = map[string]Status{}
	}
	s.AgentStatus[agent] = status
}

// Clone returns a deep copy of the state safe for independent mutation.
func (s *State) Clone() *State {
	c := *s
	c.Requirements = clonePtr(s.Requirements)
	c.ResearchData = slices.Clone(s.ResearchData)
	c.ResearchSources = slices.Clone(s.ResearchSources)
	c.ResearchTimestamp = clonePtr(s.ResearchTimestamp)
	c.DraftTitle = clonePtr(s.DraftTitle)
	c.DraftMetadata = maps.Clone(s.DraftMetadata)
	c.EditorFeedback = clonePtr(s.EditorFeedback)
	c.QualityScore = clonePtr(s.QualityScore)
	c.AgentStatus = maps.Clone(s.AgentStatus)
	c.ExecutionTime = maps.Clone(s.ExecutionTime)
	c.ErrorLog = slices.Clone(s.ErrorLog)
	return &c
}

// Apply folds an update into the state. Untouched (nil) fields are left as
// they are; map entries are overwritten per key and errors are appended.
func (s *State) Apply(u Update) {
	if u.ResearchData != nil {
		s.ResearchData = slices.Clone(u.ResearchData)
	}
	if u.ResearchSources != nil {
		s.ResearchSources = slices.Clone(u.ResearchSources)
	}
	if u.ResearchQuality != nil {
		s.ResearchQuality = *u.ResearchQuality
	}
	if u.ResearchTimestamp != nil {
		s.ResearchTimestamp = clonePtr(u.ResearchTimestamp)
	}
	if u.Draft != nil {
		s.Draft = *u.Draft
	}
	if u.DraftTitle != nil {
		s.DraftTitle = clonePtr(u.DraftTitle)
	}
	if u.DraftMetadata != nil {
		s.DraftMetadata = maps.Clone(u.DraftMetadata)
	}
	if u.DraftIterations != nil {
		s.DraftIterations = *u.DraftIterations
	}
	if u.EditorFeedback != nil {
		s.EditorFeedback = clonePtr(u.EditorFeedback)
	}
	if u.QualityScore != nil {
		s.QualityScore = clonePtr(u.QualityScore)
	}
	if u.NeedsRevision != nil {
		s.NeedsRevision = *u.NeedsRevision
	}

	for agent, st := range u.Status {
		s.SetStatus(agent, st)
	}
	if len(u.ExecutionTime) > 0 && s.ExecutionTime == nil {
		s.ExecutionTime = map[string]float64{}
	}
	for agent, secs := range u.ExecutionTime {
		s.ExecutionTime[agent] = secs
	}
	s.ErrorLog = append(s.ErrorLog, u.Errors...)

	if u.Version != nil && *u.Version > s.Version {
		s.Version = *u.Version
	}
	if u.LastModifiedBy != nil {
		s.LastModifiedBy = *u.LastModifiedBy
	}
	if u.LastModifiedAt != nil {
		s.LastModifiedAt = *u.LastModifiedAt
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
