package testutil

import (
	"time"

	"github.com/hupe1980/quillmesh/core"
)

// StateBuilder helps construct run states with fluent chaining for tests.
// Example:
//
//	st := NewStateBuilder("Go generics").Research("fact one").Draft("# Title\n\nbody").Build()
type StateBuilder struct {
	st *core.State
}

// NewStateBuilder starts from core.New(topic) with default inputs.
func NewStateBuilder(topic string, optFns ...func(in *core.Input)) *StateBuilder {
	return &StateBuilder{st: core.New(topic, optFns...)}
}

// Research fills the research group with one source per fact (chainable).
func (b *StateBuilder) Research(facts ...string) *StateBuilder {
	now := time.Now()
	for i, f := range facts {
		b.st.ResearchData = append(b.st.ResearchData, f)
		b.st.ResearchSources = append(b.st.ResearchSources, core.Source{
			URL:     "https://example.com/" + string(rune('a'+i)),
			Title:   f,
			Snippet: f,
		})
	}
	b.st.ResearchQuality = core.QualityLow
	b.st.ResearchTimestamp = &now
	return b
}

// Draft sets the draft text and bumps the iteration counter (chainable).
func (b *StateBuilder) Draft(text string) *StateBuilder {
	b.st.Draft = text
	b.st.DraftIterations++
	return b
}

// Review sets the editor verdict (chainable).
func (b *StateBuilder) Review(score float64, feedback string, needsRevision bool) *StateBuilder {
	b.st.QualityScore = core.Ptr(score)
	b.st.EditorFeedback = core.Ptr(feedback)
	b.st.NeedsRevision = needsRevision
	return b
}

// Status records an agent status (chainable).
func (b *StateBuilder) Status(agent string, status core.Status) *StateBuilder {
	b.st.SetStatus(agent, status)
	return b
}

// Build returns the constructed state.
func (b *StateBuilder) Build() *core.State {
	return b.st
}
