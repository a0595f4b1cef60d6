package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/quillmesh/core"
)

func TestGate_SkipRecordsCompletedOnly(t *testing.T) {
	st := core.New("gate semantics")
	k := NewKernel(failingAgent("Editor", "must not run"))
	g := NewGate(k, func(*core.State) bool { return false })

	resp := g.Execute(context.Background(), st)

	assert.True(t, resp.Succeeded)
	assert.True(t, resp.Skipped)
	assert.Equal(t, "Editor", resp.AgentName)
	assert.Equal(t, int64(0), k.Invocations())
	assert.Empty(t, st.ErrorLog)
	assert.Equal(t, core.StatusCompleted, st.StatusOf("Editor"))
	assert.NotContains(t, st.ExecutionTime, "Editor")
	assert.Equal(t, 1, st.Version)
}

func TestGate_PredicateTrueDelegates(t *testing.T) {
	st := core.New("gate semantics")
	st.Draft = "a draft"
	k := NewKernel(draftAgent("Editor", "edited"))
	g := NewGate(k, func(s *core.State) bool { return s.Draft != "" })

	resp := g.Execute(context.Background(), st)

	assert.True(t, resp.Succeeded)
	assert.False(t, resp.Skipped)
	assert.Equal(t, int64(1), k.Invocations())
	assert.Equal(t, "edited", st.Draft)
	assert.Equal(t, 2, st.Version)
}

func TestGate_NilPredicateAlwaysRuns(t *testing.T) {
	st := core.New("gate semantics")
	k := NewKernel(draftAgent("Writer", "x"))

	NewGate(k, nil).Execute(context.Background(), st)

	assert.Equal(t, int64(1), k.Invocations())
}
