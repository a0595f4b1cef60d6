package blog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/quillmesh/core"
	"github.com/hupe1980/quillmesh/internal/testutil"
	"github.com/hupe1980/quillmesh/model"
	"github.com/hupe1980/quillmesh/search"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Kind() search.Kind { return search.Serper }

func (m *mockProvider) Search(ctx context.Context, query string, maxResults int) []search.Result {
	args := m.Called(ctx, query, maxResults)
	return args.Get(0).([]search.Result)
}

func results(prefix string, n int) []search.Result {
	out := make([]search.Result, n)
	for i := range out {
		out[i] = search.Result{
			Title:   fmt.Sprintf("%s %d", prefix, i),
			Link:    fmt.Sprintf("https://%s/%d", prefix, i),
			Snippet: fmt.Sprintf("%s snippet %d", prefix, i),
		}
	}
	return out
}

func longDraft(title string, words int) string {
	return "# " + title + "\n\n" + strings.TrimSpace(strings.Repeat("word ", words))
}

func TestResearcher_CollectsAndDedupes(t *testing.T) {
	p := &mockProvider{}
	p.On("Search", mock.Anything, "Go generics", 5).Return(results("a", 3))
	p.On("Search", mock.Anything, "Go generics for engineers", 5).Return(append(results("a", 2), results("b", 2)...))
	p.On("Search", mock.Anything, "Go generics with benchmarks", 5).Return([]search.Result{{Title: "no link"}})

	st := core.New("Go generics", func(in *core.Input) {
		in.Audience = "engineers"
		in.Requirements = "with benchmarks"
	})

	u, err := NewResearcher(search.NewTool(p, 5)).Execute(context.Background(), st)
	require.NoError(t, err)

	assert.Len(t, u.ResearchSources, 5)
	assert.Len(t, u.ResearchData, 5)
	assert.Equal(t, "a snippet 0", u.ResearchData[0])
	require.NotNil(t, u.ResearchQuality)
	assert.Equal(t, core.QualityMedium, *u.ResearchQuality)
	assert.NotNil(t, u.ResearchTimestamp)
	p.AssertExpectations(t)
}

func TestResearcher_NoResultsIsError(t *testing.T) {
	p := &mockProvider{}
	p.On("Search", mock.Anything, mock.Anything, mock.Anything).Return([]search.Result{})

	_, err := NewResearcher(search.NewTool(p, 5)).Execute(context.Background(), core.New("obscure topic"))
	assert.ErrorIs(t, err, ErrNoResearch)
}

func TestClassifyResearch(t *testing.T) {
	assert.Equal(t, core.QualityUnknown, ClassifyResearch(0))
	assert.Equal(t, core.QualityLow, ClassifyResearch(1))
	assert.Equal(t, core.QualityLow, ClassifyResearch(3))
	assert.Equal(t, core.QualityMedium, ClassifyResearch(4))
	assert.Equal(t, core.QualityHigh, ClassifyResearch(8))
}

func TestWriter_DraftsFromResearch(t *testing.T) {
	m := model.NewMockModel("mock-writer")
	m.SetResponder(func(req model.Request) (string, error) {
		return longDraft("Generics in Go", 150), nil
	})

	st := testutil.NewStateBuilder("Go generics").Research("type params", "constraints").Build()

	u, err := NewWriter(m).Execute(context.Background(), st)
	require.NoError(t, err)

	require.NotNil(t, u.Draft)
	assert.True(t, strings.HasPrefix(*u.Draft, "# Generics in Go"))
	require.NotNil(t, u.DraftTitle)
	assert.Equal(t, "Generics in Go", *u.DraftTitle)
	assert.Equal(t, 1, *u.DraftIterations)
	assert.Equal(t, "mock-writer", u.DraftMetadata["model"])
	assert.Equal(t, 154, u.DraftMetadata["word_count"])

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Prompt(), "- type params")
	assert.Contains(t, reqs[0].Prompt(), "Audience: general")
	assert.NotContains(t, reqs[0].Prompt(), "revision")
}

func TestWriter_RevisionIncludesFeedback(t *testing.T) {
	m := model.NewMockModel("mock-writer")
	m.SetResponder(func(model.Request) (string, error) { return longDraft("Better", 120), nil })

	st := testutil.NewStateBuilder("Go generics").
		Research("fact").
		Draft("# Old\n\nold text").
		Review(0.4, "Add examples", true).
		Build()

	u, err := NewWriter(m).Execute(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, 2, *u.DraftIterations)

	prompt := m.Requests()[0].Prompt()
	assert.Contains(t, prompt, "Add examples")
	assert.Contains(t, prompt, "old text")
}

func TestWriter_Errors(t *testing.T) {
	m := model.NewMockModel("mock-writer")
	m.SetResponder(func(model.Request) (string, error) { return "# Tiny\n\ntoo short", nil })

	_, err := NewWriter(m).Execute(context.Background(), core.New("Go generics"))
	assert.ErrorIs(t, err, ErrMissingField)

	st := testutil.NewStateBuilder("Go generics").Research("fact").Build()
	_, err = NewWriter(m).Execute(context.Background(), st)
	assert.ErrorIs(t, err, ErrDraftTooShort)

	failing := model.NewMockModel("down")
	failing.SetResponder(func(model.Request) (string, error) { return "", errors.New("rate limited") })
	_, err = NewWriter(failing).Execute(context.Background(), st)
	assert.ErrorContains(t, err, "rate limited")
}

func TestWriter_CustomInstruction(t *testing.T) {
	m := model.NewMockModel("mock-writer")
	m.SetResponder(func(model.Request) (string, error) { return longDraft("T", 10), nil })

	st := testutil.NewStateBuilder("Go generics").Research("fact").Build()
	w := NewWriter(m, func(o *WriterOptions) {
		o.MinWords = 5
		o.Instruction = NewInstructionFromFunc(func(s *core.State) (string, error) {
			return "Write in a " + s.Tone + " voice", nil
		})
	})

	_, err := w.Execute(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, "Write in a professional voice", m.Requests()[0].Instructions)
}

func TestExtractTitle(t *testing.T) {
	title, ok := ExtractTitle("intro\n  # Real Title  \n## Sub")
	assert.True(t, ok)
	assert.Equal(t, "Real Title", title)

	_, ok = ExtractTitle("## only sub\nbody")
	assert.False(t, ok)
}

func TestEditor_ParsesVerdict(t *testing.T) {
	m := model.NewMockModel("mock-editor")
	m.SetResponder(func(req model.Request) (string, error) {
		assert.True(t, req.JSON)
		return "Here is my review:\n```json\n{\"score\": 0.82, \"feedback\": \"Solid\", \"needs_revision\": false}\n```", nil
	})

	st := testutil.NewStateBuilder("Go generics").Research("fact").Draft(longDraft("T", 50)).Build()

	u, err := NewEditor(m).Execute(context.Background(), st)
	require.NoError(t, err)
	assert.InDelta(t, 0.82, *u.QualityScore, 1e-9)
	assert.Equal(t, "Solid", *u.EditorFeedback)
	assert.False(t, *u.NeedsRevision)
}

func TestEditor_RequiresDraft(t *testing.T) {
	_, err := NewEditor(model.NewMockModel("m")).Execute(context.Background(), core.New("Go generics"))
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		score    float64
		revision bool
		wantErr  bool
	}{
		{name: "below threshold forces revision", text: `{"score":0.5,"feedback":"meh","needs_revision":false}`, score: 0.5, revision: true},
		{name: "ten point scale", text: `{"score":9,"feedback":"great"}`, score: 0.9},
		{name: "string score", text: `{"score":"0.75"}`, score: 0.75},
		{name: "clamped", text: `{"score":-3}`, score: 0, revision: true},
		{name: "model asks for revision", text: `{"score":0.95,"needs_revision":true}`, score: 0.95, revision: true},
		{name: "no json", text: "looks good to me", wantErr: true},
		{name: "no score", text: `{"feedback":"x"}`, wantErr: true},
		{name: "malformed", text: `{"score": }`, wantErr: true},
		{name: "non numeric string score", text: `{"score":"great","needs_revision":false}`, wantErr: true},
		{name: "empty string score", text: `{"score":""}`, wantErr: true},
		{name: "padded string score", text: `{"score":" 8 "}`, score: 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseVerdict(tt.text, DefaultRevisionThreshold)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidVerdict)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.score, v.Score, 1e-9)
			assert.Equal(t, tt.revision, v.NeedsRevision)
		})
	}
}

func TestShouldRun(t *testing.T) {
	withDraft := testutil.NewStateBuilder("topic").Draft("text").Build()

	assert.True(t, ShouldRun(true)(withDraft))
	assert.False(t, ShouldRun(false)(withDraft))
	assert.False(t, ShouldRun(true)(core.New("topic")))
}
