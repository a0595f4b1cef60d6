package quillmesh

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/quillmesh/artifact"
	"github.com/hupe1980/quillmesh/blog"
	"github.com/hupe1980/quillmesh/config"
	"github.com/hupe1980/quillmesh/core"
	"github.com/hupe1980/quillmesh/model"
	"github.com/hupe1980/quillmesh/runner"
	"github.com/hupe1980/quillmesh/search"
)

type stubProvider struct {
	calls   atomic.Int32
	results int
}

func (s *stubProvider) Kind() search.Kind { return search.DuckDuckGo }

func (s *stubProvider) Search(_ context.Context, query string, maxResults int) []search.Result {
	s.calls.Add(1)
	out := []search.Result{}
	for i := range min(s.results, maxResults) {
		out = append(out, search.Result{
			Title:   fmt.Sprintf("%s %d", query, i),
			Link:    fmt.Sprintf("https://example.com/%s/%d", strings.ReplaceAll(query, " ", "-"), i),
			Snippet: fmt.Sprintf("Finding %d about %s.", i, query),
		})
	}
	return out
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.ModelProvider = config.ModelMock
	cfg.WriterMinWords = 100
	cfg.CacheEnabled = false
	return cfg
}

func TestQuillmesh_GenerateEndToEnd(t *testing.T) {
	q, err := New(testConfig(), func(o *Options) { o.SearchProvider = &stubProvider{results: 3} })
	require.NoError(t, err)

	st, err := q.Generate(context.Background(), "Go concurrency patterns")
	require.NoError(t, err)

	assert.Equal(t, core.StatusCompleted, st.StatusOf(blog.ResearcherName))
	assert.Equal(t, core.StatusCompleted, st.StatusOf(blog.WriterName))
	assert.Equal(t, core.StatusCompleted, st.StatusOf(blog.EditorName))
	assert.Equal(t, core.QualityMedium, st.ResearchQuality)
	assert.Equal(t, 1, st.DraftIterations)
	assert.False(t, st.NeedsRevision)
	require.NotNil(t, st.QualityScore)
	assert.InDelta(t, 0.86, *st.QualityScore, 1e-9)
	assert.Empty(t, st.ErrorLog)
	assert.Equal(t, 4, st.Version)

	post, err := q.Post(st.RunID)
	require.NoError(t, err)
	doc, err := artifact.ParseMarkdown(post)
	require.NoError(t, err)
	assert.Equal(t, "Go concurrency patterns: A Practical Overview", doc.Title)
}

func TestQuillmesh_RevisionLoop(t *testing.T) {
	var reviews atomic.Int32
	m := model.NewMockModel("reviser")
	m.SetResponder(func(req model.Request) (string, error) {
		if req.JSON {
			if reviews.Add(1) == 1 {
				return `{"score": 0.4, "feedback": "Add examples.", "needs_revision": true}`, nil
			}
			return `{"score": 0.9, "feedback": "Good.", "needs_revision": false}`, nil
		}
		return demoResponse(req)
	})

	q, err := New(testConfig(), func(o *Options) {
		o.Model = m
		o.SearchProvider = &stubProvider{results: 2}
	})
	require.NoError(t, err)

	st, err := q.Generate(context.Background(), "Go concurrency patterns")
	require.NoError(t, err)

	assert.Equal(t, 2, st.DraftIterations)
	assert.False(t, st.NeedsRevision)
	assert.Equal(t, int32(2), reviews.Load())

	var revisionPrompt string
	for _, r := range m.Requests() {
		if !r.JSON && strings.Contains(r.Prompt(), "Add examples.") {
			revisionPrompt = r.Prompt()
		}
	}
	assert.NotEmpty(t, revisionPrompt)
}

func TestQuillmesh_EditorDisabledIsSkipped(t *testing.T) {
	cfg := testConfig()
	cfg.EditorEnabled = false

	q, err := New(cfg, func(o *Options) { o.SearchProvider = &stubProvider{results: 1} })
	require.NoError(t, err)

	st, err := q.Generate(context.Background(), "Go concurrency patterns")
	require.NoError(t, err)

	assert.Equal(t, core.StatusCompleted, st.StatusOf(blog.EditorName))
	assert.NotContains(t, st.ExecutionTime, blog.EditorName)
	assert.Nil(t, st.QualityScore)
	assert.Equal(t, 3, st.Version)
}

func TestQuillmesh_ResearchFailureIsRetried(t *testing.T) {
	provider := &stubProvider{}
	q, err := New(testConfig(), func(o *Options) { o.SearchProvider = provider })
	require.NoError(t, err)

	st, err := q.Generate(context.Background(), "Go concurrency patterns")

	require.ErrorIs(t, err, runner.ErrRunFailed)
	assert.Len(t, st.ErrorsFor(blog.ResearcherName), 3)
	assert.Equal(t, core.StatusFailed, st.StatusOf(blog.ResearcherName))
	assert.Equal(t, core.StatusPending, st.StatusOf(blog.WriterName))

	_, err = q.Post(st.RunID)
	assert.ErrorIs(t, err, artifact.ErrNotFound)
}

func TestQuillmesh_InvalidTopic(t *testing.T) {
	provider := &stubProvider{results: 1}
	q, err := New(testConfig(), func(o *Options) { o.SearchProvider = provider })
	require.NoError(t, err)

	_, err = q.Generate(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrInvalidState)
	assert.Equal(t, int32(0), provider.calls.Load())
}

func TestQuillmesh_GenerateBatch(t *testing.T) {
	q, err := New(testConfig(), func(o *Options) { o.SearchProvider = &stubProvider{results: 2} })
	require.NoError(t, err)

	results := q.GenerateBatch(context.Background(), []Request{
		{Topic: "Go generics", Audience: "developers"},
		{Topic: "no"},
		{Topic: "Kubernetes operators", Tone: "casual", TargetLength: 200},
	})

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, "developers", results[0].State.Audience)
	assert.ErrorIs(t, results[1].Err, core.ErrInvalidState)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, "casual", results[2].State.Tone)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.SearchProvider = "bing"

	_, err := New(cfg)
	assert.ErrorIs(t, err, search.ErrUnknownProvider)

	cfg = testConfig()
	cfg.SearchProvider = "serper"
	_, err = New(cfg)
	assert.ErrorIs(t, err, search.ErrMissingAPIKey)
}

func TestOllamaBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:11434/v1", ollamaBaseURL("http://localhost:11434"))
	assert.Equal(t, "http://host:1/v1", ollamaBaseURL("http://host:1/v1/"))
	assert.Empty(t, ollamaBaseURL(""))
}
