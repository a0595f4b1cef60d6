package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/quillmesh/core"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := NewRootCmd("test")
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))

	err := root.Execute()
	return out.String(), err
}

func TestNewRootCmd_HasSubcommands(t *testing.T) {
	root := NewRootCmd("test")

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "batch", "config"} {
		assert.True(t, names[want], want)
	}

	assert.Equal(t, "test", root.Version)
	assert.Equal(t, "dev", NewRootCmd("").Version)
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestConfigShow_OmitsAPIKeys(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-secret")
	t.Setenv("QUILLMESH_MODEL_PROVIDER", "openai")

	out, err := execute(t, "config", "show")
	require.NoError(t, err)

	assert.Contains(t, out, "model_provider: openai")
	assert.Contains(t, out, "search_timeout: 10s")
	assert.NotContains(t, out, "sk-secret")
}

func TestConfigCheck(t *testing.T) {
	t.Setenv("QUILLMESH_MODEL_PROVIDER", "mock")
	t.Setenv("QUILLMESH_SEARCH_PROVIDER", "tavily")
	t.Setenv("TAVILY_API_KEY", "")

	_, err := execute(t, "config", "check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TAVILY_API_KEY")

	t.Setenv("QUILLMESH_SEARCH_PROVIDER", "duckduckgo")
	out, err := execute(t, "config", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "configuration ok")
}

func TestConfig_YAMLFileFlag(t *testing.T) {
	file := filepath.Join(t.TempDir(), "quillmesh.yaml")
	require.NoError(t, os.WriteFile(file, []byte("model_provider: mock\nmax_iterations: 5\n"), 0o600))

	out, err := execute(t, "--config", file, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "max_iterations: 5")
}

func TestRun_InvalidTopicFailsBeforeResearch(t *testing.T) {
	t.Setenv("QUILLMESH_MODEL_PROVIDER", "mock")

	_, err := execute(t, "run", "ab")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidState)
}

func TestRun_RejectsInvalidLogLevel(t *testing.T) {
	_, err := execute(t, "--log-level", "verbose", "config", "show")
	assert.Error(t, err)
}

func TestBatch_FileErrors(t *testing.T) {
	t.Setenv("QUILLMESH_MODEL_PROVIDER", "mock")

	_, err := execute(t, "batch", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("posts: []\n"), 0o600))
	_, err = execute(t, "batch", empty)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lists no posts")
}

func TestReadBatchFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "batch.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
posts:
  - topic: Go generics
    audience: developers
    word_count: 800
  - topic: Observability basics
    tone: casual
`), 0o600))

	reqs, err := readBatchFile(file)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, "developers", reqs[0].Audience)
	assert.Equal(t, 800, reqs[0].TargetLength)
	assert.Equal(t, "casual", reqs[1].Tone)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "go-generics-in-1-18", Slug("Go Generics in 1.18!"))
	assert.Equal(t, "post", Slug("???"))
}
