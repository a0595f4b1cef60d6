package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/quillmesh/search"
)

func noEnvFiles(o *LoadOptions) { o.SkipEnvFiles = true }

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(noEnvFiles)
	require.NoError(t, err)

	assert.Equal(t, ModelOllama, cfg.ModelProvider)
	assert.Equal(t, "duckduckgo", cfg.SearchProvider)
	assert.Equal(t, 5, cfg.SearchMaxResults)
	assert.Equal(t, 10*time.Second, cfg.SearchTimeout)
	assert.Equal(t, 3, cfg.Retries)
	assert.True(t, cfg.EditorEnabled)
	assert.Empty(t, cfg.MissingAPIKeys())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("QUILLMESH_SEARCH_PROVIDER", "serper")
	t.Setenv("SERPER_API_KEY", "key")
	t.Setenv("QUILLMESH_AGENT_TIMEOUT", "45")
	t.Setenv("QUILLMESH_CACHE_TTL", "10m")
	t.Setenv("QUILLMESH_EDITOR_ENABLED", "false")
	t.Setenv("QUILLMESH_MAX_ITERATIONS", "2")

	cfg, err := Load(noEnvFiles)
	require.NoError(t, err)

	assert.Equal(t, "serper", cfg.SearchProvider)
	assert.Equal(t, "key", cfg.SearchAPIKey())
	assert.Equal(t, 45*time.Second, cfg.AgentTimeout)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.False(t, cfg.EditorEnabled)
	assert.Equal(t, 2, cfg.MaxIterations)
}

func TestLoad_InvalidEnvValue(t *testing.T) {
	t.Setenv("QUILLMESH_MAX_ITERATIONS", "abc")

	_, err := Load(noEnvFiles)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `QUILLMESH_MAX_ITERATIONS="abc" is not a valid integer`)
}

func TestLoad_RejectsUnknownProviders(t *testing.T) {
	t.Setenv("QUILLMESH_SEARCH_PROVIDER", "bing")
	t.Setenv("QUILLMESH_MODEL_PROVIDER", "cohere")

	_, err := Load(noEnvFiles)
	require.Error(t, err)
	assert.ErrorIs(t, err, search.ErrUnknownProvider)
	assert.Contains(t, err.Error(), "cohere")
}

func TestLoad_YAMLFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "quillmesh.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
model_provider: mock
search_max_results: 8
search_timeout: 3s
writer_min_words: 150
log_format: text
`), 0o600))

	t.Setenv("QUILLMESH_WRITER_MIN_WORDS", "200")

	cfg, err := Load(noEnvFiles, func(o *LoadOptions) { o.File = file })
	require.NoError(t, err)

	assert.Equal(t, ModelMock, cfg.ModelProvider)
	assert.Equal(t, 8, cfg.SearchMaxResults)
	assert.Equal(t, 3*time.Second, cfg.SearchTimeout)
	assert.Equal(t, 200, cfg.WriterMinWords)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_YAMLUnknownField(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(file, []byte("not_a_setting: 1\n"), 0o600))

	_, err := Load(noEnvFiles, func(o *LoadOptions) { o.File = file })
	assert.Error(t, err)
}

func TestLoad_DotEnvFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(file, []byte("QUILLMESH_TEST_DOTENV_MODEL=from-dotenv\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("QUILLMESH_TEST_DOTENV_MODEL") })

	_, err := Load(func(o *LoadOptions) { o.EnvFiles = []string{file, filepath.Join(t.TempDir(), "missing.env")} })
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv", os.Getenv("QUILLMESH_TEST_DOTENV_MODEL"))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"temperature", func(c *Config) { c.Temperature = 3 }},
		{"max results", func(c *Config) { c.SearchMaxResults = 21 }},
		{"retries", func(c *Config) { c.Retries = 0 }},
		{"threshold", func(c *Config) { c.RevisionThreshold = 1.5 }},
		{"iterations", func(c *Config) { c.MaxIterations = 0 }},
		{"concurrency", func(c *Config) { c.MaxConcurrentRuns = 0 }},
		{"log level", func(c *Config) { c.LogLevel = "trace" }},
		{"log format", func(c *Config) { c.LogFormat = "xml" }},
		{"cache", func(c *Config) { c.CacheTTL = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestConfig_MissingAPIKeys(t *testing.T) {
	cfg := Default()
	cfg.ModelProvider = ModelOpenAI
	cfg.SearchProvider = "tavily"
	assert.Equal(t, []string{"OPENAI_API_KEY", "TAVILY_API_KEY"}, cfg.MissingAPIKeys())

	cfg.ModelProvider = ModelAnthropic
	cfg.SearchProvider = "serper"
	assert.Equal(t, []string{"ANTHROPIC_API_KEY", "SERPER_API_KEY"}, cfg.MissingAPIKeys())

	cfg.AnthropicAPIKey = "a"
	cfg.SerperAPIKey = "s"
	assert.Empty(t, cfg.MissingAPIKeys())
}

func TestConfig_LoggingConfig(t *testing.T) {
	cfg := Default()
	cfg.LogFormat = "text"
	cfg.ServiceVersion = "1.2.3"

	lc := cfg.LoggingConfig()
	assert.Equal(t, "text", lc.Format)
	assert.Equal(t, "1.2.3", lc.Attrs["version"])
}
