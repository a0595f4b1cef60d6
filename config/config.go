// Package config loads and validates quillmesh configuration from an
// optional YAML file, an optional .env file and the environment.
//
// Config is an explicit value: callers load it once and pass it on. There is
// no process-wide cache.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/quillmesh/logging"
	"github.com/hupe1980/quillmesh/search"
)

// Model providers.
const (
	ModelOpenAI    = "openai"
	ModelOllama    = "ollama"
	ModelAnthropic = "anthropic"
	ModelMock      = "mock"
)

// ModelProviders lists the accepted model provider names.
var ModelProviders = []string{ModelOpenAI, ModelOllama, ModelAnthropic, ModelMock}

// EnvPrefix prefixes every quillmesh specific environment variable.
const EnvPrefix = "QUILLMESH_"

// Config holds all application configuration.
type Config struct {
	// Model settings.
	ModelProvider string `yaml:"model_provider"`
	// ModelName selects the model; empty uses the provider default.
	ModelName        string  `yaml:"model_name"`
	Temperature      float64 `yaml:"temperature"`
	MaxTokens        int     `yaml:"max_tokens"`
	OllamaURL        string  `yaml:"ollama_url"`
	OpenAIAPIKey     string  `yaml:"-"`
	AnthropicAPIKey  string  `yaml:"-"`
	StreamCompletion bool    `yaml:"stream"`

	// Search settings.
	SearchProvider   string        `yaml:"search_provider"`
	SearchMaxResults int           `yaml:"search_max_results"`
	SearchTimeout    time.Duration `yaml:"search_timeout"`
	SerperAPIKey     string        `yaml:"-"`
	TavilyAPIKey     string        `yaml:"-"`
	CacheEnabled     bool          `yaml:"cache_enabled"`
	CacheTTL         time.Duration `yaml:"cache_ttl"`
	CacheMaxSize     int           `yaml:"cache_max_size"`

	// Agent settings.
	Retries           int           `yaml:"researcher_retries"`
	WriterMinWords    int           `yaml:"writer_min_words"`
	EditorEnabled     bool          `yaml:"editor_enabled"`
	RevisionThreshold float64       `yaml:"revision_threshold"`
	MaxIterations     int           `yaml:"max_iterations"`
	AgentTimeout      time.Duration `yaml:"agent_timeout"`

	// Runner settings.
	RunTimeout        time.Duration `yaml:"run_timeout"`
	MaxConcurrentRuns int           `yaml:"max_concurrent_runs"`

	// Operational settings.
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"`
	OTELEndpoint   string `yaml:"otel_endpoint"`
	ServiceName    string `yaml:"service_name"`
	ServiceVersion string `yaml:"-"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		ModelProvider:     ModelOllama,
		Temperature:       0.7,
		MaxTokens:         2000,
		OllamaURL:         "http://localhost:11434",
		SearchProvider:    search.DuckDuckGo.String(),
		SearchMaxResults:  5,
		SearchTimeout:     search.DefaultTimeout,
		CacheEnabled:      true,
		CacheTTL:          time.Hour,
		CacheMaxSize:      1000,
		Retries:           3,
		WriterMinWords:    300,
		EditorEnabled:     true,
		RevisionThreshold: 0.7,
		MaxIterations:     3,
		AgentTimeout:      300 * time.Second,
		RunTimeout:        15 * time.Minute,
		MaxConcurrentRuns: 5,
		LogLevel:          "info",
		LogFormat:         "json",
		ServiceName:       "quillmesh",
	}
}

// LoadOptions controls where Load reads from.
type LoadOptions struct {
	// File is an optional YAML config file. Empty means none.
	File string
	// EnvFiles are dotenv files loaded into the environment when present.
	// Variables already set in the environment win.
	EnvFiles []string
	// SkipEnvFiles disables dotenv loading entirely.
	SkipEnvFiles bool
}

// Load reads configuration with the precedence defaults < YAML file <
// environment, then validates the result.
func Load(optFns ...func(o *LoadOptions)) (Config, error) {
	opts := LoadOptions{EnvFiles: []string{".env"}}
	for _, fn := range optFns {
		fn(&opts)
	}

	if !opts.SkipEnvFiles {
		for _, f := range opts.EnvFiles {
			if _, err := os.Stat(f); err != nil {
				continue
			}
			if err := godotenv.Load(f); err != nil {
				return Config{}, fmt.Errorf("config: load %s: %w", f, err)
			}
		}
	}

	cfg := Default()

	if opts.File != "" {
		if err := cfg.mergeFile(opts.File); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.mergeEnv(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv() error {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	envStr(&c.ModelProvider, EnvPrefix+"MODEL_PROVIDER")
	envStr(&c.ModelName, EnvPrefix+"MODEL_NAME")
	collect(envFloat(&c.Temperature, EnvPrefix+"TEMPERATURE"))
	collect(envInt(&c.MaxTokens, EnvPrefix+"MAX_TOKENS"))
	envStr(&c.OllamaURL, "OLLAMA_URL")
	envStr(&c.OpenAIAPIKey, "OPENAI_API_KEY")
	envStr(&c.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	collect(envBool(&c.StreamCompletion, EnvPrefix+"STREAM"))

	envStr(&c.SearchProvider, EnvPrefix+"SEARCH_PROVIDER")
	collect(envInt(&c.SearchMaxResults, EnvPrefix+"SEARCH_MAX_RESULTS"))
	collect(envDuration(&c.SearchTimeout, EnvPrefix+"SEARCH_TIMEOUT"))
	envStr(&c.SerperAPIKey, "SERPER_API_KEY")
	envStr(&c.TavilyAPIKey, "TAVILY_API_KEY")
	collect(envBool(&c.CacheEnabled, EnvPrefix+"CACHE_ENABLED"))
	collect(envDuration(&c.CacheTTL, EnvPrefix+"CACHE_TTL"))
	collect(envInt(&c.CacheMaxSize, EnvPrefix+"CACHE_MAX_SIZE"))

	collect(envInt(&c.Retries, EnvPrefix+"RESEARCHER_RETRIES"))
	collect(envInt(&c.WriterMinWords, EnvPrefix+"WRITER_MIN_WORDS"))
	collect(envBool(&c.EditorEnabled, EnvPrefix+"EDITOR_ENABLED"))
	collect(envFloat(&c.RevisionThreshold, EnvPrefix+"REVISION_THRESHOLD"))
	collect(envInt(&c.MaxIterations, EnvPrefix+"MAX_ITERATIONS"))
	collect(envDuration(&c.AgentTimeout, EnvPrefix+"AGENT_TIMEOUT"))

	collect(envDuration(&c.RunTimeout, EnvPrefix+"RUN_TIMEOUT"))
	collect(envInt(&c.MaxConcurrentRuns, EnvPrefix+"MAX_CONCURRENT_RUNS"))

	envStr(&c.LogLevel, EnvPrefix+"LOG_LEVEL")
	envStr(&c.LogFormat, EnvPrefix+"LOG_FORMAT")
	envStr(&c.OTELEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	envStr(&c.ServiceName, "OTEL_SERVICE_NAME")

	return errors.Join(errs...)
}

// Validate checks enums and ranges.
func (c Config) Validate() error {
	var errs []error

	if !slices.Contains(ModelProviders, c.ModelProvider) {
		errs = append(errs, fmt.Errorf("config: model provider %q must be one of %v", c.ModelProvider, ModelProviders))
	}
	if _, err := search.ParseKind(c.SearchProvider); err != nil {
		errs = append(errs, fmt.Errorf("config: %w", err))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("config: %w", err))
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		errs = append(errs, fmt.Errorf("config: log format %q must be json or text", c.LogFormat))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("config: temperature must be within [0, 2]"))
	}
	if c.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("config: max tokens must be positive"))
	}
	if c.SearchMaxResults < 1 || c.SearchMaxResults > 20 {
		errs = append(errs, fmt.Errorf("config: search max results must be within [1, 20]"))
	}
	if c.SearchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("config: search timeout must be positive"))
	}
	if c.CacheEnabled && (c.CacheTTL <= 0 || c.CacheMaxSize <= 0) {
		errs = append(errs, fmt.Errorf("config: cache ttl and size must be positive"))
	}
	if c.Retries < 1 {
		errs = append(errs, fmt.Errorf("config: researcher retries must be at least 1"))
	}
	if c.WriterMinWords < 0 {
		errs = append(errs, fmt.Errorf("config: writer min words must not be negative"))
	}
	if c.RevisionThreshold < 0 || c.RevisionThreshold > 1 {
		errs = append(errs, fmt.Errorf("config: revision threshold must be within [0, 1]"))
	}
	if c.MaxIterations < 1 {
		errs = append(errs, fmt.Errorf("config: max iterations must be at least 1"))
	}
	if c.AgentTimeout < 0 || c.RunTimeout < 0 {
		errs = append(errs, fmt.Errorf("config: timeouts must not be negative"))
	}
	if c.MaxConcurrentRuns < 1 {
		errs = append(errs, fmt.Errorf("config: max concurrent runs must be at least 1"))
	}

	return errors.Join(errs...)
}

// MissingAPIKeys lists the environment variables required by the selected
// providers that are not set.
func (c Config) MissingAPIKeys() []string {
	var missing []string

	switch c.ModelProvider {
	case ModelOpenAI:
		if c.OpenAIAPIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	case ModelAnthropic:
		if c.AnthropicAPIKey == "" {
			missing = append(missing, "ANTHROPIC_API_KEY")
		}
	}

	kind, err := search.ParseKind(c.SearchProvider)
	if err != nil {
		return missing
	}
	switch kind {
	case search.Serper:
		if c.SerperAPIKey == "" {
			missing = append(missing, "SERPER_API_KEY")
		}
	case search.Tavily:
		if c.TavilyAPIKey == "" {
			missing = append(missing, "TAVILY_API_KEY")
		}
	}

	return missing
}

// SearchAPIKey returns the key for the selected search provider.
func (c Config) SearchAPIKey() string {
	kind, _ := search.ParseKind(c.SearchProvider)
	switch kind {
	case search.Serper:
		return c.SerperAPIKey
	case search.Tavily:
		return c.TavilyAPIKey
	default:
		return ""
	}
}

// LoggingConfig converts the operational settings into a logging.Config.
func (c Config) LoggingConfig() *logging.Config {
	lc := logging.DefaultConfig()
	if lvl, err := logging.ParseLevel(c.LogLevel); err == nil {
		lc.Level = lvl
	}
	lc.Format = c.LogFormat
	lc.Attrs = map[string]any{"service": c.ServiceName}
	if c.ServiceVersion != "" {
		lc.Attrs["version"] = c.ServiceVersion
	}
	return lc
}

func envStr(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s=%q is not a valid integer", key, v)
	}
	*dst = n
	return nil
}

func envFloat(dst *float64, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return fmt.Errorf("%s=%q is not a valid number", key, v)
	}
	*dst = f
	return nil
}

func envBool(dst *bool, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s=%q is not a valid boolean", key, v)
	}
	*dst = b
	return nil
}

// envDuration accepts Go durations ("90s") and bare integers as seconds.
func envDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(n) * time.Second
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s=%q is not a valid duration", key, v)
	}
	*dst = d
	return nil
}
