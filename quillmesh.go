// Package quillmesh provides a high-level façade over the execution kernel,
// the blog agents and the runner. Most applications interact with this
// package by:
//  1. Loading a config.Config (config.Load)
//  2. Creating a Quillmesh via New() (optionally overriding the model, the
//     search provider or the stores)
//  3. Generating posts synchronously (Generate) or in bounded parallel
//     batches (GenerateBatch)
//
// The façade assembles the pipeline
//
//	Researcher (retried) -> [Writer (retried) -> Editor (gated)] looped while a revision is needed
//
// and delegates run lifecycle management to runner.Runner. All defaults are
// safe for local development; production deployments typically supply
// durable store implementations and a structured logger.
package quillmesh

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/quillmesh/agent"
	"github.com/hupe1980/quillmesh/artifact"
	"github.com/hupe1980/quillmesh/blog"
	"github.com/hupe1980/quillmesh/config"
	"github.com/hupe1980/quillmesh/core"
	"github.com/hupe1980/quillmesh/logging"
	"github.com/hupe1980/quillmesh/model"
	"github.com/hupe1980/quillmesh/model/anthropic"
	"github.com/hupe1980/quillmesh/model/openai"
	"github.com/hupe1980/quillmesh/runner"
	"github.com/hupe1980/quillmesh/search"
	"github.com/hupe1980/quillmesh/session"
)

const (
	// PipelineName is the name of the root step.
	PipelineName = "BlogPipeline"
	// DefaultOllamaModel is used when no model name is configured for Ollama.
	DefaultOllamaModel = "llama3"
)

// Options configures the Quillmesh instance.
type Options struct {
	// Model overrides the model built from the configuration.
	Model model.Model
	// SearchProvider overrides the provider built from the configuration.
	// It is still wrapped by the cache when caching is enabled.
	SearchProvider search.Provider

	// Stores (defaults to in-memory implementations if not provided)
	SessionStore  session.Store
	ArtifactStore artifact.Store

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Quillmesh is the high-level façade aggregating the pipeline and the runner.
type Quillmesh struct {
	cfg      config.Config
	model    model.Model
	provider search.Provider
	pipeline core.Step
	runner   *runner.Runner
	logger   logging.Logger
}

// New validates cfg and wires model, search, agents, pipeline and runner.
func New(cfg config.Config, optFns ...func(o *Options)) (*Quillmesh, error) {
	opts := Options{
		SessionStore:  session.NewInMemoryStore(),
		ArtifactStore: artifact.NewInMemoryStore(),
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := opts.Model
	if m == nil {
		var err error
		if m, err = NewModel(cfg); err != nil {
			return nil, err
		}
	}

	provider := opts.SearchProvider
	if provider == nil {
		var err error
		if provider, err = NewSearchProvider(cfg, opts.Logger); err != nil {
			return nil, err
		}
	}
	if cfg.CacheEnabled {
		provider = search.NewCache(provider, cfg.CacheTTL, cfg.CacheMaxSize)
	}

	tool := search.NewTool(provider, cfg.SearchMaxResults)

	researcher := blog.NewResearcher(tool, func(o *blog.ResearcherOptions) {
		o.Logger = opts.Logger
	})
	writer := blog.NewWriter(m, func(o *blog.WriterOptions) {
		o.MinWords = cfg.WriterMinWords
		o.Stream = cfg.StreamCompletion
		o.Logger = opts.Logger
	})
	editor := blog.NewEditor(m, func(o *blog.EditorOptions) {
		o.Threshold = cfg.RevisionThreshold
		o.Logger = opts.Logger
	})

	pipeline := NewPipeline(cfg, researcher, writer, editor, opts.Logger)

	r := runner.New(pipeline, func(o *runner.Options) {
		o.RunTimeout = cfg.RunTimeout
		o.MaxConcurrentRuns = cfg.MaxConcurrentRuns
		o.SessionStore = opts.SessionStore
		o.ArtifactStore = opts.ArtifactStore
		o.Logger = opts.Logger
	})

	return &Quillmesh{
		cfg:      cfg,
		model:    m,
		provider: provider,
		pipeline: pipeline,
		runner:   r,
		logger:   opts.Logger,
	}, nil
}

// NewPipeline composes the research, writing and editing agents into the
// root step:
//
//	Sequential(
//	  Retry(Kernel(researcher), cfg.Retries),
//	  Loop(Sequential(Retry(Kernel(writer)), Gate(Kernel(editor))), until !NeedsRevision),
//	)
func NewPipeline(cfg config.Config, researcher, writer, editor core.Agent, logger logging.Logger) core.Step {
	kernelOpts := func(o *agent.KernelOptions) {
		o.Timeout = cfg.AgentTimeout
		o.Logger = logger
	}
	retryOpts := func(o *agent.RetryOptions) { o.Logger = logger }

	research := agent.NewRetry(agent.NewKernel(researcher, kernelOpts), cfg.Retries, retryOpts)
	write := agent.NewRetry(agent.NewKernel(writer, kernelOpts), cfg.Retries, retryOpts)
	review := agent.NewGate(agent.NewKernel(editor, kernelOpts), blog.ShouldRun(cfg.EditorEnabled))

	revision := agent.NewLoop("RevisionLoop",
		agent.NewSequential("DraftAndReview", write, review),
		agent.WithMaxIters(cfg.MaxIterations),
		agent.WithUntil(func(st *core.State) bool { return !st.NeedsRevision }),
		agent.WithLoopLogger(logger),
	)

	return agent.NewSequential(PipelineName, research, revision)
}

// NewModel builds the model selected by cfg.ModelProvider.
func NewModel(cfg config.Config) (model.Model, error) {
	switch cfg.ModelProvider {
	case config.ModelOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			if cfg.ModelName != "" {
				o.Model = cfg.ModelName
			}
			o.APIKey = cfg.OpenAIAPIKey
			o.Temperature = cfg.Temperature
			o.MaxCompletionTokens = int64(cfg.MaxTokens)
		}), nil
	case config.ModelOllama:
		name := cfg.ModelName
		if name == "" {
			name = DefaultOllamaModel
		}
		return openai.NewOllamaModel(name, ollamaBaseURL(cfg.OllamaURL), func(o *openai.Options) {
			o.Temperature = cfg.Temperature
			o.MaxCompletionTokens = int64(cfg.MaxTokens)
		}), nil
	case config.ModelAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.ModelName != "" {
				o.Model = cfg.ModelName
			}
			o.APIKey = cfg.AnthropicAPIKey
			o.Temperature = cfg.Temperature
			o.MaxTokens = int64(cfg.MaxTokens)
		}), nil
	case config.ModelMock:
		return NewDemoModel(), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.ModelProvider)
	}
}

// NewSearchProvider builds the search provider selected by cfg.SearchProvider.
func NewSearchProvider(cfg config.Config, logger logging.Logger) (search.Provider, error) {
	kind, err := search.ParseKind(cfg.SearchProvider)
	if err != nil {
		return nil, err
	}

	return search.New(kind, func(o *search.Options) {
		o.APIKey = cfg.SearchAPIKey()
		o.Timeout = cfg.SearchTimeout
		o.Logger = logger
	})
}

// ollamaBaseURL points at Ollama's OpenAI compatible endpoint.
func ollamaBaseURL(u string) string {
	if u == "" {
		return ""
	}
	u = strings.TrimRight(u, "/")
	if !strings.HasSuffix(u, "/v1") {
		u += "/v1"
	}
	return u
}

// Config returns the configuration the instance was built from.
func (q *Quillmesh) Config() config.Config { return q.cfg }

// Model returns the model used by the writer and the editor.
func (q *Quillmesh) Model() model.Model { return q.model }

// Pipeline returns the root step.
func (q *Quillmesh) Pipeline() core.Step { return q.pipeline }

// Runner returns the underlying runner (cancellation, stores, active runs).
func (q *Quillmesh) Runner() *runner.Runner { return q.runner }

// Generate runs the pipeline for one topic and returns the final state.
// The state is returned even when the run fails so callers can inspect the
// error log.
//
// All runs share the pipeline's kernels. Attempt numbers in the error log
// therefore count invocations of that agent across every run of this
// Quillmesh, not per run.
func (q *Quillmesh) Generate(ctx context.Context, topic string, optFns ...func(in *core.Input)) (*core.State, error) {
	return q.runner.Run(ctx, core.New(topic, optFns...))
}

// Request describes one post of a batch.
type Request struct {
	Topic        string `yaml:"topic"`
	Requirements string `yaml:"requirements,omitempty"`
	Audience     string `yaml:"audience,omitempty"`
	Tone         string `yaml:"tone,omitempty"`
	TargetLength int    `yaml:"word_count,omitempty"`
}

// State creates the initial state for the request.
func (r Request) State() *core.State {
	return core.New(r.Topic, func(in *core.Input) {
		in.Requirements = r.Requirements
		if r.Audience != "" {
			in.Audience = r.Audience
		}
		if r.Tone != "" {
			in.Tone = r.Tone
		}
		if r.TargetLength > 0 {
			in.TargetLength = r.TargetLength
		}
	})
}

// GenerateBatch runs independent requests in parallel, bounded by
// MaxConcurrentRuns. Results are returned in request order.
func (q *Quillmesh) GenerateBatch(ctx context.Context, reqs []Request) []runner.Result {
	states := make([]*core.State, len(reqs))
	for i, r := range reqs {
		states[i] = r.State()
	}
	return q.runner.RunBatch(ctx, states)
}

// Post returns the rendered Markdown post of a finished run.
func (q *Quillmesh) Post(runID string) ([]byte, error) {
	return q.runner.ArtifactStore().Get(runID, artifact.PostArtifactID)
}
