package runner

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/quillmesh/artifact"
	"github.com/hupe1980/quillmesh/core"
	"github.com/hupe1980/quillmesh/logging"
	"github.com/hupe1980/quillmesh/session"
	"github.com/hupe1980/quillmesh/telemetry"
)

var (
	// ErrRunFailed is returned by Run when the root step reports a failure.
	ErrRunFailed = errors.New("run failed")
	// ErrRunActive is returned when a run with the same id is already active.
	ErrRunActive = errors.New("run already active")
	// ErrRunNotFound is returned by Cancel for unknown run ids.
	ErrRunNotFound = errors.New("run not found")
)

// DefaultMaxConcurrentRuns bounds RunBatch when no limit is configured.
const DefaultMaxConcurrentRuns = 5

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// RunTimeout bounds a single run. Zero means no run level timeout.
	RunTimeout time.Duration
	// MaxConcurrentRuns limits parallel runs in RunBatch.
	MaxConcurrentRuns int
	// SessionStore receives the final state snapshot of every run.
	SessionStore session.Store
	// ArtifactStore receives the rendered post of runs that produced a draft.
	ArtifactStore artifact.Store
	// Logger receives run lifecycle logs.
	Logger logging.Logger
}

// Result is the outcome of one run of a batch.
type Result struct {
	State *core.State
	Err   error
}

// Runner coordinates pipeline runs. Public methods are safe for concurrent
// use; each run works on its own State.
type Runner struct {
	root core.Step

	runTimeout        time.Duration
	maxConcurrentRuns int

	sessionStore  session.Store
	artifactStore artifact.Store
	logger        logging.Logger

	activeRuns map[string]context.CancelFunc
	mu         sync.RWMutex
}

// New constructs a Runner with optional overrides.
func New(root core.Step, optFns ...func(o *Options)) *Runner {
	opts := Options{
		MaxConcurrentRuns: DefaultMaxConcurrentRuns,
		SessionStore:      session.NewInMemoryStore(),
		ArtifactStore:     artifact.NewInMemoryStore(),
		Logger:            logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxConcurrentRuns < 1 {
		opts.MaxConcurrentRuns = 1
	}

	return &Runner{
		root:              root,
		runTimeout:        opts.RunTimeout,
		maxConcurrentRuns: opts.MaxConcurrentRuns,
		sessionStore:      opts.SessionStore,
		artifactStore:     opts.ArtifactStore,
		logger:            logging.With(opts.Logger, "pipeline", root.Name()),
		activeRuns:        make(map[string]context.CancelFunc),
	}
}

// SessionStore returns the store holding run snapshots.
func (r *Runner) SessionStore() session.Store { return r.sessionStore }

// ArtifactStore returns the store holding rendered posts.
func (r *Runner) ArtifactStore() artifact.Store { return r.artifactStore }

// Run validates st and executes the root step on it. The returned state is
// st itself after the run. Validation failures are returned before any step
// executes; a failed root step yields ErrRunFailed wrapping the failing
// agent and its error.
func (r *Runner) Run(ctx context.Context, st *core.State) (*core.State, error) {
	if err := core.Validate(st); err != nil {
		r.logger.Warn("Run rejected", "error", err.Error())
		return st, err
	}

	ctx, cancel, err := r.register(ctx, st.RunID)
	if err != nil {
		return st, err
	}
	defer r.unregister(st.RunID, cancel)

	ctx, span := telemetry.Tracer().Start(ctx, "pipeline.run", trace.WithAttributes(
		telemetry.AttrRunID.String(st.RunID),
	))
	defer span.End()

	logger := logging.With(r.logger, "run_id", st.RunID)
	logger.Info("Run started", "topic", st.Topic, "audience", st.Audience)

	start := time.Now()
	resp := r.root.Execute(ctx, st)
	elapsed := time.Since(start)

	var runErr error
	if resp.Failed() {
		runErr = fmt.Errorf("%w: %s: %s", ErrRunFailed, resp.AgentName, resp.Error)
		span.RecordError(runErr)
		span.SetStatus(codes.Error, runErr.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	r.persist(st, logger)

	status := "succeeded"
	if runErr != nil {
		status = "failed"
	}
	telemetry.RecordRun(ctx, status, elapsed)
	logging.LogRun(logger, st.RunID, elapsed, st.Version, len(st.ErrorLog), runErr)

	return st, runErr
}

// RunBatch executes independent runs in parallel, at most MaxConcurrentRuns
// at a time. A failing run does not cancel the others. Results are returned
// in input order.
func (r *Runner) RunBatch(ctx context.Context, states []*core.State) []Result {
	results := make([]Result, len(states))

	var g errgroup.Group
	g.SetLimit(r.maxConcurrentRuns)

	for i, st := range states {
		g.Go(func() error {
			final, err := r.Run(ctx, st)
			results[i] = Result{State: final, Err: err}
			return nil
		})
	}

	_ = g.Wait()

	return results
}

// Cancel cancels an active run by id.
func (r *Runner) Cancel(runID string) error {
	r.mu.RLock()
	cancel, exists := r.activeRuns[runID]
	r.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	cancel()
	r.logger.Info("Run cancelled", "run_id", runID)

	return nil
}

// Active returns the ids of the runs currently executing.
func (r *Runner) Active() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.activeRuns))
	for id := range r.activeRuns {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (r *Runner) register(ctx context.Context, runID string) (context.Context, context.CancelFunc, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.activeRuns[runID]; exists {
		return nil, nil, fmt.Errorf("%w: %s", ErrRunActive, runID)
	}

	var cancel context.CancelFunc
	if r.runTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, r.runTimeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	r.activeRuns[runID] = cancel

	return ctx, cancel, nil
}

func (r *Runner) unregister(runID string, cancel context.CancelFunc) {
	cancel()
	r.mu.Lock()
	delete(r.activeRuns, runID)
	r.mu.Unlock()
}

// persist stores the run snapshot and, when a draft exists, the rendered
// post. Storage failures are logged and never fail the run.
func (r *Runner) persist(st *core.State, logger logging.Logger) {
	if err := r.sessionStore.Save(st); err != nil {
		logger.Warn("Failed to store run snapshot", "error", err.Error())
	}

	if st.Draft == "" {
		return
	}

	doc, err := artifact.RenderMarkdown(st)
	if err != nil {
		logger.Warn("Failed to render post", "error", err.Error())
		return
	}

	if err := r.artifactStore.Save(st.RunID, artifact.PostArtifactID, doc); err != nil {
		logger.Warn("Failed to store post", "error", err.Error())
	}
}
