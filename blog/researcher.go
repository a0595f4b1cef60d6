package blog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/quillmesh/core"
	"github.com/hupe1980/quillmesh/logging"
	"github.com/hupe1980/quillmesh/search"
)

// ResearcherName is the agent name recorded in the run state.
const ResearcherName = "Researcher"

// Quality thresholds by number of distinct sources.
const (
	HighQualitySources   = 8
	MediumQualitySources = 4
)

// ResearcherOptions configures a Researcher.
type ResearcherOptions struct {
	// MaxResults per query; zero uses the tool default.
	MaxResults int
	Logger     logging.Logger
}

// Researcher gathers sources for the topic through a search tool.
type Researcher struct {
	tool *search.Tool
	opts ResearcherOptions
}

// NewResearcher creates a Researcher backed by tool.
func NewResearcher(tool *search.Tool, optFns ...func(o *ResearcherOptions)) *Researcher {
	opts := ResearcherOptions{Logger: logging.NoOpLogger{}}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Researcher{tool: tool, opts: opts}
}

// Name implements core.Agent.
func (r *Researcher) Name() string { return ResearcherName }

// Execute implements core.Agent. It runs one query per research angle,
// deduplicates hits by link and classifies the research quality by the
// number of distinct sources.
func (r *Researcher) Execute(ctx context.Context, st *core.State) (core.Update, error) {
	if strings.TrimSpace(st.Topic) == "" {
		return core.Update{}, fmt.Errorf("%w: topic", ErrMissingField)
	}

	var (
		data    = []string{}
		sources = []core.Source{}
		seen    = map[string]bool{}
	)

	for _, q := range researchQueries(st) {
		if err := ctx.Err(); err != nil {
			return core.Update{}, err
		}

		for _, res := range r.tool.Search(ctx, q, r.opts.MaxResults) {
			if res.Link == "" || seen[res.Link] {
				continue
			}
			seen[res.Link] = true

			sources = append(sources, core.Source{URL: res.Link, Title: res.Title, Snippet: res.Snippet})

			fact := res.Snippet
			if fact == "" {
				fact = res.Title
			}
			if fact != "" {
				data = append(data, fact)
			}
		}
	}

	if len(sources) == 0 {
		return core.Update{}, fmt.Errorf("%w for topic %q", ErrNoResearch, st.Topic)
	}

	quality := ClassifyResearch(len(sources))
	now := time.Now()

	r.opts.Logger.Info("Research collected",
		"run_id", st.RunID, "sources", len(sources), "quality", quality.String(), "provider", r.tool.Kind().String())

	return core.Update{
		ResearchData:      data,
		ResearchSources:   sources,
		ResearchQuality:   core.Ptr(quality),
		ResearchTimestamp: &now,
	}, nil
}

// ClassifyResearch maps a source count to a research quality.
func ClassifyResearch(sources int) core.ResearchQuality {
	switch {
	case sources >= HighQualitySources:
		return core.QualityHigh
	case sources >= MediumQualitySources:
		return core.QualityMedium
	case sources >= 1:
		return core.QualityLow
	default:
		return core.QualityUnknown
	}
}

// researchQueries returns the topic itself plus audience and requirement
// angles when they add information.
func researchQueries(st *core.State) []string {
	topic := strings.TrimSpace(st.Topic)
	queries := []string{topic}

	if st.Audience != "" && st.Audience != core.DefaultAudience {
		queries = append(queries, fmt.Sprintf("%s for %s", topic, st.Audience))
	} else {
		queries = append(queries, topic+" overview")
	}

	if st.Requirements != nil && strings.TrimSpace(*st.Requirements) != "" {
		queries = append(queries, topic+" "+strings.TrimSpace(*st.Requirements))
	}

	return queries
}
