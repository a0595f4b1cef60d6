package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Attribute keys shared by spans and metrics.
const (
	AttrAgent    = attribute.Key("quillmesh.agent")
	AttrStatus   = attribute.Key("quillmesh.status")
	AttrProvider = attribute.Key("quillmesh.search.provider")
	AttrRunID    = attribute.Key("quillmesh.run_id")
	AttrAttempt  = attribute.Key("quillmesh.execution_count")
)

var (
	initOnce sync.Once
	initErr  error

	agentExecCounter   metric.Int64Counter
	agentExecDuration  metric.Float64Histogram
	searchCounter      metric.Int64Counter
	searchResultsHisto metric.Int64Histogram
	runCounter         metric.Int64Counter
	runDuration        metric.Float64Histogram
)

// InitMetrics creates the instruments against the global meter provider.
// Safe to call multiple times; only runs once. The global provider delegates,
// so calling it before Init still reports once Init installs an exporter.
func InitMetrics() error {
	initOnce.Do(func() {
		m := Meter()
		if agentExecCounter, initErr = m.Int64Counter("quillmesh_agent_executions_total",
			metric.WithDescription("Agent executions by agent and final status")); initErr != nil {
			return
		}
		if agentExecDuration, initErr = m.Float64Histogram("quillmesh_agent_execution_duration_seconds",
			metric.WithDescription("Duration of agent domain logic"), metric.WithUnit("s")); initErr != nil {
			return
		}
		if searchCounter, initErr = m.Int64Counter("quillmesh_search_requests_total",
			metric.WithDescription("Search provider requests by provider and outcome")); initErr != nil {
			return
		}
		if searchResultsHisto, initErr = m.Int64Histogram("quillmesh_search_results",
			metric.WithDescription("Results returned per search request")); initErr != nil {
			return
		}
		if runCounter, initErr = m.Int64Counter("quillmesh_runs_total",
			metric.WithDescription("Pipeline runs by outcome")); initErr != nil {
			return
		}
		runDuration, initErr = m.Float64Histogram("quillmesh_run_duration_seconds",
			metric.WithDescription("Pipeline run duration"), metric.WithUnit("s"))
	})
	return initErr
}

// RecordAgentExecution records one kernel invocation outcome.
func RecordAgentExecution(ctx context.Context, agent, status string, elapsed time.Duration) {
	attrs := metric.WithAttributes(AttrAgent.String(agent), AttrStatus.String(status))
	if agentExecCounter != nil {
		agentExecCounter.Add(ctx, 1, attrs)
	}
	if agentExecDuration != nil {
		agentExecDuration.Record(ctx, elapsed.Seconds(), attrs)
	}
}

// RecordSearch records one provider request and its result count.
func RecordSearch(ctx context.Context, provider string, results int, failed bool) {
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	if searchCounter != nil {
		searchCounter.Add(ctx, 1, metric.WithAttributes(AttrProvider.String(provider), AttrStatus.String(outcome)))
	}
	if searchResultsHisto != nil {
		searchResultsHisto.Record(ctx, int64(results), metric.WithAttributes(AttrProvider.String(provider)))
	}
}

// RecordRun records the outcome and duration of a pipeline run.
func RecordRun(ctx context.Context, status string, elapsed time.Duration) {
	attrs := metric.WithAttributes(AttrStatus.String(status))
	if runCounter != nil {
		runCounter.Add(ctx, 1, attrs)
	}
	if runDuration != nil {
		runDuration.Record(ctx, elapsed.Seconds(), attrs)
	}
}
