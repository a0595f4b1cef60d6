package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/quillmesh/logging"
	"github.com/hupe1980/quillmesh/telemetry"
)

// maxBodySize caps how much of a provider response is read.
const maxBodySize = 4 << 20

// client holds what every provider shares: one reusable HTTP client, the
// endpoint, the credential and the request budget.
type client struct {
	kind    Kind
	http    *http.Client
	baseURL string
	apiKey  string
	timeout time.Duration
	logger  logging.Logger
}

func newClient(kind Kind, opts Options) client {
	return client{
		kind:    kind,
		http:    opts.HTTPClient,
		baseURL: opts.BaseURL,
		apiKey:  opts.APIKey,
		timeout: opts.Timeout,
		logger:  logging.With(opts.Logger, "component", "search", "provider", kind.String()),
	}
}

// Kind implements Provider.
func (c *client) Kind() Kind { return c.kind }

// search wraps a provider specific fetch with the shared contract: bounded
// time, tracing, logging, metrics, truncation and error absorption.
func (c *client) search(ctx context.Context, query string, maxResults int, fetch func(ctx context.Context) ([]Result, error)) []Result {
	if maxResults <= 0 {
		return []Result{}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := telemetry.Tracer().Start(ctx, "search.query", trace.WithAttributes(
		telemetry.AttrProvider.String(c.kind.String()),
	))
	defer span.End()

	start := time.Now()
	results, err := fetch(ctx)
	if err != nil {
		results = nil
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	if results == nil {
		results = []Result{}
	}

	telemetry.RecordSearch(ctx, c.kind.String(), len(results), err != nil)
	logging.LogSearch(c.logger, c.kind.String(), query, len(results), time.Since(start), err)

	return results
}

// postJSON sends body as JSON and returns the parsed response document.
func (c *client) postJSON(ctx context.Context, url string, body any, header http.Header) (gjson.Result, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	return c.do(req)
}

// getJSON issues a GET and returns the parsed response document.
func (c *client) getJSON(ctx context.Context, url string) (gjson.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("build request: %w", err)
	}

	return c.do(req)
}

func (c *client) do(req *http.Request) (gjson.Result, error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "quillmesh")

	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return gjson.Result{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if !gjson.ValidBytes(data) {
		return gjson.Result{}, fmt.Errorf("invalid JSON response")
	}

	return gjson.ParseBytes(data), nil
}
