package search

import "context"

// DefaultMaxResults is the result limit used when a Tool is given none.
const DefaultMaxResults = 5

// Tool is the entry point domain agents use: a Provider plus a default
// result limit.
type Tool struct {
	provider   Provider
	maxResults int
}

// NewTool wraps p. A non-positive maxResults selects DefaultMaxResults.
func NewTool(p Provider, maxResults int) *Tool {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Tool{provider: p, maxResults: maxResults}
}

// Kind returns the wrapped provider's kind.
func (t *Tool) Kind() Kind { return t.provider.Kind() }

// MaxResults returns the default result limit.
func (t *Tool) MaxResults() int { return t.maxResults }

// Search runs query with maxResults, or the default limit when maxResults <= 0.
func (t *Tool) Search(ctx context.Context, query string, maxResults int) []Result {
	if maxResults <= 0 {
		maxResults = t.maxResults
	}
	return t.provider.Search(ctx, query, maxResults)
}
