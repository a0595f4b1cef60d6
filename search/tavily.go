package search

import (
	"context"

	"github.com/tidwall/gjson"
)

const tavilyURL = "https://api.tavily.com/search"

// tavily queries the Tavily search API with advanced depth.
type tavily struct {
	client
}

// Search implements Provider.
func (t *tavily) Search(ctx context.Context, query string, maxResults int) []Result {
	return t.search(ctx, query, maxResults, func(ctx context.Context) ([]Result, error) {
		url := t.baseURL
		if url == "" {
			url = tavilyURL
		}

		doc, err := t.postJSON(ctx, url, map[string]any{
			"api_key":      t.apiKey,
			"query":        query,
			"max_results":  maxResults,
			"search_depth": "advanced",
		}, nil)
		if err != nil {
			return nil, err
		}

		var results []Result
		doc.Get("results").ForEach(func(_, item gjson.Result) bool {
			results = append(results, Result{
				Title:   item.Get("title").String(),
				Link:    item.Get("url").String(),
				Snippet: item.Get("content").String(),
			})
			return len(results) < maxResults
		})

		return results, nil
	})
}
