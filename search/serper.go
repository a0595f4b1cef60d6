package search

import (
	"context"
	"net/http"

	"github.com/tidwall/gjson"
)

const serperURL = "https://google.serper.dev/search"

// serper queries the Serper Google Search API.
type serper struct {
	client
}

// Search implements Provider.
func (s *serper) Search(ctx context.Context, query string, maxResults int) []Result {
	return s.search(ctx, query, maxResults, func(ctx context.Context) ([]Result, error) {
		url := s.baseURL
		if url == "" {
			url = serperURL
		}

		doc, err := s.postJSON(ctx, url, map[string]any{"q": query, "num": maxResults}, http.Header{
			"X-API-KEY": []string{s.apiKey},
		})
		if err != nil {
			return nil, err
		}

		var results []Result
		doc.Get("organic").ForEach(func(_, item gjson.Result) bool {
			results = append(results, Result{
				Title:   item.Get("title").String(),
				Link:    item.Get("link").String(),
				Snippet: item.Get("snippet").String(),
			})
			return len(results) < maxResults
		})

		return results, nil
	})
}
