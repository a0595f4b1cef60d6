package search

import (
	"context"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

const duckDuckGoURL = "https://api.duckduckgo.com/"

// duckDuckGo queries the keyless DuckDuckGo Instant Answer API. Hits are
// collected from the abstract, the direct results and the (possibly grouped)
// related topics, in that order.
type duckDuckGo struct {
	client
}

// Search implements Provider.
func (d *duckDuckGo) Search(ctx context.Context, query string, maxResults int) []Result {
	return d.search(ctx, query, maxResults, func(ctx context.Context) ([]Result, error) {
		endpoint := d.baseURL
		if endpoint == "" {
			endpoint = duckDuckGoURL
		}

		q := url.Values{}
		q.Set("q", query)
		q.Set("format", "json")
		q.Set("no_html", "1")
		q.Set("skip_disambig", "1")

		doc, err := d.getJSON(ctx, endpoint+"?"+q.Encode())
		if err != nil {
			return nil, err
		}

		var results []Result
		add := func(r Result) bool {
			if r.Link == "" {
				return true
			}
			results = append(results, r)
			return len(results) < maxResults
		}

		if link := doc.Get("AbstractURL").String(); link != "" {
			add(Result{
				Title:   doc.Get("Heading").String(),
				Link:    link,
				Snippet: doc.Get("AbstractText").String(),
			})
		}

		more := true
		for _, path := range []string{"Results", "RelatedTopics"} {
			if !more {
				break
			}
			doc.Get(path).ForEach(func(_, item gjson.Result) bool {
				if topics := item.Get("Topics"); topics.Exists() {
					topics.ForEach(func(_, sub gjson.Result) bool {
						more = add(topicResult(sub))
						return more
					})
					return more
				}
				more = add(topicResult(item))
				return more
			})
		}

		return results, nil
	})
}

func topicResult(item gjson.Result) Result {
	text := item.Get("Text").String()
	title := text
	if i := strings.Index(text, " - "); i > 0 {
		title = text[:i]
	}
	return Result{Title: title, Link: item.Get("FirstURL").String(), Snippet: text}
}
