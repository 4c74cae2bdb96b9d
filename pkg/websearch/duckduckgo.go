package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultDuckDuckGoEndpoint = "https://api.duckduckgo.com/"

// DuckDuckGoProvider queries the DuckDuckGo Instant Answer API. It needs no
// key, which makes it the fallback of choice, but it only covers queries with
// an instant answer.
type DuckDuckGoProvider struct {
	endpoint string
	http     *http.Client
}

func NewDuckDuckGo(timeout time.Duration) *DuckDuckGoProvider {
	return &DuckDuckGoProvider{
		endpoint: defaultDuckDuckGoEndpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

func (d *DuckDuckGoProvider) Name() string { return "duckduckgo" }

type duckDuckGoResponse struct {
	AbstractText   string `json:"AbstractText"`
	AbstractSource string `json:"AbstractSource"`
	AbstractURL    string `json:"AbstractURL"`
	Answer         string `json:"Answer"`
	RelatedTopics  []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"RelatedTopics"`
}

func (d *DuckDuckGoProvider) Search(ctx context.Context, query string, max int) ([]Result, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("no_html", "1")
	q.Set("skip_disambig", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: build request: %w", err)
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("duckduckgo: status %d", resp.StatusCode)
	}

	var parsed duckDuckGoResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("duckduckgo: decode response: %w", err)
	}

	var results []Result
	if parsed.Answer != "" {
		results = append(results, Result{Title: "Instant Answer", Snippet: parsed.Answer, URL: parsed.AbstractURL})
	}
	if parsed.AbstractText != "" {
		results = append(results, Result{Title: parsed.AbstractSource, Snippet: parsed.AbstractText, URL: parsed.AbstractURL})
	}
	for _, t := range parsed.RelatedTopics {
		if len(results) >= max {
			break
		}
		if t.Text == "" {
			continue
		}
		results = append(results, Result{Title: t.Text, Snippet: t.Text, URL: t.FirstURL})
	}
	if len(results) > max {
		results = results[:max]
	}
	return results, nil
}
