package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultSerperEndpoint = "https://google.serper.dev/search"

// SerperProvider queries the Serper.dev Google search API.
type SerperProvider struct {
	apiKey   string
	endpoint string
	http     *http.Client
}

func NewSerper(apiKey string, timeout time.Duration) *SerperProvider {
	return &SerperProvider{
		apiKey:   apiKey,
		endpoint: defaultSerperEndpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

func (s *SerperProvider) Name() string { return "serper" }

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Link    string `json:"link"`
	} `json:"organic"`
}

func (s *SerperProvider) Search(ctx context.Context, query string, max int) ([]Result, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("serper: no api key configured")
	}

	body, err := json.Marshal(serperRequest{Q: query, Num: max})
	if err != nil {
		return nil, fmt.Errorf("serper: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("serper: build request: %w", err)
	}
	req.Header.Set("X-API-KEY", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serper: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("serper: status %d: %s", resp.StatusCode, string(b))
	}

	var parsed serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("serper: decode response: %w", err)
	}

	results := make([]Result, 0, len(parsed.Organic))
	for _, o := range parsed.Organic {
		if len(results) >= max {
			break
		}
		results = append(results, Result{Title: o.Title, Snippet: o.Snippet, URL: o.Link})
	}
	return results, nil
}
