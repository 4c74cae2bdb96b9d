package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubProvider struct {
	name    string
	results []Result
	err     error
	calls   int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Search(_ context.Context, _ string, _ int) ([]Result, error) {
	s.calls++
	return s.results, s.err
}

func TestChainFirstProviderWins(t *testing.T) {
	first := &stubProvider{name: "first", results: []Result{{Title: "hit"}}}
	second := &stubProvider{name: "second", results: []Result{{Title: "other"}}}
	chain := NewChain(zap.NewNop(), 5, first, second)

	results, provider := chain.Search(context.Background(), "golang")
	require.Len(t, results, 1)
	assert.Equal(t, "hit", results[0].Title)
	assert.Equal(t, "first", provider)
	assert.Equal(t, 0, second.calls)
}

func TestChainFallsBackOnError(t *testing.T) {
	first := &stubProvider{name: "first", err: fmt.Errorf("boom")}
	second := &stubProvider{name: "second", results: []Result{{Title: "recovered"}}}
	chain := NewChain(zap.NewNop(), 5, first, second)

	results, provider := chain.Search(context.Background(), "golang")
	require.Len(t, results, 1)
	assert.Equal(t, "recovered", results[0].Title)
	assert.Equal(t, "second", provider)
}

func TestChainFallsBackOnEmpty(t *testing.T) {
	first := &stubProvider{name: "first"}
	second := &stubProvider{name: "second", results: []Result{{Title: "recovered"}}}
	chain := NewChain(zap.NewNop(), 5, first, second)

	results, provider := chain.Search(context.Background(), "golang")
	require.Len(t, results, 1)
	assert.Equal(t, "second", provider)
}

func TestChainPlaceholderWhenAllFail(t *testing.T) {
	first := &stubProvider{name: "first", err: fmt.Errorf("boom")}
	second := &stubProvider{name: "second"}
	chain := NewChain(zap.NewNop(), 5, first, second)

	results, provider := chain.Search(context.Background(), "golang")
	require.Len(t, results, 1)
	assert.Equal(t, UnavailableTitle, results[0].Title)
	assert.Empty(t, provider)
}

func TestEnhanceQuery(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		query string
		want  string
	}{
		{"latest Go release", "latest Go release 2026"},
		{"when was Go created", "when was Go created 2026"},
		{"latest Go release 2026", "latest Go release 2026"},
		{"latest Go release 2025", "latest Go release 2025"},
		{"history of Go", "history of Go"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EnhanceQuery(tt.query, now), tt.query)
	}
}

func TestSerperSearch(t *testing.T) {
	var gotKey, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-KEY")
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotQuery = body["q"].(string)
		json.NewEncoder(w).Encode(map[string]any{
			"organic": []map[string]string{
				{"title": "Go", "snippet": "The Go programming language", "link": "https://go.dev"},
				{"title": "Docs", "snippet": "Documentation", "link": "https://go.dev/doc"},
			},
		})
	}))
	defer srv.Close()

	p := NewSerper("test-key", time.Second)
	p.endpoint = srv.URL

	results, err := p.Search(context.Background(), "golang", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Go", results[0].Title)
	assert.Equal(t, "https://go.dev", results[0].URL)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "golang", gotQuery)
}

func TestSerperNoKey(t *testing.T) {
	p := NewSerper("", time.Second)
	_, err := p.Search(context.Background(), "golang", 5)
	assert.Error(t, err)
}

func TestSerperUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewSerper("test-key", time.Second)
	p.endpoint = srv.URL

	_, err := p.Search(context.Background(), "golang", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestDuckDuckGoSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "golang", r.URL.Query().Get("q"))
		json.NewEncoder(w).Encode(map[string]any{
			"AbstractText":   "Go is a programming language.",
			"AbstractSource": "Wikipedia",
			"AbstractURL":    "https://en.wikipedia.org/wiki/Go",
			"RelatedTopics": []map[string]string{
				{"Text": "Go (game)", "FirstURL": "https://example.com/go-game"},
			},
		})
	}))
	defer srv.Close()

	p := NewDuckDuckGo(time.Second)
	p.endpoint = srv.URL

	results, err := p.Search(context.Background(), "golang", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Wikipedia", results[0].Title)
	assert.Equal(t, "Go (game)", results[1].Title)
}

func TestDuckDuckGoEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{})
	}))
	defer srv.Close()

	p := NewDuckDuckGo(time.Second)
	p.endpoint = srv.URL

	results, err := p.Search(context.Background(), "obscure", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
