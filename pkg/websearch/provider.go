// Package websearch fetches web results through a chain of providers.
// Failure is always local: when every provider comes back empty or erroring,
// the chain substitutes a placeholder result rather than failing the
// invocation.
package websearch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Result is a single search hit.
type Result struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// Provider answers a query with up to max results. An empty slice is a valid
// answer and triggers fallback in the chain.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, max int) ([]Result, error)
}

// UnavailableTitle marks the placeholder result substituted when no provider
// answers.
const UnavailableTitle = "Search Unavailable"

// recencyKeywords trigger the current-year query enhancement.
var recencyKeywords = []string{"latest", "recent", "current", "today", "now", "when"}

const defaultMaxResults = 5

// Chain tries providers in order until one returns results.
type Chain struct {
	providers  []Provider
	maxResults int
	logger     *zap.Logger
}

func NewChain(logger *zap.Logger, maxResults int, providers ...Provider) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	return &Chain{providers: providers, maxResults: maxResults, logger: logger}
}

// Search runs the query through the chain. The provider that answered is
// returned alongside the results; the placeholder fallback reports an empty
// provider name.
func (c *Chain) Search(ctx context.Context, query string) ([]Result, string) {
	enhanced := EnhanceQuery(query, time.Now())

	for _, p := range c.providers {
		results, err := p.Search(ctx, enhanced, c.maxResults)
		if err != nil {
			c.logger.Warn("search provider failed",
				zap.String("provider", p.Name()),
				zap.Error(err))
			continue
		}
		if len(results) == 0 {
			c.logger.Debug("search provider returned nothing",
				zap.String("provider", p.Name()))
			continue
		}
		return results, p.Name()
	}

	return []Result{{
		Title:   UnavailableTitle,
		Snippet: "Unable to fetch search results. This may be due to API limits or network issues.",
		URL:     "",
	}}, ""
}

// EnhanceQuery appends the current year to time-sensitive queries so
// providers favor fresh results. Queries already carrying a recent year are
// left alone.
func EnhanceQuery(query string, now time.Time) string {
	lower := strings.ToLower(query)
	sensitive := false
	for _, kw := range recencyKeywords {
		if strings.Contains(lower, kw) {
			sensitive = true
			break
		}
	}
	if !sensitive {
		return query
	}

	year := now.Year()
	if strings.Contains(query, fmt.Sprint(year)) || strings.Contains(query, fmt.Sprint(year-1)) {
		return query
	}
	return fmt.Sprintf("%s %d", query, year)
}
