package strategy

import (
	"context"
	"fmt"
	"strings"

	"github.com/sameehj/quadrant/pkg/mode"
	"github.com/sameehj/quadrant/pkg/oracle"
	"github.com/sameehj/quadrant/pkg/websearch"
)

const searchSystemPrompt = `You are a helpful assistant. Answer the user's question based on the search results provided.
Cite information from the results where relevant. If the results don't contain the answer, say so.`

const searchMaxSources = 3

// handleSearch fetches fresh results through the provider chain and has the
// oracle synthesize an answer grounded on them. All fetched results feed the
// synthesis prompt; only the top few are cited back as sources.
func (d *Dispatcher) handleSearch(ctx context.Context, query string) (*Envelope, error) {
	results, provider := d.search.Search(ctx, query)

	answer, err := d.oracle.Generate(ctx, oracle.Request{
		Prompt:      formatSearchPrompt(query, results),
		System:      searchSystemPrompt,
		Temperature: 0.5,
		MaxTokens:   1000,
	})
	if err != nil {
		return nil, err
	}

	sources := make([]Source, 0, searchMaxSources)
	for _, r := range results {
		if r.Title == websearch.UnavailableTitle {
			continue
		}
		if len(sources) == searchMaxSources {
			break
		}
		sources = append(sources, Source{Title: r.Title, URL: r.URL})
	}

	toolUsed := provider
	if toolUsed == "" {
		toolUsed = "none"
	}

	return &Envelope{
		Mode:    mode.Search,
		Answer:  answer,
		Sources: sources,
		Metadata: map[string]interface{}{
			"tool_used":   toolUsed,
			"num_results": len(results),
		},
	}, nil
}

func formatSearchPrompt(query string, results []websearch.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\nSearch results:\n", query)
	for i, r := range results {
		fmt.Fprintf(&b, "\n[%d] %s\n%s\n%s\n", i+1, r.Title, r.Snippet, r.URL)
	}
	return b.String()
}
