package strategy

import (
	"context"

	"github.com/sameehj/quadrant/pkg/mode"
	"github.com/sameehj/quadrant/pkg/oracle"
)

const respondSystemPrompt = `You are a helpful AI assistant. Answer the user's question clearly and concisely.
Provide accurate information based on your knowledge. If you're not sure about something, say so.`

// handleRespond answers directly from the oracle's knowledge. No tools, no
// execution.
func (d *Dispatcher) handleRespond(ctx context.Context, query string) (*Envelope, error) {
	answer, err := d.oracle.Generate(ctx, oracle.Request{
		Prompt:      query,
		System:      respondSystemPrompt,
		Temperature: 0.7,
		MaxTokens:   1000,
	})
	if err != nil {
		return nil, err
	}

	return &Envelope{
		Mode:   mode.Respond,
		Answer: answer,
		Metadata: map[string]interface{}{
			"tool_used": nil,
		},
	}, nil
}
