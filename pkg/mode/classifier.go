package mode

import (
	"context"

	"go.uber.org/zap"

	"github.com/sameehj/quadrant/pkg/oracle"
)

const routingSystemPrompt = `You are a routing agent. Your ONLY job is to classify the user's query into exactly ONE of these four categories:

RESPOND - Simple questions that can be answered directly with existing knowledge. No tools needed.
Examples: "What is the capital of France?", "Explain photosynthesis", "Tell me about Go"

PLAN - Complex tasks requiring multiple steps or where information is missing.
Examples: "Help me plan a wedding", "I want to start a business", "How do I learn machine learning?"

SEARCH - Questions requiring current, real-time, or recent information not in training data.
Examples: "What's the weather today?", "Latest news on AI", "Current stock price of Tesla"

ACT - Questions requiring calculations, data processing, or code execution.
Examples: "Calculate 234 * 567", "Generate fibonacci numbers", "What's the square root of 12345?"

You must respond with ONLY ONE WORD: RESPOND, PLAN, SEARCH, or ACT.
No explanation. No punctuation. Just the mode name.`

// Classifier decides the handling strategy with a single oracle call per
// query. No retries: a transport failure propagates, a garbled reply
// defaults to Respond.
type Classifier struct {
	client oracle.Client
	logger *zap.Logger
}

func NewClassifier(client oracle.Client, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{client: client, logger: logger}
}

// Classify returns exactly one Mode for the query. Temperature is pinned to
// zero so identical queries classify identically.
func (c *Classifier) Classify(ctx context.Context, query string) (Mode, error) {
	reply, err := c.client.Generate(ctx, oracle.Request{
		Prompt:      query,
		System:      routingSystemPrompt,
		Temperature: 0,
		MaxTokens:   10,
	})
	if err != nil {
		return "", err
	}

	m := ParseReply(reply)
	c.logger.Debug("query classified",
		zap.String("mode", string(m)),
		zap.String("reply", reply))
	return m, nil
}
