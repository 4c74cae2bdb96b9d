// Package oracle defines the text-generation client used for mode
// classification and every strategy handler. The service is a black box:
// prompt in, text out. Clients are constructed explicitly and injected into
// whichever component needs them; there is no package-level singleton.
package oracle

import (
	"context"
	"fmt"
	"time"
)

// Request describes a single generation call.
type Request struct {
	// Prompt is the user-facing content of the call.
	Prompt string
	// System is the fixed instruction set for the call, if any.
	System string
	// Temperature controls sampling. Zero pins the reply for a given prompt
	// as far as the provider allows.
	Temperature float64
	// MaxTokens caps the reply length. Zero means provider default.
	MaxTokens int
}

// Client generates text. Implementations must honor ctx cancellation and
// return an error for any transport, auth, or quota failure; they never
// retry.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Config selects and configures a concrete provider.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// New constructs the configured provider client.
func New(cfg Config) (Client, error) {
	switch cfg.Provider {
	case "openai", "":
		return NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.Timeout), nil
	case "anthropic":
		return NewAnthropicClient(cfg.APIKey, cfg.Model, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown oracle provider: %s", cfg.Provider)
	}
}
