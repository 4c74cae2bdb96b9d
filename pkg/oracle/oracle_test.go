package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSelectsProvider(t *testing.T) {
	cases := []struct {
		provider string
		wantErr  bool
	}{
		{"openai", false},
		{"", false},
		{"anthropic", false},
		{"cohere", true},
	}
	for _, tc := range cases {
		client, err := New(Config{Provider: tc.provider, APIKey: "k"})
		if tc.wantErr {
			assert.Error(t, err, "provider %q", tc.provider)
			continue
		}
		require.NoError(t, err)
		assert.NotNil(t, client)
	}
}

func TestOpenAIGenerate(t *testing.T) {
	var captured openAIRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(openAIResponse{
			Choices: []openAIChoice{{Message: openAIMessage{Role: "assistant", Content: "  ACT \n"}}},
		})
	}))
	defer srv.Close()

	client := NewOpenAIClient("test-key", "gpt-4o-mini", time.Second)
	client.endpoint = srv.URL

	reply, err := client.Generate(context.Background(), Request{
		Prompt:      "Calculate 2+2",
		System:      "route it",
		Temperature: 0,
		MaxTokens:   10,
	})
	require.NoError(t, err)

	assert.Equal(t, "ACT", reply)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "route it", captured.Messages[0].Content)
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Equal(t, 10, captured.MaxTokens)
	assert.Zero(t, captured.Temperature)
}

func TestOpenAIGenerateErrors(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		client := NewOpenAIClient("", "", time.Second)
		_, err := client.Generate(context.Background(), Request{Prompt: "hi"})
		assert.ErrorContains(t, err, "OPENAI_API_KEY")
	})

	t.Run("non-2xx", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error": "quota exceeded"}`, http.StatusTooManyRequests)
		}))
		defer srv.Close()

		client := NewOpenAIClient("k", "", time.Second)
		client.endpoint = srv.URL
		_, err := client.Generate(context.Background(), Request{Prompt: "hi"})
		assert.ErrorContains(t, err, "quota exceeded")
	})

	t.Run("empty choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(openAIResponse{})
		}))
		defer srv.Close()

		client := NewOpenAIClient("k", "", time.Second)
		client.endpoint = srv.URL
		_, err := client.Generate(context.Background(), Request{Prompt: "hi"})
		assert.ErrorContains(t, err, "empty response")
	})
}

func TestAnthropicGenerate(t *testing.T) {
	var captured anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(anthropicResponse{
			Content: []anthropicBlock{
				{Type: "text", Text: "hello "},
				{Type: "text", Text: "world"},
			},
		})
	}))
	defer srv.Close()

	client := NewAnthropicClient("test-key", "", time.Second)
	client.endpoint = srv.URL

	reply, err := client.Generate(context.Background(), Request{Prompt: "hi", System: "be brief"})
	require.NoError(t, err)

	assert.Equal(t, "hello world", reply)
	assert.Equal(t, "be brief", captured.System)
	assert.Equal(t, 1024, captured.MaxTokens)
	require.Len(t, captured.Messages, 1)
	assert.Equal(t, "user", captured.Messages[0].Role)
}

func TestAnthropicGenerateMissingKey(t *testing.T) {
	client := NewAnthropicClient("", "", time.Second)
	_, err := client.Generate(context.Background(), Request{Prompt: "hi"})
	assert.ErrorContains(t, err, "ANTHROPIC_API_KEY")
}
