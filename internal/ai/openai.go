// Package ai – OpenAI provider. Single attempt, no retry or token shrink.
package ai

import (
	"context"
	"net/http"
	"time"
)

const (
	openaiURL          = "https://api.openai.com/v1/chat/completions"
	openaiDefaultModel = "gpt-4o-mini"
)

// OpenAI calls the OpenAI chat-completions API with bearer auth.
type OpenAI struct {
	APIKey string
	ModelA string
	URL    string
	Client *http.Client
}

// NewOpenAI builds an OpenAI provider. An empty model selects gpt-4o-mini.
func NewOpenAI(apiKey, model string, client *http.Client) *OpenAI {
	if model == "" {
		model = openaiDefaultModel
	}
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &OpenAI{APIKey: apiKey, ModelA: model, URL: openaiURL, Client: client}
}

// Name implements Provider.
func (p *OpenAI) Name() string { return "openai" }

// Model implements Provider.
func (p *OpenAI) Model() string { return p.ModelA }

// Complete implements Provider with a single attempt.
func (p *OpenAI) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	opts = opts.withDefaults()
	body := chatRequest{
		Model:            p.ModelA,
		Messages:         messages,
		Temperature:      opts.Temperature,
		MaxTokens:        opts.MaxTokens,
		PresencePenalty:  opts.PresencePenalty,
		FrequencyPenalty: opts.FrequencyPenalty,
	}
	headers := map[string]string{"Authorization": "Bearer " + p.APIKey}
	return postChat(ctx, p.Client, p.Name(), p.URL, headers, body)
}
