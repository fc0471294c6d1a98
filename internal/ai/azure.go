// Package ai – Azure OpenAI provider. Single attempt; addresses a deployment
// path segment instead of a model field and authenticates with an api-key
// header rather than a bearer token.
package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// azureAPIVersion is pinned; bumping it is a deliberate change, not config.
const azureAPIVersion = "2024-02-15-preview"

// Azure calls an Azure OpenAI chat-completions deployment.
type Azure struct {
	Endpoint   string // https://<resource>.openai.azure.com, no trailing slash
	APIKey     string
	Deployment string
	Client     *http.Client
}

// NewAzure builds an Azure OpenAI provider.
func NewAzure(endpoint, apiKey, deployment string, client *http.Client) *Azure {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Azure{Endpoint: endpoint, APIKey: apiKey, Deployment: deployment, Client: client}
}

// Name implements Provider.
func (p *Azure) Name() string { return "azure" }

// Model implements Provider; Azure identifies completions by deployment.
func (p *Azure) Model() string { return p.Deployment }

// Complete implements Provider with a single attempt.
func (p *Azure) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	opts = opts.withDefaults()
	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		p.Endpoint, p.Deployment, azureAPIVersion)
	body := chatRequest{
		// Model intentionally empty: the deployment is in the URL.
		Messages:         messages,
		Temperature:      opts.Temperature,
		MaxTokens:        opts.MaxTokens,
		PresencePenalty:  opts.PresencePenalty,
		FrequencyPenalty: opts.FrequencyPenalty,
	}
	headers := map[string]string{"api-key": p.APIKey}
	return postChat(ctx, p.Client, p.Name(), url, headers, body)
}
