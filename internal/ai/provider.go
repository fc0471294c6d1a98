// Package ai implements the uniform call contract over the external
// language-model providers (DeepSeek, Azure OpenAI, OpenAI). Each provider
// speaks its own auth header and payload dialect behind a single Complete
// method; resolution picks exactly one provider per process from
// configuration.
//
// Failures are values: provider-side HTTP errors surface as *ProviderError
// carrying the last status code so callers can differentiate rate limits
// from auth problems without re-raising.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/devconnect/chat-service/internal/config"
)

// Chat message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged utterance in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// System, User and Assistant are small constructors for readable call sites.
func System(content string) Message    { return Message{Role: RoleSystem, Content: content} }
func User(content string) Message      { return Message{Role: RoleUser, Content: content} }
func Assistant(content string) Message { return Message{Role: RoleAssistant, Content: content} }

// Options carries per-call sampling and retry tunables. Zero values fall back
// to the package defaults below.
type Options struct {
	Temperature      float64
	MaxTokens        int
	PresencePenalty  float64
	FrequencyPenalty float64

	// Retry ladder, honored by the DeepSeek provider only.
	RetryAttempts int
	RetryBackoff  float64 // exponent base, in seconds
}

// Defaults applied when an Options field is zero.
const (
	DefaultTemperature      = 0.7
	DefaultMaxTokens        = 800
	DefaultPresencePenalty  = 0.6
	DefaultFrequencyPenalty = 0.7
	DefaultRetryAttempts    = 2
	DefaultRetryBackoff     = 1.5
)

// withDefaults fills zero fields. A negative RetryAttempts disables retries
// explicitly (0 would otherwise be replaced by the default).
func (o Options) withDefaults() Options {
	if o.Temperature == 0 {
		o.Temperature = DefaultTemperature
	}
	if o.MaxTokens == 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	if o.PresencePenalty == 0 {
		o.PresencePenalty = DefaultPresencePenalty
	}
	if o.FrequencyPenalty == 0 {
		o.FrequencyPenalty = DefaultFrequencyPenalty
	}
	if o.RetryAttempts == 0 {
		o.RetryAttempts = DefaultRetryAttempts
	} else if o.RetryAttempts < 0 {
		o.RetryAttempts = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = DefaultRetryBackoff
	}
	return o
}

// FromConfig maps the configured tunables onto call Options.
func FromConfig(cfg config.AIConfig) Options {
	return Options{
		Temperature:      cfg.Temperature,
		MaxTokens:        cfg.MaxTokens,
		PresencePenalty:  cfg.PresencePenalty,
		FrequencyPenalty: cfg.FrequencyPenalty,
		RetryAttempts:    cfg.RetryAttempts,
		RetryBackoff:     cfg.RetryBackoff,
	}
}

// Provider is the uniform contract over heterogeneous LLM backends.
type Provider interface {
	// Name identifies the provider variant ("deepseek", "azure", "openai").
	Name() string
	// Model reports the model or deployment identifier in use.
	Model() string
	// Complete sends the conversation and returns the first choice's text.
	Complete(ctx context.Context, messages []Message, opts Options) (string, error)
}

// ErrNotConfigured signals that no provider credentials resolved; callers
// should short-circuit to their fallback without attempting a network call.
var ErrNotConfigured = errors.New("ai: no provider configured")

// ProviderError reports a failed provider call. Status is the HTTP status
// code of the last attempt, or 0 for connectivity-level failures.
type ProviderError struct {
	Provider string
	Status   int
	Body     string

	// retryAfter is the provider's Retry-After hint, when present and
	// parseable. Only the DeepSeek retry ladder consumes it.
	retryAfter time.Duration
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: request failed: %s", e.Provider, e.Body)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, e.Body)
}

// Transient reports whether the status is worth retrying (rate limit or
// upstream 5xx hiccup).
func (e *ProviderError) Transient() bool {
	switch e.Status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// StatusCode extracts the HTTP status from a provider failure, or 0 when the
// error is not a *ProviderError (connectivity, context cancellation, ...).
func StatusCode(err error) int {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Status
	}
	return 0
}

// Resolve selects the active provider from configuration.
//
// When AI_PROVIDER is set, only that variant is considered; otherwise the
// first variant with complete credentials wins, checked in fixed priority
// order: deepseek, azure, openai. Returns ErrNotConfigured when nothing
// resolves.
func Resolve(cfg config.AIConfig) (Provider, error) {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	want := func(name string) bool { return cfg.Provider == "" || cfg.Provider == name }

	if want("deepseek") && strings.TrimSpace(cfg.DeepSeekKey) != "" {
		return NewDeepSeek(cfg.DeepSeekKey, cfg.Model, client), nil
	}
	if want("azure") && cfg.AzureEndpoint != "" && cfg.AzureKey != "" {
		deployment := cfg.AzureDeployment
		if deployment == "" {
			deployment = cfg.Model
		}
		if deployment != "" {
			return NewAzure(cfg.AzureEndpoint, cfg.AzureKey, deployment, client), nil
		}
	}
	if want("openai") && strings.TrimSpace(cfg.OpenAIKey) != "" {
		return NewOpenAI(cfg.OpenAIKey, cfg.Model, client), nil
	}
	return nil, ErrNotConfigured
}

// ---- shared chat-completions wire format ----

// chatRequest is the OpenAI-compatible request body. Azure omits the model
// field (the deployment is addressed in the URL path instead).
type chatRequest struct {
	Model            string    `json:"model,omitempty"`
	Messages         []Message `json:"messages"`
	Temperature      float64   `json:"temperature"`
	MaxTokens        int       `json:"max_tokens,omitempty"`
	PresencePenalty  float64   `json:"presence_penalty,omitempty"`
	FrequencyPenalty float64   `json:"frequency_penalty,omitempty"`
}

// chatResponse is the subset of the response all three dialects share.
type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// postChat issues one chat-completion POST and extracts the first choice.
// HTTP-level failures come back as *ProviderError; transport failures as the
// raw error. The response body read is capped to keep a hostile upstream from
// ballooning memory.
func postChat(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, body chatRequest) (string, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		pe := &ProviderError{
			Provider: provider,
			Status:   resp.StatusCode,
			Body:     strings.TrimSpace(string(raw)),
		}
		pe.retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		return "", pe
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &ProviderError{Provider: provider, Status: resp.StatusCode, Body: "malformed response: " + err.Error()}
	}
	if len(decoded.Choices) == 0 {
		return "", &ProviderError{Provider: provider, Status: resp.StatusCode, Body: "empty choices"}
	}
	return decoded.Choices[0].Message.Content, nil
}

// retryAfter is carried on ProviderError so the DeepSeek ladder can honor
// the provider's own pacing hint. Unexported: only the ladder reads it.
func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	var secs float64
	if _, err := fmt.Sscanf(v, "%f", &secs); err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}
