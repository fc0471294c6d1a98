// Package ai – DeepSeek provider.
//
// DeepSeek is the primary (and cheapest) backend, so it is the only variant
// that carries the full retry ladder: transient failures are retried with
// exponential backoff, and every retry requests a smaller completion to ease
// provider-side pressure.
package ai

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	deepseekURL          = "https://api.deepseek.com/chat/completions"
	deepseekDefaultModel = "deepseek-chat"

	// Retries never request fewer completion tokens than this.
	minRetryTokens = 300
	// Completion budget shrink factor applied per retry attempt.
	tokenShrink = 0.7
	// Lower bound for a computed backoff sleep.
	minBackoff = 500 * time.Millisecond
)

// DeepSeek calls the DeepSeek chat-completions API (OpenAI-compatible wire
// format, bearer auth).
type DeepSeek struct {
	APIKey string
	ModelA string
	URL    string
	Client *http.Client

	// sleep is the backoff clock, replaceable in tests.
	sleep func(time.Duration)
}

// NewDeepSeek builds a DeepSeek provider. An empty model selects the default
// chat model.
func NewDeepSeek(apiKey, model string, client *http.Client) *DeepSeek {
	if model == "" {
		model = deepseekDefaultModel
	}
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &DeepSeek{
		APIKey: apiKey,
		ModelA: model,
		URL:    deepseekURL,
		Client: client,
		sleep:  time.Sleep,
	}
}

// Name implements Provider.
func (p *DeepSeek) Name() string { return "deepseek" }

// Model implements Provider.
func (p *DeepSeek) Model() string { return p.ModelA }

// Complete implements Provider with the retry ladder:
//
//	for attempt := 0 .. RetryAttempts:
//	    request max(300, MaxTokens * 0.7^attempt) completion tokens
//	    transient HTTP failure (429/5xx) and attempts left → sleep, retry
//	    connectivity failure and attempts left            → sleep, retry
//	    anything else → fail with the last status attached
//
// The sleep honors the provider's Retry-After header when present, otherwise
// max(0.5s, backoff^attempt). Sleeps block the calling goroutine; callers
// bound the total by configuring attempts and the HTTP timeout.
func (p *DeepSeek) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	opts = opts.withDefaults()

	headers := map[string]string{"Authorization": "Bearer " + p.APIKey}
	var lastErr error

	for attempt := 0; attempt <= opts.RetryAttempts; attempt++ {
		adjTokens := int(float64(opts.MaxTokens) * math.Pow(tokenShrink, float64(attempt)))
		if adjTokens < minRetryTokens {
			adjTokens = minRetryTokens
		}

		body := chatRequest{
			Model:       p.ModelA,
			Messages:    messages,
			Temperature: opts.Temperature,
			MaxTokens:   adjTokens,
		}

		text, err := postChat(ctx, p.Client, p.Name(), p.URL, headers, body)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if attempt == opts.RetryAttempts {
			break
		}

		wait := backoffDelay(opts.RetryBackoff, attempt)
		if pe, ok := err.(*ProviderError); ok {
			if !pe.Transient() {
				break
			}
			if pe.retryAfter > 0 {
				wait = pe.retryAfter
			}
			log.Info().
				Int("attempt", attempt+1).
				Int("max_attempts", opts.RetryAttempts).
				Int("status", pe.Status).
				Int("max_tokens", adjTokens).
				Dur("wait", wait).
				Msg("deepseek retry")
		}
		// Connectivity-level failures retry on the plain backoff schedule.

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		p.sleep(wait)
	}

	return "", lastErr
}

// backoffDelay is base^attempt seconds, floored at half a second.
func backoffDelay(base float64, attempt int) time.Duration {
	d := time.Duration(math.Pow(base, float64(attempt)) * float64(time.Second))
	if d < minBackoff {
		d = minBackoff
	}
	return d
}
