package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/devconnect/chat-service/internal/config"
)

func TestResolvePriorityOrder(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.AIConfig
		want string // provider name, "" means ErrNotConfigured
	}{
		{
			name: "deepseek wins when everything is configured",
			cfg: config.AIConfig{
				DeepSeekKey: "dsk", OpenAIKey: "oak",
				AzureEndpoint: "https://r.openai.azure.com", AzureKey: "azk", AzureDeployment: "gpt",
			},
			want: "deepseek",
		},
		{
			name: "azure beats openai",
			cfg: config.AIConfig{
				OpenAIKey:     "oak",
				AzureEndpoint: "https://r.openai.azure.com", AzureKey: "azk", AzureDeployment: "gpt",
			},
			want: "azure",
		},
		{
			name: "openai as last resort",
			cfg:  config.AIConfig{OpenAIKey: "oak"},
			want: "openai",
		},
		{
			name: "azure skipped without a deployment or model",
			cfg: config.AIConfig{
				AzureEndpoint: "https://r.openai.azure.com", AzureKey: "azk",
			},
			want: "",
		},
		{
			name: "nothing configured",
			cfg:  config.AIConfig{},
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Resolve(tc.cfg)
			if tc.want == "" {
				if !errors.Is(err, ErrNotConfigured) {
					t.Fatalf("err = %v; want ErrNotConfigured", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if p.Name() != tc.want {
				t.Fatalf("provider = %s; want %s", p.Name(), tc.want)
			}
		})
	}
}

func TestResolveForcedProvider(t *testing.T) {
	cfg := config.AIConfig{
		Provider:    "openai",
		DeepSeekKey: "dsk",
		OpenAIKey:   "oak",
	}
	p, err := Resolve(cfg)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if p.Name() != "openai" {
		t.Fatalf("provider = %s; want openai (forced)", p.Name())
	}

	// Forcing a variant without credentials must not fall through to others.
	cfg = config.AIConfig{Provider: "azure", DeepSeekKey: "dsk"}
	if _, err := Resolve(cfg); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v; want ErrNotConfigured", err)
	}
}

func TestOptionsWithDefaults(t *testing.T) {
	got := Options{}.withDefaults()
	want := Options{
		Temperature:      DefaultTemperature,
		MaxTokens:        DefaultMaxTokens,
		PresencePenalty:  DefaultPresencePenalty,
		FrequencyPenalty: DefaultFrequencyPenalty,
		RetryAttempts:    DefaultRetryAttempts,
		RetryBackoff:     DefaultRetryBackoff,
	}
	if got != want {
		t.Fatalf("withDefaults() = %+v; want %+v", got, want)
	}

	// Negative attempts is an explicit opt-out, not a zero value.
	if got := (Options{RetryAttempts: -1}).withDefaults(); got.RetryAttempts != 0 {
		t.Fatalf("RetryAttempts = %d; want 0", got.RetryAttempts)
	}
}

func TestAzureWireFormat(t *testing.T) {
	var gotPath, gotVersion, gotKey, gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotVersion = r.URL.Query().Get("api-version")
		gotKey = r.Header.Get("api-key")
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "ok"}},
			},
		})
	}))
	defer srv.Close()

	p := NewAzure(srv.URL, "azk", "gpt-4o", srv.Client())
	text, err := p.Complete(context.Background(), []Message{User("hi")}, Options{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "ok" {
		t.Fatalf("text = %q", text)
	}
	if want := "/openai/deployments/gpt-4o/chat/completions"; gotPath != want {
		t.Errorf("path = %q; want %q", gotPath, want)
	}
	if gotVersion == "" {
		t.Error("api-version query parameter missing")
	}
	if gotKey != "azk" {
		t.Errorf("api-key header = %q; want azk", gotKey)
	}
	if gotModel != "" {
		t.Errorf("model field = %q; want empty (deployment is in the URL)", gotModel)
	}
}

func TestOpenAIWireFormat(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "ok"}},
			},
		})
	}))
	defer srv.Close()

	p := NewOpenAI("oak", "", srv.Client())
	p.URL = srv.URL
	if _, err := p.Complete(context.Background(), []Message{User("hi")}, Options{}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if gotAuth != "Bearer oak" {
		t.Errorf("Authorization = %q; want Bearer oak", gotAuth)
	}
	if gotReq.Model != openaiDefaultModel {
		t.Errorf("model = %q; want %q", gotReq.Model, openaiDefaultModel)
	}
	if gotReq.PresencePenalty != DefaultPresencePenalty || gotReq.FrequencyPenalty != DefaultFrequencyPenalty {
		t.Errorf("penalties = %v/%v; want defaults", gotReq.PresencePenalty, gotReq.FrequencyPenalty)
	}
}

func TestPostChatMalformedAndEmptyResponses(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"malformed json", "{not json", "malformed response"},
		{"empty choices", `{"choices":[]}`, "empty choices"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := postChat(context.Background(), srv.Client(), "test", srv.URL, nil, chatRequest{})
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v; want containing %q", err, tc.want)
			}
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"3", 3 * time.Second},
		{"0.5", 500 * time.Millisecond},
		{"-1", 0},
		{"Wed, 21 Oct 2015 07:28:00 GMT", 0}, // HTTP-date form unsupported
	}
	for _, tc := range cases {
		if got := parseRetryAfter(tc.in); got != tc.want {
			t.Errorf("parseRetryAfter(%q) = %v; want %v", tc.in, got, tc.want)
		}
	}
}

func TestStatusCode(t *testing.T) {
	if got := StatusCode(&ProviderError{Status: 429}); got != 429 {
		t.Fatalf("StatusCode = %d; want 429", got)
	}
	if got := StatusCode(errors.New("plain")); got != 0 {
		t.Fatalf("StatusCode = %d; want 0", got)
	}
}
