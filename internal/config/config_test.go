package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q; want 8080", cfg.Port)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Errorf("APIBasePath = %q; want /api/v1", cfg.APIBasePath)
	}
	if cfg.GinMode != "release" {
		t.Errorf("GinMode = %q; want release", cfg.GinMode)
	}
	if cfg.AI.MaxTokens != 800 || cfg.AI.Temperature != 0.7 {
		t.Errorf("AI defaults = %+v", cfg.AI)
	}
	if cfg.AI.MinInterval != 0 {
		t.Errorf("MinInterval = %v; want 0 (pacing disabled)", cfg.AI.MinInterval)
	}
	if cfg.OTEL.Enabled {
		t.Error("OTEL should default to disabled")
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("AI_PROVIDER", "OpenAI") // normalized to lowercase
	t.Setenv("OPENAI_API_KEY", "oak")
	t.Setenv("AI_RATE_LIMIT_SECONDS", "15")
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://r.openai.azure.com/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.AI.Provider != "openai" {
		t.Errorf("Provider = %q; want openai", cfg.AI.Provider)
	}
	if cfg.AI.MinInterval != 15*time.Second {
		t.Errorf("MinInterval = %v; want 15s", cfg.AI.MinInterval)
	}
	if strings.HasSuffix(cfg.AI.AzureEndpoint, "/") {
		t.Errorf("AzureEndpoint = %q; trailing slash must be stripped", cfg.AI.AzureEndpoint)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		key, val string
	}{
		{"LOG_LEVEL", "verbose"},
		{"AI_PROVIDER", "claude"},
		{"AI_TEMPERATURE", "3.5"},
		{"OTEL_TRACES_SAMPLER_ARG", "2"},
		{"RATE_BURST", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.key+"="+tc.val, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			if _, err := Load(); err == nil {
				t.Fatalf("Load with %s=%s should fail", tc.key, tc.val)
			}
		})
	}
}

func TestNormalizeBasePath(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", "/"},
		{"/", "/"},
		{"api/v1", "/api/v1"},
		{"/api/v1/", "/api/v1"},
	}
	for _, tc := range cases {
		if got := normalizeBasePath(tc.in); got != tc.want {
			t.Errorf("normalizeBasePath(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}
