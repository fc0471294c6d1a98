// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server settings,
// logging, database paths, rate limiting, assistant provider credentials and
// tunables, and observability options.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "devconnect-chat")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// AIConfig holds external language-model provider credentials and tunables.
//
// Credentials are per provider; at most one provider is active per process.
// AI_PROVIDER can force a specific variant, otherwise the first variant whose
// required fields are present wins (deepseek, then azure, then openai).
type AIConfig struct {
	Provider string // AI_PROVIDER: deepseek|azure|openai|"" (auto)
	Model    string // AI_MODEL: model name, or Azure deployment fallback

	DeepSeekKey     string // DEEPSEEK_API_KEY
	OpenAIKey       string // OPENAI_API_KEY
	AzureEndpoint   string // AZURE_OPENAI_ENDPOINT, no trailing slash
	AzureKey        string // AZURE_OPENAI_KEY
	AzureDeployment string // AZURE_OPENAI_DEPLOYMENT (falls back to AI_MODEL)

	// Sampling tunables forwarded to the provider.
	Temperature      float64 // AI_TEMPERATURE
	MaxTokens        int     // AI_MAX_TOKENS
	PresencePenalty  float64 // AI_PRESENCE_PENALTY
	FrequencyPenalty float64 // AI_FREQUENCY_PENALTY

	// Retry ladder (DeepSeek only).
	RetryAttempts int     // AI_RETRY_ATTEMPTS
	RetryBackoff  float64 // AI_RETRY_BACKOFF (exponent base, seconds)

	// Per-call HTTP timeout.
	RequestTimeout time.Duration // AI_REQUEST_TIMEOUT

	// Minimum interval between provider calls per session; 0 disables.
	MinInterval time.Duration // AI_RATE_LIMIT_SECONDS (integer seconds)
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	// App
	DBPath        string // SQLite path
	APIBasePath   string // base path for API routes
	KnowledgePath string // markdown site-knowledge file fed to the assistant

	// Edge rate limiting (token bucket, per user/IP)
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Assistant
	AI AIConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 120*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		// App
		DBPath:        getenv("DB_PATH", "devconnect.db"),
		APIBasePath:   normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),
		KnowledgePath: getenv("SITE_KNOWLEDGE_PATH", "data/site_knowledge.md"),

		// Edge rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Assistant provider
		AI: AIConfig{
			Provider: strings.ToLower(strings.TrimSpace(getenv("AI_PROVIDER", ""))),
			Model:    strings.TrimSpace(getenv("AI_MODEL", "")),

			DeepSeekKey:     os.Getenv("DEEPSEEK_API_KEY"),
			OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
			AzureEndpoint:   strings.TrimRight(os.Getenv("AZURE_OPENAI_ENDPOINT"), "/"),
			AzureKey:        os.Getenv("AZURE_OPENAI_KEY"),
			AzureDeployment: strings.TrimSpace(os.Getenv("AZURE_OPENAI_DEPLOYMENT")),

			Temperature:      getfloat("AI_TEMPERATURE", 0.7),
			MaxTokens:        getint("AI_MAX_TOKENS", 800),
			PresencePenalty:  getfloat("AI_PRESENCE_PENALTY", 0.6),
			FrequencyPenalty: getfloat("AI_FREQUENCY_PENALTY", 0.7),

			RetryAttempts: getint("AI_RETRY_ATTEMPTS", 2),
			RetryBackoff:  getfloat("AI_RETRY_BACKOFF", 1.5),

			RequestTimeout: getdur("AI_REQUEST_TIMEOUT", 20*time.Second),
			MinInterval:    time.Duration(getint("AI_RATE_LIMIT_SECONDS", 0)) * time.Second,
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "devconnect-chat"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.AI.MinInterval < 0 {
		cfg.AI.MinInterval = 0
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	switch cfg.AI.Provider {
	case "", "deepseek", "azure", "openai":
	default:
		return cfg, errors.New("AI_PROVIDER must be one of: deepseek, azure, openai (or empty for auto)")
	}
	if cfg.AI.Temperature < 0 || cfg.AI.Temperature > 2 {
		return cfg, errors.New("AI_TEMPERATURE must be in [0,2]")
	}
	if cfg.AI.MaxTokens <= 0 {
		return cfg, errors.New("AI_MAX_TOKENS must be > 0")
	}
	if cfg.AI.RetryAttempts < 0 {
		return cfg, errors.New("AI_RETRY_ATTEMPTS must be >= 0")
	}
	if cfg.AI.RetryBackoff <= 0 {
		return cfg, errors.New("AI_RETRY_BACKOFF must be > 0")
	}
	if cfg.AI.RequestTimeout <= 0 {
		return cfg, errors.New("AI_REQUEST_TIMEOUT must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
