// Command server runs the DevConnect chat service: the realtime messaging
// core, the assistant pipeline, and the public HTTP/websocket API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/devconnect/chat-service/internal/ai"
	"github.com/devconnect/chat-service/internal/assistant"
	"github.com/devconnect/chat-service/internal/config"
	"github.com/devconnect/chat-service/internal/history"
	httpapi "github.com/devconnect/chat-service/internal/http"
	"github.com/devconnect/chat-service/internal/observability"
	"github.com/devconnect/chat-service/internal/repo"
	"github.com/devconnect/chat-service/internal/sysutil"
	"github.com/devconnect/chat-service/internal/ws"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// Optional .env for local development; ignored when absent.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.Setup(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(ctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}
	bot, err := repo.EnsureAssistantUser(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("ensure assistant user")
	}

	provider, err := ai.Resolve(cfg.AI)
	if err != nil {
		if !errors.Is(err, ai.ErrNotConfigured) {
			log.Fatal().Err(err).Msg("resolve ai provider")
		}
		log.Warn().Msg("no ai provider configured; assistant runs on fallbacks only")
	}
	if provider != nil {
		log.Info().Str("provider", provider.Name()).Str("model", provider.Model()).
			Msg("ai provider resolved")
	}

	resp := assistant.New(history.New(), provider, ai.FromConfig(cfg.AI), nil)
	resp.MinInterval = cfg.AI.MinInterval
	resp.KnowledgePath = cfg.KnowledgePath

	hub := ws.NewHub()

	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	httpapi.RegisterRoutes(engine, httpapi.Deps{
		DB:          db,
		Hub:         hub,
		Assistant:   resp,
		AssistantID: bot.ID,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
