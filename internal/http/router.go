// Package httpapi wires the HTTP transport (Gin) to the chat and assistant
// services, middleware, and route handlers. It centralizes cross-cutting
// concerns: tracing, correlation IDs, logging, panic recovery, metrics,
// compression, CORS, security headers, and edge rate limiting.
//
// Middleware ordering is deliberate: RequestID before logging so every log
// line carries the correlation ID, recovery after logging so panics are
// captured with structured context, rate limiting after identity so
// authenticated users get per-user buckets.
package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/devconnect/chat-service/internal/assistant"
	"github.com/devconnect/chat-service/internal/chat"
	"github.com/devconnect/chat-service/internal/config"
	"github.com/devconnect/chat-service/internal/http/handlers"
	"github.com/devconnect/chat-service/internal/http/middleware"
	"github.com/devconnect/chat-service/internal/ratelimit"
	"github.com/devconnect/chat-service/internal/repo"
	"github.com/devconnect/chat-service/internal/ws"
)

// Deps carries everything the router needs. All fields are required except
// Hub, which may be nil in tests that skip the realtime layer.
type Deps struct {
	DB          *gorm.DB
	Hub         *ws.Hub
	Assistant   *assistant.Responder
	AssistantID uint
}

// RegisterRoutes attaches all middleware and endpoints to the Gin engine and
// feeds the registered route table back to the assistant as its site map.
func RegisterRoutes(r *gin.Engine, d Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())

	// Global body cap (1 MiB).
	r.Use(limitBody(1 << 20))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Compression; websocket and metrics streams stay uncompressed.
	r.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{"/ws", "/metrics"})))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	r.Use(corsFor(cfg))

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	chatSvc := &chat.Service{
		DB:          d.DB,
		AssistantID: d.AssistantID,
	}
	if d.Hub != nil {
		chatSvc.Hub = d.Hub
	}
	if d.Assistant != nil {
		chatSvc.Reply = d.Assistant.QuickReply
	}

	aiH := &handlers.AIHandler{Assistant: d.Assistant}
	chatH := &handlers.ChatHandler{Chats: chatSvc}
	msgH := &handlers.MessageHandler{Chats: chatSvc}

	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(middleware.Identity())
	{
		api.POST("/ai/reply", aiH.Reply)
		api.POST("/ai/suggest", aiH.Suggest)
		api.POST("/ai/reset", aiH.Reset)
		api.GET("/ai/check", aiH.Check)

		api.GET("/chats", chatH.List)
		api.POST("/chats", chatH.Start)
		api.POST("/chats/assistant", chatH.StartAssistant)
		api.GET("/chats/:id/messages", msgH.List)
		api.POST("/messages", msgH.Post)
	}

	if d.Hub != nil {
		wsH := handlers.NewWSHandler(d.Hub)
		wsH.Connects = ratelimit.New()
		wsH.CanJoin = func(chatID, userID uint) bool {
			ch, err := repo.GetChat(context.Background(), d.DB, chatID)
			return err == nil && ch.Has(userID)
		}
		wsH.Typing = chatSvc.Typing
		r.GET("/ws", middleware.Identity(), wsH.Serve)
	}

	// The assistant answers navigation questions from the live route table.
	if d.Assistant != nil && d.Assistant.RouteMap == nil {
		d.Assistant.RouteMap = routeMapFunc(r)
	}
}

// routeMapFunc renders the registered routes as "METHOD path" lines for the
// assistant's system context. Internal plumbing endpoints are skipped.
func routeMapFunc(r *gin.Engine) func() string {
	return func() string {
		var b strings.Builder
		for _, rt := range r.Routes() {
			if rt.Path == "/metrics" || rt.Path == "/health" {
				continue
			}
			b.WriteString(rt.Method)
			b.WriteByte(' ')
			b.WriteString(rt.Path)
			b.WriteByte('\n')
		}
		return b.String()
	}
}

// corsFor builds the CORS policy: allow-all when no origins are configured,
// an explicit allowlist otherwise.
func corsFor(cfg config.Config) gin.HandlerFunc {
	allowHeaders := []string{
		"Origin", "Content-Type", "Accept", "Authorization",
		"X-User-ID", "X-Username", "X-Request-ID",
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		return cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		})
	}
	return cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     allowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// limitBody caps the request body size using http.MaxBytesReader; oversized
// bodies error on downstream reads.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
