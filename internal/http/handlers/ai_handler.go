// Assistant HTTP handlers.
//
// This file exposes REST endpoints for the site assistant:
//   - POST /ai/reply    (answer one user message)
//   - POST /ai/suggest  (proactively propose the next helpful step)
//   - POST /ai/reset    (clear the caller's conversation memory)
//   - GET  /ai/check    (provider diagnostics)
//
// Handlers are transport-thin: they resolve the caller's session from the
// authenticated identity, normalize input, and delegate to the assistant
// pipeline. The pipeline itself never fails past empty input; provider
// trouble degrades to fallback text, so these endpoints rarely return 5xx.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/devconnect/chat-service/internal/assistant"
	"github.com/devconnect/chat-service/internal/http/middleware"
)

// AssistantService is the assistant surface the handlers depend on.
type AssistantService interface {
	Respond(ctx context.Context, sessionID, content string) (string, error)
	Suggest(ctx context.Context, sessionID string) (string, error)
	Reset(sessionID string)
	Configured() bool
	ProviderName() string
	ModelName() string
	LastErrorStatus() int
}

// AIHandler bundles the assistant endpoints.
type AIHandler struct {
	Assistant AssistantService
}

// AIReplyRequest is the JSON payload for POST /ai/reply.
type AIReplyRequest struct {
	Message string `json:"message" binding:"required,min=1"`
}

// AIReplyResponse carries the assistant's text.
type AIReplyResponse struct {
	Response  string `json:"response"`
	Proactive bool   `json:"proactive,omitempty"`
}

// AICheckResponse is the diagnostics payload for GET /ai/check.
type AICheckResponse struct {
	Configured      bool   `json:"configured"`
	Provider        string `json:"provider,omitempty"`
	Model           string `json:"model,omitempty"`
	LastErrorStatus int    `json:"last_error_status,omitempty"`
	Code            string `json:"code,omitempty"`
}

// sessionFrom derives the assistant session ID from the authenticated user.
func sessionFrom(c *gin.Context) string {
	return strconv.FormatUint(uint64(middleware.UserID(c)), 10)
}

// Reply handles POST /ai/reply.
func (h *AIHandler) Reply(c *gin.Context) {
	var req AIReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeEmpty, "message is required")
		return
	}

	text, err := h.Assistant.Respond(c.Request.Context(), sessionFrom(c), req.Message)
	if err != nil {
		if errors.Is(err, assistant.ErrEmptyInput) {
			fail(c, http.StatusBadRequest, ErrCodeEmpty, "message is required")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to generate reply")
		return
	}
	ok(c, http.StatusOK, AIReplyResponse{Response: text})
}

// Suggest handles POST /ai/suggest.
func (h *AIHandler) Suggest(c *gin.Context) {
	text, err := h.Assistant.Suggest(c.Request.Context(), sessionFrom(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to generate suggestion")
		return
	}
	ok(c, http.StatusOK, AIReplyResponse{Response: text, Proactive: true})
}

// Reset handles POST /ai/reset.
func (h *AIHandler) Reset(c *gin.Context) {
	h.Assistant.Reset(sessionFrom(c))
	noContent(c)
}

// Check handles GET /ai/check. It reports whether a provider resolved and
// the status of the most recent provider failure; cfg_missing is surfaced
// here rather than on the reply path, which always degrades to fallbacks.
func (h *AIHandler) Check(c *gin.Context) {
	resp := AICheckResponse{
		Configured:      h.Assistant.Configured(),
		Provider:        h.Assistant.ProviderName(),
		Model:           h.Assistant.ModelName(),
		LastErrorStatus: h.Assistant.LastErrorStatus(),
	}
	if !resp.Configured {
		resp.Code = ErrCodeCfgMissing
	}
	ok(c, http.StatusOK, resp)
}
