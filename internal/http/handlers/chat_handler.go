// Chat HTTP handlers.
//
// This file exposes REST endpoints for conversations:
//   - GET  /chats            (list the caller's chats, most recent first)
//   - POST /chats            (open or return the chat with another user)
//   - POST /chats/assistant  (open or return the caller's assistant chat)
//
// Handlers are transport-thin: validate inputs, delegate to chat.Service,
// map service errors to envelopes.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devconnect/chat-service/internal/chat"
	"github.com/devconnect/chat-service/internal/domain"
	"github.com/devconnect/chat-service/internal/http/middleware"
)

// ChatService is the conversation surface the handlers depend on.
type ChatService interface {
	SendMessage(ctx context.Context, chatID, senderID uint, content string) (*domain.Message, *domain.Message, error)
	ListMessages(ctx context.Context, chatID, userID uint, limit int) ([]domain.Message, error)
	StartChat(ctx context.Context, userID, otherID uint) (*domain.Chat, error)
	AssistantChat(ctx context.Context, userID uint) (*domain.Chat, error)
	ListChats(ctx context.Context, userID uint) ([]chat.ChatSummary, error)
}

// ChatHandler bundles the chat-list endpoints.
type ChatHandler struct {
	Chats ChatService
}

// StartChatRequest is the JSON payload for POST /chats.
type StartChatRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// ListChatsResponse wraps the caller's chat list.
type ListChatsResponse struct {
	Chats []chat.ChatSummary `json:"chats"`
}

// List handles GET /chats.
func (h *ChatHandler) List(c *gin.Context) {
	sums, err := h.Chats.ListChats(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to list chats")
		return
	}
	ok(c, http.StatusOK, ListChatsResponse{Chats: sums})
}

// Start handles POST /chats.
func (h *ChatHandler) Start(c *gin.Context) {
	var req StartChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user_id is required")
		return
	}

	ch, err := h.Chats.StartChat(c.Request.Context(), middleware.UserID(c), req.UserID)
	switch {
	case err == nil:
		ok(c, http.StatusOK, ch)
	case errors.Is(err, chat.ErrSelfChat):
		fail(c, http.StatusBadRequest, ErrCodeSelfChat, "cannot open a chat with yourself")
	case errors.Is(err, chat.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to open chat")
	}
}

// StartAssistant handles POST /chats/assistant.
func (h *ChatHandler) StartAssistant(c *gin.Context) {
	ch, err := h.Chats.AssistantChat(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to open assistant chat")
		return
	}
	ok(c, http.StatusOK, ch)
}
