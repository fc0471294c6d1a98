// Message HTTP handlers.
//
// This file exposes REST endpoints for chat messages:
//   - POST /messages            (send a message; assistant chats auto-reply)
//   - GET  /chats/{id}/messages (chronological history; marks unread as read)
//
// Content is normalized before it reaches the service layer: line endings
// are unified, runs of blank lines collapsed, surrounding whitespace
// trimmed.
package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/devconnect/chat-service/internal/chat"
	"github.com/devconnect/chat-service/internal/domain"
	"github.com/devconnect/chat-service/internal/http/middleware"
	"github.com/devconnect/chat-service/internal/utils"
)

// maxContentRunes bounds a single message body.
const maxContentRunes = 4000

// MessageHandler bundles the message endpoints.
type MessageHandler struct {
	Chats ChatService
}

// PostMessageRequest is the JSON payload for sending a message.
type PostMessageRequest struct {
	ChatID  uint   `json:"chat_id" binding:"required"`
	Content string `json:"content" binding:"required,min=1"`
}

// PostMessageResponse carries the persisted message and, for assistant
// chats, the automatic reply.
type PostMessageResponse struct {
	Message *domain.Message `json:"message"`
	Reply   *domain.Message `json:"reply,omitempty"`
}

// ListMessagesResponse contains a chat's messages in chronological order.
type ListMessagesResponse struct {
	Messages []domain.Message `json:"messages"`
}

// nlCollapseRE collapses runs of 3+ newlines to two, preserving paragraphs.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

func sanitizeContent(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// Post handles POST /messages.
func (h *MessageHandler) Post(c *gin.Context) {
	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "chat_id and content are required")
		return
	}

	content := sanitizeContent(req.Content)
	if content == "" {
		fail(c, http.StatusBadRequest, ErrCodeEmpty, "message content is empty")
		return
	}
	if utf8.RuneCountInString(content) > maxContentRunes {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message content too long")
		return
	}

	msg, reply, err := h.Chats.SendMessage(c.Request.Context(), req.ChatID, middleware.UserID(c), content)
	switch {
	case err == nil:
		ok(c, http.StatusCreated, PostMessageResponse{Message: msg, Reply: reply})
	case errors.Is(err, chat.ErrEmptyContent):
		fail(c, http.StatusBadRequest, ErrCodeEmpty, "message content is empty")
	case errors.Is(err, chat.ErrChatNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "chat not found")
	case errors.Is(err, chat.ErrForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "not a participant of this chat")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to send message")
	}
}

// List handles GET /chats/{id}/messages. Fetching marks the counterpart's
// unread messages as read and emits one read receipt to the room.
func (h *MessageHandler) List(c *gin.Context) {
	chatID := utils.AtoiDefault(c.Param("id"), 0)
	if chatID <= 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid chat id")
		return
	}

	const (
		defaultLimit = 100
		maxLimit     = 500
	)
	limit := utils.AtoiDefault(c.Query("limit"), defaultLimit)
	if limit < 1 {
		limit = 1
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	msgs, err := h.Chats.ListMessages(c.Request.Context(), uint(chatID), middleware.UserID(c), limit)
	switch {
	case err == nil:
		if msgs == nil {
			msgs = []domain.Message{}
		}
		ok(c, http.StatusOK, ListMessagesResponse{Messages: msgs})
	case errors.Is(err, chat.ErrChatNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "chat not found")
	case errors.Is(err, chat.ErrForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "not a participant of this chat")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to list messages")
	}
}
