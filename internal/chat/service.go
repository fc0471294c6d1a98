// Package chat – Service
//
// This file implements Service, the application-level component that owns the
// lifecycle of realtime conversations. It validates inputs, checks chat
// membership, persists messages, generates the assistant's automatic replies,
// maintains read receipts, and fans events out to the chat room.
//
// Broadcasts are best-effort: a subscriber that is not connected simply
// misses the event and catches up from the database on the next fetch.
//
// Observability: public methods are OpenTelemetry-instrumented; spans include
// chat/user identifiers where applicable.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/devconnect/chat-service/internal/domain"
	"github.com/devconnect/chat-service/internal/repo"
)

// Events published to chat rooms.
const (
	EventMessageNew  = "message:new"
	EventMessageRead = "message:read"
	EventTyping      = "typing"
)

// Broadcaster fans an event out to every subscriber of a room.
type Broadcaster interface {
	Publish(room, event string, data any)
}

// ReplyFunc produces the assistant's automatic reply for a user message.
// It must be cheap and synchronous; the messaging path blocks on it.
type ReplyFunc func(text string) string

// Service coordinates message persistence, assistant auto-replies, and room
// broadcasts.
type Service struct {
	DB  *gorm.DB
	Hub Broadcaster // may be nil; broadcasts are then skipped

	// AssistantID identifies the built-in assistant account. Messages sent
	// to it trigger an automatic reply.
	AssistantID uint

	// Reply generates the assistant's reply text. Required when
	// AssistantID is set.
	Reply ReplyFunc
}

// RoomName returns the pub/sub room for a chat.
func RoomName(chatID uint) string {
	return fmt.Sprintf("chat_%d", chatID)
}

// ReadReceipt is the payload of an EventMessageRead broadcast.
type ReadReceipt struct {
	ChatID     uint   `json:"chat_id"`
	ReaderID   uint   `json:"reader_id"`
	MessageIDs []uint `json:"message_ids"`
}

// ChatSummary is one row of a user's chat list.
type ChatSummary struct {
	Chat        domain.Chat     `json:"chat"`
	LastMessage *domain.Message `json:"last_message,omitempty"`
	Unread      int64           `json:"unread"`
}

// SendMessage persists a message in a chat the sender belongs to, broadcasts
// it, and, when the counterpart is the assistant, generates and broadcasts an
// automatic reply. The human message is always published before the reply.
func (s *Service) SendMessage(ctx context.Context, chatID, senderID uint, content string) (*domain.Message, *domain.Message, error) {
	tr := otel.Tracer("chat/Service")
	ctx, span := tr.Start(ctx, "SendMessage",
		trace.WithAttributes(
			attribute.Int64("chat.id", int64(chatID)),
			attribute.Int64("user.id", int64(senderID)),
		),
	)
	defer span.End()

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil, ErrEmptyContent
	}

	ch, err := repo.GetChat(ctx, s.DB, chatID)
	if err != nil {
		return nil, nil, ErrChatNotFound
	}
	if !ch.Has(senderID) {
		return nil, nil, ErrForbidden
	}

	msg, err := repo.CreateMessage(s.DB.WithContext(ctx), chatID, senderID, content)
	if err != nil {
		return nil, nil, err
	}
	if err := repo.TouchLastMessage(ctx, s.DB, chatID, msg.CreatedAt); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, nil, err
	}
	s.publish(chatID, EventMessageNew, msg)

	var reply *domain.Message
	if s.AssistantID != 0 && ch.Other(senderID) == s.AssistantID && s.Reply != nil {
		text := strings.TrimSpace(s.Reply(content))
		if text != "" {
			reply, err = repo.CreateMessage(s.DB.WithContext(ctx), chatID, s.AssistantID, text)
			if err != nil {
				return msg, nil, err
			}
			if err := repo.TouchLastMessage(ctx, s.DB, chatID, reply.CreatedAt); err != nil && !errors.Is(err, repo.ErrNotFound) {
				return msg, reply, err
			}
			s.publish(chatID, EventMessageNew, reply)
		}
	}
	return msg, reply, nil
}

// ListMessages returns a chat's messages in chronological order and marks the
// counterpart's unread messages as read, emitting a single read receipt for
// the whole batch. The returned slice reflects the new read state.
func (s *Service) ListMessages(ctx context.Context, chatID, userID uint, limit int) ([]domain.Message, error) {
	tr := otel.Tracer("chat/Service")
	ctx, span := tr.Start(ctx, "ListMessages",
		trace.WithAttributes(
			attribute.Int64("chat.id", int64(chatID)),
			attribute.Int64("user.id", int64(userID)),
		),
	)
	defer span.End()

	ch, err := repo.GetChat(ctx, s.DB, chatID)
	if err != nil {
		return nil, ErrChatNotFound
	}
	if !ch.Has(userID) {
		return nil, ErrForbidden
	}

	msgs, err := repo.ListMessages(ctx, s.DB, chatID, limit)
	if err != nil {
		return nil, err
	}

	var unread []uint
	for i := range msgs {
		if msgs[i].SenderID != userID && !msgs[i].IsRead {
			unread = append(unread, msgs[i].ID)
		}
	}
	if len(unread) > 0 {
		if err := repo.MarkRead(ctx, s.DB, unread); err != nil {
			return nil, err
		}
		for i := range msgs {
			if msgs[i].SenderID != userID {
				msgs[i].IsRead = true
			}
		}
		s.publish(chatID, EventMessageRead, ReadReceipt{
			ChatID:     chatID,
			ReaderID:   userID,
			MessageIDs: unread,
		})
	}
	return msgs, nil
}

// StartChat returns the existing chat between two users, creating it on first
// contact.
func (s *Service) StartChat(ctx context.Context, userID, otherID uint) (*domain.Chat, error) {
	tr := otel.Tracer("chat/Service")
	ctx, span := tr.Start(ctx, "StartChat",
		trace.WithAttributes(
			attribute.Int64("user.id", int64(userID)),
			attribute.Int64("other.id", int64(otherID)),
		),
	)
	defer span.End()

	if userID == otherID {
		return nil, ErrSelfChat
	}
	if _, err := repo.GetUser(ctx, s.DB, otherID); err != nil {
		return nil, ErrUserNotFound
	}

	ch, err := repo.FindChatBetween(ctx, s.DB, userID, otherID)
	switch {
	case err == nil:
		return ch, nil
	case errors.Is(err, repo.ErrNotFound):
		return repo.CreateChat(ctx, s.DB, userID, otherID)
	default:
		return nil, err
	}
}

// AssistantChat returns the user's dedicated assistant chat, bootstrapping it
// on first use so every user always has the assistant in their chat list.
func (s *Service) AssistantChat(ctx context.Context, userID uint) (*domain.Chat, error) {
	if s.AssistantID == 0 {
		return nil, ErrUserNotFound
	}
	return s.StartChat(ctx, userID, s.AssistantID)
}

// ListChats returns the user's chats, most recently active first, with the
// last message and unread count for each.
func (s *Service) ListChats(ctx context.Context, userID uint) ([]ChatSummary, error) {
	tr := otel.Tracer("chat/Service")
	ctx, span := tr.Start(ctx, "ListChats",
		trace.WithAttributes(attribute.Int64("user.id", int64(userID))),
	)
	defer span.End()

	chats, err := repo.ListChatsFor(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}

	out := make([]ChatSummary, 0, len(chats))
	for i := range chats {
		sum := ChatSummary{Chat: chats[i]}
		if last, err := repo.LastMessage(ctx, s.DB, chats[i].ID); err == nil {
			sum.LastMessage = last
		} else if !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
		n, err := repo.CountUnread(ctx, s.DB, chats[i].ID, userID)
		if err != nil {
			return nil, err
		}
		sum.Unread = n
		out = append(out, sum)
	}
	return out, nil
}

// Typing relays a typing indicator to the chat room, including back to the
// sender. The username travels with the event so clients can render the
// indicator without a user lookup. No state is persisted.
func (s *Service) Typing(chatID, userID uint, username string, typing bool) {
	s.publish(chatID, EventTyping, map[string]any{
		"chat_id":   chatID,
		"user_id":   userID,
		"username":  username,
		"typing":    typing,
		"timestamp": time.Now().UTC(),
	})
}

func (s *Service) publish(chatID uint, event string, data any) {
	if s.Hub == nil {
		return
	}
	s.Hub.Publish(RoomName(chatID), event, data)
}
