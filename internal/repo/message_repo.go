// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message model.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/devconnect/chat-service/internal/domain"
)

// CreateMessage inserts a new message row. CreatedAt is set once, in UTC.
func CreateMessage(db *gorm.DB, chatID, senderID uint, content string) (*domain.Message, error) {
	m := &domain.Message{
		ChatID:    chatID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	return m, db.Create(m).Error
}

// ListMessages returns a chat's messages in chronological order
// (CreatedAt ASC, ID ASC). A positive limit keeps the most recent rows, so
// a capped fetch always includes the newest messages. A limit <= 0 means no
// limit.
func ListMessages(ctx context.Context, db *gorm.DB, chatID uint, limit int) ([]domain.Message, error) {
	var out []domain.Message
	q := db.WithContext(ctx).
		Where("chat_id = ?", chatID)
	if limit > 0 {
		// Newest rows first, then restore chronological order in memory.
		err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error
		if err != nil {
			return nil, err
		}
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
		return out, nil
	}
	err := q.Order("created_at ASC, id ASC").Find(&out).Error
	return out, err
}

// LastMessage returns the newest message of a chat, or ErrNotFound for an
// empty chat.
func LastMessage(ctx context.Context, db *gorm.DB, chatID uint) (*domain.Message, error) {
	var m domain.Message
	err := db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at DESC, id DESC").
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// MarkRead flips is_read on the given messages. The transition is monotonic:
// rows already read are matched out by the WHERE clause, so re-marking is a
// no-op.
func MarkRead(ctx context.Context, db *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id IN ? AND is_read = ?", ids, false).
		Update("is_read", true).Error
}

// CountUnread returns how many messages in the chat are unread and not
// authored by userID.
func CountUnread(ctx context.Context, db *gorm.DB, chatID, userID uint) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("chat_id = ? AND sender_id <> ? AND is_read = ?", chatID, userID, false).
		Count(&total).Error
	return total, err
}
