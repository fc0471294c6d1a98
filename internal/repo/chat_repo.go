// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Chat model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a chat is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/devconnect/chat-service/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist. It aliases
// gorm.ErrRecordNotFound for consistency across the service layer.
var ErrNotFound = gorm.ErrRecordNotFound

// GetChat fetches a single chat by id, or ErrNotFound.
func GetChat(ctx context.Context, db *gorm.DB, id uint) (*domain.Chat, error) {
	var c domain.Chat
	if err := db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// FindChatBetween returns the chat pairing the two users in either participant
// order, or ErrNotFound when they have never talked.
func FindChatBetween(ctx context.Context, db *gorm.DB, a, b uint) (*domain.Chat, error) {
	var c domain.Chat
	err := db.WithContext(ctx).
		Where("(user1_id = ? AND user2_id = ?) OR (user1_id = ? AND user2_id = ?)", a, b, b, a).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateChat inserts a new chat between two users. LastMessageAt starts at
// creation time so empty chats sort by recency of creation.
func CreateChat(ctx context.Context, db *gorm.DB, a, b uint) (*domain.Chat, error) {
	now := time.Now().UTC()
	c := &domain.Chat{
		User1ID:       a,
		User2ID:       b,
		CreatedAt:     now,
		LastMessageAt: now,
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// ListChatsFor returns all chats userID participates in, most recently
// active first.
func ListChatsFor(ctx context.Context, db *gorm.DB, userID uint) ([]domain.Chat, error) {
	var out []domain.Chat
	err := db.WithContext(ctx).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("last_message_at desc").
		Find(&out).Error
	return out, err
}

// TouchLastMessage bumps the chat's last-activity timestamp. Returns
// ErrNotFound if no rows were affected.
func TouchLastMessage(ctx context.Context, db *gorm.DB, id uint, at time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("id = ?", id).
		Update("last_message_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
