// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// Users are created and managed by the external auth collaborator; the only
// write this service performs is bootstrapping the assistant account.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/devconnect/chat-service/internal/domain"
)

// GetUser fetches a user by id, or ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByUsername fetches a user by its unique username, or ErrNotFound.
func GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// EnsureAssistantUser returns the assistant account, creating it on first run.
func EnsureAssistantUser(ctx context.Context, db *gorm.DB) (*domain.User, error) {
	u, err := GetUserByUsername(ctx, db, domain.AssistantUsername)
	if err == nil {
		return u, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	u = &domain.User{
		Username:  domain.AssistantUsername,
		Bio:       "Assistant for IT, freelance and DevConnect questions",
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}
