// Package chat defines the business logic for realtime conversations:
// message persistence, read receipts, assistant auto-replies, and room
// broadcasts. This file centralizes service-level error values so they can
// be consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package chat

import "errors"

var (
	// ErrEmptyContent is returned when a message body is blank after
	// trimming whitespace.
	ErrEmptyContent = errors.New("message content is empty")

	// ErrChatNotFound indicates that the requested chat does not exist or
	// the current user is not a participant.
	ErrChatNotFound = errors.New("chat not found")

	// ErrForbidden is returned when a user attempts to act on a chat they
	// do not belong to.
	ErrForbidden = errors.New("not a participant of this chat")

	// ErrSelfChat is returned when a user tries to open a chat with
	// themselves.
	ErrSelfChat = errors.New("cannot open a chat with yourself")

	// ErrUserNotFound indicates the chat counterpart does not exist.
	ErrUserNotFound = errors.New("user not found")
)
