// Package domain defines the persistence models for users, chats and
// messages. These types are mapped with GORM and form the core data layer of
// the messaging service. User rows are owned by the external auth/profile
// collaborator; this service only reads identity fields and creates the
// designated assistant account.
package domain

import "time"

// AssistantUsername is the reserved username of the synthetic assistant
// participant. Chats pairing a human with this user receive automatic replies.
const AssistantUsername = "DevBot"

// User is the minimal identity slice of the platform user this service needs:
// a stable numeric id and a unique username. Profile fields live elsewhere.
type User struct {
	ID        uint      `json:"id"       gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"type:varchar(80);uniqueIndex;not null"`
	Bio       string    `json:"bio,omitempty" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// IsAssistant reports whether this user is the synthetic assistant account.
func (u *User) IsAssistant() bool { return u.Username == AssistantUsername }

// Chat is a two-party conversation. Participant order carries no meaning.
//
// Fields:
//   - ID: autoincrement primary key.
//   - User1ID / User2ID: the two participants; indexed for lookup by member.
//   - LastMessageAt: touched on every persisted message, drives chat-list
//     ordering.
type Chat struct {
	ID            uint      `json:"id"       gorm:"primaryKey"`
	User1ID       uint      `json:"user1_id" gorm:"not null;index:idx_chat_members,priority:1"`
	User2ID       uint      `json:"user2_id" gorm:"not null;index:idx_chat_members,priority:2"`
	CreatedAt     time.Time `json:"created_at"`
	LastMessageAt time.Time `json:"last_message_at"`
}

// TableName returns the database table name for Chat.
func (Chat) TableName() string { return "chats" }

// Has reports whether userID participates in the chat.
func (c *Chat) Has(userID uint) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// Other returns the participant that is not userID. For a chat the user is
// not part of it returns User2ID; callers should check Has first.
func (c *Chat) Other(userID uint) uint {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}

// Message is a single persisted chat utterance.
//
// Invariants: Content and SenderID never change after creation; IsRead flips
// false→true exactly once, when the counterparty fetches the chat; CreatedAt
// is assigned on insert and never updated.
type Message struct {
	ID        uint      `json:"id"        gorm:"primaryKey"`
	ChatID    uint      `json:"chat_id"   gorm:"not null;index:idx_chat_msgs,priority:1"`
	SenderID  uint      `json:"sender_id" gorm:"not null;index"`
	Content   string    `json:"content"   gorm:"type:text;not null"`
	IsRead    bool      `json:"is_read"   gorm:"not null;default:false"`
	CreatedAt time.Time `json:"timestamp" gorm:"index:idx_chat_msgs,priority:2"`

	// Chat is the parent conversation. Messages are cascade-deleted if their
	// chat is removed.
	Chat Chat `json:"-" gorm:"foreignKey:ChatID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }
