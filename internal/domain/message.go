package domain

import (
	"time"
	"unicode/utf8"
)

// Role identifies the author of a message.
type Role string

// Message roles stored in conversation history.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MaxMessageLength is the maximum message length in characters.
const MaxMessageLength = 4000

// Message is an immutable entry in a conversation's history.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	OwnerID        int64     `json:"owner_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewMessage creates an unsaved message and validates it.
func NewMessage(conversationID, ownerID int64, role Role, content string) (*Message, error) {
	msg := &Message{
		ConversationID: conversationID,
		OwnerID:        ownerID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return msg, nil
}

// Validate checks the message fields.
func (m *Message) Validate() error {
	if m.ConversationID <= 0 {
		return NewValidationError("conversation_id", "must be positive", ErrInvalidID)
	}
	if m.OwnerID <= 0 {
		return NewValidationError("owner_id", "must be positive", ErrInvalidID)
	}
	if !m.Role.Valid() {
		return NewValidationError("role", "must be user or assistant", ErrInvalidRole)
	}
	return ValidateContent(m.Content)
}

// Valid reports whether r is a storable role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// ValidateContent enforces the 1..MaxMessageLength character bound.
func ValidateContent(content string) error {
	if content == "" {
		return NewValidationError("content", "is required", ErrEmptyContent)
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return NewValidationError("content", "is too long", ErrContentTooLong)
	}
	return nil
}
