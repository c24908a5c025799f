package domain

import "time"

// Conversation is a chat thread owned by exactly one principal.
type Conversation struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewConversation returns an unsaved conversation for ownerID.
// The store assigns the ID.
func NewConversation(ownerID int64) (*Conversation, error) {
	if ownerID <= 0 {
		return nil, NewValidationError("owner_id", "must be positive", ErrInvalidID)
	}
	now := time.Now().UTC()
	return &Conversation{
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// OwnedBy reports whether ownerID owns the conversation.
func (c *Conversation) OwnedBy(ownerID int64) bool {
	return c != nil && c.OwnerID == ownerID
}

// ConversationSummary is the listing view of a conversation.
type ConversationSummary struct {
	ID           int64     `json:"id"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Preview      string    `json:"preview"`
}

// PreviewLength is the number of characters of the latest message shown in a summary.
const PreviewLength = 50

// EmptyPreview is shown for conversations without messages.
const EmptyPreview = "No messages"

// MakePreview truncates content to PreviewLength runes.
func MakePreview(content string) string {
	if content == "" {
		return EmptyPreview
	}
	runes := []rune(content)
	if len(runes) <= PreviewLength {
		return content
	}
	return string(runes[:PreviewLength])
}
