package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type identifies what happened to a conversation.
type Type string

// Conversation event types.
const (
	ConversationCreated Type = "conversation.created"
	MessageAppended     Type = "conversation.message_appended"
	ConversationDeleted Type = "conversation.deleted"
)

// ConversationEvent records a change to one of an owner's conversations.
type ConversationEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	Type           Type  `json:"type"`
	OwnerID        int64 `json:"owner_id"`
	ConversationID int64 `json:"conversation_id"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewConversationEvent creates a ConversationEvent stamped with the current time.
func NewConversationEvent(t Type, ownerID, conversationID int64) *ConversationEvent {
	return &ConversationEvent{
		ID:             uuid.New(),
		Type:           t,
		OwnerID:        ownerID,
		ConversationID: conversationID,
		CreatedAt:      time.Now().UTC(),
	}
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *ConversationEvent) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *ConversationEvent) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *ConversationEvent) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *ConversationEvent) error
}
