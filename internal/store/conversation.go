package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/phrazzld/tasktalk-api/internal/domain"
)

// ConversationStore defines the interface for conversation persistence.
type ConversationStore interface {
	// Create inserts the conversation and sets its ID.
	Create(ctx context.Context, conv *domain.Conversation) error

	// GetByID retrieves a conversation by its ID.
	// Returns ErrConversationNotFound if it does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Conversation, error)

	// ListSummaries returns the owner's conversations, most recently updated first.
	ListSummaries(ctx context.Context, ownerID int64) ([]domain.ConversationSummary, error)

	// Touch sets updated_at.
	Touch(ctx context.Context, id int64, at time.Time) error

	// Delete removes the conversation together with its messages.
	// Returns ErrConversationNotFound if it does not exist.
	Delete(ctx context.Context, id int64) error

	// WithTx returns a ConversationStore bound to tx.
	WithTx(tx *sql.Tx) ConversationStore
}

// MessageStore defines the interface for message persistence.
// Messages are append-only.
type MessageStore interface {
	// Create inserts the message and sets its ID.
	Create(ctx context.Context, msg *domain.Message) error

	// List returns a page of messages ordered by creation time ascending.
	// A limit <= 0 returns every message from offset on.
	List(ctx context.Context, conversationID int64, offset, limit int) ([]*domain.Message, error)

	// ListRecent returns the last limit messages, still in ascending order.
	ListRecent(ctx context.Context, conversationID int64, limit int) ([]*domain.Message, error)

	// WithTx returns a MessageStore bound to tx.
	WithTx(tx *sql.Tx) MessageStore
}

// Store groups every persistence capability the application needs.
type Store interface {
	Tasks() TaskStore
	Conversations() ConversationStore
	Messages() MessageStore
}
