package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/phrazzld/tasktalk-api/internal/domain"
	"github.com/phrazzld/tasktalk-api/internal/platform/logger"
	"github.com/phrazzld/tasktalk-api/internal/store"
)

const messageColumns = `id, conversation_id, owner_id, role, content, created_at`

// MessageStore implements store.MessageStore.
type MessageStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.MessageStore = (*MessageStore)(nil)

// NewMessageStore returns a MessageStore running queries on db.
func NewMessageStore(db store.DBTX, logger *slog.Logger) *MessageStore {
	if db == nil {
		panic("db cannot be nil")
	}
	return &MessageStore{db: db, logger: componentLogger(logger, "message_store")}
}

// Create implements store.MessageStore. A missing conversation surfaces as
// store.ErrConversationNotFound through the foreign key.
func (s *MessageStore) Create(ctx context.Context, msg *domain.Message) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := msg.Validate(); err != nil {
		return store.NewStoreError("message", "create", "invalid message", err)
	}

	query := `
		INSERT INTO messages (conversation_id, owner_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query,
		msg.ConversationID,
		msg.OwnerID,
		string(msg.Role),
		msg.Content,
		msg.CreatedAt,
	).Scan(&msg.ID)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("message references missing conversation",
				slog.Int64("conversation_id", msg.ConversationID))
			return store.ErrConversationNotFound
		}
		log.Error("failed to create message",
			slog.String("error", err.Error()),
			slog.Int64("conversation_id", msg.ConversationID))
		return store.NewStoreError("message", "create", "failed to insert message", MapError(err, nil))
	}
	return nil
}

// List implements store.MessageStore.
func (s *MessageStore) List(ctx context.Context, conversationID int64, offset, limit int) ([]*domain.Message, error) {
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + messageColumns + ` FROM messages WHERE conversation_id = $1 ORDER BY id ASC OFFSET $2`
	args := []any{conversationID, offset}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}
	return s.query(ctx, "list", query, args...)
}

// ListRecent implements store.MessageStore.
func (s *MessageStore) ListRecent(ctx context.Context, conversationID int64, limit int) ([]*domain.Message, error) {
	if limit <= 0 {
		return s.List(ctx, conversationID, 0, 0)
	}
	query := `
		SELECT ` + messageColumns + ` FROM (
			SELECT ` + messageColumns + ` FROM messages
			WHERE conversation_id = $1
			ORDER BY id DESC
			LIMIT $2
		) recent
		ORDER BY id ASC
	`
	return s.query(ctx, "list_recent", query, conversationID, limit)
}

// WithTx implements store.MessageStore.
func (s *MessageStore) WithTx(tx *sql.Tx) store.MessageStore {
	return &MessageStore{db: tx, logger: s.logger}
}

func (s *MessageStore) query(ctx context.Context, op, query string, args ...any) ([]*domain.Message, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to query messages",
			slog.String("error", err.Error()),
			slog.String("operation", op))
		return nil, store.NewStoreError("message", op, "failed to query messages", MapError(err, nil))
	}
	defer func() { _ = rows.Close() }()

	out := make([]*domain.Message, 0)
	for rows.Next() {
		var (
			msg  domain.Message
			role string
		)
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.OwnerID, &role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, store.NewStoreError("message", op, "failed to scan message", err)
		}
		msg.Role = domain.Role(role)
		msg.CreatedAt = msg.CreatedAt.UTC()
		out = append(out, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("message", op, "failed to iterate messages", err)
	}
	return out, nil
}
