package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/phrazzld/tasktalk-api/internal/domain"
	"github.com/phrazzld/tasktalk-api/internal/platform/logger"
	"github.com/phrazzld/tasktalk-api/internal/store"
)

// ConversationStore implements store.ConversationStore.
type ConversationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.ConversationStore = (*ConversationStore)(nil)

// NewConversationStore returns a ConversationStore running queries on db.
func NewConversationStore(db store.DBTX, logger *slog.Logger) *ConversationStore {
	if db == nil {
		panic("db cannot be nil")
	}
	return &ConversationStore{db: db, logger: componentLogger(logger, "conversation_store")}
}

// Create implements store.ConversationStore.
func (s *ConversationStore) Create(ctx context.Context, conv *domain.Conversation) error {
	if conv.OwnerID <= 0 {
		return store.NewStoreError("conversation", "create", "invalid conversation",
			domain.NewValidationError("owner_id", "must be positive", domain.ErrInvalidID))
	}

	query := `
		INSERT INTO conversations (owner_id, created_at, updated_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query, conv.OwnerID, conv.CreatedAt, conv.UpdatedAt).Scan(&conv.ID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create conversation",
			slog.String("error", err.Error()),
			slog.Int64("owner_id", conv.OwnerID))
		return store.NewStoreError("conversation", "create", "failed to insert conversation", MapError(err, nil))
	}
	return nil
}

// GetByID implements store.ConversationStore.
func (s *ConversationStore) GetByID(ctx context.Context, id int64) (*domain.Conversation, error) {
	query := `SELECT id, owner_id, created_at, updated_at FROM conversations WHERE id = $1`

	var conv domain.Conversation
	err := s.db.QueryRowContext(ctx, query, id).Scan(&conv.ID, &conv.OwnerID, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		mapped := MapError(err, store.ErrConversationNotFound)
		if mapped == store.ErrConversationNotFound {
			return nil, mapped
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get conversation",
			slog.String("error", err.Error()),
			slog.Int64("conversation_id", id))
		return nil, store.NewStoreError("conversation", "get", "failed to query conversation", mapped)
	}
	conv.CreatedAt = conv.CreatedAt.UTC()
	conv.UpdatedAt = conv.UpdatedAt.UTC()
	return &conv, nil
}

// ListSummaries implements store.ConversationStore.
func (s *ConversationStore) ListSummaries(ctx context.Context, ownerID int64) ([]domain.ConversationSummary, error) {
	query := `
		SELECT c.id, c.created_at, c.updated_at,
			(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id) AS message_count,
			(SELECT m.content FROM messages m WHERE m.conversation_id = c.id ORDER BY m.id DESC LIMIT 1) AS last_content
		FROM conversations c
		WHERE c.owner_id = $1
		ORDER BY c.updated_at DESC, c.id DESC
	`
	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list conversations",
			slog.String("error", err.Error()),
			slog.Int64("owner_id", ownerID))
		return nil, store.NewStoreError("conversation", "list", "failed to query conversations", MapError(err, nil))
	}
	defer func() { _ = rows.Close() }()

	out := make([]domain.ConversationSummary, 0)
	for rows.Next() {
		var (
			sum  domain.ConversationSummary
			last sql.NullString
		)
		if err := rows.Scan(&sum.ID, &sum.CreatedAt, &sum.UpdatedAt, &sum.MessageCount, &last); err != nil {
			return nil, store.NewStoreError("conversation", "list", "failed to scan conversation", err)
		}
		sum.CreatedAt = sum.CreatedAt.UTC()
		sum.UpdatedAt = sum.UpdatedAt.UTC()
		sum.Preview = domain.EmptyPreview
		if last.Valid {
			sum.Preview = domain.MakePreview(last.String)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("conversation", "list", "failed to iterate conversations", err)
	}
	return out, nil
}

// Touch implements store.ConversationStore.
func (s *ConversationStore) Touch(ctx context.Context, id int64, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `UPDATE conversations SET updated_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to touch conversation",
			slog.String("error", err.Error()),
			slog.Int64("conversation_id", id))
		return store.NewStoreError("conversation", "touch", "failed to update conversation", MapError(err, nil))
	}
	return CheckRowsAffected(result, store.ErrConversationNotFound)
}

// Delete implements store.ConversationStore. Messages go with the
// conversation through ON DELETE CASCADE.
func (s *ConversationStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete conversation",
			slog.String("error", err.Error()),
			slog.Int64("conversation_id", id))
		return store.NewStoreError("conversation", "delete", "failed to delete conversation", MapError(err, nil))
	}
	return CheckRowsAffected(result, store.ErrConversationNotFound)
}

// WithTx implements store.ConversationStore.
func (s *ConversationStore) WithTx(tx *sql.Tx) store.ConversationStore {
	return &ConversationStore{db: tx, logger: s.logger}
}
