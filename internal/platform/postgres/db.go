package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/phrazzld/tasktalk-api/internal/store"
)

// Open connects to url with the pgx driver, sizes the pool and pings.
func Open(ctx context.Context, url string, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established")
	return db, nil
}

// schema is applied by EnsureSchema. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
		id          BIGSERIAL PRIMARY KEY,
		owner_id    BIGINT      NOT NULL CHECK (owner_id > 0),
		title       TEXT        NOT NULL CHECK (length(title) > 0),
		description TEXT,
		completed   BOOLEAN     NOT NULL DEFAULT FALSE,
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_owner ON tasks (owner_id, id)`,
	`CREATE TABLE IF NOT EXISTS conversations (
		id         BIGSERIAL PRIMARY KEY,
		owner_id   BIGINT      NOT NULL CHECK (owner_id > 0),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_conversations_owner ON conversations (owner_id, updated_at DESC)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id              BIGSERIAL PRIMARY KEY,
		conversation_id BIGINT      NOT NULL REFERENCES conversations (id) ON DELETE CASCADE,
		owner_id        BIGINT      NOT NULL CHECK (owner_id > 0),
		role            TEXT        NOT NULL CHECK (role IN ('user', 'assistant')),
		content         TEXT        NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages (conversation_id, id)`,
}

// EnsureSchema creates missing tables and indexes in one transaction.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	return store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply schema: %w", err)
			}
		}
		return nil
	})
}

// Store implements store.Store on PostgreSQL.
type Store struct {
	tasks         *TaskStore
	conversations *ConversationStore
	messages      *MessageStore
}

var _ store.Store = (*Store)(nil)

// New returns a Store whose queries run on db.
func New(db store.DBTX, logger *slog.Logger) *Store {
	return &Store{
		tasks:         NewTaskStore(db, logger),
		conversations: NewConversationStore(db, logger),
		messages:      NewMessageStore(db, logger),
	}
}

// Tasks implements store.Store.
func (s *Store) Tasks() store.TaskStore { return s.tasks }

// Conversations implements store.Store.
func (s *Store) Conversations() store.ConversationStore { return s.conversations }

// Messages implements store.Store.
func (s *Store) Messages() store.MessageStore { return s.messages }

func componentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("component", component))
}
