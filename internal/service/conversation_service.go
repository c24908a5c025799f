package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/tasktalk-api/internal/domain"
	"github.com/phrazzld/tasktalk-api/internal/events"
	"github.com/phrazzld/tasktalk-api/internal/store"
)

// ConversationService builds and maintains per-conversation message history.
type ConversationService struct {
	conversations store.ConversationStore
	messages      store.MessageStore
	emitter       events.EventEmitter
	db            *sql.DB
	now           func() time.Time
	logger        *slog.Logger
}

// ConversationOption configures a ConversationService.
type ConversationOption func(*ConversationService)

// WithDB runs multi-step writes in a transaction on db.
func WithDB(db *sql.DB) ConversationOption {
	return func(s *ConversationService) { s.db = db }
}

// WithClock replaces time.Now for message and conversation timestamps.
func WithClock(now func() time.Time) ConversationOption {
	return func(s *ConversationService) { s.now = now }
}

// NewConversationService creates a ConversationService.
// It returns an error if any of the required dependencies are nil.
func NewConversationService(
	st store.Store,
	emitter events.EventEmitter,
	logger *slog.Logger,
	opts ...ConversationOption,
) (*ConversationService, error) {
	if st == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "store cannot be nil"}
	}
	if emitter == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "emitter cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &ConversationService{
		conversations: st.Conversations(),
		messages:      st.Messages(),
		emitter:       emitter,
		now:           time.Now,
		logger:        logger.With("component", "conversation_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Resolve returns the owner's conversation, creating one when conversationID
// is zero. A supplied id that is missing or owned by someone else yields
// ErrConversationNotFound. created reports whether a new conversation was made.
func (s *ConversationService) Resolve(
	ctx context.Context,
	ownerID, conversationID int64,
) (conv *domain.Conversation, created bool, err error) {
	if conversationID != 0 {
		conv, err = s.Get(ctx, ownerID, conversationID)
		return conv, false, err
	}

	conv, err = domain.NewConversation(ownerID)
	if err != nil {
		return nil, false, err
	}
	now := s.now().UTC()
	conv.CreatedAt, conv.UpdatedAt = now, now
	if err := s.conversations.Create(ctx, conv); err != nil {
		s.logger.ErrorContext(ctx, "failed to create conversation",
			"error", err,
			"owner_id", ownerID)
		return nil, false, NewServiceError("resolve", "failed to create conversation", err)
	}

	s.logger.DebugContext(ctx, "conversation created",
		"conversation_id", conv.ID,
		"owner_id", ownerID)
	s.emit(ctx, events.ConversationCreated, ownerID, conv.ID)
	return conv, true, nil
}

// Get returns the conversation if ownerID owns it.
func (s *ConversationService) Get(ctx context.Context, ownerID, conversationID int64) (*domain.Conversation, error) {
	if conversationID <= 0 {
		return nil, ErrConversationNotFound
	}
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, NewServiceError("get", "failed to load conversation", err)
	}
	if !conv.OwnedBy(ownerID) {
		s.logger.WarnContext(ctx, "conversation access by non-owner",
			"conversation_id", conversationID,
			"owner_id", ownerID)
		return nil, ErrConversationNotFound
	}
	return conv, nil
}

// History returns a page of messages in ascending creation order.
// A limit <= 0 returns everything from offset on.
func (s *ConversationService) History(ctx context.Context, conversationID int64, limit, offset int) ([]*domain.Message, error) {
	if offset < 0 {
		return nil, domain.NewValidationError("offset", "must not be negative", nil)
	}
	msgs, err := s.messages.List(ctx, conversationID, offset, limit)
	if err != nil {
		return nil, NewServiceError("history", "failed to list messages", err)
	}
	return msgs, nil
}

// Recent returns the last n messages in ascending creation order.
func (s *ConversationService) Recent(ctx context.Context, conversationID int64, n int) ([]*domain.Message, error) {
	msgs, err := s.messages.ListRecent(ctx, conversationID, n)
	if err != nil {
		return nil, NewServiceError("recent", "failed to list recent messages", err)
	}
	return msgs, nil
}

// Append stores a message and bumps the conversation's updated_at. It is the
// only way messages are written.
func (s *ConversationService) Append(
	ctx context.Context,
	conversationID, ownerID int64,
	role domain.Role,
	content string,
) (*domain.Message, error) {
	msg, err := domain.NewMessage(conversationID, ownerID, role, content)
	if err != nil {
		return nil, err
	}
	msg.CreatedAt = s.now().UTC()

	write := func(ctx context.Context, conversations store.ConversationStore, messages store.MessageStore) error {
		if err := messages.Create(ctx, msg); err != nil {
			return err
		}
		return conversations.Touch(ctx, conversationID, msg.CreatedAt)
	}

	if s.db != nil {
		err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
			return write(ctx, s.conversations.WithTx(tx), s.messages.WithTx(tx))
		})
	} else {
		err = write(ctx, s.conversations, s.messages)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to append message",
			"error", err,
			"conversation_id", conversationID,
			"role", role)
		return nil, NewServiceError("append", "failed to store message", err)
	}

	s.emit(ctx, events.MessageAppended, ownerID, conversationID)
	return msg, nil
}

// List returns summaries of the owner's conversations, most recent first.
func (s *ConversationService) List(ctx context.Context, ownerID int64) ([]domain.ConversationSummary, error) {
	out, err := s.conversations.ListSummaries(ctx, ownerID)
	if err != nil {
		return nil, NewServiceError("list", "failed to list conversations", err)
	}
	return out, nil
}

// Delete removes an owned conversation and its messages.
func (s *ConversationService) Delete(ctx context.Context, ownerID, conversationID int64) error {
	if _, err := s.Get(ctx, ownerID, conversationID); err != nil {
		return err
	}
	if err := s.conversations.Delete(ctx, conversationID); err != nil {
		if !errors.Is(err, store.ErrConversationNotFound) {
			s.logger.ErrorContext(ctx, "failed to delete conversation",
				"error", err,
				"conversation_id", conversationID)
		}
		return NewServiceError("delete", "failed to delete conversation", err)
	}
	s.logger.InfoContext(ctx, "conversation deleted",
		"conversation_id", conversationID,
		"owner_id", ownerID)
	s.emit(ctx, events.ConversationDeleted, ownerID, conversationID)
	return nil
}

// emit publishes an event. Handler failures are logged; the change they
// describe has already happened.
func (s *ConversationService) emit(ctx context.Context, t events.Type, ownerID, conversationID int64) {
	if err := s.emitter.EmitEvent(ctx, events.NewConversationEvent(t, ownerID, conversationID)); err != nil {
		s.logger.WarnContext(ctx, "failed to emit conversation event",
			"error", err,
			"event_type", t,
			"conversation_id", conversationID)
	}
}
