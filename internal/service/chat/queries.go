package chat

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/phrazzld/tasktalk-api/internal/domain"
)

// Message page bounds.
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

// ConversationView is a conversation with its full history.
type ConversationView struct {
	ID           int64             `json:"id"`
	OwnerID      int64             `json:"user_id"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	MessageCount int               `json:"message_count"`
	Messages     []*domain.Message `json:"messages"`
}

// MessagePage is one page of a conversation's messages.
type MessagePage struct {
	ConversationID int64             `json:"conversation_id"`
	Skip           int               `json:"skip"`
	Limit          int               `json:"limit"`
	Total          int               `json:"total"`
	Messages       []*domain.Message `json:"messages"`
}

// ListConversations returns the owner's conversation summaries, most
// recently updated first.
func (p *Pipeline) ListConversations(ctx context.Context, ownerID int64, authorization string) ([]domain.ConversationSummary, error) {
	const op = "chat.list_conversations"
	start := time.Now()
	ctx, span := p.tracer.Start(ctx, op, trace.WithAttributes(attribute.Int64("owner_id", ownerID)))
	defer span.End()
	defer p.timed(ctx, op, start)

	if err := p.authorize(ctx, authorization, ownerID); err != nil {
		return nil, p.fail(ctx, span, op, err)
	}
	v, err := p.cached(ownerID, op, nil, func() (any, error) {
		return p.conversations.List(ctx, ownerID)
	})
	if err != nil {
		return nil, p.fail(ctx, span, op, err)
	}
	return v.([]domain.ConversationSummary), nil
}

// GetConversation returns an owned conversation with every message.
func (p *Pipeline) GetConversation(ctx context.Context, ownerID int64, authorization string, conversationID int64) (*ConversationView, error) {
	const op = "chat.get_conversation"
	start := time.Now()
	ctx, span := p.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.Int64("owner_id", ownerID),
		attribute.Int64("conversation_id", conversationID)))
	defer span.End()
	defer p.timed(ctx, op, start)

	if err := p.authorize(ctx, authorization, ownerID); err != nil {
		return nil, p.fail(ctx, span, op, err)
	}
	v, err := p.cached(ownerID, op, []any{conversationID}, func() (any, error) {
		conv, err := p.conversations.Get(ctx, ownerID, conversationID)
		if err != nil {
			return nil, err
		}
		msgs, err := p.conversations.History(ctx, conversationID, 0, 0)
		if err != nil {
			return nil, err
		}
		return &ConversationView{
			ID:           conv.ID,
			OwnerID:      conv.OwnerID,
			CreatedAt:    conv.CreatedAt,
			UpdatedAt:    conv.UpdatedAt,
			MessageCount: len(msgs),
			Messages:     msgs,
		}, nil
	})
	if err != nil {
		return nil, p.fail(ctx, span, op, err)
	}
	return v.(*ConversationView), nil
}

// GetMessages returns a page of an owned conversation's messages. A zero
// limit means DefaultPageLimit.
func (p *Pipeline) GetMessages(
	ctx context.Context,
	ownerID int64,
	authorization string,
	conversationID int64,
	skip, limit int,
) (*MessagePage, error) {
	const op = "chat.get_messages"
	start := time.Now()
	ctx, span := p.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.Int64("owner_id", ownerID),
		attribute.Int64("conversation_id", conversationID)))
	defer span.End()
	defer p.timed(ctx, op, start)

	if err := p.authorize(ctx, authorization, ownerID); err != nil {
		return nil, p.fail(ctx, span, op, err)
	}
	if limit == 0 {
		limit = DefaultPageLimit
	}
	if err := validatePage(skip, limit); err != nil {
		return nil, p.fail(ctx, span, op, err)
	}

	v, err := p.cached(ownerID, op, []any{conversationID, skip, limit}, func() (any, error) {
		if _, err := p.conversations.Get(ctx, ownerID, conversationID); err != nil {
			return nil, err
		}
		msgs, err := p.conversations.History(ctx, conversationID, limit, skip)
		if err != nil {
			return nil, err
		}
		return &MessagePage{
			ConversationID: conversationID,
			Skip:           skip,
			Limit:          limit,
			Total:          len(msgs),
			Messages:       msgs,
		}, nil
	})
	if err != nil {
		return nil, p.fail(ctx, span, op, err)
	}
	return v.(*MessagePage), nil
}

// DeleteConversation removes an owned conversation and its messages.
func (p *Pipeline) DeleteConversation(ctx context.Context, ownerID int64, authorization string, conversationID int64) error {
	const op = "chat.delete_conversation"
	start := time.Now()
	ctx, span := p.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.Int64("owner_id", ownerID),
		attribute.Int64("conversation_id", conversationID)))
	defer span.End()
	defer p.timed(ctx, op, start)

	if err := p.authorize(ctx, authorization, ownerID); err != nil {
		return p.fail(ctx, span, op, err)
	}
	if err := p.conversations.Delete(ctx, ownerID, conversationID); err != nil {
		return p.fail(ctx, span, op, err)
	}
	return nil
}

func validatePage(skip, limit int) error {
	if skip < 0 {
		return domain.NewValidationError("skip", "must not be negative", nil)
	}
	if limit < 1 || limit > MaxPageLimit {
		return domain.NewValidationError("limit", "must be between 1 and 200", nil)
	}
	return nil
}
