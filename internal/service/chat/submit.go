package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/phrazzld/tasktalk-api/internal/domain"
	"github.com/phrazzld/tasktalk-api/internal/platform/logger"
	"github.com/phrazzld/tasktalk-api/internal/tools"
	"github.com/phrazzld/tasktalk-api/internal/understanding"
)

// StatusSuccess is the status of a completed Submit.
const StatusSuccess = "success"

// SubmitRequest is one incoming chat message.
type SubmitRequest struct {
	// OwnerID is the owner addressed by the request path.
	OwnerID int64
	// Authorization is the raw Authorization header value.
	Authorization string
	// ConversationID continues an existing conversation; zero starts one.
	ConversationID int64
	Message        string
}

// SubmitResponse is returned for a completed Submit.
type SubmitResponse struct {
	ConversationID int64    `json:"conversation_id"`
	Reply          string   `json:"reply"`
	ToolsInvoked   []string `json:"tools_invoked"`
	Status         string   `json:"status"`
}

// Submit runs one chat turn. Any failure is returned as a *classify.Failure;
// a user message that was already stored stays stored.
func (p *Pipeline) Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	start := time.Now()
	ctx, span := p.tracer.Start(ctx, "chat.submit",
		trace.WithAttributes(attribute.Int64("owner_id", req.OwnerID)))
	defer span.End()
	defer p.timed(ctx, "chat.submit", start)

	r := newRun(p.observe)
	resp, err := p.submit(ctx, r, req)
	if err != nil {
		if !r.state.Terminal() {
			_ = r.to(Failed)
		}
		return nil, p.fail(ctx, span, "submit", err)
	}
	span.SetAttributes(
		attribute.Int64("conversation_id", resp.ConversationID),
		attribute.Int("tools_invoked", len(resp.ToolsInvoked)))
	return resp, nil
}

func (p *Pipeline) submit(ctx context.Context, r *run, req SubmitRequest) (*SubmitResponse, error) {
	// Authenticating
	if err := p.authorize(ctx, req.Authorization, req.OwnerID); err != nil {
		return nil, err
	}
	if err := domain.ValidateContent(req.Message); err != nil {
		return nil, err
	}

	conv, created, err := p.conversations.Resolve(ctx, req.OwnerID, req.ConversationID)
	if err != nil {
		return nil, err
	}
	log := logger.FromContextOrDefault(ctx, p.logger).With(
		slog.Int64("owner_id", req.OwnerID),
		slog.Int64("conversation_id", conv.ID))

	var history []*domain.Message
	if !created {
		if history, err = p.conversations.Recent(ctx, conv.ID, p.historyLimit); err != nil {
			return nil, err
		}
	}
	if err := r.to(ContextLoaded); err != nil {
		return nil, err
	}

	// The user's message is durable before any understanding round trip.
	if _, err := p.conversations.Append(ctx, conv.ID, req.OwnerID, domain.RoleUser, req.Message); err != nil {
		return nil, err
	}
	transcript := append(transcriptOf(history), understanding.Turn{Role: understanding.RoleUser, Content: req.Message})

	if err := r.to(AwaitingUnderstanding); err != nil {
		return nil, err
	}
	first, err := p.understand(ctx, "understanding.first", understanding.Request{
		System:     SystemPrompt,
		Transcript: transcript,
		Tools:      tools.Catalog(),
	})
	if err != nil {
		return nil, err
	}

	invoked := []string{}
	var reply string
	if !first.WantsTools() {
		if err := r.to(NoToolsNeeded); err != nil {
			return nil, err
		}
		reply = first.Text
	} else {
		if err := r.to(ToolsRequested); err != nil {
			return nil, err
		}
		log.DebugContext(ctx, "tools requested", slog.Int("count", len(first.ToolRequests)))
		if err := r.to(Executing); err != nil {
			return nil, err
		}
		var results []tools.Result
		transcript, results = p.executeTools(ctx, req.OwnerID, transcript, first.ToolRequests)
		for _, res := range results {
			invoked = append(invoked, string(res.Tool))
		}

		if err := r.to(AwaitingFinalUnderstanding); err != nil {
			return nil, err
		}
		final, err := p.understand(ctx, "understanding.final", understanding.Request{
			System:     SystemPrompt,
			Transcript: transcript,
		})
		if err != nil {
			return nil, err
		}
		reply = final.Text
	}
	if reply == "" {
		return nil, fmt.Errorf("%w: no reply text", understanding.ErrInvalidResponse)
	}

	if err := r.to(Responding); err != nil {
		return nil, err
	}
	if _, err := p.conversations.Append(ctx, conv.ID, req.OwnerID, domain.RoleAssistant, reply); err != nil {
		// The reply is already computed; losing the stored copy is degraded,
		// not fatal.
		log.ErrorContext(ctx, "failed to persist assistant reply", "error", err)
	}
	if err := r.to(Persisted); err != nil {
		return nil, err
	}
	if err := r.to(Done); err != nil {
		return nil, err
	}

	log.InfoContext(ctx, "chat message processed",
		slog.Any("tools_invoked", invoked),
		slog.Bool("new_conversation", created))
	return &SubmitResponse{
		ConversationID: conv.ID,
		Reply:          reply,
		ToolsInvoked:   invoked,
		Status:         StatusSuccess,
	}, nil
}

// understand performs one round trip. Errors that do not already belong to
// the understanding taxonomy are wrapped into it.
func (p *Pipeline) understand(ctx context.Context, op string, req understanding.Request) (*understanding.Response, error) {
	start := time.Now()
	ctx, span := p.tracer.Start(ctx, "chat."+op,
		trace.WithAttributes(
			attribute.Int("transcript_turns", len(req.Transcript)),
			attribute.Bool("tools_offered", len(req.Tools) > 0)))
	defer span.End()
	defer p.timed(ctx, op, start)

	resp, err := p.understanding.Understand(ctx, req)
	switch {
	case err == nil && resp == nil:
		err = fmt.Errorf("%w: empty response", understanding.ErrInvalidResponse)
	case err != nil && !errors.Is(err, understanding.ErrServiceFailure) &&
		!errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded):
		err = fmt.Errorf("%w: %v", understanding.ErrServiceFailure, err)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return resp, nil
}

// executeTools runs every request in order and extends the transcript with
// the assistant's requests followed by one tool turn per result.
func (p *Pipeline) executeTools(
	ctx context.Context,
	ownerID int64,
	transcript []understanding.Turn,
	requests []understanding.ToolRequest,
) ([]understanding.Turn, []tools.Result) {
	ctx, span := p.tracer.Start(ctx, "chat.execute_tools",
		trace.WithAttributes(attribute.Int("tool_requests", len(requests))))
	defer span.End()

	transcript = append(transcript, understanding.Turn{
		Role:         understanding.RoleAssistant,
		ToolRequests: requests,
	})
	results := make([]tools.Result, 0, len(requests))
	failed := 0
	for _, tr := range requests {
		res := p.tools.ExecuteRaw(ctx, ownerID, tr.Name, tr.Arguments)
		if !res.OK() {
			failed++
		}
		results = append(results, res)
		transcript = append(transcript, understanding.Turn{
			Role:       understanding.RoleTool,
			Content:    res.JSON(),
			ToolCallID: tr.ID,
			ToolName:   tr.Name,
		})
	}
	span.SetAttributes(attribute.Int("tool_failures", failed))
	return transcript, results
}
