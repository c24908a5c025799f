package chat

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/phrazzld/tasktalk-api/internal/cache"
	"github.com/phrazzld/tasktalk-api/internal/classify"
	"github.com/phrazzld/tasktalk-api/internal/events"
	"github.com/phrazzld/tasktalk-api/internal/monitor"
	"github.com/phrazzld/tasktalk-api/internal/platform/logger"
	"github.com/phrazzld/tasktalk-api/internal/redact"
	"github.com/phrazzld/tasktalk-api/internal/service"
	"github.com/phrazzld/tasktalk-api/internal/service/auth"
	"github.com/phrazzld/tasktalk-api/internal/tools"
	"github.com/phrazzld/tasktalk-api/internal/understanding"
)

// DefaultHistoryLimit is how many prior messages are sent with a new one.
const DefaultHistoryLimit = 20

const tracerName = "github.com/phrazzld/tasktalk-api/internal/service/chat"

// Deps are the collaborators a Pipeline composes. All are required.
type Deps struct {
	Tokens        auth.TokenService
	Conversations *service.ConversationService
	Tools         *tools.Executor
	Understanding understanding.Service
	Cache         *cache.Cache
	Monitor       *monitor.Monitor
	Generations   *events.Generations
}

// Pipeline runs chat requests. It holds no per-request state and is safe for
// concurrent use.
type Pipeline struct {
	tokens        auth.TokenService
	conversations *service.ConversationService
	tools         *tools.Executor
	understanding understanding.Service
	cache         *cache.Cache
	monitor       *monitor.Monitor
	generations   *events.Generations

	historyLimit int
	tracer       trace.Tracer
	observe      func(State)
	logger       *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithHistoryLimit sets how many prior messages are sent with a new one.
func WithHistoryLimit(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.historyLimit = n
		}
	}
}

// WithTracer replaces the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) { p.tracer = t }
}

// WithStateObserver is called on every state a Submit run enters.
func WithStateObserver(fn func(State)) Option {
	return func(p *Pipeline) { p.observe = fn }
}

// New creates a Pipeline.
func New(d Deps, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	switch {
	case d.Tokens == nil:
		return nil, errors.New("chat pipeline: token service is required")
	case d.Conversations == nil:
		return nil, errors.New("chat pipeline: conversation service is required")
	case d.Tools == nil:
		return nil, errors.New("chat pipeline: tool executor is required")
	case d.Understanding == nil:
		return nil, errors.New("chat pipeline: understanding service is required")
	case d.Cache == nil:
		return nil, errors.New("chat pipeline: cache is required")
	case d.Monitor == nil:
		return nil, errors.New("chat pipeline: monitor is required")
	case d.Generations == nil:
		return nil, errors.New("chat pipeline: generations are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pipeline{
		tokens:        d.Tokens,
		conversations: d.Conversations,
		tools:         d.Tools,
		understanding: d.Understanding,
		cache:         d.Cache,
		monitor:       d.Monitor,
		generations:   d.Generations,
		historyLimit:  DefaultHistoryLimit,
		tracer:        otel.Tracer(tracerName),
		logger:        logger.With("component", "chat_pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// authorize resolves the credential and checks it belongs to ownerID.
func (p *Pipeline) authorize(ctx context.Context, authorization string, ownerID int64) error {
	return auth.AuthorizeOwner(ctx, p.tokens, authorization, ownerID)
}

// fail classifies err at the pipeline boundary, logs it with redacted
// detail, and returns the caller-safe failure.
func (p *Pipeline) fail(ctx context.Context, span trace.Span, op string, err error) *classify.Failure {
	f := classify.New(err)
	log := logger.FromContextOrDefault(ctx, p.logger)
	attrs := []any{
		slog.String("operation", op),
		slog.String("kind", string(f.Kind)),
		slog.String("error", redact.Error(err)),
	}
	if classify.Expected(f.Kind) {
		log.WarnContext(ctx, "request rejected", attrs...)
	} else {
		log.ErrorContext(ctx, "request failed", attrs...)
	}
	span.RecordError(errors.New(redact.Error(err)))
	span.SetStatus(codes.Error, string(f.Kind))
	return f
}

// timed records op's latency on every outcome.
func (p *Pipeline) timed(ctx context.Context, op string, start time.Time) {
	p.monitor.Record(ctx, op, time.Since(start))
}

// cached serves a read through the response cache. The owner's generation
// is part of the key, so any change to their conversations bypasses older
// entries. Cached values are shared and must not be mutated.
func (p *Pipeline) cached(ownerID int64, op string, args []any, load func() (any, error)) (any, error) {
	key := cache.Key(op, append([]any{ownerID}, args...), map[string]any{
		"generation": p.generations.Current(ownerID),
	})
	return p.cache.Do(key, load)
}
