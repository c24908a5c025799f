package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/tasktalk-api/internal/api"
	"github.com/phrazzld/tasktalk-api/internal/cache"
	"github.com/phrazzld/tasktalk-api/internal/config"
	"github.com/phrazzld/tasktalk-api/internal/events"
	"github.com/phrazzld/tasktalk-api/internal/monitor"
	"github.com/phrazzld/tasktalk-api/internal/platform/gemini"
	"github.com/phrazzld/tasktalk-api/internal/platform/memory"
	"github.com/phrazzld/tasktalk-api/internal/platform/openai"
	"github.com/phrazzld/tasktalk-api/internal/platform/postgres"
	"github.com/phrazzld/tasktalk-api/internal/platform/telemetry"
	"github.com/phrazzld/tasktalk-api/internal/service"
	"github.com/phrazzld/tasktalk-api/internal/service/auth"
	"github.com/phrazzld/tasktalk-api/internal/service/chat"
	"github.com/phrazzld/tasktalk-api/internal/store"
	"github.com/phrazzld/tasktalk-api/internal/tools"
	"github.com/phrazzld/tasktalk-api/internal/understanding"
)

// application holds the shared dependencies so they can be built once and
// released together on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	db        *sql.DB
	store     store.Store
	telemetry *telemetry.Provider

	tokens        auth.TokenService
	cache         *cache.Cache
	monitor       *monitor.Monitor
	executor      *tools.Executor
	understanding understanding.Service
	pipeline      *chat.Pipeline
	router        http.Handler
}

type appOption func(*appOptions)

type appOptions struct {
	understanding understanding.Service
	telemetry     []telemetry.Option
}

// withUnderstanding bypasses provider selection.
func withUnderstanding(svc understanding.Service) appOption {
	return func(o *appOptions) { o.understanding = svc }
}

func withTelemetryOptions(opts ...telemetry.Option) appOption {
	return func(o *appOptions) { o.telemetry = append(o.telemetry, opts...) }
}

// newApplication wires every component from cfg. On error, anything already
// opened is released before returning.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...appOption) (_ *application, err error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}

	app := &application{config: cfg, logger: logger}
	defer func() {
		if err != nil {
			app.cleanup(context.Background())
		}
	}()

	app.telemetry, err = telemetry.Init(ctx, cfg.Telemetry, o.telemetry...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	if err = app.openStore(ctx); err != nil {
		return nil, err
	}

	app.tokens, err = auth.NewTokenService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	logger.Info("token service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	generations := events.NewGenerations()
	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(generations)

	var convOpts []service.ConversationOption
	if app.db != nil {
		convOpts = append(convOpts, service.WithDB(app.db))
	}
	conversations, err := service.NewConversationService(app.store, emitter, logger, convOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize conversation service: %w", err)
	}

	app.cache = cache.New(cfg.Cache.MaxSize, cfg.Cache.TTL())
	app.monitor = monitor.New(cfg.Monitor.WindowSize, cfg.Monitor.SlowThreshold(), logger,
		monitor.WithMeter(app.telemetry.Meter))
	app.executor = tools.NewExecutor(app.store.Tasks(), tools.MustDecoder(), logger,
		tools.WithMonitor(app.monitor))

	app.understanding = o.understanding
	if app.understanding == nil {
		app.understanding, err = newUnderstanding(ctx, logger, cfg.LLM)
		if err != nil {
			return nil, err
		}
	}

	app.pipeline, err = chat.New(chat.Deps{
		Tokens:        app.tokens,
		Conversations: conversations,
		Tools:         app.executor,
		Understanding: app.understanding,
		Cache:         app.cache,
		Monitor:       app.monitor,
		Generations:   generations,
	}, logger,
		chat.WithHistoryLimit(cfg.LLM.HistoryLimit),
		chat.WithTracer(app.telemetry.Tracer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat pipeline: %w", err)
	}

	app.router = api.NewRouter(api.RouterDeps{
		Pipeline: app.pipeline,
		Executor: app.executor,
		Tokens:   app.tokens,
		Cache:    app.cache,
		Monitor:  app.monitor,
		AdminIDs: cfg.Auth.AdminIDs,
		Logger:   logger,
	})
	return app, nil
}

// openStore selects Postgres when a database URL is configured and the
// in-memory store otherwise.
func (app *application) openStore(ctx context.Context) error {
	url := app.config.Database.URL
	if url == "" {
		app.logger.Warn("no database URL configured, using in-memory store")
		app.store = memory.New()
		return nil
	}

	db, err := postgres.Open(ctx, url, app.logger)
	if err != nil {
		return err
	}
	app.db = db
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	app.store = postgres.New(db, app.logger)
	app.logger.Info("postgres store ready")
	return nil
}

// newUnderstanding builds the configured language provider.
func newUnderstanding(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (understanding.Service, error) {
	switch cfg.Provider {
	case "gemini":
		svc, err := gemini.New(ctx, logger, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize gemini provider: %w", err)
		}
		return svc, nil
	case "openai":
		svc, err := openai.New(logger, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize openai provider: %w", err)
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", understanding.ErrInvalidConfig, cfg.Provider)
	}
}

// cleanup releases the database and flushes telemetry.
func (app *application) cleanup(ctx context.Context) {
	if app.telemetry != nil {
		if err := app.telemetry.Shutdown(ctx); err != nil {
			app.logger.Error("failed to shut down telemetry", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", "error", err)
		}
		app.db = nil
	}
}
