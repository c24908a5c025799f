package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apiMiddleware "github.com/phrazzld/tasktalk-api/internal/api/middleware"
	"github.com/phrazzld/tasktalk-api/internal/cache"
	"github.com/phrazzld/tasktalk-api/internal/monitor"
	"github.com/phrazzld/tasktalk-api/internal/service/auth"
	"github.com/phrazzld/tasktalk-api/internal/service/chat"
	"github.com/phrazzld/tasktalk-api/internal/tools"
)

// RouterDeps are the collaborators the HTTP surface needs.
type RouterDeps struct {
	Pipeline *chat.Pipeline
	Executor *tools.Executor
	Tokens   auth.TokenService
	Cache    *cache.Cache
	Monitor  *monitor.Monitor
	AdminIDs []int64
	Logger   *slog.Logger
}

// NewRouter builds the application router.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(d.Logger))

	chatHandler := NewChatHandler(d.Pipeline, d.Logger)
	taskHandler := NewTaskHandler(d.Executor, d.Tokens, d.Logger)
	statsHandler := NewStatsHandler(d.Cache, d.Monitor, d.AdminIDs, d.Logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(d.Tokens)

	r.Route("/api", func(r chi.Router) {
		r.Route("/{user_id}", func(r chi.Router) {
			r.Post("/chat", chatHandler.Submit)
			r.Get("/conversations", chatHandler.ListConversations)
			r.Get("/conversations/{conversation_id}", chatHandler.GetConversation)
			r.Get("/conversations/{conversation_id}/messages", chatHandler.GetMessages)
			r.Delete("/conversations/{conversation_id}", chatHandler.DeleteConversation)

			r.Get("/tasks", taskHandler.List)
			r.Post("/tasks", taskHandler.Create)
			r.Patch("/tasks/{task_id}", taskHandler.Update)
			r.Delete("/tasks/{task_id}", taskHandler.Delete)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Get("/stats", statsHandler.GetStats)
			r.Delete("/stats/cache", statsHandler.ClearCache)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return r
}
