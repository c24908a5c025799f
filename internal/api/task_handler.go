package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/phrazzld/tasktalk-api/internal/api/shared"
	"github.com/phrazzld/tasktalk-api/internal/classify"
	"github.com/phrazzld/tasktalk-api/internal/domain"
	"github.com/phrazzld/tasktalk-api/internal/platform/logger"
	"github.com/phrazzld/tasktalk-api/internal/service/auth"
	"github.com/phrazzld/tasktalk-api/internal/tools"
)

// CreateTaskRequest is the body of POST /api/{user_id}/tasks.
type CreateTaskRequest struct {
	Title       string  `json:"title"       validate:"required"`
	Description *string `json:"description"`
}

// UpdateTaskRequest is the body of PATCH /api/{user_id}/tasks/{task_id}.
// Absent fields are left untouched.
type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

// TaskHandler serves direct task CRUD. Every call runs through the same
// executor as chat tool calls, so ownership and field rules are shared.
type TaskHandler struct {
	exec   *tools.Executor
	tokens auth.TokenService
	logger *slog.Logger
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(exec *tools.Executor, tokens auth.TokenService, logger *slog.Logger) *TaskHandler {
	if exec == nil {
		// ALLOW-PANIC: constructor enforcing required dependency
		panic("executor cannot be nil for TaskHandler")
	}
	if tokens == nil {
		// ALLOW-PANIC: constructor enforcing required dependency
		panic("token service cannot be nil for TaskHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{exec: exec, tokens: tokens, logger: logger.With(slog.String("component", "task_handler"))}
}

// List handles GET /api/{user_id}/tasks. The optional completed=true|false
// query takes precedence over status=all|active|completed.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	filter, err := taskFilter(r)
	if err != nil {
		shared.RespondWithError(w, r, err)
		return
	}

	res := h.exec.Execute(r.Context(), owner, tools.ListTasks{Status: filter})
	if !res.OK() {
		h.respondWithResult(w, r, res)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, res.Payload)
}

// Create handles POST /api/{user_id}/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, err)
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, err)
		return
	}

	res := h.exec.Execute(r.Context(), owner, tools.CreateTask{Title: req.Title, Description: req.Description})
	if !res.OK() {
		h.respondWithResult(w, r, res)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, res.Payload.(tools.MutationPayload).Task)
}

// Update handles PATCH /api/{user_id}/tasks/{task_id}. Field changes are
// applied before the completion change; each step is stored on its own.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	taskID, err := pathID(r, "task_id")
	if err != nil {
		shared.RespondWithError(w, r, err)
		return
	}
	var req UpdateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, err)
		return
	}

	calls := []tools.Call{tools.UpdateTask{TaskID: taskID, Title: req.Title, Description: req.Description}}
	if req.Completed != nil {
		if *req.Completed {
			calls = append(calls, tools.CompleteTask{TaskID: taskID})
		} else {
			calls = append(calls, tools.ReopenTask{TaskID: taskID})
		}
	}

	var res tools.Result
	for _, call := range calls {
		if res = h.exec.Execute(r.Context(), owner, call); !res.OK() {
			h.respondWithResult(w, r, res)
			return
		}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, res.Payload.(tools.MutationPayload).Task)
}

// Delete handles DELETE /api/{user_id}/tasks/{task_id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	taskID, err := pathID(r, "task_id")
	if err != nil {
		shared.RespondWithError(w, r, err)
		return
	}

	if res := h.exec.Execute(r.Context(), owner, tools.DeleteTask{TaskID: taskID}); !res.OK() {
		h.respondWithResult(w, r, res)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// owner parses the path owner and checks the credential belongs to it. On
// failure the response is already written.
func (h *TaskHandler) owner(w http.ResponseWriter, r *http.Request) (int64, bool) {
	owner, err := pathID(r, "user_id")
	if err != nil {
		shared.RespondWithError(w, r, err)
		return 0, false
	}
	if err := auth.AuthorizeOwner(r.Context(), h.tokens, r.Header.Get("Authorization"), owner); err != nil {
		shared.RespondWithError(w, r, err)
		return 0, false
	}
	return owner, true
}

// respondWithResult writes a failed tool result. The executor already
// logged it.
func (h *TaskHandler) respondWithResult(w http.ResponseWriter, r *http.Request, res tools.Result) {
	logger.FromContextOrDefault(r.Context(), h.logger).Debug("task request failed",
		slog.String("tool", string(res.Tool)),
		slog.String("kind", string(res.Kind)))
	shared.RespondWithFailure(w, r, classify.Of(res.Kind, res.Error))
}

func taskFilter(r *http.Request) (domain.TaskFilter, error) {
	q := r.URL.Query()
	if raw := q.Get("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			return "", domain.NewValidationError("completed", "must be true or false", domain.ErrInvalidTaskFilter)
		}
		if completed {
			return domain.TaskFilterCompleted, nil
		}
		return domain.TaskFilterActive, nil
	}
	return domain.ParseTaskFilter(q.Get("status"))
}
