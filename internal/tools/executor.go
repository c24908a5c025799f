package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/tasktalk-api/internal/classify"
	"github.com/phrazzld/tasktalk-api/internal/domain"
	"github.com/phrazzld/tasktalk-api/internal/monitor"
	"github.com/phrazzld/tasktalk-api/internal/redact"
	"github.com/phrazzld/tasktalk-api/internal/store"
)

// Status is the outcome of a tool call.
type Status string

// Result statuses.
const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Result is the uniform envelope returned for every tool call.
type Result struct {
	Tool    Name          `json:"tool"`
	Status  Status        `json:"status"`
	Payload any           `json:"payload,omitempty"`
	Error   string        `json:"error,omitempty"`
	Kind    classify.Kind `json:"kind,omitempty"`
}

// OK reports whether the call succeeded.
func (r Result) OK() bool { return r.Status == StatusSuccess }

// JSON renders the envelope for a transcript or an MCP client.
func (r Result) JSON() string {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf(`{"tool":%q,"status":"error","error":"result could not be encoded"}`, r.Tool)
	}
	return string(b)
}

// TaskView is the payload shape of a single task.
type TaskView struct {
	TaskID      int64     `json:"task_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListPayload is returned by the list tool.
type ListPayload struct {
	Status string     `json:"status_filter"`
	Count  int        `json:"count"`
	Tasks  []TaskView `json:"tasks"`
}

// MutationPayload is returned by create, update, complete, reopen and
// delete. Task is the stored state after the change; delete leaves it nil.
type MutationPayload struct {
	TaskID int64     `json:"task_id"`
	Title  string    `json:"title,omitempty"`
	Task   *TaskView `json:"task,omitempty"`
}

// msgTaskNotFound is reported both for absent tasks and for tasks owned by
// someone else.
const msgTaskNotFound = "Task not found"

// Executor runs tool calls for an owner. It is safe for concurrent use.
type Executor struct {
	tasks   store.TaskStore
	decoder *Decoder
	monitor *monitor.Monitor
	logger  *slog.Logger
	now     func() time.Time
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithMonitor records each call's latency under "tool.<name>".
func WithMonitor(m *monitor.Monitor) ExecutorOption {
	return func(e *Executor) { e.monitor = m }
}

// WithClock replaces time.Now for updated_at stamps.
func WithClock(now func() time.Time) ExecutorOption {
	return func(e *Executor) { e.now = now }
}

// NewExecutor creates an Executor over tasks.
func NewExecutor(tasks store.TaskStore, decoder *Decoder, logger *slog.Logger, opts ...ExecutorOption) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Executor{
		tasks:   tasks,
		decoder: decoder,
		logger:  logger.With("component", "tool_executor"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecuteRaw decodes a provider request and executes it. Unknown names and
// invalid arguments become error results.
func (e *Executor) ExecuteRaw(ctx context.Context, ownerID int64, name string, args json.RawMessage) Result {
	call, err := e.decoder.Decode(name, args)
	if err != nil {
		tool, _ := Lookup(name)
		if tool == "" {
			tool = Name(name)
		}
		e.logger.DebugContext(ctx, "rejected tool request",
			slog.String("tool", name),
			slog.String("error", err.Error()))
		if errors.Is(err, ErrUnknownTool) {
			return failure(tool, classify.InvalidInput, fmt.Sprintf("Unknown tool: %s", name))
		}
		return failure(tool, classify.InvalidInput, err.Error())
	}
	return e.Execute(ctx, ownerID, call)
}

// ExecuteMany runs calls in order. Each call fails independently.
func (e *Executor) ExecuteMany(ctx context.Context, ownerID int64, calls []Call) []Result {
	results := make([]Result, len(calls))
	for i, call := range calls {
		results[i] = e.Execute(ctx, ownerID, call)
	}
	return results
}

// Execute runs one call. Failures are returned as error results, never as
// Go errors.
func (e *Executor) Execute(ctx context.Context, ownerID int64, call Call) (res Result) {
	if call == nil {
		return failure("", classify.InvalidInput, "missing tool call")
	}
	tool := call.ToolName()
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			e.logger.ErrorContext(ctx, "tool panicked", slog.String("tool", string(tool)), slog.Any("panic", p))
			res = failure(tool, classify.Unknown, classify.Describe(classify.Unknown))
		}
		if e.monitor != nil {
			e.monitor.Record(ctx, "tool."+string(tool), time.Since(start))
		}
	}()

	if ownerID <= 0 {
		return failure(tool, classify.Unauthorized, classify.Describe(classify.Unauthorized))
	}

	var (
		payload any
		err     error
	)
	switch c := call.(type) {
	case CreateTask:
		payload, err = e.create(ctx, ownerID, c)
	case ListTasks:
		payload, err = e.list(ctx, ownerID, c)
	case UpdateTask:
		payload, err = e.update(ctx, ownerID, c)
	case CompleteTask:
		payload, err = e.complete(ctx, ownerID, c)
	case ReopenTask:
		payload, err = e.reopen(ctx, ownerID, c)
	case DeleteTask:
		payload, err = e.delete(ctx, ownerID, c)
	default:
		return failure(tool, classify.InvalidInput, fmt.Sprintf("Unknown tool: %s", tool))
	}
	if err != nil {
		return e.toFailure(ctx, tool, ownerID, err)
	}

	e.logger.InfoContext(ctx, "tool executed",
		slog.String("tool", string(tool)),
		slog.Int64("owner_id", ownerID))
	return Result{Tool: tool, Status: StatusSuccess, Payload: payload}
}

func (e *Executor) create(ctx context.Context, ownerID int64, c CreateTask) (any, error) {
	task, err := domain.NewTask(ownerID, c.Title, c.Description)
	if err != nil {
		return nil, err
	}
	if err := e.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	return mutated(task), nil
}

func (e *Executor) list(ctx context.Context, ownerID int64, c ListTasks) (any, error) {
	filter := c.Status
	if filter == "" {
		filter = domain.TaskFilterAll
	}
	tasks, err := e.tasks.ListByOwner(ctx, ownerID, filter)
	if err != nil {
		return nil, err
	}
	views := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		if t.OwnerID != ownerID {
			continue
		}
		views = append(views, viewOf(t))
	}
	return ListPayload{Status: string(filter), Count: len(views), Tasks: views}, nil
}

func (e *Executor) update(ctx context.Context, ownerID int64, c UpdateTask) (any, error) {
	task, err := e.owned(ctx, ownerID, c.TaskID)
	if err != nil {
		return nil, err
	}
	patch := domain.TaskPatch{Title: c.Title, Description: c.Description}
	if patch.Empty() {
		return mutated(task), nil
	}
	task.Apply(patch, e.now().UTC())
	if err := task.Validate(); err != nil {
		return nil, err
	}
	if err := e.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return mutated(task), nil
}

func (e *Executor) complete(ctx context.Context, ownerID int64, c CompleteTask) (any, error) {
	task, err := e.owned(ctx, ownerID, c.TaskID)
	if err != nil {
		return nil, err
	}
	task.MarkComplete(e.now().UTC())
	if err := e.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return mutated(task), nil
}

func (e *Executor) reopen(ctx context.Context, ownerID int64, c ReopenTask) (any, error) {
	task, err := e.owned(ctx, ownerID, c.TaskID)
	if err != nil {
		return nil, err
	}
	task.Reopen(e.now().UTC())
	if err := e.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return mutated(task), nil
}

func (e *Executor) delete(ctx context.Context, ownerID int64, c DeleteTask) (any, error) {
	if _, err := e.owned(ctx, ownerID, c.TaskID); err != nil {
		return nil, err
	}
	if err := e.tasks.Delete(ctx, c.TaskID); err != nil {
		return nil, err
	}
	return MutationPayload{TaskID: c.TaskID}, nil
}

// owned loads a task and folds "owned by someone else" into not found.
func (e *Executor) owned(ctx context.Context, ownerID, taskID int64) (*domain.Task, error) {
	task, err := e.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.OwnerID != ownerID {
		return nil, store.ErrTaskNotFound
	}
	return task, nil
}

func (e *Executor) toFailure(ctx context.Context, tool Name, ownerID int64, err error) Result {
	kind := classify.Classify(err)
	attrs := []any{
		slog.String("tool", string(tool)),
		slog.Int64("owner_id", ownerID),
		slog.String("kind", string(kind)),
		slog.String("error", redact.Error(err)),
	}
	switch kind {
	case classify.NotFound:
		e.logger.DebugContext(ctx, "tool target not found", attrs...)
		return failure(tool, kind, msgTaskNotFound)
	case classify.InvalidInput:
		e.logger.DebugContext(ctx, "tool input rejected", attrs...)
		return failure(tool, kind, err.Error())
	default:
		e.logger.ErrorContext(ctx, "tool execution failed", attrs...)
		return failure(tool, kind, fmt.Sprintf("Failed to %s task: %s", tool, classify.Describe(kind)))
	}
}

func failure(tool Name, kind classify.Kind, msg string) Result {
	return Result{Tool: tool, Status: StatusError, Error: msg, Kind: kind}
}

func viewOf(t *domain.Task) TaskView {
	return TaskView{
		TaskID:      t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func mutated(t *domain.Task) MutationPayload {
	v := viewOf(t)
	return MutationPayload{TaskID: t.ID, Title: t.Title, Task: &v}
}
