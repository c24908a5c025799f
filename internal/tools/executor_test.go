package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/tasktalk-api/internal/classify"
	"github.com/phrazzld/tasktalk-api/internal/domain"
	"github.com/phrazzld/tasktalk-api/internal/monitor"
	"github.com/phrazzld/tasktalk-api/internal/platform/logger"
	"github.com/phrazzld/tasktalk-api/internal/platform/memory"
)

func newExecutor(t *testing.T) (*Executor, *memory.Store) {
	t.Helper()
	s := memory.New()
	l, _ := logger.NewTestLogger(t)
	return NewExecutor(s.Tasks(), MustDecoder(), l), s
}

func createFor(t *testing.T, e *Executor, owner int64, title string) int64 {
	t.Helper()
	res := e.Execute(context.Background(), owner, CreateTask{Title: title})
	require.True(t, res.OK(), res.Error)
	return res.Payload.(MutationPayload).TaskID
}

func TestCreateAndList(t *testing.T) {
	t.Parallel()
	e, _ := newExecutor(t)
	ctx := context.Background()

	res := e.Execute(ctx, 1, CreateTask{Title: "buy milk", Description: strPtr("2L")})
	require.True(t, res.OK())
	assert.Equal(t, Create, res.Tool)
	assert.Equal(t, "buy milk", res.Payload.(MutationPayload).Title)

	res = e.Execute(ctx, 1, ListTasks{Status: domain.TaskFilterAll})
	require.True(t, res.OK())
	list := res.Payload.(ListPayload)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "buy milk", list.Tasks[0].Title)
	require.NotNil(t, list.Tasks[0].Description)
	assert.Equal(t, "2L", *list.Tasks[0].Description)
}

func TestCreateRejectsBlankTitle(t *testing.T) {
	t.Parallel()
	e, _ := newExecutor(t)

	res := e.Execute(context.Background(), 1, CreateTask{Title: "   "})
	assert.False(t, res.OK())
	assert.Equal(t, classify.InvalidInput, res.Kind)
}

func TestTaskFieldBounds(t *testing.T) {
	t.Parallel()
	e, s := newExecutor(t)
	ctx := context.Background()

	atLimit := e.Execute(ctx, 1, CreateTask{
		Title:       strings.Repeat("é", domain.MaxTitleLength),
		Description: strPtr(strings.Repeat("d", domain.MaxDescriptionLength)),
	})
	require.True(t, atLimit.OK(), atLimit.Error)
	id := atLimit.Payload.(MutationPayload).TaskID

	tests := []struct {
		name string
		call Call
	}{
		{"create title", CreateTask{Title: strings.Repeat("x", domain.MaxTitleLength+1)}},
		{"create description", CreateTask{Title: "ok", Description: strPtr(strings.Repeat("d", domain.MaxDescriptionLength+1))}},
		{"update title", UpdateTask{TaskID: id, Title: strPtr(strings.Repeat("x", domain.MaxTitleLength+1))}},
		{"update description", UpdateTask{TaskID: id, Description: strPtr(strings.Repeat("d", domain.MaxDescriptionLength+1))}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := e.Execute(ctx, 1, tc.call)
			assert.False(t, res.OK())
			assert.Equal(t, classify.InvalidInput, res.Kind)
			assert.Contains(t, res.Error, "too long")
		})
	}

	raw, err := json.Marshal(map[string]string{
		"title":       strings.Repeat("x", 5000),
		"description": strings.Repeat("d", 9000),
	})
	require.NoError(t, err)
	res := e.ExecuteRaw(ctx, 1, "add_task", raw)
	assert.False(t, res.OK())
	assert.Equal(t, classify.InvalidInput, res.Kind)

	stored, err := s.Tasks().ListByOwner(ctx, 1, domain.TaskFilterAll)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, strings.Repeat("é", domain.MaxTitleLength), stored[0].Title)
}

func TestExecuteManyKeepsOrderAndIndependence(t *testing.T) {
	t.Parallel()
	e, _ := newExecutor(t)

	results := e.ExecuteMany(context.Background(), 1, []Call{
		CreateTask{Title: "A"},
		CompleteTask{TaskID: 999},
		CreateTask{Title: "B"},
	})

	require.Len(t, results, 3)
	assert.True(t, results[0].OK())
	assert.Equal(t, "A", results[0].Payload.(MutationPayload).Title)
	assert.False(t, results[1].OK())
	assert.Equal(t, "Task not found", results[1].Error)
	assert.True(t, results[2].OK(), "later calls run after a failure")
	assert.Equal(t, "B", results[2].Payload.(MutationPayload).Title)
}

func TestOwnershipIsEnforcedOnEveryMutation(t *testing.T) {
	t.Parallel()
	e, s := newExecutor(t)
	ctx := context.Background()
	id := createFor(t, e, 1, "private")

	for _, call := range []Call{
		UpdateTask{TaskID: id, Title: strPtr("hijacked")},
		CompleteTask{TaskID: id},
		DeleteTask{TaskID: id},
	} {
		res := e.Execute(ctx, 2, call)
		assert.False(t, res.OK(), call.ToolName())
		assert.Equal(t, classify.NotFound, res.Kind)
		assert.Equal(t, "Task not found", res.Error, "same message as a missing task")
		assert.Nil(t, res.Payload)
	}

	missing := e.Execute(ctx, 2, CompleteTask{TaskID: id + 100})
	assert.Equal(t, missing.Error, e.Execute(ctx, 2, CompleteTask{TaskID: id}).Error)

	task, err := s.Tasks().GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "private", task.Title)
	assert.False(t, task.Completed)

	others := e.Execute(ctx, 2, ListTasks{})
	assert.Zero(t, others.Payload.(ListPayload).Count)
}

func TestPartialUpdate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := memory.New()
	at := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	e := NewExecutor(s.Tasks(), MustDecoder(), nil, WithClock(func() time.Time { return at }))

	res := e.Execute(ctx, 1, CreateTask{Title: "draft", Description: strPtr("keep me")})
	id := res.Payload.(MutationPayload).TaskID

	res = e.Execute(ctx, 1, UpdateTask{TaskID: id, Title: strPtr("final")})
	require.True(t, res.OK())

	task, err := s.Tasks().GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "final", task.Title)
	require.NotNil(t, task.Description)
	assert.Equal(t, "keep me", *task.Description)
	assert.Equal(t, at, task.UpdatedAt)
}

func TestUpdateWithoutFieldsLeavesTaskUntouched(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := memory.New()
	at := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	e := NewExecutor(s.Tasks(), MustDecoder(), nil, WithClock(func() time.Time { return at }))

	id := createFor(t, e, 1, "draft")
	before, err := s.Tasks().GetByID(ctx, id)
	require.NoError(t, err)

	at = at.Add(time.Hour)
	res := e.ExecuteRaw(ctx, 1, "update_task", json.RawMessage(`{"task_id":`+strconv.FormatInt(id, 10)+`,"title":"  "}`))
	require.True(t, res.OK(), res.Error)
	assert.Equal(t, "draft", res.Payload.(MutationPayload).Title)

	after, err := s.Tasks().GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)

	res = e.Execute(ctx, 2, UpdateTask{TaskID: id})
	assert.Equal(t, classify.NotFound, res.Kind)
}

func TestCompleteAndDelete(t *testing.T) {
	t.Parallel()
	e, s := newExecutor(t)
	ctx := context.Background()
	id := createFor(t, e, 1, "chores")

	require.True(t, e.Execute(ctx, 1, CompleteTask{TaskID: id}).OK())
	done := e.Execute(ctx, 1, ListTasks{Status: domain.TaskFilterCompleted})
	assert.Equal(t, 1, done.Payload.(ListPayload).Count)

	require.True(t, e.Execute(ctx, 1, DeleteTask{TaskID: id}).OK())
	_, err := s.Tasks().GetByID(ctx, id)
	assert.Error(t, err)
}

func TestReopen(t *testing.T) {
	t.Parallel()
	e, _ := newExecutor(t)
	ctx := context.Background()
	id := createFor(t, e, 1, "chores")

	done := e.Execute(ctx, 1, CompleteTask{TaskID: id})
	require.True(t, done.OK())
	require.NotNil(t, done.Payload.(MutationPayload).Task)
	assert.True(t, done.Payload.(MutationPayload).Task.Completed)

	res := e.Execute(ctx, 1, ReopenTask{TaskID: id})
	require.True(t, res.OK(), res.Error)
	assert.Equal(t, Reopen, res.Tool)
	assert.False(t, res.Payload.(MutationPayload).Task.Completed)

	res = e.Execute(ctx, 2, ReopenTask{TaskID: id})
	assert.Equal(t, classify.NotFound, res.Kind)

	res = e.ExecuteRaw(ctx, 1, "reopen", json.RawMessage(`{"task_id":1}`))
	assert.Equal(t, "Unknown tool: reopen", res.Error, "reopen is not offered to providers")
}

func TestExecuteRaw(t *testing.T) {
	t.Parallel()
	e, _ := newExecutor(t)
	ctx := context.Background()

	res := e.ExecuteRaw(ctx, 1, "add_task", json.RawMessage(`{"title":"raw"}`))
	assert.True(t, res.OK())

	res = e.ExecuteRaw(ctx, 1, "summon_dragon", nil)
	assert.False(t, res.OK())
	assert.Equal(t, "Unknown tool: summon_dragon", res.Error)
	assert.Equal(t, Name("summon_dragon"), res.Tool)

	res = e.ExecuteRaw(ctx, 1, "update_task", json.RawMessage(`{"title":"no id"}`))
	assert.False(t, res.OK())
	assert.Equal(t, Update, res.Tool)
	assert.Equal(t, classify.InvalidInput, res.Kind)
}

func TestStorageFailureIsReportedNotRaised(t *testing.T) {
	t.Parallel()
	e, s := newExecutor(t)
	s.FailOn(memory.OpTaskCreate, errors.New("connection reset"))

	res := e.Execute(context.Background(), 1, CreateTask{Title: "x"})
	assert.False(t, res.OK())
	assert.Equal(t, classify.StorageError, res.Kind)
	assert.NotContains(t, res.Error, "connection reset")
}

func TestNonPositiveOwnerRejected(t *testing.T) {
	t.Parallel()
	e, _ := newExecutor(t)
	res := e.Execute(context.Background(), 0, ListTasks{})
	assert.Equal(t, classify.Unauthorized, res.Kind)
}

func TestExecutorRecordsLatency(t *testing.T) {
	t.Parallel()
	m := monitor.New(10, time.Hour, nil)
	e := NewExecutor(memory.New().Tasks(), MustDecoder(), nil, WithMonitor(m))

	e.Execute(context.Background(), 1, ListTasks{})
	e.Execute(context.Background(), 1, DeleteTask{TaskID: 1})

	list, ok := m.Stats("tool.list")
	require.True(t, ok)
	assert.Equal(t, 1, list.Count)
	_, ok = m.Stats("tool.delete")
	assert.True(t, ok, "failed calls are timed too")
}

func TestResultJSON(t *testing.T) {
	t.Parallel()
	r := Result{Tool: Delete, Status: StatusSuccess, Payload: MutationPayload{TaskID: 3}}
	assert.JSONEq(t, `{"tool":"delete","status":"success","payload":{"task_id":3}}`, r.JSON())

	r = Result{Tool: Delete, Status: StatusError, Error: "Task not found", Kind: classify.NotFound}
	assert.JSONEq(t, `{"tool":"delete","status":"error","error":"Task not found","kind":"not_found"}`, r.JSON())
}
