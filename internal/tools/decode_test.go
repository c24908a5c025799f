package tools

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/tasktalk-api/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestDecode(t *testing.T) {
	t.Parallel()
	d := MustDecoder()

	tests := []struct {
		name string
		tool string
		args string
		want Call
	}{
		{"create wire name", "add_task", `{"title":"buy milk"}`, CreateTask{Title: "buy milk"}},
		{"create canonical name", "create", `{"title":"buy milk","description":"2L"}`, CreateTask{Title: "buy milk", Description: strPtr("2L")}},
		{"create empty description dropped", "add_task", `{"title":"x","description":""}`, CreateTask{Title: "x"}},
		{"list default", "list_tasks", `{}`, ListTasks{Status: domain.TaskFilterAll}},
		{"list null args", "list_tasks", `null`, ListTasks{Status: domain.TaskFilterAll}},
		{"list no args", "list_tasks", ``, ListTasks{Status: domain.TaskFilterAll}},
		{"list active", "list_tasks", `{"status":"active"}`, ListTasks{Status: domain.TaskFilterActive}},
		{"update title only", "update_task", `{"task_id":3,"title":"new"}`, UpdateTask{TaskID: 3, Title: strPtr("new")}},
		{"update empty strings mean absent", "update_task", `{"task_id":3,"title":"","description":"  "}`, UpdateTask{TaskID: 3}},
		{"complete float id", "complete_task", `{"task_id":4.0}`, CompleteTask{TaskID: 4}},
		{"delete", "delete_task", `{"task_id":9}`, DeleteTask{TaskID: 9}},
		{"largest task id", "delete_task", `{"task_id":9223372036854775807}`, DeleteTask{TaskID: math.MaxInt64}},
		{"title at limit", "add_task", `{"title":"` + strings.Repeat("é", domain.MaxTitleLength) + `"}`,
			CreateTask{Title: strings.Repeat("é", domain.MaxTitleLength)}},
		{"extra fields ignored", "delete_task", `{"task_id":9,"confirm":true}`, DeleteTask{TaskID: 9}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := d.Decode(tc.tool, json.RawMessage(tc.args))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeRejects(t *testing.T) {
	t.Parallel()
	d := MustDecoder()

	tests := []struct {
		name    string
		tool    string
		args    string
		wantErr error
	}{
		{"unknown tool", "launch_rocket", `{}`, ErrUnknownTool},
		{"missing title", "add_task", `{}`, ErrInvalidArguments},
		{"title wrong type", "add_task", `{"title":5}`, ErrInvalidArguments},
		{"bad status", "list_tasks", `{"status":"pending"}`, ErrInvalidArguments},
		{"missing task id", "complete_task", `{}`, ErrInvalidArguments},
		{"string task id", "delete_task", `{"task_id":"3"}`, ErrInvalidArguments},
		{"fractional task id", "delete_task", `{"task_id":3.5}`, ErrInvalidArguments},
		{"zero task id", "update_task", `{"task_id":0}`, ErrInvalidArguments},
		{"task id past int64", "complete_task", `{"task_id":9223372036854775808}`, ErrInvalidArguments},
		{"task id in exponent form past int64", "delete_task", `{"task_id":1e19}`, ErrInvalidArguments},
		{"title too long", "add_task", `{"title":"` + strings.Repeat("x", domain.MaxTitleLength+1) + `"}`, ErrInvalidArguments},
		{"description too long", "add_task",
			`{"title":"x","description":"` + strings.Repeat("d", domain.MaxDescriptionLength+1) + `"}`, ErrInvalidArguments},
		{"update title too long", "update_task",
			`{"task_id":1,"title":"` + strings.Repeat("x", domain.MaxTitleLength+1) + `"}`, ErrInvalidArguments},
		{"not json", "add_task", `{title:`, ErrInvalidArguments},
		{"not an object", "add_task", `[1,2]`, ErrInvalidArguments},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := d.Decode(tc.tool, json.RawMessage(tc.args))
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestInvalidArgumentsIsValidationError(t *testing.T) {
	t.Parallel()
	assert.ErrorIs(t, ErrInvalidArguments, domain.ErrValidation)
}

func TestCatalogIsStable(t *testing.T) {
	t.Parallel()

	specs := Catalog()
	require.Len(t, specs, 5)

	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
		var schema map[string]any
		require.NoError(t, json.Unmarshal(s.Parameters, &schema), s.Name)
		assert.Equal(t, "object", schema["type"])
		assert.NotEmpty(t, s.Description)
	}
	assert.Equal(t, []string{"add_task", "list_tasks", "update_task", "complete_task", "delete_task"}, names)
}

func TestLookup(t *testing.T) {
	t.Parallel()

	n, ok := Lookup("complete_task")
	assert.True(t, ok)
	assert.Equal(t, Complete, n)

	n, ok = Lookup("delete")
	assert.True(t, ok)
	assert.Equal(t, Delete, n)

	_, ok = Lookup("remove_task")
	assert.False(t, ok)
}
