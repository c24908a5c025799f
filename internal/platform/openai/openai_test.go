package openai

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/tasktalk-api/internal/config"
	"github.com/phrazzld/tasktalk-api/internal/platform/logger"
	"github.com/phrazzld/tasktalk-api/internal/tools"
	"github.com/phrazzld/tasktalk-api/internal/understanding"
)

type fakeCompletions struct {
	calls   int
	params  openai.ChatCompletionNewParams
	replies []*openai.ChatCompletion
	errs    []error
}

func (f *fakeCompletions) complete(
	_ context.Context,
	params openai.ChatCompletionNewParams,
	_ ...option.RequestOption,
) (*openai.ChatCompletion, error) {
	i := f.calls
	f.calls++
	f.params = params
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.replies) {
		return f.replies[i], nil
	}
	return f.replies[len(f.replies)-1], nil
}

func completion(content string, calls ...openai.ChatCompletionMessageToolCall) *openai.ChatCompletion {
	return &openai.ChatCompletion{Choices: []openai.ChatCompletionChoice{{
		Message: openai.ChatCompletionMessage{Content: content, ToolCalls: calls},
	}}}
}

func newTestUnderstander(t *testing.T, f *fakeCompletions, retries int) *Understander {
	t.Helper()
	l, _ := logger.NewTestLogger(t)
	u := newUnderstander(l, config.LLMConfig{MaxRetries: retries, RetryDelaySeconds: 1, RequestTimeoutSeconds: 5}, f.complete)
	u.retry.Sleep = func(context.Context, time.Duration) error { return nil }
	return u
}

func TestUnderstandBuildsToolCallingRequest(t *testing.T) {
	f := &fakeCompletions{replies: []*openai.ChatCompletion{completion("Added it.")}}
	u := newTestUnderstander(t, f, 0)

	resp, err := u.Understand(context.Background(), understanding.Request{
		System: "system prompt",
		Transcript: []understanding.Turn{
			{Role: understanding.RoleUser, Content: "add milk"},
			{Role: understanding.RoleAssistant, ToolRequests: []understanding.ToolRequest{
				{ID: "call_1", Name: "add_task", Arguments: json.RawMessage(`{"title":"milk"}`)},
			}},
			{Role: understanding.RoleTool, ToolCallID: "call_1", ToolName: "add_task", Content: `{"status":"success"}`},
		},
		Tools: tools.Catalog(),
	})
	require.NoError(t, err)
	assert.Equal(t, "Added it.", resp.Text)

	msgs := f.params.Messages
	require.Len(t, msgs, 4)
	assert.NotNil(t, msgs[0].OfSystem)
	assert.NotNil(t, msgs[1].OfUser)
	require.NotNil(t, msgs[2].OfAssistant)
	require.Len(t, msgs[2].OfAssistant.ToolCalls, 1)
	assert.Equal(t, "call_1", msgs[2].OfAssistant.ToolCalls[0].ID)
	assert.Equal(t, `{"title":"milk"}`, msgs[2].OfAssistant.ToolCalls[0].Function.Arguments)
	require.NotNil(t, msgs[3].OfTool)
	assert.Equal(t, "call_1", msgs[3].OfTool.ToolCallID)

	assert.Equal(t, DefaultModel, f.params.Model)
	require.Len(t, f.params.Tools, 5)
	assert.Equal(t, "delete_task", f.params.Tools[4].Function.Name)
	assert.Equal(t, "object", f.params.Tools[4].Function.Parameters["type"])
}

func TestUnderstandParsesToolCalls(t *testing.T) {
	f := &fakeCompletions{replies: []*openai.ChatCompletion{completion("",
		openai.ChatCompletionMessageToolCall{
			ID:       "call_a",
			Function: openai.ChatCompletionMessageToolCallFunction{Name: "complete_task", Arguments: `{"task_id":3}`},
		},
		openai.ChatCompletionMessageToolCall{
			Function: openai.ChatCompletionMessageToolCallFunction{Name: "list_tasks"},
		},
	)}}
	u := newTestUnderstander(t, f, 0)

	resp, err := u.Understand(context.Background(), understanding.Request{
		Transcript: []understanding.Turn{{Role: understanding.RoleUser, Content: "finish 3 and show"}},
	})
	require.NoError(t, err)
	require.Len(t, resp.ToolRequests, 2)
	assert.Equal(t, "call_a", resp.ToolRequests[0].ID)
	assert.JSONEq(t, `{"task_id":3}`, string(resp.ToolRequests[0].Arguments))
	assert.Equal(t, "openai-call-1", resp.ToolRequests[1].ID)
	assert.JSONEq(t, `{}`, string(resp.ToolRequests[1].Arguments))
}

func TestUnderstandErrors(t *testing.T) {
	filtered := &openai.ChatCompletion{Choices: []openai.ChatCompletionChoice{{FinishReason: "content_filter"}}}

	tests := []struct {
		name      string
		fake      *fakeCompletions
		wantErr   error
		wantCalls int
	}{
		{"no choices", &fakeCompletions{replies: []*openai.ChatCompletion{{}}}, understanding.ErrInvalidResponse, 1},
		{"content filter", &fakeCompletions{replies: []*openai.ChatCompletion{filtered}}, understanding.ErrContentBlocked, 1},
		{"empty message", &fakeCompletions{replies: []*openai.ChatCompletion{completion("  ")}}, understanding.ErrInvalidResponse, 1},
		{
			"transient exhausted",
			&fakeCompletions{errs: []error{errors.New("eof"), errors.New("eof"), errors.New("eof")}, replies: []*openai.ChatCompletion{completion("x")}},
			understanding.ErrTransientFailure,
			3,
		},
		{
			"unauthorized is permanent",
			&fakeCompletions{errs: []error{&openai.Error{StatusCode: 401}}, replies: []*openai.ChatCompletion{completion("x")}},
			understanding.ErrInvalidConfig,
			1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u := newTestUnderstander(t, tc.fake, 2)
			_, err := u.Understand(context.Background(), understanding.Request{
				Transcript: []understanding.Turn{{Role: understanding.RoleUser, Content: "hi"}},
			})
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, tc.wantCalls, tc.fake.calls)
		})
	}
}

func TestNewRequiresKey(t *testing.T) {
	l, _ := logger.NewTestLogger(t)
	_, err := New(l, config.LLMConfig{Provider: "openai"})
	assert.ErrorIs(t, err, understanding.ErrInvalidConfig)

	u, err := New(l, config.LLMConfig{Provider: "openai", OpenAIAPIKey: "sk-test", ModelName: "gpt-4o"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", u.model)
}
