package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/phrazzld/tasktalk-api/internal/config"
	"github.com/phrazzld/tasktalk-api/internal/platform/logger"
	"github.com/phrazzld/tasktalk-api/internal/tools"
	"github.com/phrazzld/tasktalk-api/internal/understanding"
)

type fakeGenerate struct {
	calls     int
	lastModel string
	contents  []*genai.Content
	cfg       *genai.GenerateContentConfig
	replies   []*genai.GenerateContentResponse
	errs      []error
}

func (f *fakeGenerate) generate(
	_ context.Context,
	model string,
	contents []*genai.Content,
	cfg *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	i := f.calls
	f.calls++
	f.lastModel, f.contents, f.cfg = model, contents, cfg
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.replies) {
		return f.replies[i], nil
	}
	return f.replies[len(f.replies)-1], nil
}

func textReply(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Role: roleModel, Parts: []*genai.Part{{Text: text}}},
	}}}
}

func newTestUnderstander(t *testing.T, f *fakeGenerate, retries int) *Understander {
	t.Helper()
	l, _ := logger.NewTestLogger(t)
	u := newUnderstander(l, config.LLMConfig{MaxRetries: retries, RetryDelaySeconds: 1, RequestTimeoutSeconds: 5}, f.generate)
	u.retry.Sleep = func(context.Context, time.Duration) error { return nil }
	return u
}

func TestUnderstandSendsCatalogAsFunctions(t *testing.T) {
	f := &fakeGenerate{replies: []*genai.GenerateContentResponse{textReply("hello")}}
	u := newTestUnderstander(t, f, 0)

	resp, err := u.Understand(context.Background(), understanding.Request{
		System:     "be helpful",
		Transcript: []understanding.Turn{{Role: understanding.RoleUser, Content: "hi"}},
		Tools:      tools.Catalog(),
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Text)
	assert.Equal(t, DefaultModel, f.lastModel)

	require.NotNil(t, f.cfg.SystemInstruction)
	assert.Equal(t, "be helpful", f.cfg.SystemInstruction.Parts[0].Text)
	require.Len(t, f.cfg.Tools, 1)
	decls := f.cfg.Tools[0].FunctionDeclarations
	require.Len(t, decls, 5)
	assert.Equal(t, "add_task", decls[0].Name)
	assert.Equal(t, []string{"title"}, decls[0].Parameters.Required)
	require.NotNil(t, decls[0].Parameters.Properties["title"].MaxLength)
	assert.Equal(t, int64(200), *decls[0].Parameters.Properties["title"].MaxLength)

	update := decls[2]
	assert.Equal(t, "update_task", update.Name)
	assert.Equal(t, genai.TypeInteger, update.Parameters.Properties["task_id"].Type)
	assert.Equal(t, []string{"all", "active", "completed"}, decls[1].Parameters.Properties["status"].Enum)
	assert.Equal(t, genai.FunctionCallingConfigModeAuto, f.cfg.ToolConfig.FunctionCallingConfig.Mode)
}

func TestUnderstandWithoutToolsOmitsFunctions(t *testing.T) {
	f := &fakeGenerate{replies: []*genai.GenerateContentResponse{textReply("summary")}}
	u := newTestUnderstander(t, f, 0)

	_, err := u.Understand(context.Background(), understanding.Request{
		Transcript: []understanding.Turn{{Role: understanding.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Empty(t, f.cfg.Tools)
	assert.Nil(t, f.cfg.ToolConfig)
}

func TestUnderstandParsesFunctionCalls(t *testing.T) {
	f := &fakeGenerate{replies: []*genai.GenerateContentResponse{{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Role: roleModel, Parts: []*genai.Part{
			{FunctionCall: &genai.FunctionCall{Name: "add_task", Args: map[string]any{"title": "buy milk"}}},
			{FunctionCall: &genai.FunctionCall{ID: "abc", Name: "list_tasks"}},
		}},
	}}}}}
	u := newTestUnderstander(t, f, 0)

	resp, err := u.Understand(context.Background(), understanding.Request{
		Transcript: []understanding.Turn{{Role: understanding.RoleUser, Content: "add buy milk"}},
	})
	require.NoError(t, err)
	require.True(t, resp.WantsTools())
	require.Len(t, resp.ToolRequests, 2)
	assert.Equal(t, "gemini-call-0", resp.ToolRequests[0].ID)
	assert.JSONEq(t, `{"title":"buy milk"}`, string(resp.ToolRequests[0].Arguments))
	assert.Equal(t, "abc", resp.ToolRequests[1].ID)
	assert.JSONEq(t, `{}`, string(resp.ToolRequests[1].Arguments))
}

func TestToContentsMergesToolResults(t *testing.T) {
	contents, err := toContents([]understanding.Turn{
		{Role: understanding.RoleUser, Content: "add two"},
		{Role: understanding.RoleAssistant, ToolRequests: []understanding.ToolRequest{
			{ID: "1", Name: "add_task", Arguments: json.RawMessage(`{"title":"a"}`)},
			{ID: "2", Name: "add_task", Arguments: json.RawMessage(`{"title":"b"}`)},
		}},
		{Role: understanding.RoleTool, ToolCallID: "1", ToolName: "add_task", Content: `{"status":"success"}`},
		{Role: understanding.RoleTool, ToolCallID: "2", ToolName: "add_task", Content: `not json`},
	})
	require.NoError(t, err)
	require.Len(t, contents, 3)

	assert.Equal(t, roleModel, contents[1].Role)
	require.Len(t, contents[1].Parts, 2)
	assert.Equal(t, "a", contents[1].Parts[0].FunctionCall.Args["title"])

	results := contents[2]
	assert.Equal(t, roleUser, results.Role)
	require.Len(t, results.Parts, 2)
	assert.Equal(t, "success", results.Parts[0].FunctionResponse.Response["status"])
	assert.Equal(t, "2", results.Parts[1].FunctionResponse.ID)
	assert.Equal(t, "not json", results.Parts[1].FunctionResponse.Response["output"])
}

func TestUnderstandErrors(t *testing.T) {
	blocked := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}}}
	empty := &genai.GenerateContentResponse{}

	tests := []struct {
		name      string
		fake      *fakeGenerate
		retries   int
		wantErr   error
		wantCalls int
	}{
		{
			name:      "blocked is permanent",
			fake:      &fakeGenerate{replies: []*genai.GenerateContentResponse{blocked}},
			retries:   3,
			wantErr:   understanding.ErrContentBlocked,
			wantCalls: 1,
		},
		{
			name:      "no candidates is permanent",
			fake:      &fakeGenerate{replies: []*genai.GenerateContentResponse{empty}},
			retries:   3,
			wantErr:   understanding.ErrInvalidResponse,
			wantCalls: 1,
		},
		{
			name:      "transient errors exhaust retries",
			fake:      &fakeGenerate{errs: []error{errors.New("503"), errors.New("503"), errors.New("503")}, replies: []*genai.GenerateContentResponse{textReply("late")}},
			retries:   2,
			wantErr:   understanding.ErrTransientFailure,
			wantCalls: 3,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u := newTestUnderstander(t, tc.fake, tc.retries)
			_, err := u.Understand(context.Background(), understanding.Request{
				Transcript: []understanding.Turn{{Role: understanding.RoleUser, Content: "hi"}},
			})
			assert.ErrorIs(t, err, tc.wantErr)
			assert.ErrorIs(t, err, understanding.ErrServiceFailure)
			assert.Equal(t, tc.wantCalls, tc.fake.calls)
		})
	}
}

func TestUnderstandRecoversFromTransientError(t *testing.T) {
	f := &fakeGenerate{
		errs:    []error{errors.New("connection reset"), nil},
		replies: []*genai.GenerateContentResponse{nil, textReply("recovered")},
	}
	u := newTestUnderstander(t, f, 2)

	resp, err := u.Understand(context.Background(), understanding.Request{
		Transcript: []understanding.Turn{{Role: understanding.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", resp.Text)
	assert.Equal(t, 2, f.calls)
}

func TestNewRejectsMissingKey(t *testing.T) {
	l, _ := logger.NewTestLogger(t)
	_, err := New(context.Background(), l, config.LLMConfig{Provider: "gemini"})
	assert.ErrorIs(t, err, understanding.ErrInvalidConfig)

	_, err = New(context.Background(), nil, config.LLMConfig{GeminiAPIKey: "k"})
	assert.Error(t, err)
}
