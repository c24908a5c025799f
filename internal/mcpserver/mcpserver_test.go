package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/tasktalk-api/internal/mocks"
	"github.com/phrazzld/tasktalk-api/internal/platform/logger"
	"github.com/phrazzld/tasktalk-api/internal/platform/memory"
	"github.com/phrazzld/tasktalk-api/internal/service/auth"
	"github.com/phrazzld/tasktalk-api/internal/tools"
)

type rpcResponse struct {
	Result struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type harness struct {
	srv *Server
	id  int
}

func newHarness(t *testing.T, owner int64, st *memory.Store) *harness {
	t.Helper()
	l, _ := logger.NewTestLogger(t)
	exec := tools.NewExecutor(st.Tasks(), tools.MustDecoder(), l)
	srv, err := New(exec, owner, l)
	require.NoError(t, err)
	h := &harness{srv: srv}
	h.send(t, "initialize", map[string]any{
		"protocolVersion": "2024-11-05",
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": "test", "version": "1"},
	})
	return h
}

func (h *harness) send(t *testing.T, method string, params any) rpcResponse {
	t.Helper()
	h.id++
	msg, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      h.id,
		"method":  method,
		"params":  params,
	})
	require.NoError(t, err)

	reply := h.srv.MCP().HandleMessage(context.Background(), msg)
	out, err := json.Marshal(reply)
	require.NoError(t, err)

	var resp rpcResponse
	require.NoError(t, json.Unmarshal(out, &resp))
	require.Nil(t, resp.Error, "rpc error for %s", method)
	return resp
}

func (h *harness) call(t *testing.T, name string, args map[string]any) (tools.Result, bool) {
	t.Helper()
	resp := h.send(t, "tools/call", map[string]any{"name": name, "arguments": args})
	require.Len(t, resp.Result.Content, 1)
	var res tools.Result
	require.NoError(t, json.Unmarshal([]byte(resp.Result.Content[0].Text), &res))
	return res, resp.Result.IsError
}

func TestToolsListAdvertisesCatalog(t *testing.T) {
	h := newHarness(t, 7, memory.New())
	resp := h.send(t, "tools/list", map[string]any{})

	names := make([]string, 0, len(resp.Result.Tools))
	for _, tool := range resp.Result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t,
		[]string{tools.WireCreate, tools.WireList, tools.WireUpdate, tools.WireComplete, tools.WireDelete},
		names)
}

func TestToolCallsRunForBoundOwner(t *testing.T) {
	st := memory.New()
	h := newHarness(t, 7, st)

	res, isErr := h.call(t, tools.WireCreate, map[string]any{"title": "buy milk"})
	require.False(t, isErr)
	assert.Equal(t, tools.StatusSuccess, res.Status)

	res, isErr = h.call(t, tools.WireList, map[string]any{"status": "active"})
	require.False(t, isErr)
	payload, ok := res.Payload.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, payload["count"])

	other := newHarness(t, 8, st)
	res, isErr = other.call(t, tools.WireComplete, map[string]any{"task_id": 1})
	assert.True(t, isErr)
	assert.Equal(t, "Task not found", res.Error)
}

func TestToolCallErrorsBecomeToolErrors(t *testing.T) {
	h := newHarness(t, 7, memory.New())

	res, isErr := h.call(t, tools.WireCreate, map[string]any{"title": "   "})
	assert.True(t, isErr)
	assert.Equal(t, tools.StatusError, res.Status)

	res, isErr = h.call(t, tools.WireDelete, map[string]any{})
	assert.True(t, isErr)
	assert.NotEmpty(t, res.Error)
}

func TestAuthorize(t *testing.T) {
	tokens := &mocks.MockTokenService{}
	owner, err := Authorize(context.Background(), tokens, "user-42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), owner)

	_, err = Authorize(context.Background(), tokens, "forged")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = Authorize(context.Background(), tokens, "")
	assert.Error(t, err)

	_, err = Authorize(context.Background(), nil, "user-1")
	assert.Error(t, err)
}

func TestNewValidatesArguments(t *testing.T) {
	_, err := New(nil, 1, nil)
	assert.Error(t, err)

	exec := tools.NewExecutor(memory.New().Tasks(), tools.MustDecoder(), nil)
	for _, owner := range []int64{0, -1} {
		t.Run(fmt.Sprint(owner), func(t *testing.T) {
			_, err := New(exec, owner, nil)
			assert.Error(t, err)
		})
	}
}
