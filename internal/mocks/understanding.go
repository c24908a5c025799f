package mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/phrazzld/tasktalk-api/internal/understanding"
)

// Step is one scripted round trip.
type Step struct {
	Response *understanding.Response
	Err      error
}

// TextStep scripts a plain reply.
func TextStep(text string) Step {
	return Step{Response: &understanding.Response{Text: text}}
}

// ToolStep scripts a response requesting the given tools.
func ToolStep(requests ...understanding.ToolRequest) Step {
	return Step{Response: &understanding.Response{ToolRequests: requests}}
}

// ErrorStep scripts a failed round trip.
func ErrorStep(err error) Step {
	return Step{Err: err}
}

// ToolCall builds a tool request with a generated id.
func ToolCall(name, args string) understanding.ToolRequest {
	return understanding.ToolRequest{Name: name, Arguments: json.RawMessage(args)}
}

// ScriptedUnderstanding implements understanding.Service by replaying steps
// in order. Running past the script is an error.
type ScriptedUnderstanding struct {
	// UnderstandFn overrides the script when set.
	UnderstandFn func(ctx context.Context, req understanding.Request) (*understanding.Response, error)

	mu       sync.Mutex
	steps    []Step
	requests []understanding.Request
}

// NewScriptedUnderstanding creates a mock that replays steps.
func NewScriptedUnderstanding(steps ...Step) *ScriptedUnderstanding {
	return &ScriptedUnderstanding{steps: steps}
}

// Understand implements understanding.Service.
func (m *ScriptedUnderstanding) Understand(
	ctx context.Context,
	req understanding.Request,
) (*understanding.Response, error) {
	m.mu.Lock()
	n := len(m.requests)
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.UnderstandFn != nil {
		return m.UnderstandFn(ctx, req)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n >= len(m.steps) {
		return nil, fmt.Errorf("%w: scripted understanding exhausted after %d calls",
			understanding.ErrServiceFailure, len(m.steps))
	}

	step := m.steps[n]
	if step.Err != nil {
		return nil, step.Err
	}
	resp := *step.Response
	for i := range resp.ToolRequests {
		if resp.ToolRequests[i].ID == "" {
			resp.ToolRequests[i].ID = fmt.Sprintf("call_%d_%d", n, i)
		}
	}
	return &resp, nil
}

// Requests returns a copy of every request received so far.
func (m *ScriptedUnderstanding) Requests() []understanding.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]understanding.Request(nil), m.requests...)
}

// Calls returns how many round trips were made.
func (m *ScriptedUnderstanding) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
