package understanding

import (
	"context"
	"encoding/json"
)

// Role labels a transcript turn.
type Role string

// Transcript roles. RoleTool turns carry the outcome of one tool request.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolRequest is one tool invocation asked for by the service.
// Arguments is the raw JSON object the provider produced.
type ToolRequest struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Turn is one entry of the transcript sent to the service.
//
// An assistant turn either has Content or ToolRequests. A tool turn answers
// the request with ID ToolCallID and carries its JSON result in Content.
type Turn struct {
	Role         Role
	Content      string
	ToolRequests []ToolRequest
	ToolCallID   string
	ToolName     string
}

// ToolSpec describes one callable tool. Parameters is a JSON Schema object.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// Request is a single round trip to the service.
type Request struct {
	System     string
	Transcript []Turn
	Tools      []ToolSpec
}

// Response holds either a reply or at least one tool request.
type Response struct {
	Text         string
	ToolRequests []ToolRequest
}

// WantsTools reports whether the service asked for tool execution.
func (r *Response) WantsTools() bool {
	return r != nil && len(r.ToolRequests) > 0
}

// Service is implemented by each provider adapter.
type Service interface {
	// Understand performs one round trip. Implementations honour ctx
	// cancellation and return errors wrapping ErrServiceFailure.
	Understand(ctx context.Context, req Request) (*Response, error)
}

// ServiceFunc adapts a function to Service.
type ServiceFunc func(ctx context.Context, req Request) (*Response, error)

// Understand calls f.
func (f ServiceFunc) Understand(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}
