package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/phrazzld/tasktalk-api/internal/config"
	"github.com/phrazzld/tasktalk-api/internal/understanding"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.0-flash"

// Gemini content roles.
const (
	roleUser  = "user"
	roleModel = "model"
)

// generateFunc matches genai's Models.GenerateContent.
type generateFunc func(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	cfg *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error)

// Understander implements understanding.Service with Gemini function calling.
type Understander struct {
	logger   *slog.Logger
	generate generateFunc
	model    string
	retry    understanding.RetryPolicy
	timeout  time.Duration
}

var _ understanding.Service = (*Understander)(nil)

// New creates an Understander backed by a genai client.
func New(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Understander, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	logger = logger.With("component", "gemini_understanding")
	if err := validateConfig(ctx, logger, cfg); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", understanding.ErrInvalidConfig, err)
	}
	return newUnderstander(logger, cfg, client.Models.GenerateContent), nil
}

func newUnderstander(logger *slog.Logger, cfg config.LLMConfig, generate generateFunc) *Understander {
	model := cfg.ModelName
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.RequestTimeout()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Understander{
		logger:   logger,
		generate: generate,
		model:    model,
		retry: understanding.RetryPolicy{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.RetryDelay(),
		},
		timeout: timeout,
	}
}

// Understand implements understanding.Service.
func (g *Understander) Understand(ctx context.Context, req understanding.Request) (*understanding.Response, error) {
	contents, err := toContents(req.Transcript)
	if err != nil {
		return nil, err
	}
	gcfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		gcfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	if len(req.Tools) > 0 {
		tool, err := declarations(req.Tools)
		if err != nil {
			return nil, err
		}
		gcfg.Tools = []*genai.Tool{tool}
		gcfg.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingConfigModeAuto},
		}
	}

	return understanding.WithRetry(ctx, g.logger, g.retry, func(ctx context.Context) (*understanding.Response, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		g.logger.DebugContext(ctx, "calling Gemini",
			"model", g.model,
			"contents", len(contents),
			"tools", len(req.Tools))
		resp, err := g.generate(callCtx, g.model, contents, gcfg)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			g.logger.WarnContext(ctx, "Gemini API call error", "error", err)
			return nil, err
		}
		return parseResponse(resp)
	})
}

// toContents converts the transcript. Consecutive tool turns are merged into
// one user content, as Gemini expects all function responses of a model
// turn together.
func toContents(transcript []understanding.Turn) ([]*genai.Content, error) {
	out := make([]*genai.Content, 0, len(transcript))
	for _, turn := range transcript {
		switch turn.Role {
		case understanding.RoleUser:
			out = append(out, &genai.Content{Role: roleUser, Parts: []*genai.Part{{Text: turn.Content}}})

		case understanding.RoleAssistant:
			c := &genai.Content{Role: roleModel}
			if turn.Content != "" {
				c.Parts = append(c.Parts, &genai.Part{Text: turn.Content})
			}
			for _, tr := range turn.ToolRequests {
				args := map[string]any{}
				if len(tr.Arguments) > 0 {
					if err := json.Unmarshal(tr.Arguments, &args); err != nil {
						return nil, fmt.Errorf("%w: tool request %s has invalid arguments: %v",
							understanding.ErrInvalidResponse, tr.Name, err)
					}
				}
				c.Parts = append(c.Parts, &genai.Part{FunctionCall: &genai.FunctionCall{ID: tr.ID, Name: tr.Name, Args: args}})
			}
			out = append(out, c)

		case understanding.RoleTool:
			var payload map[string]any
			if err := json.Unmarshal([]byte(turn.Content), &payload); err != nil {
				payload = map[string]any{"output": turn.Content}
			}
			part := &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       turn.ToolCallID,
				Name:     turn.ToolName,
				Response: payload,
			}}
			if n := len(out); n > 0 && isFunctionResponses(out[n-1]) {
				out[n-1].Parts = append(out[n-1].Parts, part)
			} else {
				out = append(out, &genai.Content{Role: roleUser, Parts: []*genai.Part{part}})
			}

		default:
			return nil, fmt.Errorf("%w: unknown transcript role %q", understanding.ErrInvalidConfig, turn.Role)
		}
	}
	return out, nil
}

func isFunctionResponses(c *genai.Content) bool {
	if c.Role != roleUser || len(c.Parts) == 0 {
		return false
	}
	for _, p := range c.Parts {
		if p.FunctionResponse == nil {
			return false
		}
	}
	return true
}

// parseResponse extracts reply text and function calls from the first
// candidate.
func parseResponse(resp *genai.GenerateContentResponse) (*understanding.Response, error) {
	switch {
	case resp == nil:
		return nil, fmt.Errorf("%w: nil response", understanding.ErrInvalidResponse)
	case len(resp.Candidates) == 0:
		return nil, fmt.Errorf("%w: no candidates", understanding.ErrInvalidResponse)
	}
	cand := resp.Candidates[0]
	if cand.FinishReason == genai.FinishReasonSafety {
		return nil, fmt.Errorf("%w: finish reason %s", understanding.ErrContentBlocked, cand.FinishReason)
	}
	if cand.Content == nil {
		return nil, fmt.Errorf("%w: empty content in response", understanding.ErrInvalidResponse)
	}

	var (
		text strings.Builder
		out  understanding.Response
	)
	for _, part := range cand.Content.Parts {
		if part == nil {
			continue
		}
		if part.FunctionCall != nil {
			args, err := json.Marshal(part.FunctionCall.Args)
			if err != nil {
				return nil, fmt.Errorf("%w: function call arguments: %v", understanding.ErrInvalidResponse, err)
			}
			if part.FunctionCall.Args == nil {
				args = []byte("{}")
			}
			id := part.FunctionCall.ID
			if id == "" {
				id = fmt.Sprintf("gemini-call-%d", len(out.ToolRequests))
			}
			out.ToolRequests = append(out.ToolRequests, understanding.ToolRequest{
				ID:        id,
				Name:      part.FunctionCall.Name,
				Arguments: args,
			})
			continue
		}
		text.WriteString(part.Text)
	}
	out.Text = strings.TrimSpace(text.String())

	if out.Text == "" && len(out.ToolRequests) == 0 {
		return nil, fmt.Errorf("%w: no text or function calls", understanding.ErrInvalidResponse)
	}
	return &out, nil
}
