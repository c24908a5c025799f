package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/phrazzld/tasktalk-api/internal/config"
	"github.com/phrazzld/tasktalk-api/internal/understanding"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = openai.ChatModelGPT4oMini

// completeFunc matches the SDK's Chat.Completions.New.
type completeFunc func(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	opts ...option.RequestOption,
) (*openai.ChatCompletion, error)

// Understander implements understanding.Service with OpenAI tool calling.
type Understander struct {
	logger   *slog.Logger
	complete completeFunc
	model    string
	retry    understanding.RetryPolicy
	timeout  time.Duration
}

var _ understanding.Service = (*Understander)(nil)

// New creates an Understander using an API key from cfg.
func New(logger *slog.Logger, cfg config.LLMConfig) (*Understander, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("%w: openai API key cannot be empty", understanding.ErrInvalidConfig)
	}
	client := openai.NewClient(
		option.WithAPIKey(cfg.OpenAIAPIKey),
		option.WithMaxRetries(0),
	)
	return newUnderstander(logger.With("component", "openai_understanding"), cfg, client.Chat.Completions.New), nil
}

func newUnderstander(logger *slog.Logger, cfg config.LLMConfig, complete completeFunc) *Understander {
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
		complete: complete,
		model:    model,
		retry: understanding.RetryPolicy{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.RetryDelay(),
		},
		timeout: timeout,
	}
}

// Understand implements understanding.Service.
func (u *Understander) Understand(ctx context.Context, req understanding.Request) (*understanding.Response, error) {
	params, err := u.buildParams(req)
	if err != nil {
		return nil, err
	}

	return understanding.WithRetry(ctx, u.logger, u.retry, func(ctx context.Context) (*understanding.Response, error) {
		callCtx, cancel := context.WithTimeout(ctx, u.timeout)
		defer cancel()

		u.logger.DebugContext(ctx, "calling OpenAI",
			"model", u.model,
			"messages", len(params.Messages),
			"tools", len(params.Tools))
		resp, err := u.complete(callCtx, params)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, classifyAPIError(err)
		}
		return parseCompletion(resp)
	})
}

func (u *Understander) buildParams(req understanding.Request) (openai.ChatCompletionNewParams, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Transcript)+1)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, turn := range req.Transcript {
		switch turn.Role {
		case understanding.RoleUser:
			messages = append(messages, openai.UserMessage(turn.Content))
		case understanding.RoleAssistant:
			if len(turn.ToolRequests) == 0 {
				messages = append(messages, openai.AssistantMessage(turn.Content))
				continue
			}
			calls := make([]openai.ChatCompletionMessageToolCallParam, len(turn.ToolRequests))
			for i, tr := range turn.ToolRequests {
				args := string(tr.Arguments)
				if args == "" {
					args = "{}"
				}
				calls[i] = openai.ChatCompletionMessageToolCallParam{
					ID:   tr.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tr.Name,
						Arguments: args,
					},
				}
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Role:      "assistant",
					ToolCalls: calls,
				},
			})
		case understanding.RoleTool:
			messages = append(messages, openai.ToolMessage(turn.Content, turn.ToolCallID))
		default:
			return openai.ChatCompletionNewParams{}, fmt.Errorf("%w: unknown transcript role %q",
				understanding.ErrInvalidConfig, turn.Role)
		}
	}

	params := openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    u.model,
	}
	if len(req.Tools) == 0 {
		return params, nil
	}
	params.Tools = make([]openai.ChatCompletionToolParam, len(req.Tools))
	for i, spec := range req.Tools {
		var schema map[string]any
		if err := json.Unmarshal(spec.Parameters, &schema); err != nil {
			return openai.ChatCompletionNewParams{}, fmt.Errorf("%w: tool %s has invalid parameters: %v",
				understanding.ErrInvalidConfig, spec.Name, err)
		}
		params.Tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        spec.Name,
				Description: openai.String(spec.Description),
				Parameters:  schema,
			},
		}
	}
	return params, nil
}

// parseCompletion extracts the first choice.
func parseCompletion(resp *openai.ChatCompletion) (*understanding.Response, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", understanding.ErrInvalidResponse)
	}
	choice := resp.Choices[0]
	if choice.FinishReason == "content_filter" {
		return nil, fmt.Errorf("%w: finish reason content_filter", understanding.ErrContentBlocked)
	}

	out := &understanding.Response{Text: strings.TrimSpace(choice.Message.Content)}
	for i, tc := range choice.Message.ToolCalls {
		args := tc.Function.Arguments
		if strings.TrimSpace(args) == "" {
			args = "{}"
		}
		id := tc.ID
		if id == "" {
			id = fmt.Sprintf("openai-call-%d", i)
		}
		out.ToolRequests = append(out.ToolRequests, understanding.ToolRequest{
			ID:        id,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(args),
		})
	}
	if out.Text == "" && len(out.ToolRequests) == 0 {
		return nil, fmt.Errorf("%w: empty message", understanding.ErrInvalidResponse)
	}
	return out, nil
}

// classifyAPIError marks client-side API failures as permanent. Everything
// else, including 429 and 5xx, stays retryable.
func classifyAPIError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: openai rejected credentials (status %d)", understanding.ErrInvalidConfig, apiErr.StatusCode)
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: openai rejected request (status %d)", understanding.ErrInvalidResponse, apiErr.StatusCode)
	default:
		return err
	}
}
