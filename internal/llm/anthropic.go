package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient is the Anthropic LLM client.
type AnthropicClient struct {
	client *anthropic.Client
}

// NewAnthropicClient creates a new Anthropic client.
func NewAnthropicClient(opts Options) (*AnthropicClient, error) {
	if opts.APIKey == "" {
		return nil, errors.New("Anthropic API key is required")
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	return &AnthropicClient{
		client: anthropic.NewClient(reqOpts...),
	}, nil
}

// Name returns the provider name.
func (c *AnthropicClient) Name() string {
	return "anthropic"
}

// Models returns available models.
func (c *AnthropicClient) Models() []string {
	return []string{
		"claude-3-5-sonnet-20240620",
		"claude-3-haiku-20240307",
		"claude-3-opus-20240229",
	}
}

// Complete sends a completion request.
func (c *AnthropicClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	system, rest := SplitSystem(req.Messages)

	params := anthropic.MessageNewParams{
		Model:     anthropic.F(anthropic.Model(modelOrDefault(req, c))),
		MaxTokens: anthropic.F(int64(maxTokensOrDefault(req))),
		Messages:  anthropic.F(toAnthropicMessages(rest)),
	}
	if system != "" {
		params.System = anthropic.F([]anthropic.TextBlockParam{anthropic.NewTextBlock(system)})
	}
	if len(req.Tools) > 0 {
		tools := make([]anthropic.ToolParam, 0, len(req.Tools))
		for _, t := range req.Tools {
			tools = append(tools, anthropic.ToolParam{
				Name:        anthropic.F(t.Name),
				Description: anthropic.F(t.Description),
				InputSchema: anthropic.F[interface{}](t.JSONSchema()),
			})
		}
		params.Tools = anthropic.F(tools)
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic completion: %w", err)
	}

	out := &CompletionResponse{
		Model:      string(resp.Model),
		TokensIn:   int(resp.Usage.InputTokens),
		TokensOut:  int(resp.Usage.OutputTokens),
		StopReason: string(resp.StopReason),
		LatencyMs:  since(start),
	}
	for _, block := range resp.Content {
		switch block.Type {
		case anthropic.ContentBlockTypeText:
			out.Content += block.Text
		case anthropic.ContentBlockTypeToolUse:
			args, err := json.Marshal(block.Input)
			if err != nil {
				return nil, fmt.Errorf("anthropic tool input: %w", err)
			}
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: string(args),
			})
		}
	}

	return out, nil
}

// toAnthropicMessages maps the conversation onto user and assistant turns.
// Tool results are sent as user turns carrying a tool_result block.
func toAnthropicMessages(messages []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case RoleTool:
			out = append(out, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false),
			))
		default:
			var blocks []anthropic.MessageParamContentUnion
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlockParam(tc.ID, tc.Name, rawArguments(tc.Arguments)))
			}
			if len(blocks) == 0 {
				continue
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		}
	}
	return out
}

func rawArguments(args string) json.RawMessage {
	if json.Valid([]byte(args)) {
		return json.RawMessage(args)
	}
	return json.RawMessage("{}")
}
