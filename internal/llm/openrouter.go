package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultOpenRouterBaseURL is the OpenAI-compatible OpenRouter endpoint.
const DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterClient talks to OpenRouter through the OpenAI SDK.
type OpenRouterClient struct {
	client openaisdk.Client
}

// NewOpenRouterClient creates a new OpenRouter client.
func NewOpenRouterClient(opts Options) (*OpenRouterClient, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("OpenRouter API key is required")
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultOpenRouterBaseURL
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
	}
	if opts.SiteName != "" {
		reqOpts = append(reqOpts,
			option.WithHeader("HTTP-Referer", opts.SiteName),
			option.WithHeader("X-Title", opts.SiteName),
		)
	}

	return &OpenRouterClient{client: openaisdk.NewClient(reqOpts...)}, nil
}

// Name returns the provider name.
func (c *OpenRouterClient) Name() string {
	return "openrouter"
}

// Models returns available models.
func (c *OpenRouterClient) Models() []string {
	return []string{
		"x-ai/grok-4-fast:free",
		"openai/gpt-4o-mini",
		"anthropic/claude-3.5-haiku",
		"google/gemini-2.0-flash-001",
	}
}

// Complete sends a completion request.
func (c *OpenRouterClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	params := openaisdk.ChatCompletionNewParams{
		Model:     openaisdk.ChatModel(modelOrDefault(req, c)),
		Messages:  toOpenRouterMessages(req.Messages),
		MaxTokens: openaisdk.Int(int64(maxTokensOrDefault(req))),
	}
	for _, t := range req.Tools {
		params.Tools = append(params.Tools, openaisdk.ChatCompletionToolParam{
			Function: openaisdk.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openaisdk.String(t.Description),
				Parameters:  openaisdk.FunctionParameters(t.JSONSchema()),
			},
		})
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openrouter completion: %w", err)
	}

	out := &CompletionResponse{
		Model:     resp.Model,
		TokensIn:  int(resp.Usage.PromptTokens),
		TokensOut: int(resp.Usage.CompletionTokens),
		LatencyMs: since(start),
	}
	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]
		out.Content = choice.Message.Content
		out.StopReason = choice.FinishReason
		for _, tc := range choice.Message.ToolCalls {
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
	}

	return out, nil
}

func toOpenRouterMessages(messages []Message) []openaisdk.ChatCompletionMessageParamUnion {
	out := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			out = append(out, openaisdk.SystemMessage(msg.Content))
		case RoleUser:
			out = append(out, openaisdk.UserMessage(msg.Content))
		case RoleTool:
			out = append(out, openaisdk.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			if len(msg.ToolCalls) == 0 {
				out = append(out, openaisdk.AssistantMessage(msg.Content))
				continue
			}
			assistant := &openaisdk.ChatCompletionAssistantMessageParam{}
			if msg.Content != "" {
				assistant.Content.OfString = openaisdk.String(msg.Content)
			}
			for _, tc := range msg.ToolCalls {
				assistant.ToolCalls = append(assistant.ToolCalls, openaisdk.ChatCompletionMessageToolCallParam{
					ID: tc.ID,
					Function: openaisdk.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			out = append(out, openaisdk.ChatCompletionMessageParamUnion{OfAssistant: assistant})
		}
	}
	return out
}
