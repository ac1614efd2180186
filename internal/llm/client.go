// Package llm provides LLM client interfaces and implementations.
package llm

import (
	"context"
	"fmt"
	"time"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry of the conversation sent to a provider.
type Message struct {
	Role    string
	Content string

	// ToolCalls are the calls requested by an assistant message.
	ToolCalls []ToolCall

	// ToolCallID and Name identify the call a tool message answers.
	ToolCallID string
	Name       string
}

// ToolCall is a tool invocation requested by the model. Arguments holds the
// raw JSON object text.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Param is a string parameter of a tool.
type Param struct {
	Name        string
	Description string
	Required    bool
}

// Tool describes a function the model may call.
type Tool struct {
	Name        string
	Description string
	Params      []Param
}

// JSONSchema returns the parameters as a JSON schema object.
func (t Tool) JSONSchema() map[string]any {
	properties := make(map[string]any, len(t.Params))
	required := make([]string, 0, len(t.Params))
	for _, p := range t.Params {
		properties[p.Name] = map[string]any{
			"type":        "string",
			"description": p.Description,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

// CompletionRequest represents a completion request. Messages may start with
// a system message; each client moves it where its provider expects it.
type CompletionRequest struct {
	Model     string
	Messages  []Message
	Tools     []Tool
	MaxTokens int
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    string
	ToolCalls  []ToolCall
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for LLM providers.
type Client interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string

	// Models returns available models. The first one is the default.
	Models() []string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderOpenRouter Provider = "openrouter"
	ProviderOpenAI     Provider = "openai"
	ProviderAnthropic  Provider = "anthropic"
	ProviderGemini     Provider = "gemini"
)

// Options configures a client.
type Options struct {
	APIKey string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	// SiteName is sent to OpenRouter as the X-Title header.
	SiteName string
}

// NewClient creates a new LLM client based on provider.
func NewClient(ctx context.Context, provider Provider, opts Options) (Client, error) {
	switch provider {
	case ProviderOpenRouter:
		return NewOpenRouterClient(opts)
	case ProviderOpenAI:
		return NewOpenAIClient(opts)
	case ProviderAnthropic:
		return NewAnthropicClient(opts)
	case ProviderGemini:
		return NewGeminiClient(ctx, opts)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", provider)
	}
}

// SplitSystem separates a leading system message from the rest.
func SplitSystem(messages []Message) (string, []Message) {
	if len(messages) > 0 && messages[0].Role == RoleSystem {
		return messages[0].Content, messages[1:]
	}
	return "", messages
}

func modelOrDefault(req *CompletionRequest, c Client) string {
	if req.Model != "" {
		return req.Model
	}
	return c.Models()[0]
}

func maxTokensOrDefault(req *CompletionRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return 1024
}

func since(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
