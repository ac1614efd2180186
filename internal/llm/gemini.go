package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// GeminiClient is the Google Gemini LLM client.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(ctx context.Context, opts Options) (*GeminiClient, error) {
	if opts.APIKey == "" {
		return nil, errors.New("Gemini API key is required")
	}

	clientOpts := []option.ClientOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.BaseURL))
	}

	client, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

// Name returns the provider name.
func (c *GeminiClient) Name() string {
	return "gemini"
}

// Models returns available models.
func (c *GeminiClient) Models() []string {
	return []string{
		"gemini-1.5-flash",
		"gemini-1.5-pro",
	}
}

// Close releases the underlying connection.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// Complete sends a completion request.
func (c *GeminiClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	modelName := modelOrDefault(req, c)
	model := c.client.GenerativeModel(modelName)
	model.SetMaxOutputTokens(int32(maxTokensOrDefault(req)))

	system, rest := SplitSystem(req.Messages)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, geminiFunction(t))
		}
		model.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	contents := toGeminiContents(rest)
	if len(contents) == 0 {
		return nil, errors.New("gemini completion: no messages")
	}

	cs := model.StartChat()
	cs.History = contents[:len(contents)-1]
	resp, err := cs.SendMessage(ctx, contents[len(contents)-1].Parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini completion: %w", err)
	}

	out := &CompletionResponse{
		Model:     modelName,
		LatencyMs: since(start),
	}
	if resp.UsageMetadata != nil {
		out.TokensIn = int(resp.UsageMetadata.PromptTokenCount)
		out.TokensOut = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return out, nil
	}

	candidate := resp.Candidates[0]
	out.StopReason = candidate.FinishReason.String()

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			sb.WriteString(string(p))
		case genai.FunctionCall:
			args, err := json.Marshal(p.Args)
			if err != nil {
				return nil, fmt.Errorf("gemini function args: %w", err)
			}
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID:        uuid.New().String(),
				Name:      p.Name,
				Arguments: string(args),
			})
		}
	}
	out.Content = sb.String()

	return out, nil
}

func geminiFunction(t Tool) *genai.FunctionDeclaration {
	schema := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(t.Params)),
	}
	for _, p := range t.Params {
		schema.Properties[p.Name] = &genai.Schema{
			Type:        genai.TypeString,
			Description: p.Description,
		}
		if p.Required {
			schema.Required = append(schema.Required, p.Name)
		}
	}

	decl := &genai.FunctionDeclaration{
		Name:        t.Name,
		Description: t.Description,
	}
	if len(t.Params) > 0 {
		decl.Parameters = schema
	}
	return decl
}

// toGeminiContents maps the conversation onto user and model turns. Tool
// calls and tool results travel as function call and function response parts.
func toGeminiContents(messages []Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleUser:
			out = append(out, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(msg.Content)}})
		case RoleTool:
			out = append(out, &genai.Content{Role: "user", Parts: []genai.Part{
				genai.FunctionResponse{
					Name:     msg.Name,
					Response: map[string]any{"result": msg.Content},
				},
			}})
		default:
			var parts []genai.Part
			if msg.Content != "" {
				parts = append(parts, genai.Text(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				args := map[string]any{}
				_ = json.Unmarshal([]byte(tc.Arguments), &args)
				parts = append(parts, genai.FunctionCall{Name: tc.Name, Args: args})
			}
			if len(parts) == 0 {
				continue
			}
			out = append(out, &genai.Content{Role: "model", Parts: parts})
		}
	}
	return out
}
