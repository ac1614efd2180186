// Package service runs one conversational turn against the LLM and the
// booking tools.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/schedura-ai/booking-assistant/internal/business"
	"github.com/schedura-ai/booking-assistant/internal/llm"
	"github.com/schedura-ai/booking-assistant/internal/model"
	"github.com/schedura-ai/booking-assistant/internal/tools"
	"github.com/schedura-ai/booking-assistant/pkg/logger"
	"github.com/schedura-ai/booking-assistant/pkg/metrics"
	"github.com/schedura-ai/booking-assistant/pkg/tracing"
)

// Reply texts.
const (
	textServiceOptions = "Of course! Here are the services we offer:"
	textDateRequest    = "Perfect. Now, please pick a date for your appointment."
	textSlotOptions    = "Here are the available slots for %s:"
	textNoSlots        = "Sorry, no slots are available on %s. Please try another date."
)

// Toolset is the set of operations the model may trigger.
type Toolset interface {
	GetAvailableServices(ctx context.Context) ([]business.Service, error)
	GetAvailableSlots(ctx context.Context, date string) ([]string, error)
	BookAppointment(ctx context.Context, req tools.BookingRequest) string
}

// ChatOptions holds optional chat settings.
type ChatOptions struct {
	Model     string
	MaxTokens int
	// Location is used for "today" when the business document names no timezone.
	Location *time.Location
	Now      func() time.Time
}

// ChatService handles chat turns.
type ChatService struct {
	config    tools.ConfigProvider
	llmClient llm.Client
	tools     Toolset
	logger    *logger.Logger

	model     string
	maxTokens int
	location  *time.Location
	now       func() time.Time
}

// NewChatService creates a new chat service.
func NewChatService(config tools.ConfigProvider, llmClient llm.Client, toolset Toolset, log *logger.Logger, opts ChatOptions) *ChatService {
	s := &ChatService{
		config:    config,
		llmClient: llmClient,
		tools:     toolset,
		logger:    log,
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
		location:  opts.Location,
		now:       opts.Now,
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = logger.Global()
	}
	return s
}

// Chat answers the latest turn of a conversation. At most one tool call is
// executed per turn. Errors are returned only for failures outside a tool:
// an unreadable business document or a failed completion.
func (s *ChatService) Chat(ctx context.Context, req *model.ChatRequest) (*model.ChatReply, error) {
	ctx, span := tracing.Start(ctx, "chat.turn",
		attribute.String("session_id", req.SessionID),
		attribute.Int("messages", len(req.Messages)),
	)

	reply, err := s.chat(ctx, req)
	tracing.End(span, err)
	if err != nil {
		return nil, err
	}

	metrics.RecordReply(string(reply.Type))
	return reply, nil
}

func (s *ChatService) chat(ctx context.Context, req *model.ChatRequest) (*model.ChatReply, error) {
	log := logger.FromContext(ctx, s.logger)

	cfg, err := s.config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load business config: %w", err)
	}

	today := s.now().In(cfg.Location(s.location))
	messages := make([]llm.Message, 0, len(req.Messages)+1)
	messages = append(messages, llm.Message{
		Role:    llm.RoleSystem,
		Content: SystemPrompt(cfg.BusinessName, today),
	})
	for _, m := range req.Messages {
		messages = append(messages, llm.Message{Role: string(m.Role()), Content: m.Text})
	}

	resp, err := s.complete(ctx, messages, tools.Definitions())
	if err != nil {
		return nil, err
	}

	if len(resp.ToolCalls) == 0 {
		return textReply(resp.Content), nil
	}

	call := resp.ToolCalls[0]
	if len(resp.ToolCalls) > 1 {
		log.Info("Model proposed several tool calls, running the first",
			zap.Int("proposed", len(resp.ToolCalls)),
			zap.String("tool", call.Name))
	}
	args := ParseArguments(call.Arguments)

	log.Info("Tool call requested",
		zap.String("tool", call.Name),
		zap.String("tool_call_id", call.ID))

	switch call.Name {
	case tools.ToolGetAvailableServices:
		services, err := s.tools.GetAvailableServices(ctx)
		if err != nil {
			log.Warn("Service catalog unavailable", zap.Error(err))
			return textReply(tools.DescribeServicesError(err)), nil
		}
		return &model.ChatReply{
			Type: model.ReplyServiceOptions,
			Text: textServiceOptions,
			Data: services,
		}, nil

	case tools.ToolGetAvailableSlots:
		date := strings.TrimSpace(args[tools.ArgDate])
		if date == "" {
			return &model.ChatReply{Type: model.ReplyDateRequest, Text: textDateRequest}, nil
		}
		slots, err := s.tools.GetAvailableSlots(ctx, date)
		if err != nil {
			log.Warn("Slot lookup failed", zap.String("date", date), zap.Error(err))
			return textReply(tools.DescribeSlotsError(err)), nil
		}
		if len(slots) == 0 {
			return textReply(fmt.Sprintf(textNoSlots, date)), nil
		}
		return &model.ChatReply{
			Type: model.ReplySlotOptions,
			Text: fmt.Sprintf(textSlotOptions, date),
			Data: slots,
		}, nil

	case tools.ToolBookAppointment:
		result := s.tools.BookAppointment(ctx, tools.BookingFromArgs(args))
		log.Info("Booking tool finished", zap.String("result", result))

		messages = append(messages,
			llm.Message{
				Role:      llm.RoleAssistant,
				Content:   resp.Content,
				ToolCalls: []llm.ToolCall{call},
			},
			llm.Message{
				Role:       llm.RoleTool,
				ToolCallID: call.ID,
				Name:       call.Name,
				Content:    result,
			},
		)

		final, err := s.complete(ctx, messages, nil)
		if err != nil {
			return nil, err
		}
		return textReply(final.Content), nil

	default:
		log.Warn("Model requested an unknown tool", zap.String("tool", call.Name))
		return textReply(resp.Content), nil
	}
}

func (s *ChatService) complete(ctx context.Context, messages []llm.Message, defs []llm.Tool) (*llm.CompletionResponse, error) {
	ctx, span := tracing.Start(ctx, "llm.complete",
		attribute.String("provider", s.llmClient.Name()),
		attribute.Int("tools", len(defs)),
	)

	start := time.Now()
	resp, err := s.llmClient.Complete(ctx, &llm.CompletionRequest{
		Model:     s.model,
		Messages:  messages,
		Tools:     defs,
		MaxTokens: s.maxTokens,
	})
	tracing.End(span, err)

	modelName := s.model
	if err != nil {
		metrics.RecordLLMCall(s.llmClient.Name(), modelName, "error", time.Since(start).Seconds(), 0, 0)
		return nil, fmt.Errorf("LLM completion failed: %w", err)
	}
	if resp.Model != "" {
		modelName = resp.Model
	}
	logger.FromContext(ctx, s.logger).Debug("LLM completion finished",
		zap.String("model", modelName),
		zap.String("stop_reason", resp.StopReason),
		zap.Int64("latency_ms", resp.LatencyMs),
		zap.Int("tool_calls", len(resp.ToolCalls)))
	metrics.RecordLLMCall(s.llmClient.Name(), modelName, "success", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)
	return resp, nil
}

// ParseArguments decodes a tool-call argument object. Malformed input yields
// an empty map and non-string values are converted to strings.
func ParseArguments(raw string) map[string]string {
	args := make(map[string]string)
	if raw == "" {
		return args
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return args
	}
	for k, v := range decoded {
		args[k] = cast.ToString(v)
	}
	return args
}

func textReply(text string) *model.ChatReply {
	return &model.ChatReply{Type: model.ReplyText, Text: text}
}
