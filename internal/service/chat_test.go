package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/schedura-ai/booking-assistant/internal/business"
	"github.com/schedura-ai/booking-assistant/internal/llm"
	"github.com/schedura-ai/booking-assistant/internal/model"
	"github.com/schedura-ai/booking-assistant/internal/tools"
	"github.com/schedura-ai/booking-assistant/pkg/logger"
)

type scriptedLLM struct {
	responses []*llm.CompletionResponse
	err       error
	requests  []*llm.CompletionRequest
}

func (f *scriptedLLM) Complete(_ context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return &llm.CompletionResponse{}, nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func (f *scriptedLLM) Name() string     { return "scripted" }
func (f *scriptedLLM) Models() []string { return []string{"scripted-1"} }

type fakeToolset struct {
	services    []business.Service
	servicesErr error
	slots       []string
	slotsErr    error
	bookResult  string

	slotDates []string
	bookings  []tools.BookingRequest
}

func (f *fakeToolset) GetAvailableServices(context.Context) ([]business.Service, error) {
	return f.services, f.servicesErr
}

func (f *fakeToolset) GetAvailableSlots(_ context.Context, date string) ([]string, error) {
	f.slotDates = append(f.slotDates, date)
	return f.slots, f.slotsErr
}

func (f *fakeToolset) BookAppointment(_ context.Context, req tools.BookingRequest) string {
	f.bookings = append(f.bookings, req)
	return f.bookResult
}

type configStub struct {
	cfg *business.Config
	err error
}

func (c configStub) Load(context.Context) (*business.Config, error) {
	return c.cfg, c.err
}

func toolCall(name, args string) *llm.CompletionResponse {
	return &llm.CompletionResponse{
		ToolCalls: []llm.ToolCall{{ID: "call_1", Name: name, Arguments: args}},
	}
}

func newTestService(client *scriptedLLM, ts *fakeToolset) *ChatService {
	cfg := configStub{cfg: &business.Config{
		BusinessName:  "Glow Salon",
		BusinessHours: business.Hours{Start: "09:00", End: "17:00"},
		Timezone:      "UTC",
	}}
	return NewChatService(cfg, client, ts, logger.NewNop(), ChatOptions{
		Model: "scripted-1",
		Now:   func() time.Time { return time.Date(2025, 1, 9, 12, 0, 0, 0, time.UTC) },
	})
}

func chatRequest(texts ...string) *model.ChatRequest {
	req := &model.ChatRequest{SessionID: "session-1"}
	for i, text := range texts {
		sender := "user"
		if i%2 == 1 {
			sender = "bot"
		}
		req.Messages = append(req.Messages, model.ConversationMessage{Sender: sender, Text: text})
	}
	return req
}

func TestChat_PlainText(t *testing.T) {
	client := &scriptedLLM{responses: []*llm.CompletionResponse{{Content: "Hello! How can I help?"}}}
	svc := newTestService(client, &fakeToolset{})

	reply, err := svc.Chat(context.Background(), chatRequest("hi"))
	require.NoError(t, err)
	assert.Equal(t, &model.ChatReply{Type: model.ReplyText, Text: "Hello! How can I help?"}, reply)

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.Len(t, req.Tools, 3)
	assert.Equal(t, "scripted-1", req.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, llm.RoleSystem, req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "Glow Salon")
	assert.Contains(t, req.Messages[0].Content, "2025-01-09")
}

func TestChat_RoleMapping(t *testing.T) {
	client := &scriptedLLM{responses: []*llm.CompletionResponse{{Content: "ok"}}}
	svc := newTestService(client, &fakeToolset{})

	_, err := svc.Chat(context.Background(), chatRequest("I want a massage", "Sure, which date?", "Tomorrow"))
	require.NoError(t, err)

	msgs := client.requests[0].Messages
	require.Len(t, msgs, 4)
	assert.Equal(t, []string{llm.RoleSystem, llm.RoleUser, llm.RoleAssistant, llm.RoleUser},
		[]string{msgs[0].Role, msgs[1].Role, msgs[2].Role, msgs[3].Role})
}

func TestChat_ServiceOptions(t *testing.T) {
	services := []business.Service{{Name: "Massage", DurationMinutes: 60, Price: 80}}
	client := &scriptedLLM{responses: []*llm.CompletionResponse{toolCall(tools.ToolGetAvailableServices, "{}")}}
	svc := newTestService(client, &fakeToolset{services: services})

	reply, err := svc.Chat(context.Background(), chatRequest("what do you offer?"))
	require.NoError(t, err)
	assert.Equal(t, model.ReplyServiceOptions, reply.Type)
	assert.Equal(t, "Of course! Here are the services we offer:", reply.Text)
	assert.Equal(t, services, reply.Data)
	assert.Len(t, client.requests, 1)
}

func TestChat_ServiceOptionsConfigError(t *testing.T) {
	client := &scriptedLLM{responses: []*llm.CompletionResponse{toolCall(tools.ToolGetAvailableServices, "{}")}}
	svc := newTestService(client, &fakeToolset{servicesErr: errors.New("bad json")})

	reply, err := svc.Chat(context.Background(), chatRequest("services?"))
	require.NoError(t, err)
	assert.Equal(t, model.ReplyText, reply.Type)
	assert.Equal(t, "Error reading services: bad json", reply.Text)
}

func TestChat_SlotsWithoutDateAsksForDate(t *testing.T) {
	ts := &fakeToolset{slots: []string{"09:00"}}
	client := &scriptedLLM{responses: []*llm.CompletionResponse{toolCall(tools.ToolGetAvailableSlots, "{}")}}
	svc := newTestService(client, ts)

	reply, err := svc.Chat(context.Background(), chatRequest("I'd like a massage"))
	require.NoError(t, err)
	assert.Equal(t, &model.ChatReply{
		Type: model.ReplyDateRequest,
		Text: "Perfect. Now, please pick a date for your appointment.",
	}, reply)
	assert.Empty(t, ts.slotDates)
}

func TestChat_SlotsMalformedArgumentsAsksForDate(t *testing.T) {
	ts := &fakeToolset{}
	client := &scriptedLLM{responses: []*llm.CompletionResponse{toolCall(tools.ToolGetAvailableSlots, "{date_str: 2025")}}
	svc := newTestService(client, ts)

	reply, err := svc.Chat(context.Background(), chatRequest("slots?"))
	require.NoError(t, err)
	assert.Equal(t, model.ReplyDateRequest, reply.Type)
	assert.Empty(t, ts.slotDates)
}

func TestChat_SlotsBlankDateAsksForDate(t *testing.T) {
	ts := &fakeToolset{slots: []string{"09:00"}}
	client := &scriptedLLM{responses: []*llm.CompletionResponse{toolCall(tools.ToolGetAvailableSlots, `{"date_str": "   "}`)}}
	svc := newTestService(client, ts)

	reply, err := svc.Chat(context.Background(), chatRequest("slots?"))
	require.NoError(t, err)
	assert.Equal(t, model.ReplyDateRequest, reply.Type)
	assert.Empty(t, ts.slotDates)
}

func TestChat_SlotsDateIsTrimmed(t *testing.T) {
	ts := &fakeToolset{slots: []string{"09:00"}}
	client := &scriptedLLM{responses: []*llm.CompletionResponse{toolCall(tools.ToolGetAvailableSlots, `{"date_str": " 2025-01-10 "}`)}}
	svc := newTestService(client, ts)

	reply, err := svc.Chat(context.Background(), chatRequest("slots on friday?"))
	require.NoError(t, err)
	assert.Equal(t, model.ReplySlotOptions, reply.Type)
	assert.Equal(t, []string{"2025-01-10"}, ts.slotDates)
}

func TestChat_LogsCompletionDetails(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := logger.Global()
	logger.SetGlobal(&logger.Logger{Logger: zap.New(core)})
	t.Cleanup(func() { logger.SetGlobal(prev) })

	client := &scriptedLLM{responses: []*llm.CompletionResponse{{
		Content:    "Hello!",
		Model:      "scripted-1",
		StopReason: "stop",
		LatencyMs:  42,
	}}}
	svc := NewChatService(configStub{cfg: &business.Config{BusinessName: "Glow Salon"}}, client, &fakeToolset{}, nil, ChatOptions{})

	_, err := svc.Chat(context.Background(), chatRequest("hi"))
	require.NoError(t, err)

	entries := logs.FilterMessage("LLM completion finished").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "stop", fields["stop_reason"])
	assert.Equal(t, int64(42), fields["latency_ms"])
	assert.Equal(t, "scripted-1", fields["model"])
}

func TestChat_SlotOptions(t *testing.T) {
	ts := &fakeToolset{slots: []string{"09:00", "11:00"}}
	client := &scriptedLLM{responses: []*llm.CompletionResponse{
		toolCall(tools.ToolGetAvailableSlots, `{"date_str":"2025-01-10"}`),
	}}
	svc := newTestService(client, ts)

	reply, err := svc.Chat(context.Background(), chatRequest("January 10th please"))
	require.NoError(t, err)
	assert.Equal(t, model.ReplySlotOptions, reply.Type)
	assert.Equal(t, "Here are the available slots for 2025-01-10:", reply.Text)
	assert.Equal(t, []string{"09:00", "11:00"}, reply.Data)
	assert.Equal(t, []string{"2025-01-10"}, ts.slotDates)
}

func TestChat_NoSlots(t *testing.T) {
	ts := &fakeToolset{slots: []string{}}
	client := &scriptedLLM{responses: []*llm.CompletionResponse{
		toolCall(tools.ToolGetAvailableSlots, `{"date_str":"2025-01-10"}`),
	}}
	svc := newTestService(client, ts)

	reply, err := svc.Chat(context.Background(), chatRequest("January 10th"))
	require.NoError(t, err)
	assert.Equal(t, &model.ChatReply{
		Type: model.ReplyText,
		Text: "Sorry, no slots are available on 2025-01-10. Please try another date.",
	}, reply)
}

func TestChat_SlotsError(t *testing.T) {
	ts := &fakeToolset{slotsErr: errors.New("calendar down")}
	client := &scriptedLLM{responses: []*llm.CompletionResponse{
		toolCall(tools.ToolGetAvailableSlots, `{"date_str":"2025-01-10"}`),
	}}
	svc := newTestService(client, ts)

	reply, err := svc.Chat(context.Background(), chatRequest("January 10th"))
	require.NoError(t, err)
	assert.Equal(t, "Error getting slots: calendar down", reply.Text)
}

func TestChat_BookAppointment(t *testing.T) {
	ts := &fakeToolset{bookResult: "Appointment confirmed for Massage on 2025-01-10 at 10:00. A confirmation email has been sent."}
	client := &scriptedLLM{responses: []*llm.CompletionResponse{
		{
			Content: "Booking now.",
			ToolCalls: []llm.ToolCall{{
				ID:        "call_9",
				Name:      tools.ToolBookAppointment,
				Arguments: `{"service_name":"Massage","date_str":"2025-01-10","time_str":"10:00","user_name":"Alice","user_email":"alice@x.com"}`,
			}},
		},
		{Content: "You're all set, Alice!"},
	}}
	svc := newTestService(client, ts)

	reply, err := svc.Chat(context.Background(), chatRequest("Book it. I'm Alice, alice@x.com"))
	require.NoError(t, err)
	assert.Equal(t, &model.ChatReply{Type: model.ReplyText, Text: "You're all set, Alice!"}, reply)

	require.Len(t, ts.bookings, 1)
	assert.Equal(t, tools.BookingRequest{
		ServiceName: "Massage",
		Date:        "2025-01-10",
		Time:        "10:00",
		UserName:    "Alice",
		UserEmail:   "alice@x.com",
	}, ts.bookings[0])

	require.Len(t, client.requests, 2)
	second := client.requests[1]
	assert.Empty(t, second.Tools)
	require.Len(t, second.Messages, 4)

	assistant := second.Messages[2]
	assert.Equal(t, llm.RoleAssistant, assistant.Role)
	require.Len(t, assistant.ToolCalls, 1)
	assert.Equal(t, "call_9", assistant.ToolCalls[0].ID)

	toolMsg := second.Messages[3]
	assert.Equal(t, llm.RoleTool, toolMsg.Role)
	assert.Equal(t, "call_9", toolMsg.ToolCallID)
	assert.Equal(t, tools.ToolBookAppointment, toolMsg.Name)
	assert.Equal(t, ts.bookResult, toolMsg.Content)
}

func TestChat_OnlyFirstToolCallRuns(t *testing.T) {
	ts := &fakeToolset{slots: []string{"09:00"}}
	client := &scriptedLLM{responses: []*llm.CompletionResponse{{
		ToolCalls: []llm.ToolCall{
			{ID: "a", Name: tools.ToolGetAvailableSlots, Arguments: `{"date_str":"2025-01-10"}`},
			{ID: "b", Name: tools.ToolBookAppointment, Arguments: `{}`},
		},
	}}}
	svc := newTestService(client, ts)

	reply, err := svc.Chat(context.Background(), chatRequest("slots and book"))
	require.NoError(t, err)
	assert.Equal(t, model.ReplySlotOptions, reply.Type)
	assert.Empty(t, ts.bookings)
}

func TestChat_UnknownTool(t *testing.T) {
	client := &scriptedLLM{responses: []*llm.CompletionResponse{{
		Content:   "Let me check.",
		ToolCalls: []llm.ToolCall{{ID: "x", Name: "cancel_appointment", Arguments: "{}"}},
	}}}
	svc := newTestService(client, &fakeToolset{})

	reply, err := svc.Chat(context.Background(), chatRequest("cancel"))
	require.NoError(t, err)
	assert.Equal(t, &model.ChatReply{Type: model.ReplyText, Text: "Let me check."}, reply)
}

func TestChat_LLMError(t *testing.T) {
	client := &scriptedLLM{err: errors.New("connection refused")}
	svc := newTestService(client, &fakeToolset{})

	_, err := svc.Chat(context.Background(), chatRequest("hi"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestChat_ConfigError(t *testing.T) {
	client := &scriptedLLM{}
	svc := NewChatService(configStub{err: errors.New("config.json missing")}, client, &fakeToolset{}, logger.NewNop(), ChatOptions{})

	_, err := svc.Chat(context.Background(), chatRequest("hi"))
	require.Error(t, err)
	assert.Empty(t, client.requests)
}

func TestParseArguments(t *testing.T) {
	assert.Empty(t, ParseArguments(""))
	assert.Empty(t, ParseArguments("not json"))
	assert.Empty(t, ParseArguments(`["a"]`))

	args := ParseArguments(`{"date_str":"2025-01-10","guests":2,"vip":true,"note":null}`)
	assert.Equal(t, "2025-01-10", args["date_str"])
	assert.Equal(t, "2", args["guests"])
	assert.Equal(t, "true", args["vip"])
	assert.Equal(t, "", args["note"])
}

func TestSystemPrompt(t *testing.T) {
	prompt := SystemPrompt("", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, strings.HasPrefix(prompt, "You are Schedura AI"))
	assert.Contains(t, prompt, "booking assistant for your business.")
	assert.Contains(t, prompt, "Today's date is 2025-03-01.")
}
