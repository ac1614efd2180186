package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedura-ai/booking-assistant/internal/business"
	"github.com/schedura-ai/booking-assistant/internal/model"
	"github.com/schedura-ai/booking-assistant/pkg/logger"
)

type stubChatter struct {
	reply *model.ChatReply
	err   error
	got   *model.ChatRequest
}

func (s *stubChatter) Chat(ctx context.Context, req *model.ChatRequest) (*model.ChatReply, error) {
	s.got = req
	return s.reply, s.err
}

type stubLoader struct{ err error }

func (s stubLoader) Load(ctx context.Context) (*business.Config, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &business.Config{BusinessName: "Glow Studio"}, nil
}

type stubConn bool

func (c stubConn) IsConnected() bool { return bool(c) }

func postChat(t *testing.T, h *ChatHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Chat(rec, req)
	return rec
}

func TestChatOK(t *testing.T) {
	svc := &stubChatter{reply: &model.ChatReply{
		Type: model.ReplySlotOptions,
		Text: "Here are the available slots for 2025-07-01:",
		Data: []string{"09:00", "10:00"},
	}}
	h := NewChatHandler(svc, logger.NewNop())

	rec := postChat(t, h, `{"messages":[{"sender":"user","text":"any time tomorrow?"}],"session_id":"s-1"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "slot_options", got["type"])
	assert.Equal(t, []any{"09:00", "10:00"}, got["data"])

	require.NotNil(t, svc.got)
	assert.Equal(t, "s-1", svc.got.SessionID)
	assert.Equal(t, "any time tomorrow?", svc.got.Messages[0].Text)
}

func TestChatTextReplyOmitsData(t *testing.T) {
	svc := &stubChatter{reply: &model.ChatReply{Type: model.ReplyText, Text: "Hello!"}}
	rec := postChat(t, NewChatHandler(svc, logger.NewNop()), `{"messages":[]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"type":"text","text":"Hello!"}`, rec.Body.String())
}

func TestChatMalformedBody(t *testing.T) {
	svc := &stubChatter{}
	rec := postChat(t, NewChatHandler(svc, logger.NewNop()), `{"messages":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var got model.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Contains(t, got.Detail, "invalid request body")
	assert.Nil(t, svc.got)
}

func TestChatInvalidText(t *testing.T) {
	svc := &stubChatter{}
	body := `{"messages":[{"sender":"user","text":"` + strings.Repeat("a", 100001) + `"}]}`
	rec := postChat(t, NewChatHandler(svc, logger.NewNop()), body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.got)
}

func TestChatServiceError(t *testing.T) {
	svc := &stubChatter{err: errors.New("LLM completion failed: upstream timeout")}
	rec := postChat(t, NewChatHandler(svc, logger.NewNop()), `{"messages":[{"sender":"user","text":"hi"}]}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"detail":"LLM completion failed: upstream timeout"}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	h := NewHealthHandler(stubLoader{}, nil)
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestReady(t *testing.T) {
	tests := []struct {
		name   string
		loader stubLoader
		events ConnectionChecker
		status int
		reason string
	}{
		{name: "no broker", status: http.StatusOK},
		{name: "broker connected", events: stubConn(true), status: http.StatusOK},
		{name: "broker down", events: stubConn(false), status: http.StatusServiceUnavailable, reason: "NATS not connected"},
		{name: "config broken", loader: stubLoader{err: errors.New("missing file")}, status: http.StatusServiceUnavailable, reason: "business config unavailable: missing file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.loader, tt.events)
			rec := httptest.NewRecorder()
			h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.status, rec.Code)
			var got map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.reason, got["reason"])
		})
	}
}
