// Package handler implements the HTTP endpoints of the booking assistant.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/schedura-ai/booking-assistant/internal/middleware"
	"github.com/schedura-ai/booking-assistant/internal/model"
	"github.com/schedura-ai/booking-assistant/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Chatter answers one conversational turn.
type Chatter interface {
	Chat(ctx context.Context, req *model.ChatRequest) (*model.ChatReply, error)
}

// ChatHandler handles the chat endpoint.
type ChatHandler struct {
	service Chatter
	logger  *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(service Chatter, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		logger:  log,
	}
}

// Chat handles POST /chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := middleware.ValidateChatRequest(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	log := h.logger.WithRequest(middleware.GetCorrelationID(r.Context()), req.SessionID)
	ctx := logger.IntoContext(r.Context(), log)

	reply, err := h.service.Chat(ctx, &req)
	if err != nil {
		log.Error("Chat turn failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Debug("Chat turn answered", zap.String("reply_type", string(reply.Type)))
	writeJSON(w, http.StatusOK, reply)
}
