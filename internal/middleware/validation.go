package middleware

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/schedura-ai/booking-assistant/internal/model"
)

const (
	maxMessageLength = 100000
	maxMessages      = 500
)

// ValidateMessageContent validates message content.
func ValidateMessageContent(content string) error {
	if len(content) > maxMessageLength {
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}

// ValidateChatRequest checks the conversation history sent to POST /chat.
func ValidateChatRequest(req *model.ChatRequest) error {
	if len(req.Messages) > maxMessages {
		return fmt.Errorf("conversation exceeds %d messages", maxMessages)
	}
	for i, m := range req.Messages {
		if err := ValidateMessageContent(m.Text); err != nil {
			return fmt.Errorf("messages[%d]: %w", i, err)
		}
	}
	return nil
}
