// Package model defines data structures for the booking assistant.
package model

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationMessage is one turn of the caller-held conversation history.
type ConversationMessage struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// Role maps the sender to an LLM role: "user" stays user, anything else is
// treated as the assistant.
func (m ConversationMessage) Role() Role {
	if m.Sender == string(RoleUser) {
		return RoleUser
	}
	return RoleAssistant
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Messages  []ConversationMessage `json:"messages"`
	SessionID string                `json:"session_id"`
}

// ReplyType discriminates chat replies.
type ReplyType string

const (
	ReplyServiceOptions ReplyType = "service_options"
	ReplyDateRequest    ReplyType = "date_request"
	ReplySlotOptions    ReplyType = "slot_options"
	ReplyText           ReplyType = "text"
)

// ChatReply is the structured answer to a chat request.
type ChatReply struct {
	Type ReplyType `json:"type"`
	Text string    `json:"text"`
	Data any       `json:"data,omitempty"`
}

// ErrorResponse is returned with non-2xx statuses.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
