package model

import (
	"time"
)

// MessageRole represents the author of a message.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleSystem    MessageRole = "system"
)

// Message is a single turn inside a conversation. Messages are append-only
// and never mutated after creation; ordering within a conversation follows
// Sequence, assigned by the store on append.
type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversation_id"`
	Role           MessageRole `json:"role"`
	Content        string      `json:"content"`
	CreatedAt      time.Time   `json:"created_at"`
	Sequence       uint64      `json:"sequence,omitempty"`

	Metadata *MessageMetadata `json:"metadata,omitempty"`
}

// MessageMetadata carries optional annotations on assistant messages.
type MessageMetadata struct {
	FunctionCalled  string         `json:"function_called,omitempty"`
	FunctionOutcome string         `json:"function_outcome,omitempty"`
	ActionTaken     string         `json:"action_taken,omitempty"`
	Entities        map[string]any `json:"entities,omitempty"`
}

// Function outcome classifications recorded in message metadata.
const (
	FunctionOutcomeSuccess = "success"
	FunctionOutcomeError   = "error"
)
