// Package model defines data structures for the assistant platform.
package model

import (
	"time"
)

// UserRole identifies the portal a user belongs to.
type UserRole string

const (
	RoleTenant     UserRole = "tenant"
	RoleAdmin      UserRole = "admin"
	RoleSuperAdmin UserRole = "super-admin"
)

// Valid reports whether the role is one of the known portal roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleTenant, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Elevated reports whether the role may view escalated conversations
// belonging to other users.
func (r UserRole) Elevated() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// ConversationStatus is the lifecycle state of a conversation.
type ConversationStatus string

const (
	StatusActive    ConversationStatus = "active"
	StatusEscalated ConversationStatus = "escalated"
	// StatusClosed is terminal; no transition back to active exists.
	StatusClosed ConversationStatus = "closed"
)

// Conversation represents an assistant conversation thread. A conversation
// is owned exclusively by the user that created it.
type Conversation struct {
	ID               string             `json:"id"`
	UserID           string             `json:"user_id"`
	UserRole         UserRole           `json:"user_role"`
	Status           ConversationStatus `json:"status"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
	MessageCount     int                `json:"message_count"`
	EscalatedTo      string             `json:"escalated_to,omitempty"`
	EscalationReason string             `json:"escalation_reason,omitempty"`
}

// ConversationSummary is the listing projection of a conversation.
type ConversationSummary struct {
	ID           string             `json:"id"`
	UserID       string             `json:"user_id"`
	UserRole     UserRole           `json:"user_role"`
	Status       ConversationStatus `json:"status"`
	UpdatedAt    time.Time          `json:"updated_at"`
	MessageCount int                `json:"message_count"`
	// Escalated marks entries an elevated requester sees only because the
	// conversation was escalated, not because they own it.
	Escalated bool `json:"escalated,omitempty"`
}

// Summary returns the listing projection of c.
func (c *Conversation) Summary() ConversationSummary {
	return ConversationSummary{
		ID:           c.ID,
		UserID:       c.UserID,
		UserRole:     c.UserRole,
		Status:       c.Status,
		UpdatedAt:    c.UpdatedAt,
		MessageCount: c.MessageCount,
	}
}

// SendMessageRequest is the inbound body for a chat turn.
type SendMessageRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// SendMessageResponse is the outcome of a chat turn.
type SendMessageResponse struct {
	ConversationID string   `json:"conversation_id"`
	Message        *Message `json:"message"`
	ActionTaken    string   `json:"action_taken,omitempty"`
}

// ConversationListResponse is the response for listing conversations.
type ConversationListResponse struct {
	Conversations []ConversationSummary `json:"conversations"`
}

// ConversationDetailResponse is a conversation with its ordered messages.
type ConversationDetailResponse struct {
	Conversation *Conversation `json:"conversation"`
	Messages     []Message     `json:"messages"`
}
