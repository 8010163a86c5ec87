// Package store defines the document-store ports for the assistant
// pipeline and an in-memory implementation. The production backend lives
// in internal/nats.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/nextlevelrentals/assistant-platform/internal/model"
)

// Sentinel errors returned by implementations. Services translate these
// into the request-level taxonomy.
var (
	ErrNotFound = errors.New("document not found")
	ErrConflict = errors.New("concurrent update conflict")
)

// Conversations persists conversation and message documents. AppendMessage
// must couple the message write with the conversation's message count and
// updated-at bump: either both land or neither does.
type Conversations interface {
	GetConversation(ctx context.Context, id string) (*model.Conversation, error)
	PutConversation(ctx context.Context, conv *model.Conversation) error
	// UpdateConversation applies mutate under the store's concurrency
	// control and persists the result.
	UpdateConversation(ctx context.Context, id string, mutate func(*model.Conversation) error) (*model.Conversation, error)
	AppendMessage(ctx context.Context, conversationID string, msg *model.Message) error
	// Messages returns messages in append order. limit <= 0 means all;
	// otherwise the most recent limit messages are returned, still in
	// ascending order.
	Messages(ctx context.Context, conversationID string, limit int) ([]model.Message, error)
	ConversationsForUser(ctx context.Context, userID string, limit int) ([]model.Conversation, error)
	EscalatedConversations(ctx context.Context, limit int) ([]model.Conversation, error)
}

// Domain exposes the property-management documents the pipeline reads and
// the narrow set of mutations the function executor performs.
type Domain interface {
	User(ctx context.Context, id string) (*model.UserProfile, error)
	UsersByRole(ctx context.Context, role model.UserRole) ([]model.UserProfile, error)

	// LedgerForTenant returns the tenant's entries dated on or after
	// since, newest first.
	LedgerForTenant(ctx context.Context, tenantID string, since time.Time) ([]model.LedgerEntry, error)
	// LedgerBetween returns all entries in [from, to], any tenant.
	LedgerBetween(ctx context.Context, from, to time.Time) ([]model.LedgerEntry, error)
	OverdueLedger(ctx context.Context) ([]model.LedgerEntry, error)
	AppendLedgerEntry(ctx context.Context, entry *model.LedgerEntry) error

	// MaintenanceForTenant returns the tenant's tickets, newest first.
	MaintenanceForTenant(ctx context.Context, tenantID string, limit int) ([]model.MaintenanceRequest, error)
	// MaintenanceByStatus returns tickets in any of the given statuses,
	// newest first. An empty statuses list matches every ticket.
	MaintenanceByStatus(ctx context.Context, statuses []string, limit int) ([]model.MaintenanceRequest, error)
	CreateMaintenanceRequest(ctx context.Context, req *model.MaintenanceRequest) error

	ActivePaymentPlan(ctx context.Context, tenantID string) (*model.PaymentPlan, error)

	Properties(ctx context.Context) ([]model.Property, error)
	Property(ctx context.Context, id string) (*model.Property, error)

	CreateNotification(ctx context.Context, n *model.Notification) error
}

// Store is the full document-store port.
type Store interface {
	Conversations
	Domain
}
