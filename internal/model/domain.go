package model

import (
	"time"
)

// DateLayout is the wire format for lease dates on user profiles.
const DateLayout = "2006-01-02"

// UserProfile is a portal user document.
type UserProfile struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Email       string   `json:"email,omitempty"`
	Role        UserRole `json:"role"`
	Unit        string   `json:"unit,omitempty"`
	Address     string   `json:"address,omitempty"`
	City        string   `json:"city,omitempty"`
	State       string   `json:"state,omitempty"`
	MonthlyRent float64  `json:"monthly_rent,omitempty"`
	PropertyIDs []string `json:"property_ids,omitempty"`
	// Lease term as synced from the CRM, DateLayout strings.
	LeaseStart string `json:"lease_start,omitempty"`
	LeaseEnd   string `json:"lease_end,omitempty"`
}

// Ledger entry types.
const (
	LedgerCharge  = "charge"
	LedgerPayment = "payment"
)

// LedgerEntry is a single charge or payment on a tenant's ledger.
// Payment amounts are stored negative; consumers take the absolute value.
type LedgerEntry struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	PropertyID string    `json:"property_id,omitempty"`
	Type       string    `json:"type"`
	Category   string    `json:"category,omitempty"`
	Amount     float64   `json:"amount"`
	Status     string    `json:"status,omitempty"`
	Method     string    `json:"method,omitempty"`
	Date       time.Time `json:"date"`
	// RecordedBy identifies the admin that entered a manual payment.
	RecordedBy string `json:"recorded_by,omitempty"`
}

// Maintenance request statuses.
const (
	MaintenanceSubmitted  = "submitted"
	MaintenanceInProgress = "in_progress"
	MaintenanceCompleted  = "completed"
	MaintenanceCancelled  = "cancelled"
)

// Maintenance priorities.
var MaintenancePriorities = []string{"low", "medium", "high", "urgent"}

// Maintenance categories.
var MaintenanceCategories = []string{
	"plumbing", "electrical", "hvac", "appliance", "structural", "pest", "other",
}

// MaintenanceRequest is a maintenance ticket document.
type MaintenanceRequest struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	PropertyID  string    `json:"property_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    string    `json:"priority"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Open reports whether the ticket still needs attention.
func (m *MaintenanceRequest) Open() bool {
	return m.Status == MaintenanceSubmitted || m.Status == MaintenanceInProgress
}

// PaymentPlan is an installment agreement for a tenant's balance.
type PaymentPlan struct {
	ID              string        `json:"id"`
	TenantID        string        `json:"tenant_id"`
	Status          string        `json:"status"`
	TotalAmount     float64       `json:"total_amount"`
	RemainingAmount float64       `json:"remaining_amount"`
	Installments    []Installment `json:"installments,omitempty"`
}

// Installment is one scheduled payment inside a plan.
type Installment struct {
	DueDate time.Time `json:"due_date"`
	Amount  float64   `json:"amount"`
	Status  string    `json:"status"`
}

// NextPending returns the first installment still awaiting payment.
func (p *PaymentPlan) NextPending() *Installment {
	for i := range p.Installments {
		if p.Installments[i].Status == "pending" {
			return &p.Installments[i]
		}
	}
	return nil
}

// Property is a managed unit in the portfolio.
type Property struct {
	ID      string  `json:"id"`
	Address string  `json:"address"`
	Rent    float64 `json:"rent"`
}

// Notification is an in-app notification document, created one per admin
// when a conversation escalates.
type Notification struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	ConversationID string    `json:"conversation_id,omitempty"`
	EscalatedUser  string    `json:"escalated_user,omitempty"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
}

// NotificationEscalation is the notification type stamped on escalations.
const NotificationEscalation = "chat_escalation"
