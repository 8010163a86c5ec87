package model

// LeaseStatus is derived from the lease term relative to the current date.
type LeaseStatus string

const (
	LeaseActive   LeaseStatus = "Active"
	LeaseExpiring LeaseStatus = "Expiring"
	LeaseExpired  LeaseStatus = "Expired"
	LeaseUnknown  LeaseStatus = "Unknown"
)

// RoleContext is the role-tagged snapshot of domain facts assembled per
// request. Exactly one of Tenant or Admin is set, matching Role. It is
// built fresh for every turn and never cached.
type RoleContext struct {
	Role   UserRole       `json:"role"`
	Tenant *TenantContext `json:"tenant,omitempty"`
	Admin  *AdminContext  `json:"admin,omitempty"`
}

// TenantContext grounds the model in a single tenant's account state.
type TenantContext struct {
	Profile        TenantProfile       `json:"profile"`
	Balance        BalanceInfo         `json:"balance"`
	Lease          LeaseInfo           `json:"lease"`
	Maintenance    MaintenanceSummary  `json:"maintenance"`
	RecentPayments []PaymentRecord     `json:"recent_payments"`
	PaymentPlan    *PaymentPlanSummary `json:"payment_plan,omitempty"`
}

// TenantProfile holds identity fields surfaced to the assistant.
type TenantProfile struct {
	DisplayName string  `json:"display_name"`
	Unit        string  `json:"unit,omitempty"`
	Address     string  `json:"address,omitempty"`
	City        string  `json:"city,omitempty"`
	State       string  `json:"state,omitempty"`
	MonthlyRent float64 `json:"monthly_rent,omitempty"`
}

// BalanceInfo is the tenant's current due amount and last payment.
type BalanceInfo struct {
	CurrentDue        float64 `json:"current_due"`
	LastPaymentDate   string  `json:"last_payment_date,omitempty"`
	LastPaymentAmount float64 `json:"last_payment_amount,omitempty"`
}

// LeaseInfo is the tenant's lease term and derived status.
type LeaseInfo struct {
	StartDate string      `json:"start_date,omitempty"`
	EndDate   string      `json:"end_date,omitempty"`
	Status    LeaseStatus `json:"status"`
}

// MaintenanceSummary counts open tickets and lists the most recent ones.
type MaintenanceSummary struct {
	OpenRequests   int                 `json:"open_requests"`
	RecentRequests []MaintenanceDigest `json:"recent_requests"`
}

// MaintenanceDigest is the compact ticket form used inside contexts.
type MaintenanceDigest struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Status          string `json:"status"`
	Priority        string `json:"priority"`
	CreatedAt       string `json:"created_at"`
	TenantName      string `json:"tenant_name,omitempty"`
	PropertyAddress string `json:"property_address,omitempty"`
}

// PaymentRecord is a single recent payment surfaced to the assistant.
type PaymentRecord struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
	Status string  `json:"status"`
	Method string  `json:"method,omitempty"`
}

// PaymentPlanSummary describes the tenant's active payment plan, if any.
type PaymentPlanSummary struct {
	TotalAmount     float64 `json:"total_amount"`
	RemainingAmount float64 `json:"remaining_amount"`
	NextDueDate     string  `json:"next_due_date,omitempty"`
	NextDueAmount   float64 `json:"next_due_amount,omitempty"`
}

// AdminContext grounds the model in portfolio-wide aggregates.
type AdminContext struct {
	Portfolio   PortfolioStats    `json:"portfolio"`
	RentStatus  RentStatusCounts  `json:"rent_status"`
	Maintenance MaintenanceTriage `json:"maintenance"`
}

// PortfolioStats summarizes the portfolio for the current billing month.
type PortfolioStats struct {
	TotalProperties   int     `json:"total_properties"`
	ActiveTenants     int     `json:"active_tenants"`
	CollectionRate    float64 `json:"collection_rate"`
	OverdueAmount     float64 `json:"overdue_amount"`
	TotalExpectedRent float64 `json:"total_expected_rent"`
	TotalCollected    float64 `json:"total_collected"`
}

// RentStatusCounts is the per-property payment-state histogram.
type RentStatusCounts struct {
	Paid    int `json:"paid"`
	Pending int `json:"pending"`
	Overdue int `json:"overdue"`
	Partial int `json:"partial"`
}

// MaintenanceTriage is the admin view of the maintenance queue.
type MaintenanceTriage struct {
	PendingCount    int                 `json:"pending_count"`
	InProgressCount int                 `json:"in_progress_count"`
	UrgentCount     int                 `json:"urgent_count"`
	RecentRequests  []MaintenanceDigest `json:"recent_requests"`
}
