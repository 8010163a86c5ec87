// Package chatctx assembles the role-scoped snapshot of domain facts that
// grounds the assistant's responses. Snapshots are built fresh for every
// turn and reflect store state at request time; nothing here is cached.
package chatctx

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/nextlevelrentals/assistant-platform/internal/model"
	"github.com/nextlevelrentals/assistant-platform/internal/store"
)

const (
	// expiringLookahead is the window before the lease end date during
	// which the lease reads as Expiring.
	expiringLookahead = 30 * 24 * time.Hour

	// graceDay is the day of the month after which an unpaid rent period
	// counts as overdue rather than pending.
	graceDay = 5

	ledgerLookbackMonths = 12
	recentTicketLimit    = 5
	recentPaymentLimit   = 5
	surfacedTicketLimit  = 3
	triageWindow         = 10
)

// Builder reads domain documents and produces RoleContext values.
type Builder struct {
	store store.Store
	now   func() time.Time
}

// NewBuilder creates a context builder. now may be nil for wall-clock time.
func NewBuilder(st store.Store, now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{store: st, now: now}
}

// Build assembles the snapshot for the given user and role. Store errors
// propagate; an empty context is never substituted, since the model would
// fill the gaps with invented data.
func (b *Builder) Build(ctx context.Context, userID string, role model.UserRole) (*model.RoleContext, error) {
	if role.Elevated() {
		admin, err := b.buildAdmin(ctx)
		if err != nil {
			return nil, err
		}
		return &model.RoleContext{Role: role, Admin: admin}, nil
	}

	tenant, err := b.buildTenant(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.RoleContext{Role: role, Tenant: tenant}, nil
}

func (b *Builder) buildTenant(ctx context.Context, userID string) (*model.TenantContext, error) {
	user, err := b.store.User(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load tenant profile: %w", err)
	}

	now := b.now()

	tickets, err := b.store.MaintenanceForTenant(ctx, userID, recentTicketLimit)
	if err != nil {
		return nil, fmt.Errorf("load maintenance tickets: %w", err)
	}
	open := 0
	for _, t := range tickets {
		if t.Open() {
			open++
		}
	}
	recent := make([]model.MaintenanceDigest, 0, surfacedTicketLimit)
	for _, t := range tickets {
		if len(recent) == surfacedTicketLimit {
			break
		}
		recent = append(recent, model.MaintenanceDigest{
			ID:        t.ID,
			Title:     t.Title,
			Status:    t.Status,
			Priority:  t.Priority,
			CreatedAt: fmtDate(t.CreatedAt),
		})
	}

	since := now.AddDate(0, -ledgerLookbackMonths, 0)
	entries, err := b.store.LedgerForTenant(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	if len(entries) > 10 {
		entries = entries[:10]
	}

	var charges, payments float64
	var lastPayment *model.LedgerEntry
	recentPayments := make([]model.PaymentRecord, 0, recentPaymentLimit)
	for i, e := range entries {
		switch e.Type {
		case model.LedgerCharge:
			charges += e.Amount
		case model.LedgerPayment:
			payments += math.Abs(e.Amount)
			if lastPayment == nil {
				lastPayment = &entries[i]
			}
			if len(recentPayments) < recentPaymentLimit {
				status := e.Status
				if status == "" {
					status = "completed"
				}
				recentPayments = append(recentPayments, model.PaymentRecord{
					Date:   fmtDate(e.Date),
					Amount: math.Abs(e.Amount),
					Status: status,
					Method: e.Method,
				})
			}
		}
	}

	balance := model.BalanceInfo{CurrentDue: math.Max(0, charges-payments)}
	if lastPayment != nil {
		balance.LastPaymentDate = fmtDate(lastPayment.Date)
		balance.LastPaymentAmount = math.Abs(lastPayment.Amount)
	}

	var plan *model.PaymentPlanSummary
	if p, err := b.store.ActivePaymentPlan(ctx, userID); err == nil {
		plan = &model.PaymentPlanSummary{
			TotalAmount:     p.TotalAmount,
			RemainingAmount: p.RemainingAmount,
		}
		if next := p.NextPending(); next != nil {
			plan.NextDueDate = fmtDate(next.DueDate)
			plan.NextDueAmount = next.Amount
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load payment plan: %w", err)
	}

	return &model.TenantContext{
		Profile: model.TenantProfile{
			DisplayName: displayNameOr(user.DisplayName, "Tenant"),
			Unit:        user.Unit,
			Address:     user.Address,
			City:        user.City,
			State:       user.State,
			MonthlyRent: user.MonthlyRent,
		},
		Balance: balance,
		Lease: model.LeaseInfo{
			StartDate: user.LeaseStart,
			EndDate:   user.LeaseEnd,
			Status:    LeaseStatus(user.LeaseEnd, now),
		},
		Maintenance: model.MaintenanceSummary{
			OpenRequests:   open,
			RecentRequests: recent,
		},
		RecentPayments: recentPayments,
		PaymentPlan:    plan,
	}, nil
}

// LeaseStatus derives the lease state from its end date relative to now.
func LeaseStatus(leaseEnd string, now time.Time) model.LeaseStatus {
	if leaseEnd == "" {
		return model.LeaseUnknown
	}
	end, err := time.Parse(model.DateLayout, leaseEnd)
	if err != nil {
		return model.LeaseUnknown
	}
	switch {
	case end.Before(now):
		return model.LeaseExpired
	case end.Before(now.Add(expiringLookahead)):
		return model.LeaseExpiring
	default:
		return model.LeaseActive
	}
}

func (b *Builder) buildAdmin(ctx context.Context) (*model.AdminContext, error) {
	now := b.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, 0).Add(-time.Second)

	properties, err := b.store.Properties(ctx)
	if err != nil {
		return nil, fmt.Errorf("load properties: %w", err)
	}
	tenants, err := b.store.UsersByRole(ctx, model.RoleTenant)
	if err != nil {
		return nil, fmt.Errorf("load tenants: %w", err)
	}
	entries, err := b.store.LedgerBetween(ctx, monthStart, monthEnd)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	var totalExpected float64
	for _, p := range properties {
		totalExpected += p.Rent
	}
	var totalCollected float64
	for _, e := range entries {
		if e.Type == model.LedgerPayment && e.Category == "rent" {
			totalCollected += math.Abs(e.Amount)
		}
	}

	collectionRate := 0.0
	if totalExpected > 0 {
		collectionRate = math.Round(totalCollected/totalExpected*1000) / 10
	}

	overdue, err := b.store.OverdueLedger(ctx)
	if err != nil {
		return nil, fmt.Errorf("load overdue ledger: %w", err)
	}
	var overdueAmount float64
	for _, e := range overdue {
		overdueAmount += e.Amount
	}

	counts := model.RentStatusCounts{}
	for _, p := range properties {
		switch PropertyRentState(p, entries, now) {
		case "paid":
			counts.Paid++
		case "partial":
			counts.Partial++
		case "overdue":
			counts.Overdue++
		default:
			counts.Pending++
		}
	}

	triage, err := b.buildTriage(ctx, now)
	if err != nil {
		return nil, err
	}

	return &model.AdminContext{
		Portfolio: model.PortfolioStats{
			TotalProperties:   len(properties),
			ActiveTenants:     len(tenants),
			CollectionRate:    collectionRate,
			OverdueAmount:     overdueAmount,
			TotalExpectedRent: totalExpected,
			TotalCollected:    totalCollected,
		},
		RentStatus:  counts,
		Maintenance: *triage,
	}, nil
}

// PropertyRentState classifies a property's rent for the current month.
func PropertyRentState(p model.Property, monthEntries []model.LedgerEntry, now time.Time) string {
	var paid float64
	for _, e := range monthEntries {
		if e.PropertyID == p.ID && e.Type == model.LedgerPayment && e.Category == "rent" {
			paid += math.Abs(e.Amount)
		}
	}
	switch {
	case paid >= p.Rent:
		// Covers vacant and zero-rent properties, which owe nothing.
		return "paid"
	case paid > 0:
		return "partial"
	case now.Day() > graceDay:
		return "overdue"
	default:
		return "pending"
	}
}

func (b *Builder) buildTriage(ctx context.Context, _ time.Time) (*model.MaintenanceTriage, error) {
	tickets, err := b.store.MaintenanceByStatus(ctx, nil, triageWindow)
	if err != nil {
		return nil, fmt.Errorf("load maintenance queue: %w", err)
	}

	triage := &model.MaintenanceTriage{}
	for _, t := range tickets {
		switch t.Status {
		case model.MaintenanceSubmitted:
			triage.PendingCount++
		case model.MaintenanceInProgress:
			triage.InProgressCount++
		}
		if t.Priority == "urgent" {
			triage.UrgentCount++
		}
	}

	for _, t := range tickets {
		if len(triage.RecentRequests) == recentTicketLimit {
			break
		}
		digest := model.MaintenanceDigest{
			ID:        t.ID,
			Title:     t.Title,
			Status:    t.Status,
			Priority:  t.Priority,
			CreatedAt: fmtDate(t.CreatedAt),
		}
		if t.TenantID != "" {
			if u, err := b.store.User(ctx, t.TenantID); err == nil {
				digest.TenantName = u.DisplayName
			}
		}
		if t.PropertyID != "" {
			if p, err := b.store.Property(ctx, t.PropertyID); err == nil {
				digest.PropertyAddress = p.Address
			}
		}
		triage.RecentRequests = append(triage.RecentRequests, digest)
	}

	return triage, nil
}

func displayNameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

func fmtDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}
