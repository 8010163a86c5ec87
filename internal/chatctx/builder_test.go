package chatctx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextlevelrentals/assistant-platform/internal/model"
	"github.com/nextlevelrentals/assistant-platform/internal/store"
)

var builderNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func newTestBuilder(t *testing.T) (*Builder, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return NewBuilder(mem, func() time.Time { return builderNow }), mem
}

func TestLeaseStatusClassification(t *testing.T) {
	tests := []struct {
		name     string
		leaseEnd string
		want     model.LeaseStatus
	}{
		{"no end date", "", model.LeaseUnknown},
		{"unparseable", "next spring", model.LeaseUnknown},
		{"ended last month", "2026-02-01", model.LeaseExpired},
		{"ends in ten days", "2026-03-20", model.LeaseExpiring},
		{"ends in a year", "2027-03-10", model.LeaseActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LeaseStatus(tt.leaseEnd, builderNow))
		})
	}
}

func TestBuildTenantContext(t *testing.T) {
	b, mem := newTestBuilder(t)
	mem.SeedUser(model.UserProfile{
		ID:          "tenant-1",
		DisplayName: "Alex Rivera",
		Role:        model.RoleTenant,
		Unit:        "4B",
		MonthlyRent: 1500,
		LeaseStart:  "2025-06-01",
		LeaseEnd:    "2026-03-20",
	})
	mem.SeedLedger(
		model.LedgerEntry{
			ID: "chg-1", TenantID: "tenant-1", Type: model.LedgerCharge,
			Category: "rent", Amount: 1500,
			Date: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		},
		model.LedgerEntry{
			ID: "pmt-1", TenantID: "tenant-1", Type: model.LedgerPayment,
			Category: "rent", Amount: -1000, Method: "card",
			Date: time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC),
		},
	)
	mem.SeedMaintenance(model.MaintenanceRequest{
		ID: "mnt-1", TenantID: "tenant-1", Title: "Leaky faucet",
		Status: model.MaintenanceSubmitted, Priority: "medium",
		CreatedAt: time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC),
	})

	rc, err := b.Build(context.Background(), "tenant-1", model.RoleTenant)
	require.NoError(t, err)
	require.NotNil(t, rc.Tenant)
	assert.Nil(t, rc.Admin)

	tc := rc.Tenant
	assert.Equal(t, "Alex Rivera", tc.Profile.DisplayName)
	assert.Equal(t, 500.0, tc.Balance.CurrentDue)
	assert.Equal(t, 1000.0, tc.Balance.LastPaymentAmount)
	assert.Equal(t, model.LeaseExpiring, tc.Lease.Status)
	assert.Equal(t, 1, tc.Maintenance.OpenRequests)
	require.Len(t, tc.RecentPayments, 1)
	assert.Equal(t, 1000.0, tc.RecentPayments[0].Amount)
	assert.Nil(t, tc.PaymentPlan)
}

func TestBuildTenantBalanceNeverNegative(t *testing.T) {
	b, mem := newTestBuilder(t)
	mem.SeedUser(model.UserProfile{ID: "tenant-1", Role: model.RoleTenant, MonthlyRent: 1500})
	mem.SeedLedger(model.LedgerEntry{
		ID: "pmt-1", TenantID: "tenant-1", Type: model.LedgerPayment,
		Amount: -2000, Date: builderNow.AddDate(0, 0, -1),
	})

	rc, err := b.Build(context.Background(), "tenant-1", model.RoleTenant)
	require.NoError(t, err)
	assert.Equal(t, 0.0, rc.Tenant.Balance.CurrentDue)
}

func TestBuildTenantMissingProfileFails(t *testing.T) {
	b, _ := newTestBuilder(t)

	_, err := b.Build(context.Background(), "ghost", model.RoleTenant)
	require.Error(t, err, "no silent empty context on store failure")
}

func TestBuildAdminContextCollectionRate(t *testing.T) {
	b, mem := newTestBuilder(t)
	mem.SeedProperty(model.Property{ID: "prop-1", Address: "12 Oak St", Rent: 1500})
	mem.SeedProperty(model.Property{ID: "prop-2", Address: "34 Elm St", Rent: 1000})
	mem.SeedUser(model.UserProfile{ID: "tenant-1", Role: model.RoleTenant, PropertyIDs: []string{"prop-1"}})
	mem.SeedLedger(model.LedgerEntry{
		ID: "pmt-1", TenantID: "tenant-1", PropertyID: "prop-1",
		Type: model.LedgerPayment, Category: "rent", Amount: -2000,
		Date: time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC),
	})

	rc, err := b.Build(context.Background(), "admin-1", model.RoleAdmin)
	require.NoError(t, err)
	require.NotNil(t, rc.Admin)
	assert.Nil(t, rc.Tenant)

	ac := rc.Admin
	assert.Equal(t, 2, ac.Portfolio.TotalProperties)
	assert.Equal(t, 1, ac.Portfolio.ActiveTenants)
	// 2000 collected of 2500 expected, rounded to one decimal.
	assert.Equal(t, 80.0, ac.Portfolio.CollectionRate)
	assert.Equal(t, 1, ac.RentStatus.Paid)
	assert.Equal(t, 1, ac.RentStatus.Overdue)
}

func TestBuildIsIdempotent(t *testing.T) {
	b, mem := newTestBuilder(t)
	mem.SeedUser(model.UserProfile{
		ID: "tenant-1", DisplayName: "Alex Rivera", Role: model.RoleTenant,
		MonthlyRent: 1500, LeaseEnd: "2027-01-01",
	})

	first, err := b.Build(context.Background(), "tenant-1", model.RoleTenant)
	require.NoError(t, err)
	second, err := b.Build(context.Background(), "tenant-1", model.RoleTenant)
	require.NoError(t, err)

	assert.Equal(t, Format(first), Format(second))
}

func TestFormatTenantSections(t *testing.T) {
	b, mem := newTestBuilder(t)
	mem.SeedUser(model.UserProfile{
		ID: "tenant-1", DisplayName: "Alex Rivera", Role: model.RoleTenant,
		Unit: "4B", MonthlyRent: 1500, LeaseStart: "2025-06-01", LeaseEnd: "2026-05-31",
	})

	rc, err := b.Build(context.Background(), "tenant-1", model.RoleTenant)
	require.NoError(t, err)

	text := Format(rc)
	assert.Contains(t, text, "TENANT INFORMATION")
	assert.Contains(t, text, "BALANCE:")
	assert.Contains(t, text, "LEASE:")
	assert.Contains(t, text, "Alex Rivera")
}

func TestFormatAdminSections(t *testing.T) {
	b, mem := newTestBuilder(t)
	mem.SeedProperty(model.Property{ID: "prop-1", Address: "12 Oak St", Rent: 1500})

	rc, err := b.Build(context.Background(), "admin-1", model.RoleAdmin)
	require.NoError(t, err)

	text := Format(rc)
	assert.Contains(t, text, "PORTFOLIO OVERVIEW")
	assert.Contains(t, text, "RENT STATUS")
	assert.Contains(t, text, "MAINTENANCE")
}

func TestPropertyRentState(t *testing.T) {
	afterGrace := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	withinGrace := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)
	occupied := model.Property{ID: "prop-1", Rent: 1500}

	pay := func(amount float64) []model.LedgerEntry {
		return []model.LedgerEntry{{
			PropertyID: "prop-1",
			Type:       model.LedgerPayment,
			Category:   "rent",
			Amount:     amount,
		}}
	}

	tests := []struct {
		name    string
		prop    model.Property
		entries []model.LedgerEntry
		now     time.Time
		want    string
	}{
		{"rent covered", occupied, pay(-1500), afterGrace, "paid"},
		{"partial payment", occupied, pay(-700), afterGrace, "partial"},
		{"nothing after grace day", occupied, nil, afterGrace, "overdue"},
		{"nothing within grace period", occupied, nil, withinGrace, "pending"},
		{"zero-rent property owes nothing", model.Property{ID: "prop-2"}, nil, afterGrace, "paid"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PropertyRentState(tc.prop, tc.entries, tc.now))
		})
	}
}
