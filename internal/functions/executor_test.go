package functions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextlevelrentals/assistant-platform/internal/model"
	"github.com/nextlevelrentals/assistant-platform/internal/store"
	"github.com/nextlevelrentals/assistant-platform/pkg/logger"
)

var executorNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func newTestExecutor(t *testing.T) (*Executor, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	exec := NewExecutor(mem, logger.NewNop(), func() time.Time { return executorNow })
	return exec, mem
}

func seedTenant(mem *store.Memory) {
	mem.SeedUser(model.UserProfile{
		ID:          "tenant-1",
		DisplayName: "Alex Rivera",
		Role:        model.RoleTenant,
		Unit:        "4B",
		MonthlyRent: 1500,
		PropertyIDs: []string{"prop-1"},
		LeaseStart:  "2025-06-01",
		LeaseEnd:    "2026-05-31",
	})
	mem.SeedProperty(model.Property{ID: "prop-1", Address: "12 Oak St", Rent: 1500})
}

func TestExecuteUnknownFunctionFails(t *testing.T) {
	exec, mem := newTestExecutor(t)

	result := exec.Execute(context.Background(), "delete_everything", nil, Caller{
		UserID: "tenant-1", Role: model.RoleTenant,
	})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "unknown function")
	assert.Zero(t, mem.MaintenanceCount())
	assert.Zero(t, mem.LedgerCount())
}

func TestExecuteDisallowedForRoleFails(t *testing.T) {
	exec, mem := newTestExecutor(t)
	seedTenant(mem)

	result := exec.Execute(context.Background(), FnRecordPayment, map[string]any{
		"tenantId": "tenant-1",
		"amount":   float64(500),
		"method":   "cash",
	}, Caller{UserID: "tenant-1", Role: model.RoleTenant})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "unknown function")
	assert.Zero(t, mem.LedgerCount(), "disallowed call must not write")
}

func TestExecuteMissingRequiredParamNamesField(t *testing.T) {
	exec, mem := newTestExecutor(t)
	seedTenant(mem)

	result := exec.Execute(context.Background(), FnSubmitMaintenance, map[string]any{
		"title": "Leaky faucet",
	}, Caller{UserID: "tenant-1", Role: model.RoleTenant})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "description")
	assert.Zero(t, mem.MaintenanceCount())
}

func TestExecuteEnumViolationFails(t *testing.T) {
	exec, _ := newTestExecutor(t)

	result := exec.Execute(context.Background(), FnSubmitMaintenance, map[string]any{
		"title":       "Leaky faucet",
		"description": "Dripping in the kitchen",
		"priority":    "catastrophic",
		"category":    "plumbing",
	}, Caller{UserID: "tenant-1", Role: model.RoleTenant})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "priority")
}

func TestSubmitMaintenanceAttributedToCaller(t *testing.T) {
	exec, mem := newTestExecutor(t)
	seedTenant(mem)

	result := exec.Execute(context.Background(), FnSubmitMaintenance, map[string]any{
		"title":       "AC not working",
		"description": "No cold air since yesterday",
		"priority":    "high",
		"category":    "hvac",
	}, Caller{UserID: "tenant-1", Role: model.RoleTenant})

	require.True(t, result.Success, result.Error)
	tickets, err := mem.MaintenanceForTenant(context.Background(), "tenant-1", 0)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, "tenant-1", tickets[0].TenantID)
	assert.Equal(t, "prop-1", tickets[0].PropertyID)
	assert.Equal(t, model.MaintenanceSubmitted, tickets[0].Status)
}

func TestCheckPaymentStatusOverdueAfterGraceDay(t *testing.T) {
	exec, mem := newTestExecutor(t)
	seedTenant(mem)

	result := exec.Execute(context.Background(), FnCheckPaymentStatus, nil,
		Caller{UserID: "tenant-1", Role: model.RoleTenant})

	require.True(t, result.Success, result.Error)
	assert.Equal(t, "overdue", result.Data.(map[string]any)["status"])
}

func TestCheckPaymentStatusPaid(t *testing.T) {
	exec, mem := newTestExecutor(t)
	seedTenant(mem)
	mem.SeedLedger(model.LedgerEntry{
		ID: "pmt-1", TenantID: "tenant-1", PropertyID: "prop-1",
		Type: model.LedgerPayment, Category: "rent", Amount: -1500,
		Date: time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC),
	})

	result := exec.Execute(context.Background(), FnCheckPaymentStatus, nil,
		Caller{UserID: "tenant-1", Role: model.RoleTenant})

	require.True(t, result.Success, result.Error)
	assert.Equal(t, "paid", result.Data.(map[string]any)["status"])
}

func TestEscalateTransitionsConversationAndNotifiesAdmins(t *testing.T) {
	exec, mem := newTestExecutor(t)
	seedTenant(mem)
	mem.SeedUser(model.UserProfile{ID: "admin-1", DisplayName: "Morgan Lee", Role: model.RoleAdmin})
	mem.SeedUser(model.UserProfile{ID: "super-1", DisplayName: "Sam Ortiz", Role: model.RoleSuperAdmin})

	conv := &model.Conversation{
		ID: "0195f3a0-0000-7000-8000-000000000001", UserID: "tenant-1",
		UserRole: model.RoleTenant, Status: model.StatusActive,
	}
	require.NoError(t, mem.PutConversation(context.Background(), conv))

	result := exec.Execute(context.Background(), FnEscalate, map[string]any{
		"reason": "billing dispute",
	}, Caller{UserID: "tenant-1", Role: model.RoleTenant, ConversationID: conv.ID})

	require.True(t, result.Success, result.Error)

	updated, err := mem.GetConversation(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusEscalated, updated.Status)
	assert.Equal(t, "billing dispute", updated.EscalationReason)

	notes := mem.Notifications()
	require.Len(t, notes, 2)
	for _, n := range notes {
		assert.Equal(t, model.NotificationEscalation, n.Type)
		assert.Equal(t, "tenant-1", n.EscalatedUser)
		assert.Contains(t, n.Message, "billing dispute")
	}
}

func TestEscalateClosedConversationFails(t *testing.T) {
	exec, mem := newTestExecutor(t)
	seedTenant(mem)

	conv := &model.Conversation{
		ID: "0195f3a0-0000-7000-8000-000000000002", UserID: "tenant-1",
		UserRole: model.RoleTenant, Status: model.StatusClosed,
	}
	require.NoError(t, mem.PutConversation(context.Background(), conv))

	result := exec.Execute(context.Background(), FnEscalate, map[string]any{
		"reason": "still need help",
	}, Caller{UserID: "tenant-1", Role: model.RoleTenant, ConversationID: conv.ID})

	assert.False(t, result.Success)

	unchanged, err := mem.GetConversation(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusClosed, unchanged.Status)
}

func TestRecordPaymentAttributedToAdmin(t *testing.T) {
	exec, mem := newTestExecutor(t)
	seedTenant(mem)

	result := exec.Execute(context.Background(), FnRecordPayment, map[string]any{
		"tenantId": "tenant-1",
		"amount":   float64(750),
		"method":   "check",
	}, Caller{UserID: "admin-1", Role: model.RoleAdmin})

	require.True(t, result.Success, result.Error)

	entries, err := mem.LedgerForTenant(context.Background(), "tenant-1", time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.LedgerPayment, entries[0].Type)
	assert.Equal(t, -750.0, entries[0].Amount, "payments are stored negative")
	assert.Equal(t, "admin-1", entries[0].RecordedBy)
}

func TestTenantDetailsByNameSearch(t *testing.T) {
	exec, mem := newTestExecutor(t)
	seedTenant(mem)

	result := exec.Execute(context.Background(), FnTenantDetails, map[string]any{
		"tenantName": "rivera",
	}, Caller{UserID: "admin-1", Role: model.RoleAdmin})

	require.True(t, result.Success, result.Error)
	assert.Equal(t, "tenant-1", result.Data.(map[string]any)["id"])
}

func TestTenantDetailsNotFound(t *testing.T) {
	exec, _ := newTestExecutor(t)

	result := exec.Execute(context.Background(), FnTenantDetails, map[string]any{
		"tenantName": "nobody",
	}, Caller{UserID: "admin-1", Role: model.RoleAdmin})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "not found")
}

// flakyStore fails the user lookup to simulate a store outage.
type flakyStore struct {
	store.Store
	userErr error
}

func (f *flakyStore) User(ctx context.Context, id string) (*model.UserProfile, error) {
	if f.userErr != nil {
		return nil, f.userErr
	}
	return f.Store.User(ctx, id)
}

func TestTenantDetailsStoreOutageIsNotMisreported(t *testing.T) {
	mem := store.NewMemory()
	seedTenant(mem)
	exec := NewExecutor(&flakyStore{Store: mem, userErr: errors.New("kv timeout")},
		logger.NewNop(), func() time.Time { return executorNow })

	result := exec.Execute(context.Background(), FnTenantDetails, map[string]any{
		"tenantId": "tenant-1",
	}, Caller{UserID: "admin-1", Role: model.RoleAdmin})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "load tenant")
	assert.NotContains(t, result.Error, "not found")
}

func TestPropertyRentStatusSummary(t *testing.T) {
	exec, mem := newTestExecutor(t)
	seedTenant(mem)
	mem.SeedProperty(model.Property{ID: "prop-2", Address: "34 Elm St", Rent: 1200})
	mem.SeedLedger(model.LedgerEntry{
		ID: "pmt-2", TenantID: "tenant-1", PropertyID: "prop-1",
		Type: model.LedgerPayment, Category: "rent", Amount: -1500,
		Date: time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC),
	})

	result := exec.Execute(context.Background(), FnPropertyRentStatus, nil,
		Caller{UserID: "admin-1", Role: model.RoleAdmin})

	require.True(t, result.Success, result.Error)
	summary := result.Data.(map[string]any)["summary"].(map[string]any)
	assert.Equal(t, 2, summary["total"])
	assert.Equal(t, 1, summary["paid"])
	assert.Equal(t, 1, summary["overdue"])
}
