// Package functions declares the operations the model may request and
// executes them against the document store.
package functions

import (
	"github.com/nextlevelrentals/assistant-platform/internal/model"
)

// Function names.
const (
	FnSubmitMaintenance  = "submit_maintenance_request"
	FnCheckPaymentStatus = "check_payment_status"
	FnLeaseDetails       = "get_lease_details"
	FnPaymentHistory     = "get_payment_history"
	FnEscalate           = "escalate_to_human"

	FnPortfolioSummary   = "get_portfolio_summary"
	FnOverdueTenants     = "get_overdue_tenants"
	FnTenantDetails      = "get_tenant_details"
	FnMaintenanceQueue   = "get_maintenance_queue"
	FnPropertyRentStatus = "get_property_rent_status"
	FnRecordPayment      = "record_manual_payment"
)

func tenantFunctions() []model.FunctionSpec {
	return []model.FunctionSpec{
		{
			Name:        FnSubmitMaintenance,
			Description: "Submit a new maintenance request for the tenant's unit",
			Params: []model.ParamSpec{
				{Name: "title", Type: model.ParamString, Description: `Brief summary of the issue (e.g., "Leaky faucet", "AC not working")`, Required: true},
				{Name: "description", Type: model.ParamString, Description: "Detailed description of the maintenance issue", Required: true},
				{Name: "priority", Type: model.ParamString, Description: "Priority level of the request", Enum: model.MaintenancePriorities, Required: true},
				{Name: "category", Type: model.ParamString, Description: "Category of the maintenance issue", Enum: model.MaintenanceCategories, Required: true},
			},
		},
		{
			Name:        FnCheckPaymentStatus,
			Description: "Get the current rent payment status, balance due, and recent payment history",
		},
		{
			Name:        FnLeaseDetails,
			Description: "Get lease terms, start/end dates, and renewal information",
		},
		{
			Name:        FnPaymentHistory,
			Description: "Get detailed payment history for the tenant",
			Params: []model.ParamSpec{
				{Name: "months", Type: model.ParamNumber, Description: "Number of months of history to retrieve (default: 6)"},
			},
		},
		{
			Name:        FnEscalate,
			Description: "Connect the user with human support for issues the assistant cannot resolve",
			Params: []model.ParamSpec{
				{Name: "reason", Type: model.ParamString, Description: "Brief explanation of why human support is needed", Required: true},
			},
		},
	}
}

func adminOnlyFunctions() []model.FunctionSpec {
	return []model.FunctionSpec{
		{
			Name:        FnPortfolioSummary,
			Description: "Get overall portfolio statistics including properties, tenants, and collection rates",
		},
		{
			Name:        FnOverdueTenants,
			Description: "Get a list of tenants with overdue rent payments",
		},
		{
			Name:        FnTenantDetails,
			Description: "Get detailed information about a specific tenant",
			Params: []model.ParamSpec{
				{Name: "tenantId", Type: model.ParamString, Description: "The tenant's user ID"},
				{Name: "tenantName", Type: model.ParamString, Description: "Search for tenant by name (if ID is not known)"},
			},
		},
		{
			Name:        FnMaintenanceQueue,
			Description: "Get maintenance requests, optionally filtered by priority or status",
			Params: []model.ParamSpec{
				{Name: "priority", Type: model.ParamString, Description: "Filter by priority level", Enum: model.MaintenancePriorities},
				{Name: "status", Type: model.ParamString, Description: "Filter by status", Enum: []string{
					model.MaintenanceSubmitted, model.MaintenanceInProgress,
					model.MaintenanceCompleted, model.MaintenanceCancelled,
				}},
			},
		},
		{
			Name:        FnPropertyRentStatus,
			Description: "Get rent payment status for all properties or a specific property",
			Params: []model.ParamSpec{
				{Name: "propertyId", Type: model.ParamString, Description: "Specific property ID (optional - omit for all properties)"},
			},
		},
		{
			Name:        FnRecordPayment,
			Description: "Record a manual rent payment received outside the portal (check, cash, money order)",
			Params: []model.ParamSpec{
				{Name: "tenantId", Type: model.ParamString, Description: "The tenant's user ID", Required: true},
				{Name: "amount", Type: model.ParamNumber, Description: "Payment amount in dollars", Required: true},
				{Name: "method", Type: model.ParamString, Description: "How the payment was received", Enum: []string{"check", "cash", "money_order", "other"}, Required: true},
			},
		},
	}
}

// DeclarationsFor returns the static catalog for a role. The catalog is
// derived from role alone; tenant functions are a strict subset of the
// admin catalog.
func DeclarationsFor(role model.UserRole) []model.FunctionSpec {
	fns := tenantFunctions()
	if role.Elevated() {
		fns = append(fns, adminOnlyFunctions()...)
	}
	return fns
}

// Lookup finds a function by name in the role's catalog.
func Lookup(role model.UserRole, name string) (model.FunctionSpec, bool) {
	for _, fn := range DeclarationsFor(role) {
		if fn.Name == name {
			return fn, true
		}
	}
	return model.FunctionSpec{}, false
}
