package functions

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nextlevelrentals/assistant-platform/internal/chatctx"
	"github.com/nextlevelrentals/assistant-platform/internal/model"
	"github.com/nextlevelrentals/assistant-platform/internal/store"
	"github.com/nextlevelrentals/assistant-platform/pkg/logger"
)

// graceDay mirrors the billing rule used by the context builder: unpaid
// rent only reads as overdue after the 5th of the month.
const graceDay = 5

// Caller identifies who a function executes on behalf of. Every mutation
// is attributed to UserID; identities supplied inside function arguments
// are never honored for writes.
type Caller struct {
	UserID         string
	Role           model.UserRole
	ConversationID string
}

// Executor validates and performs model-requested operations. It is the
// only component in the pipeline allowed to mutate domain state, and it
// treats the model's arguments exactly like an unauthenticated HTTP body.
type Executor struct {
	store store.Store
	log   *logger.Logger
	now   func() time.Time
}

// NewExecutor creates an executor. now may be nil for wall-clock time.
func NewExecutor(st store.Store, log *logger.Logger, now func() time.Time) *Executor {
	if now == nil {
		now = time.Now
	}
	return &Executor{store: st, log: log, now: now}
}

// Execute runs a named function for the caller. Unknown or role-disallowed
// names fail before any store access; schema violations fail naming the
// offending field. Failures are results, not errors: they flow back into
// the narration step.
func (e *Executor) Execute(ctx context.Context, name string, args map[string]any, caller Caller) model.FunctionCallResult {
	spec, ok := Lookup(caller.Role, name)
	if !ok {
		return model.FunctionCallResult{
			Success: false,
			Error:   fmt.Sprintf("unknown function: %s", name),
		}
	}

	if err := validateArgs(spec, args); err != nil {
		return model.FunctionCallResult{Success: false, Error: err.Error()}
	}

	var result model.FunctionCallResult
	switch name {
	case FnSubmitMaintenance:
		result = e.submitMaintenance(ctx, caller, args)
	case FnCheckPaymentStatus:
		result = e.checkPaymentStatus(ctx, caller)
	case FnLeaseDetails:
		result = e.leaseDetails(ctx, caller)
	case FnPaymentHistory:
		result = e.paymentHistory(ctx, caller, args)
	case FnEscalate:
		result = e.escalate(ctx, caller, args)
	case FnPortfolioSummary:
		result = e.portfolioSummary(ctx)
	case FnOverdueTenants:
		result = e.overdueTenants(ctx)
	case FnTenantDetails:
		result = e.tenantDetails(ctx, args)
	case FnMaintenanceQueue:
		result = e.maintenanceQueue(ctx, args)
	case FnPropertyRentStatus:
		result = e.propertyRentStatus(ctx, args)
	case FnRecordPayment:
		result = e.recordPayment(ctx, caller, args)
	default:
		// Declared but not dispatched; a catalog/dispatch mismatch.
		result = model.FunctionCallResult{
			Success: false,
			Error:   fmt.Sprintf("function %s is not implemented", name),
		}
	}

	if !result.Success {
		e.log.Warn("function call failed",
			zap.String("function", name),
			zap.String("user_id", caller.UserID),
			zap.String("error", result.Error),
		)
	}
	return result
}

// validateArgs checks the model-supplied arguments against the declared
// schema. Unknown arguments are ignored.
func validateArgs(spec model.FunctionSpec, args map[string]any) error {
	for _, p := range spec.Params {
		v, present := args[p.Name]
		if !present || v == nil {
			if p.Required {
				return fmt.Errorf("missing required parameter: %s", p.Name)
			}
			continue
		}

		switch p.Type {
		case model.ParamString:
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("parameter %s must be a string", p.Name)
			}
			if len(p.Enum) > 0 && !contains(p.Enum, s) {
				return fmt.Errorf("parameter %s must be one of: %s", p.Name, strings.Join(p.Enum, ", "))
			}
		case model.ParamNumber:
			if _, ok := v.(float64); !ok {
				return fmt.Errorf("parameter %s must be a number", p.Name)
			}
		}
	}
	return nil
}

func (e *Executor) submitMaintenance(ctx context.Context, caller Caller, args map[string]any) model.FunctionCallResult {
	user, err := e.store.User(ctx, caller.UserID)
	if err != nil {
		return storeFailure("load tenant", err)
	}
	if len(user.PropertyIDs) == 0 {
		return model.FunctionCallResult{
			Success: false,
			Error:   "no property associated with this tenant",
			Message: "I couldn't find a property linked to your account. Please contact support.",
		}
	}

	title := argString(args, "title")
	now := e.now()
	req := &model.MaintenanceRequest{
		ID:          uuid.Must(uuid.NewV7()).String(),
		TenantID:    caller.UserID,
		PropertyID:  user.PropertyIDs[0],
		Title:       title,
		Description: argString(args, "description"),
		Priority:    argString(args, "priority"),
		Category:    argString(args, "category"),
		Status:      model.MaintenanceSubmitted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.store.CreateMaintenanceRequest(ctx, req); err != nil {
		return storeFailure("create maintenance request", err)
	}

	return model.FunctionCallResult{
		Success: true,
		Data: map[string]any{
			"requestId": req.ID,
			"title":     req.Title,
			"priority":  req.Priority,
			"status":    req.Status,
		},
		Message: fmt.Sprintf("Your maintenance request %q has been submitted successfully. A technician will be assigned shortly.", title),
	}
}

func (e *Executor) checkPaymentStatus(ctx context.Context, caller Caller) model.FunctionCallResult {
	user, err := e.store.User(ctx, caller.UserID)
	if err != nil {
		return storeFailure("load tenant", err)
	}

	now := e.now()
	monthStart, monthEnd := monthWindow(now)
	entries, err := e.store.LedgerForTenant(ctx, caller.UserID, monthStart)
	if err != nil {
		return storeFailure("load ledger", err)
	}

	var charges, payments float64
	var lastPayment *model.LedgerEntry
	for i, en := range entries {
		if en.Date.After(monthEnd) {
			continue
		}
		switch en.Type {
		case model.LedgerCharge:
			charges += en.Amount
		case model.LedgerPayment:
			payments += math.Abs(en.Amount)
			if lastPayment == nil {
				lastPayment = &entries[i]
			}
		}
	}

	balance := math.Max(0, charges-payments)
	status := "pending"
	switch {
	case user.MonthlyRent > 0 && payments >= user.MonthlyRent:
		status = "paid"
	case payments > 0:
		status = "partial"
	case now.Day() > graceDay:
		status = "overdue"
	}

	data := map[string]any{
		"monthlyRent": user.MonthlyRent,
		"amountPaid":  payments,
		"balance":     balance,
		"status":      status,
	}
	if lastPayment != nil {
		data["lastPaymentDate"] = lastPayment.Date.Format("Jan 2, 2006")
		data["lastPaymentAmount"] = math.Abs(lastPayment.Amount)
	}

	var msg string
	switch status {
	case "paid":
		msg = "Your rent for this month is paid in full. Thank you!"
	case "partial":
		msg = fmt.Sprintf("You've paid %s of your %s rent. Balance due: %s.",
			money(payments), money(user.MonthlyRent), money(balance))
	default:
		msg = fmt.Sprintf("Your rent of %s is %s. Please make a payment to stay current.",
			money(user.MonthlyRent), status)
	}

	return model.FunctionCallResult{Success: true, Data: data, Message: msg}
}

func (e *Executor) leaseDetails(ctx context.Context, caller Caller) model.FunctionCallResult {
	user, err := e.store.User(ctx, caller.UserID)
	if err != nil {
		return storeFailure("load tenant", err)
	}

	status := chatctx.LeaseStatus(user.LeaseEnd, e.now())
	data := map[string]any{
		"startDate": user.LeaseStart,
		"endDate":   user.LeaseEnd,
		"status":    status,
	}

	msg := "Lease details are not available. Please contact the office for more information."
	if user.LeaseStart != "" && user.LeaseEnd != "" {
		msg = fmt.Sprintf("Your lease runs from %s to %s. Status: %s.",
			user.LeaseStart, user.LeaseEnd, status)
	}
	return model.FunctionCallResult{Success: true, Data: data, Message: msg}
}

func (e *Executor) paymentHistory(ctx context.Context, caller Caller, args map[string]any) model.FunctionCallResult {
	months := int(argNumber(args, "months", 6))
	if months <= 0 {
		months = 6
	}

	now := e.now()
	since := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -months, 0)
	entries, err := e.store.LedgerForTenant(ctx, caller.UserID, since)
	if err != nil {
		return storeFailure("load ledger", err)
	}

	var payments []map[string]any
	var totalPaid float64
	for _, en := range entries {
		if en.Type != model.LedgerPayment {
			continue
		}
		amount := math.Abs(en.Amount)
		totalPaid += amount
		status := en.Status
		if status == "" {
			status = "completed"
		}
		method := en.Method
		if method == "" {
			method = "Unknown"
		}
		payments = append(payments, map[string]any{
			"date":   en.Date.Format("Jan 2, 2006"),
			"amount": amount,
			"method": method,
			"status": status,
		})
	}

	msg := fmt.Sprintf("No payments found in the last %d months.", months)
	if len(payments) > 0 {
		msg = fmt.Sprintf("Found %d payments totaling %s over the last %d months.",
			len(payments), money(totalPaid), months)
	}

	return model.FunctionCallResult{
		Success: true,
		Data: map[string]any{
			"payments":     payments,
			"totalPaid":    totalPaid,
			"periodMonths": months,
		},
		Message: msg,
	}
}

func (e *Executor) escalate(ctx context.Context, caller Caller, args map[string]any) model.FunctionCallResult {
	reason := argString(args, "reason")

	if caller.ConversationID != "" {
		_, err := e.store.UpdateConversation(ctx, caller.ConversationID, func(c *model.Conversation) error {
			if c.Status == model.StatusClosed {
				return fmt.Errorf("conversation %s is closed", c.ID)
			}
			c.Status = model.StatusEscalated
			c.EscalationReason = reason
			c.UpdatedAt = e.now()
			return nil
		})
		if err != nil {
			return storeFailure("escalate conversation", err)
		}
	}

	user, err := e.store.User(ctx, caller.UserID)
	if err != nil {
		return storeFailure("load user", err)
	}

	admins, err := e.store.UsersByRole(ctx, model.RoleAdmin)
	if err != nil {
		return storeFailure("load admins", err)
	}
	supers, err := e.store.UsersByRole(ctx, model.RoleSuperAdmin)
	if err != nil {
		return storeFailure("load admins", err)
	}
	admins = append(admins, supers...)

	notified := 0
	for _, admin := range admins {
		n := &model.Notification{
			ID:             uuid.Must(uuid.NewV7()).String(),
			UserID:         admin.ID,
			Type:           model.NotificationEscalation,
			Title:          "Chat Escalation",
			Message:        fmt.Sprintf("%s needs assistance: %s", displayNameOr(user.DisplayName, "A tenant"), reason),
			ConversationID: caller.ConversationID,
			EscalatedUser:  caller.UserID,
			CreatedAt:      e.now(),
		}
		if err := e.store.CreateNotification(ctx, n); err != nil {
			e.log.Warn("failed to create escalation notification",
				zap.String("admin_id", admin.ID), zap.Error(err))
			continue
		}
		notified++
	}

	return model.FunctionCallResult{
		Success: true,
		Data:    map[string]any{"escalated": true, "notifiedAdmins": notified},
		Message: "I've connected you with our support team. A team member will respond to your inquiry shortly. They can be reached at the office during business hours or will follow up via email.",
	}
}

func (e *Executor) portfolioSummary(ctx context.Context) model.FunctionCallResult {
	now := e.now()
	monthStart, monthEnd := monthWindow(now)

	properties, err := e.store.Properties(ctx)
	if err != nil {
		return storeFailure("load properties", err)
	}
	tenants, err := e.store.UsersByRole(ctx, model.RoleTenant)
	if err != nil {
		return storeFailure("load tenants", err)
	}
	entries, err := e.store.LedgerBetween(ctx, monthStart, monthEnd)
	if err != nil {
		return storeFailure("load ledger", err)
	}
	overdue, err := e.store.OverdueLedger(ctx)
	if err != nil {
		return storeFailure("load overdue ledger", err)
	}

	var totalExpected, totalCollected, overdueAmount float64
	for _, p := range properties {
		totalExpected += p.Rent
	}
	for _, en := range entries {
		if en.Type == model.LedgerPayment && en.Category == "rent" {
			totalCollected += math.Abs(en.Amount)
		}
	}
	for _, en := range overdue {
		overdueAmount += en.Amount
	}

	collectionRate := 0
	if totalExpected > 0 {
		collectionRate = int(math.Round(totalCollected / totalExpected * 100))
	}

	return model.FunctionCallResult{
		Success: true,
		Data: map[string]any{
			"properties":     len(properties),
			"tenants":        len(tenants),
			"totalExpected":  totalExpected,
			"totalCollected": totalCollected,
			"collectionRate": collectionRate,
			"overdueAmount":  overdueAmount,
		},
		Message: fmt.Sprintf("Portfolio: %d properties, %d tenants. This month: %s collected of %s expected (%d%% collection rate). Overdue: %s.",
			len(properties), len(tenants), money(totalCollected), money(totalExpected), collectionRate, money(overdueAmount)),
	}
}

func (e *Executor) overdueTenants(ctx context.Context) model.FunctionCallResult {
	tenants, err := e.store.UsersByRole(ctx, model.RoleTenant)
	if err != nil {
		return storeFailure("load tenants", err)
	}

	now := e.now()
	monthStart, monthEnd := monthWindow(now)

	var overdue []map[string]any
	for _, t := range tenants {
		if t.MonthlyRent <= 0 {
			continue
		}
		entries, err := e.store.LedgerForTenant(ctx, t.ID, monthStart)
		if err != nil {
			return storeFailure("load ledger", err)
		}
		var paid float64
		for _, en := range entries {
			if en.Type == model.LedgerPayment && !en.Date.After(monthEnd) {
				paid += math.Abs(en.Amount)
			}
		}
		if paid < t.MonthlyRent && now.Day() > graceDay {
			overdue = append(overdue, map[string]any{
				"name":        displayNameOr(t.DisplayName, "Unknown"),
				"unit":        t.Unit,
				"address":     t.Address,
				"monthlyRent": t.MonthlyRent,
				"amountPaid":  paid,
				"amountDue":   t.MonthlyRent - paid,
			})
		}
	}

	msg := "All tenants are current on their rent payments."
	if len(overdue) > 0 {
		var lines []string
		for _, o := range overdue {
			lines = append(lines, fmt.Sprintf("- %s (%s): %s due",
				o["name"], o["unit"], money(o["amountDue"].(float64))))
		}
		msg = fmt.Sprintf("Found %d tenant(s) with overdue rent:\n%s",
			len(overdue), strings.Join(lines, "\n"))
	}

	return model.FunctionCallResult{
		Success: true,
		Data:    map[string]any{"count": len(overdue), "tenants": overdue},
		Message: msg,
	}
}

func (e *Executor) tenantDetails(ctx context.Context, args map[string]any) model.FunctionCallResult {
	tenantID := argString(args, "tenantId")
	tenantName := argString(args, "tenantName")

	var tenant *model.UserProfile
	if tenantID != "" {
		u, err := e.store.User(ctx, tenantID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return storeFailure("load tenant", err)
		}
		if err == nil && u.Role == model.RoleTenant {
			tenant = u
		}
	} else if tenantName != "" {
		tenants, err := e.store.UsersByRole(ctx, model.RoleTenant)
		if err != nil {
			return storeFailure("load tenants", err)
		}
		needle := strings.ToLower(tenantName)
		for i := range tenants {
			if strings.Contains(strings.ToLower(tenants[i].DisplayName), needle) {
				tenant = &tenants[i]
				break
			}
		}
	}

	if tenant == nil {
		target := fmt.Sprintf("named %q", tenantName)
		if tenantID != "" {
			target = fmt.Sprintf("with ID %s", tenantID)
		}
		return model.FunctionCallResult{
			Success: false,
			Error:   "tenant not found",
			Message: fmt.Sprintf("I couldn't find a tenant %s. Please check the name or ID.", target),
		}
	}

	now := e.now()
	monthStart, _ := monthWindow(now)
	entries, err := e.store.LedgerForTenant(ctx, tenant.ID, monthStart)
	if err != nil {
		return storeFailure("load ledger", err)
	}
	var paid float64
	for _, en := range entries {
		if en.Type == model.LedgerPayment {
			paid += math.Abs(en.Amount)
		}
	}

	open, err := e.store.MaintenanceForTenant(ctx, tenant.ID, 0)
	if err != nil {
		return storeFailure("load maintenance", err)
	}
	openCount := 0
	for _, r := range open {
		if r.Open() {
			openCount++
		}
	}

	balance := math.Max(0, tenant.MonthlyRent-paid)
	return model.FunctionCallResult{
		Success: true,
		Data: map[string]any{
			"id":                      tenant.ID,
			"name":                    displayNameOr(tenant.DisplayName, "Unknown"),
			"email":                   tenant.Email,
			"unit":                    tenant.Unit,
			"address":                 tenant.Address,
			"monthlyRent":             tenant.MonthlyRent,
			"amountPaid":              paid,
			"balance":                 balance,
			"openMaintenanceRequests": openCount,
		},
		Message: fmt.Sprintf("%s (%s): Rent %s, Paid %s, Balance %s. Open maintenance: %d.",
			displayNameOr(tenant.DisplayName, "Tenant"), orNA(tenant.Unit),
			money(tenant.MonthlyRent), money(paid), money(balance), openCount),
	}
}

func (e *Executor) maintenanceQueue(ctx context.Context, args map[string]any) model.FunctionCallResult {
	priority := argString(args, "priority")
	status := argString(args, "status")

	statuses := []string{model.MaintenanceSubmitted, model.MaintenanceInProgress}
	if status != "" {
		statuses = []string{status}
	}

	tickets, err := e.store.MaintenanceByStatus(ctx, statuses, 20)
	if err != nil {
		return storeFailure("load maintenance queue", err)
	}

	var requests []map[string]any
	urgent, high := 0, 0
	for _, t := range tickets {
		if priority != "" && t.Priority != priority {
			continue
		}
		tenantName := "Unknown"
		if t.TenantID != "" {
			if u, err := e.store.User(ctx, t.TenantID); err == nil {
				tenantName = displayNameOr(u.DisplayName, "Unknown")
			}
		}
		requests = append(requests, map[string]any{
			"id":        t.ID,
			"title":     t.Title,
			"tenant":    tenantName,
			"priority":  t.Priority,
			"status":    t.Status,
			"createdAt": t.CreatedAt.Format("Jan 2, 2006"),
		})
		switch t.Priority {
		case "urgent":
			urgent++
		case "high":
			high++
		}
	}

	msg := "No maintenance requests found matching the criteria."
	if len(requests) > 0 {
		var filters []string
		if priority != "" {
			filters = append(filters, fmt.Sprintf(" (%s priority)", priority))
		}
		if status != "" {
			filters = append(filters, fmt.Sprintf(" with status %q", status))
		}
		msg = fmt.Sprintf("%d maintenance requests%s. %d urgent, %d high priority.",
			len(requests), strings.Join(filters, ""), urgent, high)
	}

	return model.FunctionCallResult{
		Success: true,
		Data: map[string]any{
			"total":    len(requests),
			"urgent":   urgent,
			"high":     high,
			"requests": requests,
		},
		Message: msg,
	}
}

func (e *Executor) propertyRentStatus(ctx context.Context, args map[string]any) model.FunctionCallResult {
	propertyID := argString(args, "propertyId")

	var properties []model.Property
	if propertyID != "" {
		p, err := e.store.Property(ctx, propertyID)
		if errors.Is(err, store.ErrNotFound) {
			return model.FunctionCallResult{
				Success: false,
				Error:   "property not found",
				Message: fmt.Sprintf("Property with ID %s not found.", propertyID),
			}
		} else if err != nil {
			return storeFailure("load property", err)
		}
		properties = []model.Property{*p}
	} else {
		var err error
		properties, err = e.store.Properties(ctx)
		if err != nil {
			return storeFailure("load properties", err)
		}
	}

	tenants, err := e.store.UsersByRole(ctx, model.RoleTenant)
	if err != nil {
		return storeFailure("load tenants", err)
	}

	now := e.now()
	monthStart, monthEnd := monthWindow(now)
	entries, err := e.store.LedgerBetween(ctx, monthStart, monthEnd)
	if err != nil {
		return storeFailure("load ledger", err)
	}

	summary := map[string]int{}
	var statuses []map[string]any
	for _, p := range properties {
		tenantName := "Vacant"
		for _, t := range tenants {
			if contains(t.PropertyIDs, p.ID) {
				tenantName = displayNameOr(t.DisplayName, "Unknown")
				break
			}
		}

		var paid float64
		for _, en := range entries {
			if en.PropertyID == p.ID && en.Type == model.LedgerPayment && en.Category == "rent" {
				paid += math.Abs(en.Amount)
			}
		}

		state := chatctx.PropertyRentState(p, entries, now)
		summary[state]++
		statuses = append(statuses, map[string]any{
			"propertyId":  p.ID,
			"address":     p.Address,
			"tenantName":  tenantName,
			"monthlyRent": p.Rent,
			"amountPaid":  paid,
			"status":      state,
		})
	}

	var msg string
	if propertyID != "" && len(statuses) > 0 {
		s := statuses[0]
		msg = fmt.Sprintf("Property %s: Rent %s, Paid %s, Status: %s",
			s["address"], money(s["monthlyRent"].(float64)), money(s["amountPaid"].(float64)), s["status"])
	} else {
		msg = fmt.Sprintf("Rent status: %d paid, %d pending, %d partial, %d overdue.",
			summary["paid"], summary["pending"], summary["partial"], summary["overdue"])
	}

	return model.FunctionCallResult{
		Success: true,
		Data: map[string]any{
			"properties": statuses,
			"summary": map[string]any{
				"total":   len(statuses),
				"paid":    summary["paid"],
				"pending": summary["pending"],
				"partial": summary["partial"],
				"overdue": summary["overdue"],
			},
		},
		Message: msg,
	}
}

func (e *Executor) recordPayment(ctx context.Context, caller Caller, args map[string]any) model.FunctionCallResult {
	tenantID := argString(args, "tenantId")
	amount := argNumber(args, "amount", 0)
	if amount <= 0 {
		return model.FunctionCallResult{Success: false, Error: "amount must be positive"}
	}

	tenant, err := e.store.User(ctx, tenantID)
	if errors.Is(err, store.ErrNotFound) {
		return model.FunctionCallResult{
			Success: false,
			Error:   "tenant not found",
			Message: fmt.Sprintf("I couldn't find a tenant with ID %s.", tenantID),
		}
	} else if err != nil {
		return storeFailure("load tenant", err)
	}
	if tenant.Role != model.RoleTenant {
		return model.FunctionCallResult{Success: false, Error: "user is not a tenant"}
	}

	entry := &model.LedgerEntry{
		ID:         uuid.Must(uuid.NewV7()).String(),
		TenantID:   tenant.ID,
		Type:       model.LedgerPayment,
		Category:   "rent",
		Amount:     -amount,
		Status:     "completed",
		Method:     argString(args, "method"),
		Date:       e.now(),
		RecordedBy: caller.UserID,
	}
	if len(tenant.PropertyIDs) > 0 {
		entry.PropertyID = tenant.PropertyIDs[0]
	}
	if err := e.store.AppendLedgerEntry(ctx, entry); err != nil {
		return storeFailure("record payment", err)
	}

	return model.FunctionCallResult{
		Success: true,
		Data: map[string]any{
			"entryId":  entry.ID,
			"tenantId": tenant.ID,
			"amount":   amount,
			"method":   entry.Method,
		},
		Message: fmt.Sprintf("Recorded a %s %s payment for %s.",
			money(amount), entry.Method, displayNameOr(tenant.DisplayName, "the tenant")),
	}
}

// Helpers.

func storeFailure(op string, err error) model.FunctionCallResult {
	return model.FunctionCallResult{
		Success: false,
		Error:   fmt.Sprintf("%s: %v", op, err),
	}
}

func argString(args map[string]any, name string) string {
	if v, ok := args[name].(string); ok {
		return v
	}
	return ""
}

func argNumber(args map[string]any, name string, def float64) float64 {
	if v, ok := args[name].(float64); ok {
		return v
	}
	return def
}

func monthWindow(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 1, 0).Add(-time.Second)
}

func contains(vals []string, want string) bool {
	for _, v := range vals {
		if v == want {
			return true
		}
	}
	return false
}

func displayNameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func money(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("$%d", int64(v))
	}
	return fmt.Sprintf("$%.2f", v)
}
