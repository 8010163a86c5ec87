package chatctx

import (
	"fmt"
	"strings"

	"github.com/nextlevelrentals/assistant-platform/internal/model"
)

// Format serializes a snapshot into the compact plain-text block embedded
// in the prompt.
func Format(rc *model.RoleContext) string {
	if rc.Tenant != nil {
		return formatTenant(rc.Tenant)
	}
	if rc.Admin != nil {
		return formatAdmin(rc.Admin)
	}
	return ""
}

func formatTenant(ctx *model.TenantContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "TENANT INFORMATION:\n")
	fmt.Fprintf(&b, "- Name: %s\n", ctx.Profile.DisplayName)
	fmt.Fprintf(&b, "- Unit: %s\n", orNA(ctx.Profile.Unit))
	fmt.Fprintf(&b, "- Address: %s\n", orNA(ctx.Profile.Address))
	fmt.Fprintf(&b, "- Monthly Rent: %s\n", dollarsOrNA(ctx.Profile.MonthlyRent))

	fmt.Fprintf(&b, "\nBALANCE:\n")
	fmt.Fprintf(&b, "- Current Amount Due: %s\n", dollars(ctx.Balance.CurrentDue))
	if ctx.Balance.LastPaymentDate != "" {
		fmt.Fprintf(&b, "- Last Payment: %s on %s\n",
			dollars(ctx.Balance.LastPaymentAmount), ctx.Balance.LastPaymentDate)
	} else {
		fmt.Fprintf(&b, "- Last Payment: None recorded\n")
	}

	fmt.Fprintf(&b, "\nLEASE:\n")
	fmt.Fprintf(&b, "- Status: %s\n", ctx.Lease.Status)
	fmt.Fprintf(&b, "- Start Date: %s\n", orNA(ctx.Lease.StartDate))
	fmt.Fprintf(&b, "- End Date: %s\n", orNA(ctx.Lease.EndDate))

	fmt.Fprintf(&b, "\nMAINTENANCE:\n")
	fmt.Fprintf(&b, "- Open Requests: %d\n", ctx.Maintenance.OpenRequests)
	if len(ctx.Maintenance.RecentRequests) > 0 {
		fmt.Fprintf(&b, "- Recent:\n")
		for _, r := range ctx.Maintenance.RecentRequests {
			fmt.Fprintf(&b, "  * %s (%s, %s priority)\n", r.Title, r.Status, r.Priority)
		}
	} else {
		fmt.Fprintf(&b, "- No recent requests\n")
	}

	if ctx.PaymentPlan != nil {
		fmt.Fprintf(&b, "\nPAYMENT PLAN:\n")
		fmt.Fprintf(&b, "- Total: %s\n", dollars(ctx.PaymentPlan.TotalAmount))
		fmt.Fprintf(&b, "- Remaining: %s\n", dollars(ctx.PaymentPlan.RemainingAmount))
		if ctx.PaymentPlan.NextDueDate != "" {
			fmt.Fprintf(&b, "- Next Payment: %s due %s\n",
				dollars(ctx.PaymentPlan.NextDueAmount), ctx.PaymentPlan.NextDueDate)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func formatAdmin(ctx *model.AdminContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "PORTFOLIO OVERVIEW:\n")
	fmt.Fprintf(&b, "- Total Properties: %d\n", ctx.Portfolio.TotalProperties)
	fmt.Fprintf(&b, "- Active Tenants: %d\n", ctx.Portfolio.ActiveTenants)
	fmt.Fprintf(&b, "- Collection Rate: %.1f%%\n", ctx.Portfolio.CollectionRate)
	fmt.Fprintf(&b, "- Expected Rent (This Month): %s\n", dollars(ctx.Portfolio.TotalExpectedRent))
	fmt.Fprintf(&b, "- Collected (This Month): %s\n", dollars(ctx.Portfolio.TotalCollected))
	fmt.Fprintf(&b, "- Overdue Amount: %s\n", dollars(ctx.Portfolio.OverdueAmount))

	fmt.Fprintf(&b, "\nRENT STATUS (This Month):\n")
	fmt.Fprintf(&b, "- Paid: %d\n", ctx.RentStatus.Paid)
	fmt.Fprintf(&b, "- Pending: %d\n", ctx.RentStatus.Pending)
	fmt.Fprintf(&b, "- Partial: %d\n", ctx.RentStatus.Partial)
	fmt.Fprintf(&b, "- Overdue: %d\n", ctx.RentStatus.Overdue)

	fmt.Fprintf(&b, "\nMAINTENANCE:\n")
	fmt.Fprintf(&b, "- Pending: %d\n", ctx.Maintenance.PendingCount)
	fmt.Fprintf(&b, "- In Progress: %d\n", ctx.Maintenance.InProgressCount)
	fmt.Fprintf(&b, "- Urgent: %d\n", ctx.Maintenance.UrgentCount)
	if len(ctx.Maintenance.RecentRequests) > 0 {
		fmt.Fprintf(&b, "- Recent:\n")
		for _, r := range ctx.Maintenance.RecentRequests {
			fmt.Fprintf(&b, "  * %s at %s (%s, %s)\n",
				r.Title, orNA(r.PropertyAddress), r.Status, r.Priority)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func dollars(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("$%d", int64(v))
	}
	return fmt.Sprintf("$%.2f", v)
}

func dollarsOrNA(v float64) string {
	if v == 0 {
		return "N/A"
	}
	return dollars(v)
}
