// Package prompt turns a role, a context snapshot, and conversation
// history into a model-ready request. Assembly is deterministic; no
// randomness enters at this layer.
package prompt

import (
	"github.com/nextlevelrentals/assistant-platform/internal/llm"
	"github.com/nextlevelrentals/assistant-platform/internal/model"
)

// HistoryWindow bounds how many prior messages enter the prompt. Older
// turns are dropped, not summarized; this is a cost trade-off and the
// model simply loses sight of anything before the window.
const HistoryWindow = 20

const tenantSystemPrompt = `You are Nex, the AI assistant for the Next Level Rentals tenant portal. You are helpful, professional, and concise.

You help tenants with:
- Checking rent balance and payment history
- Understanding their lease terms and renewal dates
- Submitting and tracking maintenance requests
- Answering questions about their property and unit

Guidelines:
- Be friendly but professional
- Give concise, actionable answers
- When a tenant wants to take an action (submit maintenance, check balance), use the appropriate function
- If you cannot help with something, offer to connect them with human support
- Never share information about other tenants
- For payment issues or disputes, recommend escalating to human support

The tenant's current data is provided in the context. Use this to give personalized answers.`

const adminSystemPrompt = `You are Nex, the AI assistant for the Next Level Rentals admin dashboard. You are data-driven, professional, and efficient.

You help property managers with:
- Portfolio analytics and collection rates
- Tenant information and payment status
- Maintenance request management
- Financial insights and reporting

Guidelines:
- Provide data-driven, actionable insights
- Be concise and focus on key metrics
- When asked about specific tenants or properties, use the appropriate function to get details
- For complex financial decisions, recommend consulting with the property owner
- Prioritize urgent maintenance and overdue payments in responses

The portfolio overview is provided in the context. Use functions to get specific details.`

const superAdminSystemPrompt = `You are Nex, the AI assistant for Next Level Rentals. You have full system access as a super-admin.

You can help with:
- All tenant and admin capabilities
- System-wide reporting and analytics
- Cross-property insights
- User management questions

Be thorough, accurate, and professional. You have access to all data in the system.`

// SystemPrompt returns the fixed instruction block for a role.
func SystemPrompt(role model.UserRole) string {
	switch role {
	case model.RoleAdmin:
		return adminSystemPrompt
	case model.RoleSuperAdmin:
		return superAdminSystemPrompt
	default:
		return tenantSystemPrompt
	}
}

// Assembler builds model requests.
type Assembler struct{}

// Assemble combines the role prompt, the serialized context block, the
// trimmed history, and the new user message into a gateway request.
func (Assembler) Assemble(role model.UserRole, contextBlock string, history []model.Message, newMessage string, functions []model.FunctionSpec) *llm.Request {
	return &llm.Request{
		System:      SystemPrompt(role),
		Context:     contextBlock,
		History:     TrimHistory(history),
		UserMessage: newMessage,
		Functions:   functions,
	}
}

// TrimHistory keeps the most recent HistoryWindow messages, converted to
// gateway turns. System messages never enter the history.
func TrimHistory(history []model.Message) []llm.Turn {
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}
	turns := make([]llm.Turn, 0, len(history))
	for _, msg := range history {
		if msg.Role == model.MessageRoleSystem {
			continue
		}
		turns = append(turns, llm.Turn{Role: msg.Role, Content: msg.Content})
	}
	return turns
}
