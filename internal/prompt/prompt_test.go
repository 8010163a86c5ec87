package prompt

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextlevelrentals/assistant-platform/internal/model"
)

func TestSystemPromptDistinctPerRole(t *testing.T) {
	tenant := SystemPrompt(model.RoleTenant)
	admin := SystemPrompt(model.RoleAdmin)
	super := SystemPrompt(model.RoleSuperAdmin)

	assert.NotEqual(t, tenant, admin)
	assert.NotEqual(t, admin, super)
	assert.NotEqual(t, tenant, super)
}

func TestSystemPromptDeterministic(t *testing.T) {
	for _, role := range []model.UserRole{model.RoleTenant, model.RoleAdmin, model.RoleSuperAdmin} {
		assert.Equal(t, SystemPrompt(role), SystemPrompt(role))
	}
}

func TestTrimHistoryKeepsMostRecentWindow(t *testing.T) {
	history := make([]model.Message, HistoryWindow+15)
	for i := range history {
		history[i] = model.Message{
			Role:    model.MessageRoleUser,
			Content: fmt.Sprintf("message %d", i),
		}
	}

	turns := TrimHistory(history)
	require.Len(t, turns, HistoryWindow)
	assert.Equal(t, "message 15", turns[0].Content)
	assert.Equal(t, fmt.Sprintf("message %d", HistoryWindow+14), turns[len(turns)-1].Content)
}

func TestTrimHistorySkipsSystemMessages(t *testing.T) {
	history := []model.Message{
		{Role: model.MessageRoleUser, Content: "hello"},
		{Role: model.MessageRoleSystem, Content: "internal"},
		{Role: model.MessageRoleAssistant, Content: "hi there"},
	}

	turns := TrimHistory(history)
	require.Len(t, turns, 2)
	assert.Equal(t, model.MessageRoleUser, turns[0].Role)
	assert.Equal(t, model.MessageRoleAssistant, turns[1].Role)
}

func TestAssembleCarriesAllParts(t *testing.T) {
	history := []model.Message{
		{Role: model.MessageRoleUser, Content: "when is rent due?"},
		{Role: model.MessageRoleAssistant, Content: "on the first of the month"},
	}
	functions := []model.FunctionSpec{{Name: "check_payment_status"}}

	req := Assembler{}.Assemble(model.RoleTenant, "TENANT INFORMATION:\n- Name: Alex", history, "am I current?", functions)

	assert.Equal(t, SystemPrompt(model.RoleTenant), req.System)
	assert.Contains(t, req.Context, "Alex")
	assert.Len(t, req.History, 2)
	assert.Equal(t, "am I current?", req.UserMessage)
	require.Len(t, req.Functions, 1)
	assert.Equal(t, "check_payment_status", req.Functions[0].Name)
}
