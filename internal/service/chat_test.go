package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextlevelrentals/assistant-platform/internal/chatctx"
	"github.com/nextlevelrentals/assistant-platform/internal/functions"
	"github.com/nextlevelrentals/assistant-platform/internal/llm"
	"github.com/nextlevelrentals/assistant-platform/internal/model"
	"github.com/nextlevelrentals/assistant-platform/internal/store"
	"github.com/nextlevelrentals/assistant-platform/pkg/logger"
	"github.com/nextlevelrentals/assistant-platform/pkg/metrics"
)

// fakeGateway scripts model replies for the pipeline tests.
type fakeGateway struct {
	reply      *llm.Reply
	err        error
	narration  string
	narrateErr error

	lastRequest *llm.Request
}

func (f *fakeGateway) Converse(_ context.Context, req *llm.Request) (*llm.Reply, error) {
	f.lastRequest = req
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

func (f *fakeGateway) Narrate(_ context.Context, _ *llm.Request, _, _ string) (string, error) {
	if f.narrateErr != nil {
		return "", f.narrateErr
	}
	return f.narration, nil
}

func (f *fakeGateway) Name() string { return "fake" }

func (f *fakeGateway) Model() string { return "fake-model" }

func newChatService(t *testing.T, gw llm.Gateway) (*ChatService, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	now := func() time.Time { return serviceNow }
	convSvc := NewConversationService(mem, logger.NewNop(), now)
	builder := chatctx.NewBuilder(mem, now)
	executor := functions.NewExecutor(mem, logger.NewNop(), now)
	svc := NewChatService(convSvc, builder, executor, gw, nil, logger.NewNop(), now)
	return svc, mem
}

func seedChatTenant(mem *store.Memory) {
	mem.SeedUser(model.UserProfile{
		ID:          "tenant-1",
		DisplayName: "Alex Rivera",
		Role:        model.RoleTenant,
		MonthlyRent: 1500,
		PropertyIDs: []string{"prop-1"},
		LeaseEnd:    "2027-01-01",
	})
	mem.SeedProperty(model.Property{ID: "prop-1", Address: "12 Oak St", Rent: 1500})
}

func TestSendMessageTextReply(t *testing.T) {
	gw := &fakeGateway{reply: &llm.Reply{Kind: llm.ReplyText, Text: "Rent is due on the 1st."}}
	svc, mem := newChatService(t, gw)
	seedChatTenant(mem)

	resp, err := svc.SendMessage(context.Background(), "tenant-1", model.RoleTenant,
		&model.SendMessageRequest{Message: "when is rent due?"})
	require.NoError(t, err)
	assert.Equal(t, "Rent is due on the 1st.", resp.Message.Content)
	assert.Equal(t, model.MessageRoleAssistant, resp.Message.Role)

	msgs, err := mem.Messages(context.Background(), resp.ConversationID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, model.MessageRoleUser, msgs[0].Role)
	assert.Equal(t, "when is rent due?", msgs[0].Content)
	assert.Equal(t, model.MessageRoleAssistant, msgs[1].Role)
}

func TestSendMessageGatewayFailurePersistsApology(t *testing.T) {
	gw := &fakeGateway{err: llm.ErrUnavailable}
	svc, mem := newChatService(t, gw)
	seedChatTenant(mem)

	resp, err := svc.SendMessage(context.Background(), "tenant-1", model.RoleTenant,
		&model.SendMessageRequest{Message: "hello?"})
	require.NoError(t, err, "gateway failure must not fail the request")
	assert.Equal(t, apologyMessage, resp.Message.Content)

	msgs, err := mem.Messages(context.Background(), resp.ConversationID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2, "both turns persisted despite the outage")
	assert.Equal(t, apologyMessage, msgs[1].Content)
}

func TestSendMessageFunctionCallFlow(t *testing.T) {
	gw := &fakeGateway{
		reply: &llm.Reply{Kind: llm.ReplyFunctionCall, Call: &llm.FunctionCall{
			Name: functions.FnSubmitMaintenance,
			Args: map[string]any{
				"title":       "Leaky faucet",
				"description": "Dripping under the sink",
				"priority":    "medium",
				"category":    "plumbing",
			},
		}},
		narration: "I've submitted your maintenance request for the leaky faucet.",
	}
	svc, mem := newChatService(t, gw)
	seedChatTenant(mem)

	resp, err := svc.SendMessage(context.Background(), "tenant-1", model.RoleTenant,
		&model.SendMessageRequest{Message: "my faucet is leaking"})
	require.NoError(t, err)

	require.NotNil(t, resp.Message.Metadata)
	assert.Equal(t, functions.FnSubmitMaintenance, resp.Message.Metadata.FunctionCalled)
	assert.Equal(t, model.FunctionOutcomeSuccess, resp.Message.Metadata.FunctionOutcome)
	assert.Equal(t, "I've submitted your maintenance request for the leaky faucet.", resp.Message.Content)

	assert.Equal(t, 1, mem.MaintenanceCount())
}

func TestSendMessageFunctionFailureNarratedNotErrored(t *testing.T) {
	gw := &fakeGateway{
		reply: &llm.Reply{Kind: llm.ReplyFunctionCall, Call: &llm.FunctionCall{
			Name: "made_up_function",
			Args: map[string]any{},
		}},
	}
	svc, mem := newChatService(t, gw)
	seedChatTenant(mem)

	resp, err := svc.SendMessage(context.Background(), "tenant-1", model.RoleTenant,
		&model.SendMessageRequest{Message: "do the thing"})
	require.NoError(t, err, "executor failure stays in-conversation")

	require.NotNil(t, resp.Message.Metadata)
	assert.Equal(t, model.FunctionOutcomeError, resp.Message.Metadata.FunctionOutcome)
	assert.NotEmpty(t, resp.Message.Content)
	assert.Zero(t, mem.MaintenanceCount())
}

func TestSendMessageNarrationFailureFallsBack(t *testing.T) {
	gw := &fakeGateway{
		reply: &llm.Reply{Kind: llm.ReplyFunctionCall, Call: &llm.FunctionCall{
			Name: functions.FnCheckPaymentStatus,
			Args: map[string]any{},
		}},
		narrateErr: errors.New("narration model down"),
	}
	svc, mem := newChatService(t, gw)
	seedChatTenant(mem)

	resp, err := svc.SendMessage(context.Background(), "tenant-1", model.RoleTenant,
		&model.SendMessageRequest{Message: "am I paid up?"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Message.Content, "canned function message used when narration fails")
}

func TestSendMessageEscalationSetsAction(t *testing.T) {
	gw := &fakeGateway{
		reply: &llm.Reply{Kind: llm.ReplyFunctionCall, Call: &llm.FunctionCall{
			Name: functions.FnEscalate,
			Args: map[string]any{"reason": "complex billing dispute"},
		}},
		narration: "I've connected you with our team.",
	}
	svc, mem := newChatService(t, gw)
	seedChatTenant(mem)
	mem.SeedUser(model.UserProfile{ID: "admin-1", DisplayName: "Morgan Lee", Role: model.RoleAdmin})

	resp, err := svc.SendMessage(context.Background(), "tenant-1", model.RoleTenant,
		&model.SendMessageRequest{Message: "I need a human"})
	require.NoError(t, err)
	assert.Equal(t, "escalated", resp.ActionTaken)

	conv, err := mem.GetConversation(context.Background(), resp.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusEscalated, conv.Status)
	assert.Len(t, mem.Notifications(), 1)
}

func TestSendMessageRequestCarriesContextAndCatalog(t *testing.T) {
	gw := &fakeGateway{reply: &llm.Reply{Kind: llm.ReplyText, Text: "ok"}}
	svc, mem := newChatService(t, gw)
	seedChatTenant(mem)

	_, err := svc.SendMessage(context.Background(), "tenant-1", model.RoleTenant,
		&model.SendMessageRequest{Message: "hi"})
	require.NoError(t, err)

	require.NotNil(t, gw.lastRequest)
	assert.Contains(t, gw.lastRequest.Context, "Alex Rivera")
	assert.Len(t, gw.lastRequest.Functions, len(functions.DeclarationsFor(model.RoleTenant)))
	assert.Empty(t, gw.lastRequest.History, "first turn has no prior history")
}

func TestSendMessageContinuesExistingConversation(t *testing.T) {
	gw := &fakeGateway{reply: &llm.Reply{Kind: llm.ReplyText, Text: "sure"}}
	svc, mem := newChatService(t, gw)
	seedChatTenant(mem)

	first, err := svc.SendMessage(context.Background(), "tenant-1", model.RoleTenant,
		&model.SendMessageRequest{Message: "hello"})
	require.NoError(t, err)

	second, err := svc.SendMessage(context.Background(), "tenant-1", model.RoleTenant,
		&model.SendMessageRequest{Message: "one more thing", ConversationID: first.ConversationID})
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, second.ConversationID)

	require.Len(t, gw.lastRequest.History, 2, "prior turns enter the history window")
	conv, err := mem.GetConversation(context.Background(), first.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, 4, conv.MessageCount)
}

func TestSendMessageRecordsTokenUsage(t *testing.T) {
	gw := &fakeGateway{reply: &llm.Reply{
		Kind:  llm.ReplyText,
		Text:  "Rent was received on the 1st.",
		Usage: llm.Usage{TokensIn: 120, TokensOut: 35},
	}}
	svc, mem := newChatService(t, gw)
	seedChatTenant(mem)

	inBefore := testutil.ToFloat64(metrics.ModelTokensTotal.WithLabelValues("fake-model", "in"))
	outBefore := testutil.ToFloat64(metrics.ModelTokensTotal.WithLabelValues("fake-model", "out"))

	_, err := svc.SendMessage(context.Background(), "tenant-1", model.RoleTenant,
		&model.SendMessageRequest{Message: "did my rent go through?"})
	require.NoError(t, err)

	assert.Equal(t, inBefore+120, testutil.ToFloat64(metrics.ModelTokensTotal.WithLabelValues("fake-model", "in")))
	assert.Equal(t, outBefore+35, testutil.ToFloat64(metrics.ModelTokensTotal.WithLabelValues("fake-model", "out")))
}
