package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextlevelrentals/assistant-platform/internal/model"
)

func seedConversation(t *testing.T, mem *Memory, id, userID string, status model.ConversationStatus) *model.Conversation {
	t.Helper()
	conv := &model.Conversation{
		ID:       id,
		UserID:   userID,
		UserRole: model.RoleTenant,
		Status:   status,
	}
	require.NoError(t, mem.PutConversation(context.Background(), conv))
	return conv
}

func TestAppendMessageBumpsCount(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()
	seedConversation(t, mem, "conv-1", "tenant-1", model.StatusActive)

	for i := 0; i < 5; i++ {
		msg := &model.Message{
			ID:        fmt.Sprintf("msg-%d", i),
			Role:      model.MessageRoleUser,
			Content:   fmt.Sprintf("turn %d", i),
			CreatedAt: time.Now(),
		}
		require.NoError(t, mem.AppendMessage(ctx, "conv-1", msg))
		assert.Equal(t, uint64(i+1), msg.Sequence)

		conv, err := mem.GetConversation(ctx, "conv-1")
		require.NoError(t, err)
		assert.Equal(t, i+1, conv.MessageCount)
	}
}

func TestAppendMessageUnknownConversation(t *testing.T) {
	mem := NewMemory()
	err := mem.AppendMessage(context.Background(), "missing", &model.Message{ID: "msg-1"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMessagesRoundTripAndOrder(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()
	seedConversation(t, mem, "conv-1", "tenant-1", model.StatusActive)

	contents := []string{"first", "second", "third"}
	for i, c := range contents {
		require.NoError(t, mem.AppendMessage(ctx, "conv-1", &model.Message{
			ID: fmt.Sprintf("msg-%d", i), Role: model.MessageRoleUser, Content: c,
		}))
	}

	msgs, err := mem.Messages(ctx, "conv-1", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	for i, c := range contents {
		assert.Equal(t, c, msgs[i].Content)
	}
}

func TestMessagesLimitKeepsMostRecentAscending(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()
	seedConversation(t, mem, "conv-1", "tenant-1", model.StatusActive)

	for i := 0; i < 10; i++ {
		require.NoError(t, mem.AppendMessage(ctx, "conv-1", &model.Message{
			ID: fmt.Sprintf("msg-%d", i), Role: model.MessageRoleUser,
			Content: fmt.Sprintf("turn %d", i),
		}))
	}

	msgs, err := mem.Messages(ctx, "conv-1", 4)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, "turn 6", msgs[0].Content)
	assert.Equal(t, "turn 9", msgs[3].Content)
}

func TestConversationsForUserNewestFirst(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	older := seedConversation(t, mem, "conv-1", "tenant-1", model.StatusActive)
	newer := seedConversation(t, mem, "conv-2", "tenant-1", model.StatusActive)
	seedConversation(t, mem, "conv-3", "someone-else", model.StatusActive)

	_, err := mem.UpdateConversation(ctx, older.ID, func(c *model.Conversation) error {
		c.UpdatedAt = time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
		return nil
	})
	require.NoError(t, err)
	_, err = mem.UpdateConversation(ctx, newer.ID, func(c *model.Conversation) error {
		c.UpdatedAt = time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
		return nil
	})
	require.NoError(t, err)

	convs, err := mem.ConversationsForUser(ctx, "tenant-1", 0)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, "conv-2", convs[0].ID)
	assert.Equal(t, "conv-1", convs[1].ID)
}

func TestEscalatedConversations(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	seedConversation(t, mem, "conv-1", "tenant-1", model.StatusActive)
	seedConversation(t, mem, "conv-2", "tenant-2", model.StatusEscalated)
	seedConversation(t, mem, "conv-3", "tenant-3", model.StatusEscalated)

	convs, err := mem.EscalatedConversations(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, convs, 2)
	for _, c := range convs {
		assert.Equal(t, model.StatusEscalated, c.Status)
	}
}

func TestUpdateConversationMutateError(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()
	seedConversation(t, mem, "conv-1", "tenant-1", model.StatusActive)

	_, err := mem.UpdateConversation(ctx, "conv-1", func(c *model.Conversation) error {
		return fmt.Errorf("nope")
	})
	assert.Error(t, err)
}

func TestActivePaymentPlanNotFound(t *testing.T) {
	mem := NewMemory()
	_, err := mem.ActivePaymentPlan(context.Background(), "tenant-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLedgerForTenantSinceFilter(t *testing.T) {
	mem := NewMemory()
	mem.SeedLedger(
		model.LedgerEntry{ID: "old", TenantID: "tenant-1", Type: model.LedgerPayment,
			Amount: -100, Date: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)},
		model.LedgerEntry{ID: "new", TenantID: "tenant-1", Type: model.LedgerPayment,
			Amount: -200, Date: time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)},
	)

	entries, err := mem.LedgerForTenant(context.Background(),
		"tenant-1", time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "new", entries[0].ID)
}
