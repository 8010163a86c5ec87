// Package service implements the chat turn pipeline and conversation
// access control on top of the store and model gateway ports.
package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nextlevelrentals/assistant-platform/internal/apperr"
	"github.com/nextlevelrentals/assistant-platform/internal/model"
	"github.com/nextlevelrentals/assistant-platform/internal/store"
	"github.com/nextlevelrentals/assistant-platform/pkg/logger"
	"github.com/nextlevelrentals/assistant-platform/pkg/metrics"
)

// ConversationService owns conversation lifecycle and the access rules:
// a conversation is readable by its owner, and additionally by elevated
// roles once it has been escalated.
type ConversationService struct {
	store store.Conversations
	log   *logger.Logger
	now   func() time.Time
}

// NewConversationService creates a conversation service. now may be nil
// for wall-clock time.
func NewConversationService(st store.Conversations, log *logger.Logger, now func() time.Time) *ConversationService {
	if now == nil {
		now = time.Now
	}
	return &ConversationService{store: st, log: log, now: now}
}

// LoadOrCreate resolves the conversation a turn targets. An empty id
// starts a fresh conversation owned by the caller. A supplied id must be
// well formed, must exist, and must belong to the caller; nobody sends
// messages into another user's thread, escalated or not.
func (s *ConversationService) LoadOrCreate(ctx context.Context, id, userID string, role model.UserRole) (*model.Conversation, error) {
	if id == "" {
		now := s.now()
		conv := &model.Conversation{
			ID:        uuid.Must(uuid.NewV7()).String(),
			UserID:    userID,
			UserRole:  role,
			Status:    model.StatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.store.PutConversation(ctx, conv); err != nil {
			return nil, apperr.Wrap(apperr.KindUnavailable, "create conversation", err)
		}
		metrics.ConversationsTotal.WithLabelValues(string(role)).Inc()
		s.log.Info("conversation created",
			zap.String("conversation_id", conv.ID),
			zap.String("user_id", userID),
		)
		return conv, nil
	}

	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.New(apperr.KindInvalidArgument, "invalid conversation id")
	}

	conv, err := s.store.GetConversation(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "conversation not found")
	} else if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "load conversation", err)
	}

	if conv.UserID != userID {
		return nil, apperr.New(apperr.KindPermissionDenied, "conversation belongs to another user")
	}
	return conv, nil
}

// Append persists a message to the conversation, bumping its message
// count atomically with respect to the store.
func (s *ConversationService) Append(ctx context.Context, conv *model.Conversation, msg *model.Message) error {
	if err := s.store.AppendMessage(ctx, conv.ID, msg); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "append message", err)
	}
	metrics.MessagesTotal.WithLabelValues(string(msg.Role)).Inc()
	return nil
}

// History returns the most recent limit messages in ascending order.
func (s *ConversationService) History(ctx context.Context, conversationID string, limit int) ([]model.Message, error) {
	msgs, err := s.store.Messages(ctx, conversationID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "load history", err)
	}
	return msgs, nil
}

// ListForUser returns the caller's conversations, newest first. Elevated
// roles additionally see every escalated conversation, merged and
// deduplicated, with those entries flagged.
func (s *ConversationService) ListForUser(ctx context.Context, userID string, role model.UserRole, limit int) ([]model.ConversationSummary, error) {
	own, err := s.store.ConversationsForUser(ctx, userID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "list conversations", err)
	}

	summaries := make([]model.ConversationSummary, 0, len(own))
	seen := make(map[string]bool, len(own))
	for i := range own {
		summaries = append(summaries, own[i].Summary())
		seen[own[i].ID] = true
	}

	if role.Elevated() {
		escalated, err := s.store.EscalatedConversations(ctx, limit)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindUnavailable, "list escalated conversations", err)
		}
		for i := range escalated {
			if seen[escalated[i].ID] {
				continue
			}
			sum := escalated[i].Summary()
			sum.Escalated = true
			summaries = append(summaries, sum)
		}
		sortSummariesByUpdated(summaries)
		if limit > 0 && len(summaries) > limit {
			summaries = summaries[:limit]
		}
	}

	return summaries, nil
}

// GetDetail returns a conversation and its full message history. Owners
// always pass; elevated roles pass only for escalated conversations.
func (s *ConversationService) GetDetail(ctx context.Context, id, userID string, role model.UserRole) (*model.ConversationDetailResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.New(apperr.KindInvalidArgument, "invalid conversation id")
	}

	conv, err := s.store.GetConversation(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "conversation not found")
	} else if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "load conversation", err)
	}

	if !canView(conv, userID, role) {
		return nil, apperr.New(apperr.KindPermissionDenied, "not authorized to view this conversation")
	}

	msgs, err := s.store.Messages(ctx, id, 0)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "load messages", err)
	}

	return &model.ConversationDetailResponse{Conversation: conv, Messages: msgs}, nil
}

func canView(conv *model.Conversation, userID string, role model.UserRole) bool {
	if conv.UserID == userID {
		return true
	}
	return role.Elevated() && conv.Status == model.StatusEscalated
}

func sortSummariesByUpdated(s []model.ConversationSummary) {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].UpdatedAt.After(s[j].UpdatedAt)
	})
}
