package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nextlevelrentals/assistant-platform/internal/apperr"
	"github.com/nextlevelrentals/assistant-platform/internal/chatctx"
	"github.com/nextlevelrentals/assistant-platform/internal/functions"
	"github.com/nextlevelrentals/assistant-platform/internal/llm"
	"github.com/nextlevelrentals/assistant-platform/internal/model"
	"github.com/nextlevelrentals/assistant-platform/internal/prompt"
	"github.com/nextlevelrentals/assistant-platform/pkg/logger"
	"github.com/nextlevelrentals/assistant-platform/pkg/metrics"
)

// apologyMessage is persisted as the assistant turn when the model is
// unreachable; the turn itself still succeeds.
const apologyMessage = "I'm sorry, I'm having trouble responding right now. Please try again in a moment, or contact the office directly if you need immediate assistance."

// functionFailurePrefix opens the assistant turn when a requested
// operation could not be completed.
const functionFailurePrefix = "I wasn't able to complete that request"

// ChatService runs the full chat turn: context assembly, prompt
// construction, model invocation, optional function execution, and
// persistence of both sides of the exchange.
type ChatService struct {
	conversations *ConversationService
	builder       *chatctx.Builder
	assembler     prompt.Assembler
	executor      *functions.Executor
	gateway       llm.Gateway
	events        EventPublisher
	log           *logger.Logger
	now           func() time.Time
}

// EventPublisher emits domain events for interested consumers. The NATS
// client satisfies this; tests pass a nop.
type EventPublisher interface {
	PublishEvent(ctx context.Context, subject string, payload any) error
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) PublishEvent(context.Context, string, any) error { return nil }

// NewChatService wires the turn pipeline. events and now may be nil.
func NewChatService(
	conversations *ConversationService,
	builder *chatctx.Builder,
	executor *functions.Executor,
	gateway llm.Gateway,
	events EventPublisher,
	log *logger.Logger,
	now func() time.Time,
) *ChatService {
	if events == nil {
		events = NopPublisher{}
	}
	if now == nil {
		now = time.Now
	}
	return &ChatService{
		conversations: conversations,
		builder:       builder,
		executor:      executor,
		gateway:       gateway,
		events:        events,
		log:           log,
		now:           now,
	}
}

// SendMessage processes one user turn and returns the assistant's reply.
// Model-gateway failures degrade to an in-conversation apology; function
// failures degrade to a narrated explanation. Neither surfaces as a
// request error. Store failures before the user message is persisted do
// fail the request.
func (s *ChatService) SendMessage(ctx context.Context, userID string, role model.UserRole, req *model.SendMessageRequest) (*model.SendMessageResponse, error) {
	conv, err := s.conversations.LoadOrCreate(ctx, req.ConversationID, userID, role)
	if err != nil {
		return nil, err
	}

	log := s.log.With(
		zap.String("conversation_id", conv.ID),
		zap.String("user_id", userID),
		zap.String("role", string(role)),
	)

	userMsg := s.newMessage(conv.ID, model.MessageRoleUser, req.Message, nil)
	if err := s.conversations.Append(ctx, conv, userMsg); err != nil {
		return nil, err
	}

	// History is loaded after the user append so the window is anchored
	// at the turn being answered, then the new message is excluded from
	// the prior-turn list.
	history, err := s.conversations.History(ctx, conv.ID, prompt.HistoryWindow+1)
	if err != nil {
		return nil, err
	}
	if n := len(history); n > 0 && history[n-1].ID == userMsg.ID {
		history = history[:n-1]
	}

	rc, err := s.builder.Build(ctx, userID, role)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "assemble context", err)
	}

	request := s.assembler.Assemble(role, chatctx.Format(rc), history, req.Message, functions.DeclarationsFor(role))

	start := s.now()
	reply, err := s.gateway.Converse(ctx, request)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		metrics.RecordModelCall(s.gateway.Name(), s.gateway.Model(), "error", elapsed, 0, 0)
		metrics.ChatTurnsTotal.WithLabelValues(string(role), "model_error").Inc()
		log.Error("model invocation failed", zap.Error(err))
		return s.finishTurn(ctx, conv, apologyMessage, nil)
	}
	metrics.RecordModelCall(s.gateway.Name(), s.gateway.Model(), "ok", elapsed,
		reply.Usage.TokensIn, reply.Usage.TokensOut)

	if reply.Kind == llm.ReplyText {
		metrics.ChatTurnsTotal.WithLabelValues(string(role), "text").Inc()
		return s.finishTurn(ctx, conv, reply.Text, nil)
	}

	metrics.ChatTurnsTotal.WithLabelValues(string(role), "function_call").Inc()
	return s.runFunctionTurn(ctx, conv, request, reply.Call, userID, role, log)
}

// runFunctionTurn executes the model-requested function and produces the
// assistant message describing the outcome.
func (s *ChatService) runFunctionTurn(
	ctx context.Context,
	conv *model.Conversation,
	request *llm.Request,
	call *llm.FunctionCall,
	userID string,
	role model.UserRole,
	log *logger.Logger,
) (*model.SendMessageResponse, error) {
	log.Info("model requested function", zap.String("function", call.Name))

	result := s.executor.Execute(ctx, call.Name, call.Args, functions.Caller{
		UserID:         userID,
		Role:           role,
		ConversationID: conv.ID,
	})
	metrics.RecordFunctionCall(call.Name, result.Success)

	meta := &model.MessageMetadata{
		FunctionCalled:  call.Name,
		FunctionOutcome: model.FunctionOutcomeSuccess,
	}

	if !result.Success {
		meta.FunctionOutcome = model.FunctionOutcomeError
		content := result.Message
		if content == "" {
			content = functionFailurePrefix + ". Please try again or rephrase your question."
		}
		return s.finishTurn(ctx, conv, content, meta)
	}

	if call.Name == functions.FnEscalate {
		metrics.EscalationsTotal.Inc()
		meta.ActionTaken = "escalated"
		if err := s.events.PublishEvent(ctx, "chat.events.escalated", map[string]any{
			"conversation_id": conv.ID,
			"user_id":         userID,
			"reason":          call.Args["reason"],
		}); err != nil {
			log.Warn("failed to publish escalation event", zap.Error(err))
		}
	}

	content := result.Message
	if resultJSON, err := json.Marshal(result.Data); err == nil {
		narrated, nerr := s.gateway.Narrate(ctx, request, call.Name, string(resultJSON))
		if nerr == nil && narrated != "" {
			content = narrated
		} else if nerr != nil {
			log.Warn("narration failed, using canned message", zap.Error(nerr))
		}
	}
	if content == "" {
		content = "Done. Is there anything else I can help you with?"
	}
	return s.finishTurn(ctx, conv, content, meta)
}

// finishTurn persists the assistant message and shapes the response.
func (s *ChatService) finishTurn(ctx context.Context, conv *model.Conversation, content string, meta *model.MessageMetadata) (*model.SendMessageResponse, error) {
	msg := s.newMessage(conv.ID, model.MessageRoleAssistant, content, meta)
	if err := s.conversations.Append(ctx, conv, msg); err != nil {
		return nil, err
	}

	resp := &model.SendMessageResponse{
		ConversationID: conv.ID,
		Message:        msg,
	}
	if meta != nil {
		resp.ActionTaken = meta.ActionTaken
	}
	return resp, nil
}

func (s *ChatService) newMessage(conversationID string, role model.MessageRole, content string, meta *model.MessageMetadata) *model.Message {
	return &model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      s.now(),
		Metadata:       meta,
	}
}
