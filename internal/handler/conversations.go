package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/nextlevelrentals/assistant-platform/internal/middleware"
	"github.com/nextlevelrentals/assistant-platform/internal/model"
	"github.com/nextlevelrentals/assistant-platform/internal/service"
	"github.com/nextlevelrentals/assistant-platform/pkg/logger"
)

// ConversationHandler handles conversation listing and retrieval.
type ConversationHandler struct {
	service *service.ConversationService
	logger  *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(svc *service.ConversationService, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: svc,
		logger:  log,
	}
}

// List handles GET /api/v1/chat/conversations
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	role := middleware.GetRole(ctx)

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	summaries, err := h.service.ListForUser(ctx, userID, role, limit)
	if err != nil {
		h.logger.Error("failed to list conversations",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.ConversationListResponse{Conversations: summaries})
}

// Get handles GET /api/v1/chat/conversations/:id
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	role := middleware.GetRole(ctx)
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	detail, err := h.service.GetDetail(ctx, conversationID, userID, role)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}
