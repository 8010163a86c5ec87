// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/nextlevelrentals/assistant-platform/internal/middleware"
	"github.com/nextlevelrentals/assistant-platform/internal/model"
	"github.com/nextlevelrentals/assistant-platform/internal/service"
	"github.com/nextlevelrentals/assistant-platform/pkg/logger"
)

// ChatHandler handles the chat turn endpoint.
type ChatHandler struct {
	service *service.ChatService
	logger  *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(svc *service.ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		service: svc,
		logger:  log,
	}
}

// Send handles POST /api/v1/chat/messages
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	role := middleware.GetRole(ctx)

	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateMessageContent(req.Message); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ConversationID != "" {
		if err := middleware.ValidateConversationID(req.ConversationID); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	resp, err := h.service.SendMessage(ctx, userID, role, &req)
	if err != nil {
		h.logger.Error("failed to process chat turn",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
