package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/docuvault/rag-backend/internal/logger"
	"github.com/docuvault/rag-backend/internal/services"
)

type ChatHandler struct {
	log         *logger.Logger
	chatService services.ChatService
}

func NewChatHandler(log *logger.Logger, csvc services.ChatService) *ChatHandler {
	return &ChatHandler{
		log:         log.With("handler", "ChatHandler"),
		chatService: csvc,
	}
}

type sendMessageRequest struct {
	Message        string  `json:"message" binding:"required"`
	ConversationID *string `json:"conversation_id"`
	UserID         *string `json:"user_id"`
}

// POST /api/chat
// One chat turn: persists the user message, asks the model with recent
// history as context, persists the reply and returns the full transcript.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("message must not be empty"))
		return
	}

	var conversationID *uuid.UUID
	if req.ConversationID != nil && strings.TrimSpace(*req.ConversationID) != "" {
		id, err := uuid.Parse(*req.ConversationID)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("conversation_id must be a valid uuid"))
			return
		}
		conversationID = &id
	}

	userID := req.UserID
	if userID == nil {
		if v, ok := c.Get("user_id"); ok {
			if s, ok := v.(string); ok && s != "" {
				userID = &s
			}
		}
	}

	res, err := h.chatService.Send(c.Request.Context(), conversationID, userID, req.Message)
	if err != nil {
		h.log.Warn("Chat turn failed", "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, res)
}

// GET /api/conversations?userId=...
// user_id is accepted as an alias for the filter.
func (h *ChatHandler) ListConversations(c *gin.Context) {
	var userID *string
	v := strings.TrimSpace(c.Query("userId"))
	if v == "" {
		v = strings.TrimSpace(c.Query("user_id"))
	}
	if v != "" {
		userID = &v
	}
	summaries, err := h.chatService.ListConversations(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"conversations": summaries})
}

// GET /api/chat/:conversation_id/history
func (h *ChatHandler) GetHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("conversation_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("conversation_id must be a valid uuid"))
		return
	}
	messages, err := h.chatService.History(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"conversation_id": id,
		"messages":        messages,
	})
}

// DELETE /api/chat/:conversation_id
func (h *ChatHandler) DeleteConversation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("conversation_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("conversation_id must be a valid uuid"))
		return
	}
	if err := h.chatService.DeleteConversation(c.Request.Context(), id); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"message":         "Conversation deleted successfully",
		"conversation_id": id,
	})
}
