package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grovli/grovli-backend/internal/http/response"
	"github.com/grovli/grovli-backend/internal/services"
)

type ChatHandler struct {
	chat services.ChatService
}

func NewChatHandler(chat services.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type startSessionBody struct {
	UserID string `json:"user_id"`
}

// POST /api/chatbot/start_session
func (h *ChatHandler) StartSession(c *gin.Context) {
	var body startSessionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	sess, err := h.chat.StartSession(c.Request.Context(), body.UserID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "start_session_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"session": sess})
}

// GET /api/chatbot/session/:session_id
func (h *ChatHandler) GetSession(c *gin.Context) {
	sessionID := c.Param("session_id")
	sess, err := h.chat.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "get_session_failed", err)
		return
	}
	if sess == nil {
		response.RespondError(c, http.StatusNotFound, "session_not_found", fmt.Errorf("session %s not found", sessionID))
		return
	}
	response.RespondOK(c, gin.H{"session": sess})
}

type notifyReadyBody struct {
	SessionID string `json:"session_id"`
	PlanID    string `json:"plan_id"`
}

// POST /api/chatbot/notify_ready
func (h *ChatHandler) NotifyReady(c *gin.Context) {
	var body notifyReadyBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	status, err := h.chat.NotifyReady(c.Request.Context(), body.SessionID, body.PlanID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "notify_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"status": status})
}
