package chat

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/liliang-cn/wikirag/internal/api/respond"
	"github.com/liliang-cn/wikirag/internal/domain"
	"github.com/liliang-cn/wikirag/internal/service"
)

// Handler handles chat API requests
type Handler struct {
	chatService *service.ChatService
}

// NewHandler creates a new chat handler
func NewHandler(chatService *service.ChatService) *Handler {
	return &Handler{chatService: chatService}
}

// RegisterRoutes registers chat routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("", h.Chat)
	r.GET("/sessions", h.ListSessions)
	r.GET("/sessions/:session_id/messages", h.GetMessages)
	r.PATCH("/sessions/:session_id", h.RenameSession)
	r.DELETE("/sessions/:session_id", h.DeleteSession)
}

// Chat answers one question and records the turn
func (h *Handler) Chat(c *gin.Context) {
	var req domain.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}

	resp, err := h.chatService.Chat(c.Request.Context(), &req)
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListSessions returns recent sessions, most recently active first
func (h *Handler) ListSessions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	summaries, err := h.chatService.ListSessions(c.Request.Context(), limit)
	if err != nil {
		respond.Error(c, err)
		return
	}
	if summaries == nil {
		summaries = []*domain.SessionSummary{}
	}

	c.JSON(http.StatusOK, summaries)
}

// GetMessages returns the full transcript of one session
func (h *Handler) GetMessages(c *gin.Context) {
	messages, err := h.chatService.GetSessionMessages(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

// RenameSession updates a session title
func (h *Handler) RenameSession(c *gin.Context) {
	var req domain.RenameSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}

	summary, err := h.chatService.RenameSession(c.Request.Context(), c.Param("session_id"), req.Title)
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// DeleteSession removes a session and its messages
func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.chatService.DeleteSession(c.Request.Context(), c.Param("session_id")); err != nil {
		respond.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
