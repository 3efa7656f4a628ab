package ingest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/liliang-cn/wikirag/internal/api/respond"
	"github.com/liliang-cn/wikirag/internal/domain"
	"github.com/liliang-cn/wikirag/internal/service"
)

// Handler handles ingestion API requests
type Handler struct {
	ingestService *service.IngestService
}

// NewHandler creates a new ingest handler
func NewHandler(ingestService *service.IngestService) *Handler {
	return &Handler{ingestService: ingestService}
}

// RegisterRoutes registers ingestion routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/wikipedia", h.IngestTopics)
	r.POST("/urls", h.IngestURLs)
}

// IngestTopics ingests pages found by topic search
func (h *Handler) IngestTopics(c *gin.Context) {
	var req domain.IngestTopicsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}

	result, err := h.ingestService.IngestTopics(c.Request.Context(), &req)
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// IngestURLs ingests explicit article URLs
func (h *Handler) IngestURLs(c *gin.Context) {
	var req domain.IngestURLsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}

	result, err := h.ingestService.IngestURLs(c.Request.Context(), &req)
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
