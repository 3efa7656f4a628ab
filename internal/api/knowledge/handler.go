package knowledge

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/liliang-cn/wikirag/internal/api/respond"
	"github.com/liliang-cn/wikirag/internal/domain"
	"github.com/liliang-cn/wikirag/internal/service"
)

// Handler handles reference registry API requests
type Handler struct {
	knowledgeService *service.KnowledgeService
}

// NewHandler creates a new knowledge handler
func NewHandler(knowledgeService *service.KnowledgeService) *Handler {
	return &Handler{knowledgeService: knowledgeService}
}

// RegisterRoutes registers knowledge routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/references", h.ListReferences)
	r.DELETE("/references/:page_id", h.DeleteReference)
}

// ListReferences returns one entry per ingested page
func (h *Handler) ListReferences(c *gin.Context) {
	refs, err := h.knowledgeService.List(c.Request.Context())
	if err != nil {
		respond.Error(c, err)
		return
	}
	if refs == nil {
		refs = []domain.Reference{}
	}

	c.JSON(http.StatusOK, refs)
}

// DeleteReference removes all indexed chunks of one page
func (h *Handler) DeleteReference(c *gin.Context) {
	pageID, err := strconv.ParseInt(c.Param("page_id"), 10, 64)
	if err != nil {
		respond.BindError(c, fmt.Errorf("page_id must be an integer"))
		return
	}

	if err := h.knowledgeService.Delete(c.Request.Context(), pageID); err != nil {
		respond.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
