// Package respond maps service errors onto the HTTP error contract. All
// error bodies carry a single "detail" field.
package respond

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/liliang-cn/wikirag/internal/domain"
)

// Error writes err with the status its error class maps to. A
// client-cancelled request gets no error body; the client is gone.
func Error(c *gin.Context, err error) {
	if errors.Is(err, context.Canceled) {
		c.Abort()
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUpstreamFetch),
		errors.Is(err, domain.ErrEmbedding),
		errors.Is(err, domain.ErrVectorIndex),
		errors.Is(err, domain.ErrGeneration):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"detail": err.Error()})
}

// BindError writes a malformed-request error
func BindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
}
