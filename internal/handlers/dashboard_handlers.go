package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// DefaultLowStockThreshold is used when the query string does not say otherwise.
const DefaultLowStockThreshold = 10

// GetStockStats handles GET /api/sweets/stats?threshold=N (admin).
func (h *Handlers) GetStockStats(c *gin.Context) {
	threshold := DefaultLowStockThreshold
	if raw := c.Query("threshold"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			fieldErrors(c, FieldError{Field: "threshold", Message: "threshold must be a non-negative integer"})
			return
		}
		threshold = n
	}

	stats, err := h.Catalog.Stats(c.Request.Context(), threshold)
	if err != nil {
		h.respondError(c, err, "fetching stock stats")
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
