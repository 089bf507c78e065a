package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/01moynul/sweetshop-golang/internal/auth"
	"github.com/01moynul/sweetshop-golang/internal/catalog"
	"github.com/01moynul/sweetshop-golang/internal/inventory"
	"github.com/01moynul/sweetshop-golang/internal/store"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ImageStore saves an uploaded image and returns the reference to keep on the sweet.
type ImageStore interface {
	Store(file *multipart.FileHeader) (string, error)
	Remove(ref string) error
}

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Ledger  *inventory.Ledger
	Catalog *catalog.Service
	Users   store.UserStore
	Tokens  *auth.TokenManager
	Images  ImageStore
	Logger  *zap.Logger
}

// respondError maps domain errors to status codes. Anything unknown is a 500
// with the detail kept in the log only.
func (h *Handlers) respondError(c *gin.Context, err error, action string) {
	var stockErr *inventory.InsufficientStockError
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Sweet not found"})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     stockErr.Error(),
			"available": stockErr.Available,
			"requested": stockErr.Requested,
		})
	case errors.Is(err, inventory.ErrInvalidAmount), errors.Is(err, inventory.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, inventory.ErrTransient):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": inventory.ErrTransient.Error()})
	default:
		h.Logger.Error("request failed", zap.String("action", action), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error while " + action})
	}
}
