package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// UploadImage handles POST /api/uploads (admin).
// It stores the "image" file and returns its reference without touching any sweet.
func (h *Handlers) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		fieldErrors(c, FieldError{Field: "image", Message: "No file uploaded"})
		return
	}

	ref, err := h.Images.Store(file)
	if err != nil {
		respondImageError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"url": ref})
}
