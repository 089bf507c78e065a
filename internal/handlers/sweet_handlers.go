package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/01moynul/sweetshop-golang/internal/catalog"
	"github.com/01moynul/sweetshop-golang/internal/inventory"
	"github.com/01moynul/sweetshop-golang/internal/upload"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"
)

// --- Inputs ---

// CreateSweetInput accepts JSON or multipart form data (with an optional "image" file).
type CreateSweetInput struct {
	Name        string   `json:"name" form:"name" binding:"required,min=2,max=100"`
	Category    string   `json:"category" form:"category" binding:"required,sweetcategory"`
	Price       *float64 `json:"price" form:"price" binding:"required,gte=0"`
	Quantity    *int     `json:"quantity" form:"quantity" binding:"required,gte=0,max=2147483647"`
	Description string   `json:"description" form:"description" binding:"max=500"`
}

// UpdateSweetInput is a partial update; absent fields stay as they are.
type UpdateSweetInput struct {
	Name        *string  `json:"name" form:"name" binding:"omitnil,min=2,max=100"`
	Category    *string  `json:"category" form:"category" binding:"omitnil,sweetcategory"`
	Price       *float64 `json:"price" form:"price" binding:"omitnil,gte=0"`
	Quantity    *int     `json:"quantity" form:"quantity" binding:"omitnil,gte=0,max=2147483647"`
	Description *string  `json:"description" form:"description" binding:"omitnil,max=500"`
}

// SearchInput maps the query string of GET /sweets/search.
type SearchInput struct {
	Name     string   `json:"name" form:"name"`
	Category string   `json:"category" form:"category"`
	MinPrice *float64 `json:"minPrice" form:"minPrice" binding:"omitnil,gte=0"`
	MaxPrice *float64 `json:"maxPrice" form:"maxPrice" binding:"omitnil,gte=0"`
}

// bindTrimmed binds, trims string fields via trim, then validates again so
// length rules apply to the trimmed values.
func bindTrimmed(c *gin.Context, obj interface{}, trim func()) error {
	if err := c.ShouldBind(obj); err != nil {
		return err
	}
	trim()
	return binding.Validator.ValidateStruct(obj)
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

// imageFromForm stores the "image" file of a multipart request, if any.
// It returns an empty reference when no file was sent.
func (h *Handlers) imageFromForm(c *gin.Context) (string, error) {
	if c.ContentType() != binding.MIMEMultipartPOSTForm {
		return "", nil
	}
	file, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", err
	}
	return h.Images.Store(file)
}

// discardImage removes an image stored for a request that then failed.
func (h *Handlers) discardImage(ref string) {
	if ref == "" {
		return
	}
	if err := h.Images.Remove(ref); err != nil {
		h.Logger.Warn("failed to remove orphaned image", zap.String("image", ref), zap.Error(err))
	}
}

func respondImageError(c *gin.Context, err error) {
	if errors.Is(err, upload.ErrUnsupportedType) || errors.Is(err, upload.ErrTooLarge) {
		fieldErrors(c, FieldError{Field: "image", Message: err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save image"})
}

// --- Handlers ---

// CreateSweet handles POST /api/sweets (admin).
func (h *Handlers) CreateSweet(c *gin.Context) {
	var input CreateSweetInput
	if err := bindTrimmed(c, &input, func() {
		input.Name = strings.TrimSpace(input.Name)
		input.Category = strings.TrimSpace(input.Category)
		input.Description = strings.TrimSpace(input.Description)
	}); err != nil {
		respondValidation(c, err)
		return
	}

	imageRef, err := h.imageFromForm(c)
	if err != nil {
		respondImageError(c, err)
		return
	}

	sweet, err := h.Ledger.Add(c.Request.Context(), inventory.NewSweet{
		Name:        input.Name,
		Category:    input.Category,
		Price:       *input.Price,
		Quantity:    *input.Quantity,
		Description: input.Description,
		ImageRef:    imageRef,
	})
	if err != nil {
		h.discardImage(imageRef)
		h.respondError(c, err, "adding sweet")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Sweet added successfully",
		"sweet":   sweet,
	})
}

// GetSweets handles GET /api/sweets.
func (h *Handlers) GetSweets(c *gin.Context) {
	sweets, err := h.Catalog.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "fetching sweets")
		return
	}
	c.JSON(http.StatusOK, gin.H{"sweets": sweets, "count": len(sweets)})
}

// SearchSweets handles GET /api/sweets/search?name=&category=&minPrice=&maxPrice=
func (h *Handlers) SearchSweets(c *gin.Context) {
	var input SearchInput
	if err := c.ShouldBindQuery(&input); err != nil {
		respondValidation(c, err)
		return
	}

	sweets, err := h.Catalog.Search(c.Request.Context(), catalog.Query{
		Name:     input.Name,
		Category: input.Category,
		MinPrice: input.MinPrice,
		MaxPrice: input.MaxPrice,
	})
	if err != nil {
		h.respondError(c, err, "searching sweets")
		return
	}
	c.JSON(http.StatusOK, gin.H{"sweets": sweets, "count": len(sweets)})
}

// GetSweet handles GET /api/sweets/:id.
func (h *Handlers) GetSweet(c *gin.Context) {
	sweet, err := h.Catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "fetching sweet")
		return
	}
	c.JSON(http.StatusOK, gin.H{"sweet": sweet})
}

// UpdateSweet handles PUT /api/sweets/:id (admin).
func (h *Handlers) UpdateSweet(c *gin.Context) {
	var input UpdateSweetInput
	if err := bindTrimmed(c, &input, func() {
		trimPtr(input.Name)
		trimPtr(input.Category)
		trimPtr(input.Description)
	}); err != nil {
		respondValidation(c, err)
		return
	}

	imageRef, err := h.imageFromForm(c)
	if err != nil {
		respondImageError(c, err)
		return
	}

	patch := inventory.Patch{
		Name:        input.Name,
		Category:    input.Category,
		Price:       input.Price,
		Quantity:    input.Quantity,
		Description: input.Description,
	}
	if imageRef != "" {
		patch.ImageRef = &imageRef
	}

	sweet, err := h.Ledger.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.discardImage(imageRef)
		h.respondError(c, err, "updating sweet")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Sweet updated successfully",
		"sweet":   sweet,
	})
}

// DeleteSweet handles DELETE /api/sweets/:id (admin).
func (h *Handlers) DeleteSweet(c *gin.Context) {
	if err := h.Ledger.Remove(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err, "deleting sweet")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sweet deleted successfully"})
}
