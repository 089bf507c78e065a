package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

//
// --- Stock Movement Handlers ---
//

// PurchaseInput: quantity is optional and defaults to 1.
type PurchaseInput struct {
	Quantity *int `json:"quantity" binding:"omitnil,min=1,max=2147483647"`
}

// RestockInput: quantity is required.
type RestockInput struct {
	Quantity *int `json:"quantity" binding:"required,min=1,max=2147483647"`
}

// PurchaseSweet handles POST /api/sweets/:id/purchase (any logged-in user).
func (h *Handlers) PurchaseSweet(c *gin.Context) {
	var input PurchaseInput
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		respondValidation(c, err)
		return
	}
	amount := 1
	if input.Quantity != nil {
		amount = *input.Quantity
	}

	result, err := h.Ledger.Purchase(c.Request.Context(), c.Param("id"), amount)
	if err != nil {
		h.respondError(c, err, "processing purchase")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":           "Purchase successful",
		"sweet":             result.Sweet,
		"purchasedQuantity": result.Amount,
	})
}

// RestockSweet handles POST /api/sweets/:id/restock (admin).
func (h *Handlers) RestockSweet(c *gin.Context) {
	var input RestockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		if errors.Is(err, io.EOF) {
			fieldErrors(c, FieldError{Field: "quantity", Message: "quantity is required"})
			return
		}
		respondValidation(c, err)
		return
	}

	result, err := h.Ledger.Restock(c.Request.Context(), c.Param("id"), *input.Quantity)
	if err != nil {
		h.respondError(c, err, "processing restock")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":           "Restock successful",
		"sweet":             result.Sweet,
		"restockedQuantity": result.Amount,
	})
}
