package inventory

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAmount is returned for purchase or restock amounts below 1.
	ErrInvalidAmount = errors.New("amount must be at least 1")
	// ErrInvalidQuantity is returned when a stored quantity would be negative or too large.
	ErrInvalidQuantity = errors.New("quantity must be between 0 and 2147483647")
	// ErrTransient means the ledger gave up after repeated version conflicts.
	// The whole request can be retried.
	ErrTransient = errors.New("inventory is busy, please retry")
)

// InsufficientStockError reports the quantity seen at the last check.
type InsufficientStockError struct {
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock. Available: %d, Requested: %d", e.Available, e.Requested)
}
