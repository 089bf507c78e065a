// Package store persists sweets and users. Every backend offers the same
// conditional-update contract so the inventory ledger can stay lock-free.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/01moynul/sweetshop-golang/internal/models"
)

var (
	// ErrNotFound is returned when a record is missing so handlers can respond with 404.
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict means another writer committed since the caller's read.
	ErrVersionConflict = errors.New("version conflict")
	// ErrDuplicate is returned when a unique username or email is already taken.
	ErrDuplicate = errors.New("duplicate record")
)

// MutateFunc produces the candidate record from the current one.
// Returning an error aborts the swap without writing anything.
type MutateFunc func(current models.Sweet) (models.Sweet, error)

// SweetStore is keyed storage for sweets with optimistic concurrency.
type SweetStore interface {
	Get(ctx context.Context, id string) (models.Sweet, error)

	// Put inserts or overwrites unconditionally. Used for creation.
	Put(ctx context.Context, sweet models.Sweet) error

	// CompareAndSwap commits mutate(current) only if the stored version still
	// equals expectedVersion. The committed record carries expectedVersion+1.
	CompareAndSwap(ctx context.Context, id string, expectedVersion int64, mutate MutateFunc) (models.Sweet, error)

	Delete(ctx context.Context, id string) error

	// Query returns exactly the sweets accepted by filter.Match.
	Query(ctx context.Context, filter Filter) ([]models.Sweet, error)
}

// UserStore keeps accounts for the auth layer.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) error
	GetUser(ctx context.Context, id string) (models.User, error)
	// FindUserByLogin matches either the email or the username.
	FindUserByLogin(ctx context.Context, login string) (models.User, error)
	SetRole(ctx context.Context, id, role string) error
}

// Filter is a sweet predicate expressed as data so SQL backends can push it down.
// Zero values impose no constraint.
type Filter struct {
	Name     string
	Category string
	MinPrice *float64
	MaxPrice *float64
}

// Match reports whether s satisfies every constraint set on f.
func (f Filter) Match(s models.Sweet) bool {
	if f.Name != "" && !strings.Contains(strings.ToLower(s.Name), strings.ToLower(f.Name)) {
		return false
	}
	if f.Category != "" && s.Category != f.Category {
		return false
	}
	if f.MinPrice != nil && s.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && s.Price > *f.MaxPrice {
		return false
	}
	return true
}
