// Package inventory owns every change to a sweet's quantity. Writes go through
// the store's compare-and-swap and are retried on version conflicts, so
// concurrent purchases and restocks on one sweet never oversell or lose updates.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/01moynul/sweetshop-golang/internal/metrics"
	"github.com/01moynul/sweetshop-golang/internal/models"
	"github.com/01moynul/sweetshop-golang/internal/store"
	"go.uber.org/zap"
)

// Defaults for the conflict retry loop.
const (
	DefaultMaxAttempts = 5
	DefaultBackoff     = 2 * time.Millisecond

	// MaxQuantity matches the INT column in MySQL.
	MaxQuantity = math.MaxInt32
)

// Result is what purchase and restock hand back to the caller.
type Result struct {
	Sweet  models.Sweet
	Amount int
}

// NewSweet carries already-validated input for Add.
type NewSweet struct {
	Name        string
	Category    string
	Price       float64
	Quantity    int
	Description string
	ImageRef    string
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Name        *string
	Category    *string
	Price       *float64
	Quantity    *int
	Description *string
	ImageRef    *string
}

func (p Patch) apply(s models.Sweet) models.Sweet {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Category != nil {
		s.Category = *p.Category
	}
	if p.Price != nil {
		s.Price = *p.Price
	}
	if p.Quantity != nil {
		s.Quantity = *p.Quantity
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.ImageRef != nil {
		s.ImageRef = *p.ImageRef
	}
	return s
}

// Ledger applies quantity mutations against a SweetStore.
type Ledger struct {
	store       store.SweetStore
	logger      *zap.Logger
	metrics     *metrics.Registry
	maxAttempts int
	backoff     time.Duration
	now         func() time.Time
}

// Option tweaks a Ledger.
type Option func(*Ledger)

// WithMaxAttempts bounds the read-check-write cycles per call. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(l *Ledger) {
		if n >= 1 {
			l.maxAttempts = n
		}
	}
}

// WithBackoff sets the base pause between attempts. Zero disables pausing.
func WithBackoff(d time.Duration) Option {
	return func(l *Ledger) {
		if d >= 0 {
			l.backoff = d
		}
	}
}

// NewLedger builds a ledger over s.
func NewLedger(s store.SweetStore, logger *zap.Logger, m *metrics.Registry, opts ...Option) *Ledger {
	l := &Ledger{
		store:       s,
		logger:      logger,
		metrics:     m,
		maxAttempts: DefaultMaxAttempts,
		backoff:     DefaultBackoff,
		now:         func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Purchase takes amount units out of stock.
func (l *Ledger) Purchase(ctx context.Context, id string, amount int) (Result, error) {
	const op = "purchase"
	if amount < 1 {
		l.record(op, ErrInvalidAmount)
		return Result{}, ErrInvalidAmount
	}
	if amount > MaxQuantity {
		l.record(op, ErrInvalidQuantity)
		return Result{}, ErrInvalidQuantity
	}
	sweet, err := l.adjust(ctx, op, id, -amount)
	l.record(op, err)
	if err != nil {
		return Result{}, err
	}
	l.logger.Info("sweet purchased",
		zap.String("sweet_id", id),
		zap.Int("amount", amount),
		zap.Int("quantity", sweet.Quantity),
	)
	return Result{Sweet: sweet, Amount: amount}, nil
}

// Restock puts amount units back into stock. It never fails on stock level.
func (l *Ledger) Restock(ctx context.Context, id string, amount int) (Result, error) {
	const op = "restock"
	if amount < 1 {
		l.record(op, ErrInvalidAmount)
		return Result{}, ErrInvalidAmount
	}
	if amount > MaxQuantity {
		l.record(op, ErrInvalidQuantity)
		return Result{}, ErrInvalidQuantity
	}
	sweet, err := l.adjust(ctx, op, id, amount)
	l.record(op, err)
	if err != nil {
		return Result{}, err
	}
	l.logger.Info("sweet restocked",
		zap.String("sweet_id", id),
		zap.Int("amount", amount),
		zap.Int("quantity", sweet.Quantity),
	)
	return Result{Sweet: sweet, Amount: amount}, nil
}

// Add creates a sweet with a fresh identifier.
func (l *Ledger) Add(ctx context.Context, in NewSweet) (models.Sweet, error) {
	if in.Quantity < 0 || in.Quantity > MaxQuantity {
		return models.Sweet{}, ErrInvalidQuantity
	}
	now := l.now()
	sweet := models.Sweet{
		ID:          models.NewID(),
		Name:        in.Name,
		Category:    in.Category,
		Price:       in.Price,
		Quantity:    in.Quantity,
		Description: in.Description,
		ImageRef:    in.ImageRef,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := l.store.Put(ctx, sweet); err != nil {
		l.record("add", err)
		return models.Sweet{}, err
	}
	l.record("add", nil)
	l.logger.Info("sweet added", zap.String("sweet_id", sweet.ID), zap.String("name", sweet.Name))
	return sweet, nil
}

// Update applies a partial edit under the same conflict discipline as
// purchase and restock. A quantity in the patch is an absolute value.
func (l *Ledger) Update(ctx context.Context, id string, patch Patch) (models.Sweet, error) {
	const op = "update"
	if patch.Quantity != nil && (*patch.Quantity < 0 || *patch.Quantity > MaxQuantity) {
		l.record(op, ErrInvalidQuantity)
		return models.Sweet{}, ErrInvalidQuantity
	}
	sweet, err := l.swap(ctx, op, id, func(current models.Sweet) (models.Sweet, error) {
		return patch.apply(current), nil
	})
	l.record(op, err)
	return sweet, err
}

// Remove deletes a sweet.
func (l *Ledger) Remove(ctx context.Context, id string) error {
	err := l.store.Delete(ctx, id)
	l.record("remove", err)
	if err == nil {
		l.logger.Info("sweet removed", zap.String("sweet_id", id))
	}
	return err
}

// adjust is the single primitive behind purchase and restock: commit
// quantity+delta if the result stays within bounds.
func (l *Ledger) adjust(ctx context.Context, op, id string, delta int) (models.Sweet, error) {
	return l.swap(ctx, op, id, func(current models.Sweet) (models.Sweet, error) {
		// Compare before adding so large deltas cannot wrap.
		if delta < 0 && -delta > current.Quantity {
			return current, &InsufficientStockError{Available: current.Quantity, Requested: -delta}
		}
		if delta > 0 && delta > MaxQuantity-current.Quantity {
			return current, ErrInvalidQuantity
		}
		current.Quantity += delta
		return current, nil
	})
}

// swap runs read, mutate, conditional write until it commits, fails for a
// reason other than a version conflict, or runs out of attempts.
func (l *Ledger) swap(ctx context.Context, op, id string, mutate store.MutateFunc) (models.Sweet, error) {
	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		current, err := l.store.Get(ctx, id)
		if err != nil {
			return models.Sweet{}, err
		}

		updated, err := l.store.CompareAndSwap(ctx, id, current.Version, mutate)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return models.Sweet{}, err
		}

		l.metrics.LedgerConflicts.WithLabelValues(op).Inc()
		l.logger.Debug("version conflict, retrying",
			zap.String("op", op),
			zap.String("sweet_id", id),
			zap.Int("attempt", attempt),
		)
		if attempt < l.maxAttempts {
			if err := l.pause(ctx, attempt); err != nil {
				return models.Sweet{}, err
			}
		}
	}

	l.logger.Warn("giving up after repeated version conflicts",
		zap.String("op", op),
		zap.String("sweet_id", id),
		zap.Int("attempts", l.maxAttempts),
	)
	return models.Sweet{}, fmt.Errorf("%s %s: %w", op, id, ErrTransient)
}

// pause waits a growing, jittered interval or until ctx is done.
func (l *Ledger) pause(ctx context.Context, attempt int) error {
	if l.backoff == 0 {
		return ctx.Err()
	}
	d := l.backoff * time.Duration(attempt)
	d += rand.N(d/2 + 1)

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Ledger) record(op string, err error) {
	l.metrics.LedgerOperations.WithLabelValues(op, outcome(err)).Inc()
}

func outcome(err error) string {
	var stockErr *InsufficientStockError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	case errors.As(err, &stockErr):
		return "insufficient_stock"
	case errors.Is(err, ErrTransient):
		return "transient"
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidQuantity):
		return "invalid"
	default:
		return "error"
	}
}
