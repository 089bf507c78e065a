// Package catalog answers read-only questions about the sweets on offer.
package catalog

import (
	"context"
	"sort"
	"strings"

	"github.com/01moynul/sweetshop-golang/internal/models"
	"github.com/01moynul/sweetshop-golang/internal/store"
)

// Query holds the optional search filters. Empty fields impose no constraint.
type Query struct {
	Name     string
	Category string
	MinPrice *float64
	MaxPrice *float64
}

// Stats summarises stock levels.
type Stats struct {
	Items     int            `json:"items"`
	Units     int            `json:"units"`
	LowStock  []models.Sweet `json:"lowStock"`
	Threshold int            `json:"threshold"`
}

// Service reads from a SweetStore.
type Service struct {
	store store.SweetStore
}

func NewService(s store.SweetStore) *Service {
	return &Service{store: s}
}

// Search returns the sweets matching every filter in q, newest first.
func (s *Service) Search(ctx context.Context, q Query) ([]models.Sweet, error) {
	filter := store.Filter{
		Name:     strings.TrimSpace(q.Name),
		Category: strings.TrimSpace(q.Category),
		MinPrice: q.MinPrice,
		MaxPrice: q.MaxPrice,
	}
	// Stored categories are always valid, so an unknown one can match nothing.
	// Checking here also keeps case-insensitive SQL collations out of the picture.
	if filter.Category != "" && !models.ValidCategory(filter.Category) {
		return []models.Sweet{}, nil
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return []models.Sweet{}, nil
	}

	sweets, err := s.store.Query(ctx, filter)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(sweets)
	return sweets, nil
}

// List returns the whole catalog, newest first.
func (s *Service) List(ctx context.Context) ([]models.Sweet, error) {
	return s.Search(ctx, Query{})
}

func (s *Service) Get(ctx context.Context, id string) (models.Sweet, error) {
	return s.store.Get(ctx, id)
}

// Stats counts items and units and collects sweets below threshold.
func (s *Service) Stats(ctx context.Context, threshold int) (Stats, error) {
	sweets, err := s.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Items: len(sweets), Threshold: threshold, LowStock: []models.Sweet{}}
	for _, sweet := range sweets {
		stats.Units += sweet.Quantity
		if sweet.Quantity < threshold {
			stats.LowStock = append(stats.LowStock, sweet)
		}
	}
	return stats, nil
}

func sortNewestFirst(sweets []models.Sweet) {
	sort.SliceStable(sweets, func(i, j int) bool {
		if !sweets[i].CreatedAt.Equal(sweets[j].CreatedAt) {
			return sweets[i].CreatedAt.After(sweets[j].CreatedAt)
		}
		return sweets[i].ID > sweets[j].ID
	})
}
