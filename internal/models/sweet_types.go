package models

import (
	"time"
)

// Category values accepted for a sweet. Matching is case-sensitive.
const (
	CategoryChocolate = "Chocolate"
	CategoryCandy     = "Candy"
	CategoryBiscuit   = "Biscuit"
	CategoryCake      = "Cake"
	CategoryIceCream  = "Ice Cream"
	CategoryOther     = "Other"
)

// Categories lists every category in display order.
var Categories = []string{
	CategoryChocolate,
	CategoryCandy,
	CategoryBiscuit,
	CategoryCake,
	CategoryIceCream,
	CategoryOther,
}

// ValidCategory reports whether c is one of the fixed categories.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Sweet is the model for the 'sweets' table.
// Version is bumped on every committed write and drives optimistic locking.
type Sweet struct {
	ID          string  `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Category    string  `json:"category" db:"category"`
	Price       float64 `json:"price" db:"price"`
	Quantity    int     `json:"quantity" db:"quantity"`
	Description string  `json:"description" db:"description"`
	ImageRef    string  `json:"image" db:"image_ref"`

	Version   int64     `json:"version" db:"version"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Name and description limits shared by validation and storage.
const (
	NameMinLen        = 2
	NameMaxLen        = 100
	DescriptionMaxLen = 500
)
