package domain

import (
	"fmt"
	"strings"
	"time"
)

// Defaults applied to optional fields at the input boundary.
const (
	PlaceholderImage    = "/placeholder.svg"
	UncategorizedLabel  = "uncategorized"
	MaxAverageRating    = 5.0
	defaultDisplayLabel = "This product"
)

// Entry is a product reference held in the wishlist. Product attributes are
// copied in at add time; the collection never looks them up again.
type Entry struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Price         Price     `json:"price"`
	Image         string    `json:"image"`
	Category      string    `json:"category"`
	Brand         string    `json:"brand"`
	AverageRating float64   `json:"averageRating"`
	ReviewCount   int       `json:"reviewCount"`
	DateAdded     time.Time `json:"dateAdded"`
}

// Key implements collection.Item.
func (e Entry) Key() string { return e.ID }

// DisplayName implements collection.Item.
func (e Entry) DisplayName() string {
	if e.Name == "" {
		return defaultDisplayLabel
	}
	return e.Name
}

// AddedAt implements collection.Item.
func (e Entry) AddedAt() time.Time { return e.DateAdded }

// Stamped implements collection.Item.
func (e Entry) Stamped(at time.Time) Entry {
	e.DateAdded = at
	return e
}

// RangeWarnings lists attribute values outside their documented ranges.
// Such values are stored as given; callers only report them.
func (e Entry) RangeWarnings() []string {
	var out []string
	if e.Price.IsNegative() {
		out = append(out, fmt.Sprintf("price %s is negative", e.Price.String()))
	}
	if e.AverageRating < 0 || e.AverageRating > MaxAverageRating {
		out = append(out, fmt.Sprintf("averageRating %g is outside [0, %g]", e.AverageRating, MaxAverageRating))
	}
	if e.ReviewCount < 0 {
		out = append(out, fmt.Sprintf("reviewCount %d is negative", e.ReviewCount))
	}
	return out
}

// EntryInput is the one accepted shape for adding to the wishlist. There is
// no dateAdded: the store sets it.
type EntryInput struct {
	ID            string  `json:"id" validate:"required,trimmed,max=128"`
	Name          string  `json:"name" validate:"required,max=500"`
	Price         Price   `json:"price"`
	Image         string  `json:"image" validate:"max=2048"`
	Category      string  `json:"category" validate:"max=128"`
	Brand         string  `json:"brand" validate:"max=128"`
	AverageRating float64 `json:"averageRating"`
	ReviewCount   int     `json:"reviewCount"`
}

// Entry converts the input to an unstamped Entry, filling defaults for the
// optional presentation fields.
func (in EntryInput) Entry() Entry {
	image := strings.TrimSpace(in.Image)
	if image == "" {
		image = PlaceholderImage
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = UncategorizedLabel
	}

	return Entry{
		ID:            in.ID,
		Name:          in.Name,
		Price:         in.Price,
		Image:         image,
		Category:      category,
		Brand:         in.Brand,
		AverageRating: in.AverageRating,
		ReviewCount:   in.ReviewCount,
	}
}
