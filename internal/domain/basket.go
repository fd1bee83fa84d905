package domain

import (
	"strings"
	"time"
)

// Basket limits.
const (
	MaxQuantityPerItem = 100
	MaxItemsPerBasket  = 50
)

// BasketItem is one line in the basket.
type BasketItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     Price     `json:"price"`
	Image     string    `json:"image"`
	Color     string    `json:"color,omitempty"`
	Quantity  int       `json:"quantity"`
	DateAdded time.Time `json:"dateAdded"`
}

// Key implements collection.Item.
func (b BasketItem) Key() string { return b.ID }

// DisplayName implements collection.Item.
func (b BasketItem) DisplayName() string {
	if b.Name == "" {
		return defaultDisplayLabel
	}
	return b.Name
}

// AddedAt implements collection.Item.
func (b BasketItem) AddedAt() time.Time { return b.DateAdded }

// Stamped implements collection.Item.
func (b BasketItem) Stamped(at time.Time) BasketItem {
	b.DateAdded = at
	return b
}

// LineTotal is price times quantity.
func (b BasketItem) LineTotal() Price {
	return b.Price.Mul(b.Quantity)
}

// BasketInput is the accepted shape for adding to the basket. A zero
// quantity means one.
type BasketInput struct {
	ID       string `json:"id" validate:"required,trimmed,max=128"`
	Name     string `json:"name" validate:"required,max=500"`
	Price    Price  `json:"price"`
	Image    string `json:"image" validate:"max=2048"`
	Color    string `json:"color" validate:"max=64"`
	Quantity int    `json:"quantity" validate:"gte=0,lte=100"`
}

// Item converts the input to an unstamped BasketItem.
func (in BasketInput) Item() BasketItem {
	qty := in.Quantity
	if qty == 0 {
		qty = 1
	}
	image := strings.TrimSpace(in.Image)
	if image == "" {
		image = PlaceholderImage
	}
	return BasketItem{
		ID:       in.ID,
		Name:     in.Name,
		Price:    in.Price,
		Image:    image,
		Color:    in.Color,
		Quantity: qty,
	}
}

// BasketItemFromEntry builds a one-unit basket line from a wishlist entry.
func BasketItemFromEntry(e Entry) BasketItem {
	return BasketItem{
		ID:       e.ID,
		Name:     e.Name,
		Price:    e.Price,
		Image:    e.Image,
		Quantity: 1,
	}
}

// Basket is the priced view of a basket's lines. Counts are computed from
// Items on construction and never maintained separately.
type Basket struct {
	Items     []BasketItem `json:"items"`
	LineCount int          `json:"lineCount"`
	ItemCount int          `json:"itemCount"`
	Subtotal  Price        `json:"subtotal"`
	Shipping  Price        `json:"shipping"`
	Total     Price        `json:"total"`
}

// NewBasket prices items. Shipping is charged only on a non-empty basket.
func NewBasket(items []BasketItem, flatShipping Price) Basket {
	if items == nil {
		items = []BasketItem{}
	}

	var (
		subtotal Price
		count    int
	)
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal())
		count += it.Quantity
	}

	var shipping Price
	if len(items) > 0 {
		shipping = flatShipping
	}

	return Basket{
		Items:     items,
		LineCount: len(items),
		ItemCount: count,
		Subtotal:  subtotal,
		Shipping:  shipping,
		Total:     subtotal.Add(shipping),
	}
}
