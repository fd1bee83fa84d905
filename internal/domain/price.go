package domain

import (
	"github.com/shopspring/decimal"
)

// Price is a decimal amount that serializes as a bare JSON number, the layout
// stored slots have always used. It also accepts quoted strings on input.
type Price struct {
	decimal.Decimal
}

// NewPrice parses s, panicking on malformed input. Intended for literals.
func NewPrice(s string) Price {
	return Price{decimal.RequireFromString(s)}
}

// PriceFromDecimal wraps d.
func PriceFromDecimal(d decimal.Decimal) Price {
	return Price{d}
}

// MarshalJSON renders the price without quotes.
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.Decimal.String()), nil
}

// Mul returns p * qty.
func (p Price) Mul(qty int) Price {
	return Price{p.Decimal.Mul(decimal.NewFromInt(int64(qty)))}
}

// Add returns p + o.
func (p Price) Add(o Price) Price {
	return Price{p.Decimal.Add(o.Decimal)}
}
