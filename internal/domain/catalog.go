package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Variant struct {
	ID           string
	ProductID    string
	ProductTitle string
	SKU          *string
	Color        *string
	Size         *string
	Price        decimal.Decimal
	Stock        int
}

// Label is the human readable variant description stored on order lines,
// e.g. "Red / XL".
func (v *Variant) Label() string {
	var parts []string
	for _, p := range []*string{v.Color, v.Size} {
		if p != nil && *p != "" {
			parts = append(parts, *p)
		}
	}
	return strings.Join(parts, " / ")
}

// CartLine is unique per (user, variant) and always has Quantity >= 1.
type CartLine struct {
	ID       string
	UserID   string
	Variant  Variant
	Quantity int
	AddedAt  time.Time
}

// Subtotal is the line total at the variant's current price.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Variant.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
