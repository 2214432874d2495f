package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPlaced    OrderStatus = "placed"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusPlaced || s == OrderStatusFailed || s == OrderStatusCancelled
}

// CanTransition reports whether s -> to is a legal status change.
// Only pending orders move, and only into a terminal state.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	return s == OrderStatusPending && to.Terminal()
}

// Order is an immutable snapshot of a cart. TotalAmount is fixed at creation
// and never recomputed from live catalog prices.
type Order struct {
	ID               string
	UserID           string
	TotalAmount      decimal.Decimal
	Currency         string
	Status           OrderStatus
	GatewayOrderID   *string
	GatewayPaymentID *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Lines            []OrderLine
}

type OrderLine struct {
	ID           string
	OrderID      string
	ProductID    string
	VariantID    *string
	ProductTitle string
	VariantLabel string
	Quantity     int
	UnitPrice    decimal.Decimal
	TotalPrice   decimal.Decimal
}

// NewOrderFromCart snapshots cart lines into a pending order.
func NewOrderFromCart(id, userID, currency string, cart []CartLine) (*Order, error) {
	if len(cart) == 0 {
		return nil, ErrEmptyCart
	}

	order := &Order{
		ID:          id,
		UserID:      userID,
		Currency:    currency,
		Status:      OrderStatusPending,
		TotalAmount: decimal.Zero,
		Lines:       make([]OrderLine, 0, len(cart)),
	}

	for _, item := range cart {
		if item.Quantity < 1 {
			return nil, ErrValidation
		}
		variantID := item.Variant.ID
		line := OrderLine{
			OrderID:      id,
			ProductID:    item.Variant.ProductID,
			VariantID:    &variantID,
			ProductTitle: item.Variant.ProductTitle,
			VariantLabel: item.Variant.Label(),
			Quantity:     item.Quantity,
			UnitPrice:    item.Variant.Price,
			TotalPrice:   item.Subtotal(),
		}
		order.Lines = append(order.Lines, line)
		order.TotalAmount = order.TotalAmount.Add(line.TotalPrice)
	}

	return order, nil
}

// GatewayProof is what the payment processor hands back after a payment attempt.
type GatewayProof struct {
	PaymentID string
	OrderID   string
	Signature string
}

// RemoteOrder is the gateway-side counterpart of an Order.
// Stub is true when the reference was generated locally without a gateway.
type RemoteOrder struct {
	ID       string
	Amount   decimal.Decimal
	Currency string
	Stub     bool
}

// SignatureCheck is the outcome of verifying a GatewayProof. A stub gateway
// never reports Verified.
type SignatureCheck struct {
	Verified bool
	Stub     bool
}
