package domain_test

import (
	"testing"

	"github.com/ErlanBelekov/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestNewOrderFromCart_SnapshotsTotals(t *testing.T) {
	cart := []domain.CartLine{
		{
			Quantity: 2,
			Variant: domain.Variant{
				ID: "variant-a", ProductID: "product-1", ProductTitle: "Shirt",
				Color: strPtr("Red"), Size: strPtr("XL"),
				Price: decimal.RequireFromString("250.00"),
			},
		},
		{
			Quantity: 1,
			Variant: domain.Variant{
				ID: "variant-b", ProductID: "product-2", ProductTitle: "Cap",
				Price: decimal.RequireFromString("99.50"),
			},
		},
	}

	order, err := domain.NewOrderFromCart("order-1", "user-1", "INR", cart)
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("599.50")), "total = %s", order.TotalAmount)
	require.Len(t, order.Lines, 2)

	assert.True(t, order.Lines[0].TotalPrice.Equal(decimal.RequireFromString("500.00")))
	assert.True(t, order.Lines[1].TotalPrice.Equal(decimal.RequireFromString("99.50")))
	assert.Equal(t, "Red / XL", order.Lines[0].VariantLabel)
	assert.Equal(t, "", order.Lines[1].VariantLabel)
	assert.Equal(t, "order-1", order.Lines[0].OrderID)
	assert.Equal(t, "variant-a", *order.Lines[0].VariantID)

	// Later price changes must not leak into the snapshot.
	cart[0].Variant.Price = decimal.RequireFromString("1.00")
	assert.True(t, order.Lines[0].UnitPrice.Equal(decimal.RequireFromString("250.00")))
}

func TestNewOrderFromCart_TotalEqualsSumOfLines(t *testing.T) {
	prices := []string{"0.01", "19.99", "1234.56", "7.05", "100"}
	var cart []domain.CartLine
	for i, p := range prices {
		cart = append(cart, domain.CartLine{
			Quantity: i + 1,
			Variant:  domain.Variant{ID: p, Price: decimal.RequireFromString(p)},
		})
	}

	order, err := domain.NewOrderFromCart("o", "u", "INR", cart)
	require.NoError(t, err)
	require.Len(t, order.Lines, len(cart))

	sum := decimal.Zero
	for _, l := range order.Lines {
		assert.True(t, l.TotalPrice.Equal(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))))
		sum = sum.Add(l.TotalPrice)
	}
	assert.True(t, sum.Equal(order.TotalAmount))
}

func TestNewOrderFromCart_EmptyCart(t *testing.T) {
	_, err := domain.NewOrderFromCart("o", "u", "INR", nil)
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
}

func TestNewOrderFromCart_RejectsZeroQuantity(t *testing.T) {
	_, err := domain.NewOrderFromCart("o", "u", "INR", []domain.CartLine{
		{Quantity: 0, Variant: domain.Variant{Price: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestOrderStatus_Transitions(t *testing.T) {
	all := []domain.OrderStatus{
		domain.OrderStatusPending, domain.OrderStatusPlaced,
		domain.OrderStatusFailed, domain.OrderStatusCancelled,
	}
	for _, from := range all {
		for _, to := range all {
			want := from == domain.OrderStatusPending && to != domain.OrderStatusPending
			assert.Equal(t, want, from.CanTransition(to), "%s -> %s", from, to)
		}
	}
	assert.False(t, domain.OrderStatusPending.Terminal())
}
