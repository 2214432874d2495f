package repository

import (
	"context"
	"time"

	"github.com/ErlanBelekov/storefront/internal/domain"
)

// BuildOrderFunc turns the locked cart into an order. It runs inside the
// placement transaction; returning an error rolls everything back.
type BuildOrderFunc func(ctx context.Context, cart []domain.CartLine) (*domain.Order, error)

type OrderRepository interface {
	// Place locks the user, reads the cart and persists the built order with
	// its lines in one transaction. The cart is not modified.
	Place(ctx context.Context, userID string, build BuildOrderFunc) (*domain.Order, error)
	GetByID(ctx context.Context, id, userID string) (*domain.Order, error)
	List(ctx context.Context, userID string) ([]*domain.Order, error)

	// ConfirmPayment moves a pending order to placed, records the payment id and
	// clears the user's cart, all in one transaction. transitioned is false when
	// the order was not pending, in which case nothing is written.
	ConfirmPayment(ctx context.Context, id, userID, paymentID string) (transitioned bool, err error)

	// CancelStale cancels pending orders created before cutoff.
	CancelStale(ctx context.Context, cutoff time.Time, limit int) (int, error)
}
