package repository

import (
	"context"

	"github.com/ErlanBelekov/storefront/internal/domain"
)

// CatalogRepository is read-only.
type CatalogRepository interface {
	GetVariant(ctx context.Context, id string) (*domain.Variant, error)
}

type CartRepository interface {
	List(ctx context.Context, userID string) ([]domain.CartLine, error)
	// Upsert adds quantity to the (user, variant) line, creating it if needed.
	Upsert(ctx context.Context, userID, variantID string, quantity int) (*domain.CartLine, error)
	Delete(ctx context.Context, userID, itemID string) error
	Clear(ctx context.Context, userID string) error
}
