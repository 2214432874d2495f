package usecase

import (
	"context"
	"fmt"

	"github.com/ErlanBelekov/storefront/internal/domain"
	"github.com/ErlanBelekov/storefront/internal/repository"
)

type CartUsecase struct {
	catalog repository.CatalogRepository
	cart    repository.CartRepository
}

func NewCartUsecase(catalog repository.CatalogRepository, cart repository.CartRepository) *CartUsecase {
	return &CartUsecase{catalog: catalog, cart: cart}
}

func (u *CartUsecase) GetVariant(ctx context.Context, id string) (*domain.Variant, error) {
	v, err := u.catalog.GetVariant(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get variant: %w", err)
	}
	return v, nil
}

func (u *CartUsecase) List(ctx context.Context, userID string) ([]domain.CartLine, error) {
	lines, err := u.cart.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	return lines, nil
}

// Add merges quantity into the user's line for the variant.
func (u *CartUsecase) Add(ctx context.Context, userID, variantID string, quantity int) (*domain.CartLine, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1: %w", domain.ErrValidation)
	}
	line, err := u.cart.Upsert(ctx, userID, variantID, quantity)
	if err != nil {
		return nil, fmt.Errorf("add to cart: %w", err)
	}
	return line, nil
}

func (u *CartUsecase) Remove(ctx context.Context, userID, itemID string) error {
	if err := u.cart.Delete(ctx, userID, itemID); err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	return nil
}

func (u *CartUsecase) Clear(ctx context.Context, userID string) error {
	if err := u.cart.Clear(ctx, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
