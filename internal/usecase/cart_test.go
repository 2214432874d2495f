package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ErlanBelekov/storefront/internal/domain"
	"github.com/ErlanBelekov/storefront/internal/usecase"
)

func TestCartAdd_RejectsNonPositiveQuantity(t *testing.T) {
	cart := &fakeCartRepo{upsert: func(context.Context, string, string, int) (*domain.CartLine, error) {
		t.Fatal("upsert must not be called")
		return nil, nil
	}}
	uc := usecase.NewCartUsecase(&fakeCatalogRepo{}, cart)

	for _, q := range []int{0, -1} {
		if _, err := uc.Add(context.Background(), "user-1", "var-a", q); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("quantity %d: expected ErrValidation, got %v", q, err)
		}
	}
}

func TestCartAdd_MergesThroughUpsert(t *testing.T) {
	cart := &fakeCartRepo{upsert: func(_ context.Context, userID, variantID string, q int) (*domain.CartLine, error) {
		if userID != "user-1" || variantID != "var-a" || q != 2 {
			t.Errorf("Upsert(%s, %s, %d)", userID, variantID, q)
		}
		return &domain.CartLine{ID: "line-1", Quantity: 5, Variant: domain.Variant{ID: variantID, Price: decimal.NewFromInt(10)}}, nil
	}}
	uc := usecase.NewCartUsecase(&fakeCatalogRepo{}, cart)

	line, err := uc.Add(context.Background(), "user-1", "var-a", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line.Quantity != 5 || !line.Subtotal().Equal(decimal.NewFromInt(50)) {
		t.Errorf("unexpected line %+v", line)
	}
}

func TestCartAdd_UnknownVariant(t *testing.T) {
	cart := &fakeCartRepo{upsert: func(context.Context, string, string, int) (*domain.CartLine, error) {
		return nil, domain.ErrVariantNotFound
	}}
	uc := usecase.NewCartUsecase(&fakeCatalogRepo{}, cart)

	if _, err := uc.Add(context.Background(), "user-1", "missing", 1); !errors.Is(err, domain.ErrVariantNotFound) {
		t.Fatalf("expected ErrVariantNotFound, got %v", err)
	}
}

func TestCartRemove_NotOwned(t *testing.T) {
	cart := &fakeCartRepo{delete: func(context.Context, string, string) error {
		return domain.ErrCartItemNotFound
	}}
	uc := usecase.NewCartUsecase(&fakeCatalogRepo{}, cart)

	if err := uc.Remove(context.Background(), "user-1", "line-9"); !errors.Is(err, domain.ErrCartItemNotFound) {
		t.Fatalf("expected ErrCartItemNotFound, got %v", err)
	}
}

func TestGetVariant(t *testing.T) {
	catalog := &fakeCatalogRepo{getVariant: func(_ context.Context, id string) (*domain.Variant, error) {
		if id == "var-a" {
			return &domain.Variant{ID: id, Price: decimal.RequireFromString("250.00"), Stock: 3}, nil
		}
		return nil, domain.ErrVariantNotFound
	}}
	uc := usecase.NewCartUsecase(catalog, &fakeCartRepo{})

	v, err := uc.GetVariant(context.Background(), "var-a")
	if err != nil || v.Stock != 3 {
		t.Fatalf("GetVariant = %+v, %v", v, err)
	}
	if _, err := uc.GetVariant(context.Background(), "nope"); !errors.Is(err, domain.ErrVariantNotFound) {
		t.Fatalf("expected ErrVariantNotFound, got %v", err)
	}
}
