package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ErlanBelekov/storefront/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const variantColumns = `v.id, v.product_id, p.title, v.sku, v.color, v.size, v.price, v.stock`

type CatalogRepository struct {
	pool *pgxpool.Pool
}

func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

func (r *CatalogRepository) GetVariant(ctx context.Context, id string) (*domain.Variant, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+variantColumns+`
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.id = $1`, id)

	var v domain.Variant
	err := row.Scan(&v.ID, &v.ProductID, &v.ProductTitle, &v.SKU, &v.Color, &v.Size, &v.Price, &v.Stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidInput(err) {
			return nil, domain.ErrVariantNotFound
		}
		return nil, fmt.Errorf("scan variant: %w", err)
	}
	return &v, nil
}

type CartRepository struct {
	pool *pgxpool.Pool
}

func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

const cartSelect = `
	SELECT c.id, c.user_id, c.quantity, c.added_at, ` + variantColumns + `
	FROM cart_items c
	JOIN product_variants v ON v.id = c.variant_id
	JOIN products p ON p.id = v.product_id`

func (r *CartRepository) List(ctx context.Context, userID string) ([]domain.CartLine, error) {
	return listCart(ctx, r.pool, userID, false)
}

func (r *CartRepository) Upsert(ctx context.Context, userID, variantID string, quantity int) (*domain.CartLine, error) {
	var itemID string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO cart_items (user_id, variant_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, variant_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING id`,
		userID, variantID, quantity,
	).Scan(&itemID)
	if err != nil {
		if isInvalidInput(err) || isForeignKeyViolation(err) {
			return nil, domain.ErrVariantNotFound
		}
		return nil, fmt.Errorf("upsert cart item: %w", err)
	}

	row := r.pool.QueryRow(ctx, cartSelect+` WHERE c.id = $1`, itemID)
	line, err := scanCartLine(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCartItemNotFound
		}
		return nil, err
	}
	return line, nil
}

func (r *CartRepository) Delete(ctx context.Context, userID, itemID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM cart_items WHERE id = $1 AND user_id = $2`, itemID, userID)
	if err != nil {
		if isInvalidInput(err) {
			return domain.ErrCartItemNotFound
		}
		return fmt.Errorf("delete cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCartItemNotFound
	}
	return nil
}

func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// listCart reads the user's cart with live variant prices. forUpdate locks the
// cart rows, which the order placement transaction relies on.
func listCart(ctx context.Context, q querier, userID string, forUpdate bool) ([]domain.CartLine, error) {
	query := cartSelect + ` WHERE c.user_id = $1 ORDER BY c.added_at ASC, c.id ASC`
	if forUpdate {
		query += ` FOR UPDATE OF c`
	}

	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		l, err := scanCartLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart: %w", err)
	}
	return lines, nil
}

func scanCartLine(row rowScanner) (*domain.CartLine, error) {
	var l domain.CartLine
	v := &l.Variant
	err := row.Scan(
		&l.ID, &l.UserID, &l.Quantity, &l.AddedAt,
		&v.ID, &v.ProductID, &v.ProductTitle, &v.SKU, &v.Color, &v.Size, &v.Price, &v.Stock,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan cart line: %w", err)
	}
	return &l, nil
}
