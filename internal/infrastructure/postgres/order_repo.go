package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ErlanBelekov/storefront/internal/domain"
	"github.com/ErlanBelekov/storefront/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const orderColumns = `id, user_id, total_amount, currency, status, gateway_order_id, gateway_payment_id, created_at, updated_at`

const lineColumns = `id, order_id, product_id, variant_id, product_title, variant_label, quantity, unit_price, total_price`

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Place holds a lock on the user row for the whole transaction so concurrent
// placements for one user run one after another and never interleave lines.
func (r *OrderRepository) Place(ctx context.Context, userID string, build repository.BuildOrderFunc) (*domain.Order, error) {
	var placed *domain.Order

	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		var locked string
		if err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) || isInvalidInput(err) {
				return domain.ErrUserNotFound
			}
			return fmt.Errorf("lock user: %w", err)
		}

		cart, err := listCart(ctx, tx, userID, true)
		if err != nil {
			return err
		}
		if len(cart) == 0 {
			return domain.ErrEmptyCart
		}

		order, err := build(ctx, cart)
		if err != nil {
			return err
		}

		if err := tx.QueryRow(ctx, `
			INSERT INTO orders (id, user_id, total_amount, currency, status, gateway_order_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at, updated_at`,
			order.ID, order.UserID, order.TotalAmount, order.Currency, order.Status, order.GatewayOrderID,
		).Scan(&order.CreatedAt, &order.UpdatedAt); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		batch := &pgx.Batch{}
		for i, l := range order.Lines {
			batch.Queue(`
				INSERT INTO order_items (
					order_id, position, product_id, variant_id, product_title, variant_label,
					quantity, unit_price, total_price
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				RETURNING id`,
				order.ID, i, l.ProductID, l.VariantID, l.ProductTitle, l.VariantLabel,
				l.Quantity, l.UnitPrice, l.TotalPrice,
			)
		}
		br := tx.SendBatch(ctx, batch)
		for i := range order.Lines {
			if err := br.QueryRow().Scan(&order.Lines[i].ID); err != nil {
				_ = br.Close()
				return fmt.Errorf("insert order line %d: %w", i, err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("close batch: %w", err)
		}

		placed = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id, userID string) (*domain.Order, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 AND user_id = $2`, id, userID)
	order, err := scanOrder(row)
	if err != nil {
		if isInvalidInput(err) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}

	if err := r.attachLines(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *OrderRepository) List(ctx context.Context, userID string) ([]*domain.Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	if err := r.attachLines(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// ConfirmPayment relies on the status guard in the UPDATE: under read committed
// a second concurrent confirmation blocks on the row lock, re-checks the guard
// after the first commits and matches nothing.
func (r *OrderRepository) ConfirmPayment(ctx context.Context, id, userID, paymentID string) (bool, error) {
	var transitioned bool

	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE orders
			SET    status             = 'placed',
			       gateway_payment_id = $3,
			       updated_at         = NOW()
			WHERE id = $1 AND user_id = $2 AND status = 'pending'`,
			id, userID, paymentID)
		if err != nil {
			return fmt.Errorf("mark order placed: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}

		if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		transitioned = true
		return nil
	})
	if err != nil {
		if isInvalidInput(err) {
			return false, domain.ErrOrderNotFound
		}
		return false, err
	}
	return transitioned, nil
}

func (r *OrderRepository) CancelStale(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders
		SET    status     = 'cancelled',
		       updated_at = NOW()
		WHERE id IN (
			SELECT id FROM orders
			WHERE  status     = 'pending'
			  AND  created_at < $1
			ORDER BY created_at ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		AND status = 'pending'`, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("cancel stale orders: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *OrderRepository) attachLines(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	byID := make(map[string]*domain.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+lineColumns+`
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, position`, ids)
	if err != nil {
		return fmt.Errorf("list order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l domain.OrderLine
		var productID *string
		if err := rows.Scan(
			&l.ID, &l.OrderID, &productID, &l.VariantID, &l.ProductTitle, &l.VariantLabel,
			&l.Quantity, &l.UnitPrice, &l.TotalPrice,
		); err != nil {
			return fmt.Errorf("scan order line: %w", err)
		}
		if productID != nil {
			l.ProductID = *productID
		}
		if o, ok := byID[l.OrderID]; ok {
			o.Lines = append(o.Lines, l)
		}
	}
	return rows.Err()
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.TotalAmount, &o.Currency, &o.Status,
		&o.GatewayOrderID, &o.GatewayPaymentID, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return &o, nil
}
