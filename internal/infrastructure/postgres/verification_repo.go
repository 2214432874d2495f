package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ErlanBelekov/storefront/internal/domain"
	"github.com/ErlanBelekov/storefront/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const codeColumns = `id, user_id, code, purpose, used, expires_at, created_at`

type VerificationCodeRepository struct {
	pool *pgxpool.Pool
}

func NewVerificationCodeRepository(pool *pgxpool.Pool) *VerificationCodeRepository {
	return &VerificationCodeRepository{pool: pool}
}

func (r *VerificationCodeRepository) Create(ctx context.Context, c *domain.VerificationCode) (*domain.VerificationCode, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO verification_codes (user_id, code, purpose, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING `+codeColumns,
		c.UserID, c.Code, c.Purpose, c.ExpiresAt,
	)
	return scanCode(row)
}

// Consume claims the newest matching code and applies the user mutation in the
// same transaction. The row lock makes concurrent redemptions of one code
// serialize; the loser sees used = true and gets ErrCodeInvalid.
func (r *VerificationCodeRepository) Consume(ctx context.Context, in repository.ConsumeCodeInput) (*domain.VerificationCode, error) {
	var claimed *domain.VerificationCode

	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE verification_codes
			SET    used = TRUE
			WHERE id = (
				SELECT id FROM verification_codes
				WHERE  user_id    = $1
				  AND  code       = $2
				  AND  purpose    = $3
				  AND  NOT used
				  AND  expires_at >= $4
				ORDER BY created_at DESC
				LIMIT 1
				FOR UPDATE
			)
			AND NOT used
			RETURNING `+codeColumns,
			in.UserID, in.Code, in.Purpose, in.Now,
		)
		c, err := scanCode(row)
		if err != nil {
			return err
		}

		if in.MarkVerified {
			if err := r.exec(ctx, tx,
				`UPDATE users SET is_verified = TRUE, is_active = TRUE, updated_at = NOW() WHERE id = $1`,
				in.UserID); err != nil {
				return fmt.Errorf("mark user verified: %w", err)
			}
		}
		if in.NewPasswordHash != "" {
			if err := r.exec(ctx, tx,
				`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
				in.UserID, in.NewPasswordHash); err != nil {
				return fmt.Errorf("set password: %w", err)
			}
		}

		claimed = c
		return nil
	})
	if err != nil {
		if isInvalidInput(err) {
			return nil, domain.ErrCodeInvalid
		}
		return nil, err
	}
	return claimed, nil
}

func (r *VerificationCodeRepository) exec(ctx context.Context, tx pgx.Tx, sql string, args ...any) error {
	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func scanCode(row rowScanner) (*domain.VerificationCode, error) {
	var c domain.VerificationCode
	err := row.Scan(&c.ID, &c.UserID, &c.Code, &c.Purpose, &c.Used, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCodeInvalid
		}
		return nil, fmt.Errorf("scan verification code: %w", err)
	}
	return &c, nil
}
