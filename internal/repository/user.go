package repository

import (
	"context"
	"time"

	"github.com/ErlanBelekov/storefront/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByLogin matches either username or email.
	FindByLogin(ctx context.Context, login string) (*domain.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// ConsumeCodeInput describes a single-use redemption. The user mutations
// are applied in the same transaction that marks the code used.
type ConsumeCodeInput struct {
	UserID  string
	Code    string
	Purpose domain.Purpose
	Now     time.Time

	MarkVerified    bool   // signup: set is_verified and is_active
	NewPasswordHash string // password reset: empty means leave the password alone
}

type VerificationCodeRepository interface {
	Create(ctx context.Context, code *domain.VerificationCode) (*domain.VerificationCode, error)
	// Consume claims the newest usable code matching the input and applies the
	// requested user mutation atomically. Returns domain.ErrCodeInvalid when
	// nothing matches.
	Consume(ctx context.Context, input ConsumeCodeInput) (*domain.VerificationCode, error)
}
