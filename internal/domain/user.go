package domain

import "time"

type User struct {
	ID           string
	Username     string
	Email        string
	Phone        *string
	PasswordHash string
	IsVerified   bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Purpose string

const (
	PurposeSignup        Purpose = "signup"
	PurposePasswordReset Purpose = "password_reset"
)

func (p Purpose) Valid() bool {
	return p == PurposeSignup || p == PurposePasswordReset
}

// VerificationCode is a one-time code bound to a user and a purpose.
// Rows are never deleted; they expire logically.
type VerificationCode struct {
	ID        string
	UserID    string
	Code      string
	Purpose   Purpose
	Used      bool
	ExpiresAt time.Time
	CreatedAt time.Time
}
