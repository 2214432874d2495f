package usecase

import (
	"io"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ErlanBelekov/storefront/internal/repository"
)

// NewTestAuthUsecase uses the minimum bcrypt cost so tests stay fast.
func NewTestAuthUsecase(users repository.UserRepository, codes codeVerifier, tokens TokenIssuer) *AuthUsecase {
	return newAuthUsecase(users, codes, tokens, slog.Default(), bcrypt.MinCost)
}

func (u *VerificationUsecase) SetClock(now func() time.Time) { u.now = now }

func (u *VerificationUsecase) SetRandom(r io.Reader) { u.random = r }

func (u *OrderUsecase) SetIDGenerator(f func() string) { u.newID = f }
