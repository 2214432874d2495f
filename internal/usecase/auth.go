package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/ErlanBelekov/storefront/internal/domain"
	"github.com/ErlanBelekov/storefront/internal/repository"
	"github.com/ErlanBelekov/storefront/internal/token"
)

const MinPasswordLength = 8

// codeVerifier is the subset of VerificationUsecase the auth flows need.
type codeVerifier interface {
	Issue(ctx context.Context, user *domain.User, purpose domain.Purpose) (*IssuedCode, error)
	Verify(ctx context.Context, user *domain.User, code string, purpose domain.Purpose) error
	ResetPassword(ctx context.Context, user *domain.User, code, passwordHash string) error
}

type TokenIssuer interface {
	Mint(user *domain.User) (token.Pair, error)
	ParseRefresh(raw string) (string, error)
}

type AuthUsecase struct {
	users      repository.UserRepository
	codes      codeVerifier
	tokens     TokenIssuer
	logger     *slog.Logger
	bcryptCost int
	// dummyHash keeps the login path for unknown users as slow as for known ones.
	dummyHash []byte
}

func NewAuthUsecase(users repository.UserRepository, codes codeVerifier, tokens TokenIssuer, logger *slog.Logger) *AuthUsecase {
	return newAuthUsecase(users, codes, tokens, logger, bcrypt.DefaultCost)
}

func newAuthUsecase(users repository.UserRepository, codes codeVerifier, tokens TokenIssuer, logger *slog.Logger, cost int) *AuthUsecase {
	dummy, _ := bcrypt.GenerateFromPassword([]byte("storefront-dummy-password"), cost)
	return &AuthUsecase{
		users:      users,
		codes:      codes,
		tokens:     tokens,
		logger:     logger.With("component", "auth"),
		bcryptCost: cost,
		dummyHash:  dummy,
	}
}

type SignupInput struct {
	Username string
	Email    string
	Phone    *string
	Password string
}

type SignupResult struct {
	User *domain.User
	Code *IssuedCode
}

// Session is the outcome of every flow that authenticates a user.
type Session struct {
	User   *domain.User
	Tokens token.Pair
}

// Signup creates an inactive, unverified account and issues a signup code.
func (u *AuthUsecase) Signup(ctx context.Context, input SignupInput) (*SignupResult, error) {
	if len(input.Password) < MinPasswordLength {
		return nil, fmt.Errorf("password too short: %w", domain.ErrValidation)
	}
	hash, err := u.hash(input.Password)
	if err != nil {
		return nil, err
	}

	user, err := u.users.Create(ctx, &domain.User{
		Username:     strings.TrimSpace(input.Username),
		Email:        normalizeEmail(input.Email),
		Phone:        input.Phone,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	code, err := u.codes.Issue(ctx, user, domain.PurposeSignup)
	if err != nil {
		return nil, fmt.Errorf("issue signup code: %w", err)
	}
	return &SignupResult{User: user, Code: code}, nil
}

// VerifySignup redeems a signup code and signs the user in.
func (u *AuthUsecase) VerifySignup(ctx context.Context, email, code string) (*Session, error) {
	user, err := u.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := u.codes.Verify(ctx, user, code, domain.PurposeSignup); err != nil {
		return nil, err
	}
	user.IsVerified = true
	user.IsActive = true
	return u.session(user)
}

// Resend issues another signup code. Earlier codes are not revoked.
func (u *AuthUsecase) Resend(ctx context.Context, email string) (*IssuedCode, error) {
	return u.issueFor(ctx, email, domain.PurposeSignup)
}

// Forgot issues a password-reset code.
func (u *AuthUsecase) Forgot(ctx context.Context, email string) (*IssuedCode, error) {
	return u.issueFor(ctx, email, domain.PurposePasswordReset)
}

func (u *AuthUsecase) issueFor(ctx context.Context, email string, purpose domain.Purpose) (*IssuedCode, error) {
	user, err := u.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u.codes.Issue(ctx, user, purpose)
}

// Login accepts a username or an email. Unknown users and wrong passwords are
// indistinguishable; an unverified account is reported only once the password
// has been proven.
func (u *AuthUsecase) Login(ctx context.Context, login, password string) (*Session, error) {
	user, err := u.users.FindByLogin(ctx, strings.TrimSpace(login))
	if errors.Is(err, domain.ErrUserNotFound) {
		_ = bcrypt.CompareHashAndPassword(u.dummyHash, []byte(password))
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsVerified {
		return nil, domain.ErrNotVerified
	}
	if !user.IsActive {
		return nil, domain.ErrInvalidCredentials
	}
	return u.session(user)
}

// Reset redeems a password-reset code and sets the new password in one step.
// The hash is computed before the code is touched so a hashing failure never
// burns the code.
func (u *AuthUsecase) Reset(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return fmt.Errorf("password too short: %w", domain.ErrValidation)
	}
	user, err := u.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	hash, err := u.hash(newPassword)
	if err != nil {
		return err
	}
	return u.codes.ResetPassword(ctx, user, code, hash)
}

func (u *AuthUsecase) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return fmt.Errorf("password too short: %w", domain.ErrValidation)
	}
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
		return domain.ErrWrongPassword
	}
	hash, err := u.hash(newPassword)
	if err != nil {
		return err
	}
	if err := u.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// Refresh exchanges a valid refresh token for a new pair.
func (u *AuthUsecase) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	userID, err := u.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.IsVerified || !user.IsActive {
		return nil, domain.ErrUnauthorized
	}
	return u.session(user)
}

func (u *AuthUsecase) session(user *domain.User) (*Session, error) {
	pair, err := u.tokens.Mint(user)
	if err != nil {
		return nil, fmt.Errorf("mint tokens: %w", err)
	}
	return &Session{User: user, Tokens: pair}, nil
}

func (u *AuthUsecase) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), u.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("password too long: %w", domain.ErrValidation)
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
