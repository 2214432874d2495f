package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"time"

	"github.com/ErlanBelekov/storefront/internal/domain"
	"github.com/ErlanBelekov/storefront/internal/metrics"
	"github.com/ErlanBelekov/storefront/internal/notify"
	"github.com/ErlanBelekov/storefront/internal/repository"
)

const (
	defaultCodeTTL = 10 * time.Minute

	codeMin = 100000
	codeMax = 999999
)

// Throttle admits at most one event per key per window. Release gives a
// claimed key back so a failed issuance does not start the cooldown.
type Throttle interface {
	Allow(ctx context.Context, key string, window time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type VerificationConfig struct {
	TTL            time.Duration
	ResendCooldown time.Duration
	// DebugEcho returns the raw code to the caller. Never enabled in production.
	DebugEcho bool
}

type VerificationUsecase struct {
	codes    repository.VerificationCodeRepository
	notifier notify.Notifier
	throttle Throttle
	logger   *slog.Logger
	cfg      VerificationConfig
	now      func() time.Time
	random   io.Reader
}

func NewVerificationUsecase(
	codes repository.VerificationCodeRepository,
	notifier notify.Notifier,
	throttle Throttle,
	cfg VerificationConfig,
	logger *slog.Logger,
) *VerificationUsecase {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultCodeTTL
	}
	return &VerificationUsecase{
		codes:    codes,
		notifier: notifier,
		throttle: throttle,
		logger:   logger.With("component", "verification"),
		cfg:      cfg,
		now:      time.Now,
		random:   rand.Reader,
	}
}

// IssuedCode is what callers get back from Issue. Code is empty unless debug
// echo is enabled.
type IssuedCode struct {
	CodeID    string
	Code      string
	ExpiresAt time.Time
}

// Issue stores a fresh code for (user, purpose) and dispatches it. Earlier
// outstanding codes stay valid.
func (u *VerificationUsecase) Issue(ctx context.Context, user *domain.User, purpose domain.Purpose) (*IssuedCode, error) {
	if !purpose.Valid() {
		return nil, fmt.Errorf("purpose %q: %w", purpose, domain.ErrValidation)
	}

	key := user.ID + ":" + string(purpose)
	claimed := false
	if u.throttle != nil {
		ok, err := u.throttle.Allow(ctx, key, u.cfg.ResendCooldown)
		switch {
		case err != nil:
			u.logger.WarnContext(ctx, "throttle unavailable, admitting request", "error", err)
		case !ok:
			return nil, domain.ErrThrottled
		default:
			claimed = true
		}
	}
	release := func() {
		if !claimed {
			return
		}
		if err := u.throttle.Release(ctx, key); err != nil {
			u.logger.WarnContext(ctx, "release throttle key", "error", err)
		}
	}

	value, err := u.generateCode()
	if err != nil {
		release()
		return nil, err
	}

	now := u.now()
	code, err := u.codes.Create(ctx, &domain.VerificationCode{
		UserID:    user.ID,
		Code:      value,
		Purpose:   purpose,
		ExpiresAt: now.Add(u.cfg.TTL),
	})
	if err != nil {
		release()
		return nil, fmt.Errorf("store code: %w", err)
	}
	metrics.OTPIssuedTotal.WithLabelValues(string(purpose)).Inc()

	msg := notify.Message{
		Subject: codeSubject(purpose),
		Body:    fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", value, int(u.cfg.TTL.Minutes())),
	}
	if err := u.notifier.Send(ctx, user, notify.ChannelEmail, msg); err != nil {
		u.logger.ErrorContext(ctx, "send verification code", "purpose", purpose, "error", err)
	}

	issued := &IssuedCode{CodeID: code.ID, ExpiresAt: code.ExpiresAt}
	if u.cfg.DebugEcho {
		issued.Code = value
	}
	return issued, nil
}

// Verify redeems a signup or password-reset code. A signup code also marks
// the account verified and active.
func (u *VerificationUsecase) Verify(ctx context.Context, user *domain.User, code string, purpose domain.Purpose) error {
	return u.consume(ctx, repository.ConsumeCodeInput{
		UserID:       user.ID,
		Code:         code,
		Purpose:      purpose,
		MarkVerified: purpose == domain.PurposeSignup,
	})
}

// ResetPassword redeems a password-reset code and stores passwordHash in the
// same transaction. The hash is computed by the caller beforehand.
func (u *VerificationUsecase) ResetPassword(ctx context.Context, user *domain.User, code, passwordHash string) error {
	if passwordHash == "" {
		return fmt.Errorf("empty password hash: %w", domain.ErrValidation)
	}
	return u.consume(ctx, repository.ConsumeCodeInput{
		UserID:          user.ID,
		Code:            code,
		Purpose:         domain.PurposePasswordReset,
		NewPasswordHash: passwordHash,
	})
}

func (u *VerificationUsecase) consume(ctx context.Context, in repository.ConsumeCodeInput) error {
	if !in.Purpose.Valid() {
		return fmt.Errorf("purpose %q: %w", in.Purpose, domain.ErrValidation)
	}
	in.Now = u.now()

	_, err := u.codes.Consume(ctx, in)
	outcome := "success"
	switch {
	case errors.Is(err, domain.ErrCodeInvalid):
		outcome = "invalid"
	case err != nil:
		outcome = "error"
	}
	metrics.OTPVerifiedTotal.WithLabelValues(string(in.Purpose), outcome).Inc()
	if err != nil {
		return fmt.Errorf("consume code: %w", err)
	}
	return nil
}

// generateCode draws uniformly from [codeMin, codeMax].
func (u *VerificationUsecase) generateCode() (string, error) {
	n, err := rand.Int(u.random, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}

func codeSubject(purpose domain.Purpose) string {
	if purpose == domain.PurposePasswordReset {
		return "Reset your password"
	}
	return "Verify your account"
}
