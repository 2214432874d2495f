package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ErlanBelekov/storefront/internal/domain"
	"github.com/ErlanBelekov/storefront/internal/infrastructure/cache"
	"github.com/ErlanBelekov/storefront/internal/notify"
	"github.com/ErlanBelekov/storefront/internal/repository"
	"github.com/ErlanBelekov/storefront/internal/usecase"
)

var (
	testNow   = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	buyer     = &domain.User{ID: "user-1", Username: "buyer", Email: "buyer@example.com", IsActive: true, IsVerified: true}
	newSignup = &domain.User{ID: "user-2", Username: "newbie", Email: "newbie@example.com"}
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newVerificationUsecase(codes *memoryCodeRepo, notifier *fakeNotifier, throttle usecase.Throttle, cfg usecase.VerificationConfig) (*usecase.VerificationUsecase, *clock) {
	c := &clock{now: testNow}
	u := usecase.NewVerificationUsecase(codes, notifier, throttle, cfg, slog.Default())
	u.SetClock(c.Now)
	return u, c
}

func TestIssue_StoresSixDigitCodeAndNotifies(t *testing.T) {
	codes := &memoryCodeRepo{}
	var sent notify.Message
	notifier := &fakeNotifier{send: func(_ context.Context, user *domain.User, ch notify.Channel, msg notify.Message) error {
		if user.ID != buyer.ID || ch != notify.ChannelEmail {
			t.Errorf("unexpected recipient %s via %s", user.ID, ch)
		}
		sent = msg
		return nil
	}}
	u, _ := newVerificationUsecase(codes, notifier, nil, usecase.VerificationConfig{TTL: 10 * time.Minute})

	issued, err := u.Issue(context.Background(), buyer, domain.PurposeSignup)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(codes.codes) != 1 {
		t.Fatalf("stored %d codes, want 1", len(codes.codes))
	}
	stored := codes.codes[0]

	n, err := strconv.Atoi(stored.Code)
	if err != nil || n < 100000 || n > 999999 {
		t.Fatalf("code %q outside 100000..999999", stored.Code)
	}
	if !stored.ExpiresAt.Equal(testNow.Add(10 * time.Minute)) {
		t.Errorf("expires_at = %v, want now+10m", stored.ExpiresAt)
	}
	if stored.Used || stored.Purpose != domain.PurposeSignup {
		t.Errorf("unexpected stored code %+v", stored)
	}
	if !strings.Contains(sent.Body, stored.Code) {
		t.Errorf("notification body %q does not contain the code", sent.Body)
	}
	if issued.CodeID != stored.ID {
		t.Errorf("code id = %q, want %q", issued.CodeID, stored.ID)
	}
	if issued.Code != "" {
		t.Error("raw code echoed with debug echo disabled")
	}
}

func TestIssue_DebugEchoReturnsCode(t *testing.T) {
	codes := &memoryCodeRepo{}
	u, _ := newVerificationUsecase(codes, &fakeNotifier{}, nil, usecase.VerificationConfig{DebugEcho: true})

	issued, err := u.Issue(context.Background(), buyer, domain.PurposePasswordReset)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if issued.Code != codes.codes[0].Code {
		t.Errorf("echoed %q, stored %q", issued.Code, codes.codes[0].Code)
	}
	if !codes.codes[0].ExpiresAt.Equal(testNow.Add(10 * time.Minute)) {
		t.Error("zero TTL should fall back to 10 minutes")
	}
}

func TestIssue_UniformLowerBound(t *testing.T) {
	codes := &memoryCodeRepo{}
	u, _ := newVerificationUsecase(codes, &fakeNotifier{}, nil, usecase.VerificationConfig{DebugEcho: true})
	u.SetRandom(bytes.NewReader(make([]byte, 64)))

	issued, err := u.Issue(context.Background(), buyer, domain.PurposeSignup)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if issued.Code != "100000" {
		t.Errorf("code = %q, want 100000 for an all-zero random source", issued.Code)
	}
}

func TestIssue_NotifierFailureIsNotPropagated(t *testing.T) {
	codes := &memoryCodeRepo{}
	notifier := &fakeNotifier{send: func(context.Context, *domain.User, notify.Channel, notify.Message) error {
		return errors.New("smtp down")
	}}
	u, _ := newVerificationUsecase(codes, notifier, nil, usecase.VerificationConfig{})

	if _, err := u.Issue(context.Background(), buyer, domain.PurposeSignup); err != nil {
		t.Fatalf("notifier failure leaked to caller: %v", err)
	}
	if len(codes.codes) != 1 {
		t.Fatal("code should be stored even when delivery fails")
	}
}

func TestIssue_Throttled(t *testing.T) {
	codes := &memoryCodeRepo{}
	var gotKey string
	var gotWindow time.Duration
	throttle := &fakeThrottle{allow: func(_ context.Context, key string, window time.Duration) (bool, error) {
		gotKey, gotWindow = key, window
		return false, nil
	}}
	u, _ := newVerificationUsecase(codes, &fakeNotifier{}, throttle, usecase.VerificationConfig{ResendCooldown: 30 * time.Second})

	_, err := u.Issue(context.Background(), buyer, domain.PurposeSignup)
	if !errors.Is(err, domain.ErrThrottled) {
		t.Fatalf("expected ErrThrottled, got %v", err)
	}
	if gotKey != "user-1:signup" || gotWindow != 30*time.Second {
		t.Errorf("throttle called with %q/%s", gotKey, gotWindow)
	}
	if len(codes.codes) != 0 {
		t.Error("throttled issue must not store a code")
	}
}

func TestIssue_ThrottleErrorFailsOpen(t *testing.T) {
	codes := &memoryCodeRepo{}
	throttle := &fakeThrottle{allow: func(context.Context, string, time.Duration) (bool, error) {
		return false, errors.New("redis: connection refused")
	}}
	u, _ := newVerificationUsecase(codes, &fakeNotifier{}, throttle, usecase.VerificationConfig{})

	if _, err := u.Issue(context.Background(), buyer, domain.PurposeSignup); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(codes.codes) != 1 {
		t.Fatal("expected code to be stored")
	}
}

func TestIssue_StoreFailureDoesNotStartCooldown(t *testing.T) {
	codes := &memoryCodeRepo{failCreates: 1}
	u, _ := newVerificationUsecase(codes, &fakeNotifier{}, cache.NewInMemoryThrottle(),
		usecase.VerificationConfig{ResendCooldown: 30 * time.Second})

	if _, err := u.Issue(context.Background(), buyer, domain.PurposePasswordReset); err == nil {
		t.Fatal("expected store error")
	}
	if _, err := u.Issue(context.Background(), buyer, domain.PurposePasswordReset); err != nil {
		t.Fatalf("retry after failed store: %v", err)
	}
	if _, err := u.Issue(context.Background(), buyer, domain.PurposePasswordReset); !errors.Is(err, domain.ErrThrottled) {
		t.Fatalf("expected cooldown after a stored code, got %v", err)
	}
}

func TestIssue_ReleaseOnlyWhenClaimed(t *testing.T) {
	released := 0
	throttle := &fakeThrottle{
		allow: func(context.Context, string, time.Duration) (bool, error) {
			return false, errors.New("redis: connection refused")
		},
		release: func(context.Context, string) error {
			released++
			return nil
		},
	}
	u, _ := newVerificationUsecase(&memoryCodeRepo{failCreates: 1}, &fakeNotifier{}, throttle, usecase.VerificationConfig{})

	if _, err := u.Issue(context.Background(), buyer, domain.PurposeSignup); err == nil {
		t.Fatal("expected store error")
	}
	if released != 0 {
		t.Errorf("released %d keys that were never claimed", released)
	}
}

func TestIssue_InvalidPurpose(t *testing.T) {
	u, _ := newVerificationUsecase(&memoryCodeRepo{}, &fakeNotifier{}, nil, usecase.VerificationConfig{})

	if _, err := u.Issue(context.Background(), buyer, domain.Purpose("login")); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestVerify_ExpiryAndWrongCode(t *testing.T) {
	codes := &memoryCodeRepo{}
	u, clk := newVerificationUsecase(codes, &fakeNotifier{}, nil, usecase.VerificationConfig{TTL: 10 * time.Minute})
	ctx := context.Background()

	_, _ = codes.Create(ctx, &domain.VerificationCode{
		UserID: newSignup.ID, Code: "482913", Purpose: domain.PurposeSignup, ExpiresAt: testNow.Add(10 * time.Minute),
	})

	if err := u.Verify(ctx, newSignup, "000000", domain.PurposeSignup); !errors.Is(err, domain.ErrCodeInvalid) {
		t.Fatalf("wrong code: expected ErrCodeInvalid, got %v", err)
	}

	clk.now = testNow.Add(11 * time.Minute)
	if err := u.Verify(ctx, newSignup, "482913", domain.PurposeSignup); !errors.Is(err, domain.ErrCodeInvalid) {
		t.Fatalf("expired code: expected ErrCodeInvalid, got %v", err)
	}
	if codes.codes[0].Used {
		t.Error("failed verification must not consume the code")
	}
}

func TestVerify_ExpiryInstantIsStillValid(t *testing.T) {
	codes := &memoryCodeRepo{}
	u, clk := newVerificationUsecase(codes, &fakeNotifier{}, nil, usecase.VerificationConfig{})
	ctx := context.Background()

	_, _ = codes.Create(ctx, &domain.VerificationCode{
		UserID: newSignup.ID, Code: "482913", Purpose: domain.PurposeSignup, ExpiresAt: testNow.Add(10 * time.Minute),
	})
	clk.now = testNow.Add(10 * time.Minute)

	if err := u.Verify(ctx, newSignup, "482913", domain.PurposeSignup); err != nil {
		t.Fatalf("code at its expiry instant should verify, got %v", err)
	}
}

func TestVerify_SingleUseAndMarksVerified(t *testing.T) {
	codes := &memoryCodeRepo{}
	u, _ := newVerificationUsecase(codes, &fakeNotifier{}, nil, usecase.VerificationConfig{})
	ctx := context.Background()

	_, _ = codes.Create(ctx, &domain.VerificationCode{
		UserID: newSignup.ID, Code: "482913", Purpose: domain.PurposeSignup, ExpiresAt: testNow.Add(time.Minute),
	})

	if err := u.Verify(ctx, newSignup, "482913", domain.PurposeSignup); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	if len(codes.applied) != 1 || !codes.applied[0].MarkVerified || codes.applied[0].NewPasswordHash != "" {
		t.Fatalf("unexpected consume input %+v", codes.applied)
	}
	if !codes.applied[0].Now.Equal(testNow) {
		t.Errorf("consume used now=%v, want %v", codes.applied[0].Now, testNow)
	}

	if err := u.Verify(ctx, newSignup, "482913", domain.PurposeSignup); !errors.Is(err, domain.ErrCodeInvalid) {
		t.Fatalf("second verify: expected ErrCodeInvalid, got %v", err)
	}
}

func TestVerify_PurposeIsolation(t *testing.T) {
	codes := &memoryCodeRepo{}
	u, _ := newVerificationUsecase(codes, &fakeNotifier{}, nil, usecase.VerificationConfig{})
	ctx := context.Background()

	_, _ = codes.Create(ctx, &domain.VerificationCode{
		UserID: buyer.ID, Code: "111111", Purpose: domain.PurposeSignup, ExpiresAt: testNow.Add(time.Minute),
	})

	if err := u.ResetPassword(ctx, buyer, "111111", "hash"); !errors.Is(err, domain.ErrCodeInvalid) {
		t.Fatalf("signup code accepted for password reset: %v", err)
	}
}

func TestVerify_OlderCodeMatchesOwnRecord(t *testing.T) {
	codes := &memoryCodeRepo{}
	u, _ := newVerificationUsecase(codes, &fakeNotifier{}, nil, usecase.VerificationConfig{})
	ctx := context.Background()

	_, _ = codes.Create(ctx, &domain.VerificationCode{
		UserID: buyer.ID, Code: "111111", Purpose: domain.PurposeSignup, ExpiresAt: testNow.Add(time.Minute),
	})
	_, _ = codes.Create(ctx, &domain.VerificationCode{
		UserID: buyer.ID, Code: "222222", Purpose: domain.PurposeSignup, ExpiresAt: testNow.Add(time.Minute),
	})

	if err := u.Verify(ctx, buyer, "111111", domain.PurposeSignup); err != nil {
		t.Fatalf("older code: %v", err)
	}
	if !codes.codes[0].Used || codes.codes[1].Used {
		t.Fatalf("wrong record consumed: %+v %+v", codes.codes[0], codes.codes[1])
	}
}

func TestResetPassword_PassesHashIntoConsume(t *testing.T) {
	var got struct {
		purpose domain.Purpose
		hash    string
		mark    bool
	}
	codes := &fakeCodeRepo{consume: func(_ context.Context, in repository.ConsumeCodeInput) (*domain.VerificationCode, error) {
		got.purpose, got.hash, got.mark = in.Purpose, in.NewPasswordHash, in.MarkVerified
		return &domain.VerificationCode{ID: "code-1"}, nil
	}}
	u := usecase.NewVerificationUsecase(codes, &fakeNotifier{}, nil, usecase.VerificationConfig{}, slog.Default())

	if err := u.ResetPassword(context.Background(), buyer, "123456", "$2a$hash"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.purpose != domain.PurposePasswordReset || got.hash != "$2a$hash" || got.mark {
		t.Errorf("unexpected consume input %+v", got)
	}
}

func TestResetPassword_RejectsEmptyHash(t *testing.T) {
	codes := &fakeCodeRepo{consume: func(context.Context, repository.ConsumeCodeInput) (*domain.VerificationCode, error) {
		t.Fatal("consume must not be called")
		return nil, nil
	}}
	u := usecase.NewVerificationUsecase(codes, &fakeNotifier{}, nil, usecase.VerificationConfig{}, slog.Default())

	if err := u.ResetPassword(context.Background(), buyer, "123456", ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
