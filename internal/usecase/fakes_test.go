package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ErlanBelekov/storefront/internal/domain"
	"github.com/ErlanBelekov/storefront/internal/notify"
	"github.com/ErlanBelekov/storefront/internal/repository"
	"github.com/ErlanBelekov/storefront/internal/token"
)

type fakeUserRepo struct {
	create         func(ctx context.Context, user *domain.User) (*domain.User, error)
	findByID       func(ctx context.Context, id string) (*domain.User, error)
	findByEmail    func(ctx context.Context, email string) (*domain.User, error)
	findByLogin    func(ctx context.Context, login string) (*domain.User, error)
	updatePassword func(ctx context.Context, userID, hash string) error
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	return r.create(ctx, user)
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findByID(ctx, id)
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findByEmail(ctx, email)
}

func (r *fakeUserRepo) FindByLogin(ctx context.Context, login string) (*domain.User, error) {
	return r.findByLogin(ctx, login)
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, userID, hash string) error {
	return r.updatePassword(ctx, userID, hash)
}

type fakeCodeRepo struct {
	create  func(ctx context.Context, code *domain.VerificationCode) (*domain.VerificationCode, error)
	consume func(ctx context.Context, in repository.ConsumeCodeInput) (*domain.VerificationCode, error)
}

func (r *fakeCodeRepo) Create(ctx context.Context, code *domain.VerificationCode) (*domain.VerificationCode, error) {
	return r.create(ctx, code)
}

func (r *fakeCodeRepo) Consume(ctx context.Context, in repository.ConsumeCodeInput) (*domain.VerificationCode, error) {
	return r.consume(ctx, in)
}

// memoryCodeRepo keeps codes in a slice and applies the same matching rules
// as the Postgres repository.
type memoryCodeRepo struct {
	codes []*domain.VerificationCode
	seq   int
	// failCreates makes the next n Create calls fail.
	failCreates int
	// applied records the ConsumeCodeInput of each successful redemption.
	applied []repository.ConsumeCodeInput
}

func (r *memoryCodeRepo) Create(_ context.Context, c *domain.VerificationCode) (*domain.VerificationCode, error) {
	if r.failCreates > 0 {
		r.failCreates--
		return nil, errors.New("db down")
	}
	r.seq++
	stored := *c
	stored.ID = fmt.Sprintf("code-%d", r.seq)
	stored.CreatedAt = time.Date(2026, 1, 1, 0, 0, r.seq, 0, time.UTC)
	r.codes = append(r.codes, &stored)
	return &stored, nil
}

func (r *memoryCodeRepo) Consume(_ context.Context, in repository.ConsumeCodeInput) (*domain.VerificationCode, error) {
	var best *domain.VerificationCode
	for _, c := range r.codes {
		if c.UserID != in.UserID || c.Code != in.Code || c.Purpose != in.Purpose || c.Used || in.Now.After(c.ExpiresAt) {
			continue
		}
		if best == nil || c.CreatedAt.After(best.CreatedAt) {
			best = c
		}
	}
	if best == nil {
		return nil, domain.ErrCodeInvalid
	}
	best.Used = true
	r.applied = append(r.applied, in)
	return best, nil
}

type fakeNotifier struct {
	send func(ctx context.Context, user *domain.User, channel notify.Channel, msg notify.Message) error
}

func (n *fakeNotifier) Send(ctx context.Context, user *domain.User, channel notify.Channel, msg notify.Message) error {
	if n.send == nil {
		return nil
	}
	return n.send(ctx, user, channel, msg)
}

type fakeThrottle struct {
	allow   func(ctx context.Context, key string, window time.Duration) (bool, error)
	release func(ctx context.Context, key string) error
}

func (t *fakeThrottle) Release(ctx context.Context, key string) error {
	if t.release == nil {
		return nil
	}
	return t.release(ctx, key)
}

func (t *fakeThrottle) Allow(ctx context.Context, key string, window time.Duration) (bool, error) {
	return t.allow(ctx, key, window)
}

type fakeTokens struct {
	mint         func(user *domain.User) (token.Pair, error)
	parseRefresh func(raw string) (string, error)
}

func (f *fakeTokens) Mint(user *domain.User) (token.Pair, error) {
	if f.mint == nil {
		return token.Pair{Access: "access-" + user.ID, Refresh: "refresh-" + user.ID}, nil
	}
	return f.mint(user)
}

func (f *fakeTokens) ParseRefresh(raw string) (string, error) {
	return f.parseRefresh(raw)
}

type fakeOrderRepo struct {
	place          func(ctx context.Context, userID string, build repository.BuildOrderFunc) (*domain.Order, error)
	getByID        func(ctx context.Context, id, userID string) (*domain.Order, error)
	list           func(ctx context.Context, userID string) ([]*domain.Order, error)
	confirmPayment func(ctx context.Context, id, userID, paymentID string) (bool, error)
	cancelStale    func(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

func (r *fakeOrderRepo) Place(ctx context.Context, userID string, build repository.BuildOrderFunc) (*domain.Order, error) {
	return r.place(ctx, userID, build)
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, id, userID string) (*domain.Order, error) {
	return r.getByID(ctx, id, userID)
}

func (r *fakeOrderRepo) List(ctx context.Context, userID string) ([]*domain.Order, error) {
	return r.list(ctx, userID)
}

func (r *fakeOrderRepo) ConfirmPayment(ctx context.Context, id, userID, paymentID string) (bool, error) {
	return r.confirmPayment(ctx, id, userID, paymentID)
}

func (r *fakeOrderRepo) CancelStale(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	return r.cancelStale(ctx, cutoff, limit)
}

type fakeGateway struct {
	createRemoteOrder func(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*domain.RemoteOrder, error)
	verifySignature   func(ctx context.Context, proof domain.GatewayProof) (domain.SignatureCheck, error)
	stub              bool
}

func (g *fakeGateway) CreateRemoteOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*domain.RemoteOrder, error) {
	return g.createRemoteOrder(ctx, amount, currency, receipt)
}

func (g *fakeGateway) VerifySignature(ctx context.Context, proof domain.GatewayProof) (domain.SignatureCheck, error) {
	return g.verifySignature(ctx, proof)
}

func (g *fakeGateway) Stub() bool { return g.stub }

type fakeCatalogRepo struct {
	getVariant func(ctx context.Context, id string) (*domain.Variant, error)
}

func (r *fakeCatalogRepo) GetVariant(ctx context.Context, id string) (*domain.Variant, error) {
	return r.getVariant(ctx, id)
}

type fakeCartRepo struct {
	list   func(ctx context.Context, userID string) ([]domain.CartLine, error)
	upsert func(ctx context.Context, userID, variantID string, quantity int) (*domain.CartLine, error)
	delete func(ctx context.Context, userID, itemID string) error
	clear  func(ctx context.Context, userID string) error
}

func (r *fakeCartRepo) List(ctx context.Context, userID string) ([]domain.CartLine, error) {
	return r.list(ctx, userID)
}

func (r *fakeCartRepo) Upsert(ctx context.Context, userID, variantID string, quantity int) (*domain.CartLine, error) {
	return r.upsert(ctx, userID, variantID, quantity)
}

func (r *fakeCartRepo) Delete(ctx context.Context, userID, itemID string) error {
	return r.delete(ctx, userID, itemID)
}

func (r *fakeCartRepo) Clear(ctx context.Context, userID string) error {
	return r.clear(ctx, userID)
}
