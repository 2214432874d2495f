package payment

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/ErlanBelekov/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	stubOrderPrefix = "order_"
	stubOrderIDLen  = 14
)

// StubGateway stands in for a real processor when none is configured. It
// hands out plausible order references and never reports a verified signature.
type StubGateway struct {
	random io.Reader
}

func NewStubGateway() *StubGateway {
	return &StubGateway{random: rand.Reader}
}

func (g *StubGateway) CreateRemoteOrder(ctx context.Context, amount decimal.Decimal, currency, _ string) (*domain.RemoteOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGatewayUnavailable, err)
	}

	suffix, err := randomAlphanumeric(g.random, stubOrderIDLen)
	if err != nil {
		return nil, fmt.Errorf("stub order id: %w", err)
	}
	return &domain.RemoteOrder{
		ID:       stubOrderPrefix + suffix,
		Amount:   amount,
		Currency: currency,
		Stub:     true,
	}, nil
}

func (g *StubGateway) VerifySignature(ctx context.Context, _ domain.GatewayProof) (domain.SignatureCheck, error) {
	if err := ctx.Err(); err != nil {
		return domain.SignatureCheck{}, fmt.Errorf("%w: %w", domain.ErrGatewayUnavailable, err)
	}
	return domain.SignatureCheck{Verified: false, Stub: true}, nil
}

func (g *StubGateway) Stub() bool { return true }

var _ Gateway = (*StubGateway)(nil)
