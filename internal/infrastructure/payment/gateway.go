// Package payment adapts external payment processors to the order workflow.
package payment

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"math/big"

	"github.com/ErlanBelekov/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// Gateway creates remote orders and checks payment proofs.
type Gateway interface {
	CreateRemoteOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*domain.RemoteOrder, error)
	VerifySignature(ctx context.Context, proof domain.GatewayProof) (domain.SignatureCheck, error)
	// Stub reports whether this gateway is the local stand-in.
	Stub() bool
}

// NewGateway returns a Razorpay gateway when credentials are present and the
// local stub otherwise. Stub mode is logged so it is never silent.
func NewGateway(cfg RazorpayConfig, logger *slog.Logger) (Gateway, error) {
	if cfg.KeyID == "" {
		logger.Warn("payment gateway not configured, running in stub mode")
		return NewStubGateway(), nil
	}
	return NewRazorpayGateway(cfg)
}

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// randomAlphanumeric draws n characters uniformly from [A-Za-z0-9].
func randomAlphanumeric(r io.Reader, n int) (string, error) {
	alphabetLen := big.NewInt(int64(len(alphanumeric)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(r, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		buf[i] = alphanumeric[idx.Int64()]
	}
	return string(buf), nil
}

// toMinorUnits converts a two-decimal amount to the smallest currency unit.
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
