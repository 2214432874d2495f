package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ErlanBelekov/storefront/internal/domain"
	"github.com/ErlanBelekov/storefront/internal/metrics"
	"github.com/shopspring/decimal"
)

const razorpayOrdersPath = "/v1/orders"

var (
	ErrRazorpayMissingKeyID     = errors.New("razorpay: key id is required")
	ErrRazorpayMissingKeySecret = errors.New("razorpay: key secret is required")
	ErrRazorpayMissingBaseURL   = errors.New("razorpay: base url is required")
)

type RazorpayConfig struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Timeout   time.Duration
}

func (c RazorpayConfig) Validate() error {
	switch {
	case c.KeyID == "":
		return ErrRazorpayMissingKeyID
	case c.KeySecret == "":
		return ErrRazorpayMissingKeySecret
	case c.BaseURL == "":
		return ErrRazorpayMissingBaseURL
	}
	return nil
}

// RazorpayGateway talks to the Razorpay Orders API and verifies checkout
// signatures locally with the key secret.
type RazorpayGateway struct {
	config     RazorpayConfig
	httpClient *http.Client
}

func NewRazorpayGateway(config RazorpayConfig) (*RazorpayGateway, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &RazorpayGateway{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}, nil
}

type razorpayOrderRequest struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt,omitempty"`
	PaymentCapture int    `json:"payment_capture"`
}

type razorpayOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type razorpayErrorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateRemoteOrder registers the amount with Razorpay. Every failure wraps
// domain.ErrGatewayUnavailable; nothing is persisted locally on failure.
func (g *RazorpayGateway) CreateRemoteOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*domain.RemoteOrder, error) {
	minor := toMinorUnits(amount)
	if minor <= 0 {
		return nil, fmt.Errorf("razorpay: amount must be positive: %w", domain.ErrValidation)
	}

	body, err := json.Marshal(razorpayOrderRequest{
		Amount:         minor,
		Currency:       currency,
		Receipt:        receipt,
		PaymentCapture: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("razorpay: marshal order: %w", err)
	}

	start := time.Now()
	respBody, err := g.do(ctx, http.MethodPost, razorpayOrdersPath, body)
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	metrics.GatewayRequestDuration.WithLabelValues("create_order", outcome).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	var resp razorpayOrderResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: razorpay: parse order: %w", domain.ErrGatewayUnavailable, err)
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("%w: razorpay: order id missing in response", domain.ErrGatewayUnavailable)
	}

	return &domain.RemoteOrder{
		ID:       resp.ID,
		Amount:   decimal.New(resp.Amount, -2),
		Currency: resp.Currency,
	}, nil
}

// VerifySignature checks HMAC-SHA256(order_id + "|" + payment_id) against the
// signature Razorpay checkout returned to the client.
func (g *RazorpayGateway) VerifySignature(ctx context.Context, proof domain.GatewayProof) (domain.SignatureCheck, error) {
	if err := ctx.Err(); err != nil {
		return domain.SignatureCheck{}, fmt.Errorf("%w: %w", domain.ErrGatewayUnavailable, err)
	}
	if proof.OrderID == "" || proof.PaymentID == "" || proof.Signature == "" {
		return domain.SignatureCheck{}, domain.ErrSignatureInvalid
	}

	expected := sign(g.config.KeySecret, proof.OrderID+"|"+proof.PaymentID)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(proof.Signature))) {
		return domain.SignatureCheck{}, domain.ErrSignatureInvalid
	}
	return domain.SignatureCheck{Verified: true}, nil
}

func (g *RazorpayGateway) Stub() bool { return false }

func (g *RazorpayGateway) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.config.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("razorpay: build request: %w", err)
	}
	req.SetBasicAuth(g.config.KeyID, g.config.KeySecret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: razorpay: %w", domain.ErrGatewayUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: razorpay: read response: %w", domain.ErrGatewayUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr razorpayErrorResponse
		_ = json.Unmarshal(respBody, &apiErr)
		return nil, fmt.Errorf("%w: razorpay: status %d: %s %s",
			domain.ErrGatewayUnavailable, resp.StatusCode, apiErr.Error.Code, apiErr.Error.Description)
	}
	return respBody, nil
}

func sign(secret, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

var _ Gateway = (*RazorpayGateway)(nil)
