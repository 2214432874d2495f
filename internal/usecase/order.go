package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ErlanBelekov/storefront/internal/domain"
	"github.com/ErlanBelekov/storefront/internal/infrastructure/payment"
	"github.com/ErlanBelekov/storefront/internal/metrics"
	"github.com/ErlanBelekov/storefront/internal/repository"
)

const defaultGatewayTimeout = 10 * time.Second

type OrderConfig struct {
	Currency       string
	GatewayTimeout time.Duration
	// AcceptStubPayments lets the stub gateway's unverified confirmations
	// through. Local development only.
	AcceptStubPayments bool
}

type OrderUsecase struct {
	orders  repository.OrderRepository
	gateway payment.Gateway
	cfg     OrderConfig
	logger  *slog.Logger
	newID   func() string
}

func NewOrderUsecase(orders repository.OrderRepository, gateway payment.Gateway, cfg OrderConfig, logger *slog.Logger) *OrderUsecase {
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = defaultGatewayTimeout
	}
	return &OrderUsecase{
		orders:  orders,
		gateway: gateway,
		cfg:     cfg,
		logger:  logger.With("component", "orders"),
		newID:   uuid.NewString,
	}
}

type PlacedOrder struct {
	Order *domain.Order
	// Stub is true when the gateway reference was generated locally.
	Stub bool
}

// PlaceOrder snapshots the user's cart into a pending order and registers it
// with the gateway. Everything happens inside one transaction, so a gateway
// failure leaves no order behind. The cart is left untouched.
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID string) (*PlacedOrder, error) {
	id := u.newID()
	var stub bool

	order, err := u.orders.Place(ctx, userID, func(ctx context.Context, cart []domain.CartLine) (*domain.Order, error) {
		order, err := domain.NewOrderFromCart(id, userID, u.cfg.Currency, cart)
		if err != nil {
			return nil, err
		}

		gctx, cancel := context.WithTimeout(ctx, u.cfg.GatewayTimeout)
		defer cancel()

		remote, err := u.gateway.CreateRemoteOrder(gctx, order.TotalAmount, order.Currency, order.ID)
		if err != nil {
			return nil, fmt.Errorf("create remote order: %w", err)
		}
		order.GatewayOrderID = &remote.ID
		stub = remote.Stub
		return order, nil
	})
	if err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}

	metrics.OrdersPlacedTotal.Inc()
	if stub {
		u.logger.WarnContext(ctx, "order placed with stub gateway reference", "order_id", order.ID)
	}
	return &PlacedOrder{Order: order, Stub: stub}, nil
}

// VerifyPayment checks the gateway proof and moves the order from pending to
// placed, clearing the cart in the same transaction. Repeating it on a placed
// order is a no-op. Any verification failure leaves the order pending.
func (u *OrderUsecase) VerifyPayment(ctx context.Context, userID, orderID string, proof domain.GatewayProof) (*domain.Order, error) {
	order, err := u.orders.GetByID(ctx, orderID, userID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}

	if order.Status == domain.OrderStatusPlaced {
		metrics.PaymentVerificationsTotal.WithLabelValues("already_placed").Inc()
		return order, nil
	}
	if !order.Status.CanTransition(domain.OrderStatusPlaced) {
		return nil, fmt.Errorf("order %s is %s: %w", order.ID, order.Status, domain.ErrOrderNotPending)
	}

	if order.GatewayOrderID == nil || proof.OrderID != *order.GatewayOrderID {
		metrics.PaymentVerificationsTotal.WithLabelValues("reference_mismatch").Inc()
		return nil, fmt.Errorf("%w: gateway order reference mismatch: %w",
			domain.ErrPaymentVerificationFailed, domain.ErrSignatureInvalid)
	}

	if err := u.checkProof(ctx, order, proof); err != nil {
		return nil, err
	}

	transitioned, err := u.orders.ConfirmPayment(ctx, order.ID, userID, proof.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("confirm payment: %w", err)
	}
	if !transitioned {
		// Someone else moved the order between our read and the update.
		current, err := u.orders.GetByID(ctx, orderID, userID)
		if err != nil {
			return nil, fmt.Errorf("reload order: %w", err)
		}
		if current.Status == domain.OrderStatusPlaced {
			metrics.PaymentVerificationsTotal.WithLabelValues("already_placed").Inc()
			return current, nil
		}
		return nil, fmt.Errorf("order %s is %s: %w", current.ID, current.Status, domain.ErrOrderNotPending)
	}

	metrics.PaymentVerificationsTotal.WithLabelValues("success").Inc()
	order.Status = domain.OrderStatusPlaced
	order.GatewayPaymentID = &proof.PaymentID
	return order, nil
}

func (u *OrderUsecase) checkProof(ctx context.Context, order *domain.Order, proof domain.GatewayProof) error {
	vctx, cancel := context.WithTimeout(ctx, u.cfg.GatewayTimeout)
	defer cancel()

	check, err := u.gateway.VerifySignature(vctx, proof)
	if err != nil {
		metrics.PaymentVerificationsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("%w: %w", domain.ErrPaymentVerificationFailed, err)
	}
	if check.Verified {
		return nil
	}
	if check.Stub && u.cfg.AcceptStubPayments {
		u.logger.WarnContext(ctx, "accepting unverified stub payment", "order_id", order.ID, "payment_id", proof.PaymentID)
		return nil
	}
	metrics.PaymentVerificationsTotal.WithLabelValues("unverified").Inc()
	return fmt.Errorf("%w: gateway did not verify the payment", domain.ErrPaymentVerificationFailed)
}

func (u *OrderUsecase) List(ctx context.Context, userID string) ([]*domain.Order, error) {
	orders, err := u.orders.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (u *OrderUsecase) Get(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := u.orders.GetByID(ctx, orderID, userID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}
