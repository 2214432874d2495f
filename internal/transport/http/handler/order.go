package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ErlanBelekov/storefront/internal/domain"
	"github.com/ErlanBelekov/storefront/internal/usecase"
)

type orderUsecaser interface {
	PlaceOrder(ctx context.Context, userID string) (*usecase.PlacedOrder, error)
	VerifyPayment(ctx context.Context, userID, orderID string, proof domain.GatewayProof) (*domain.Order, error)
	List(ctx context.Context, userID string) ([]*domain.Order, error)
	Get(ctx context.Context, userID, orderID string) (*domain.Order, error)
}

type OrderHandler struct {
	uc     orderUsecaser
	logger *slog.Logger
}

func NewOrderHandler(uc orderUsecaser, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{uc: uc, logger: logger.With("component", "order_handler")}
}

type verifyPaymentRequest struct {
	OrderID        string `json:"order_id"         binding:"required,uuid"`
	PaymentID      string `json:"payment_id"       binding:"required,max=128"`
	GatewayOrderID string `json:"gateway_order_id" binding:"required,max=128"`
	Signature      string `json:"signature"        binding:"required,max=256"`
}

type placeOrderResponse struct {
	OrderID        string `json:"order_id"`
	GatewayOrderID string `json:"gateway_order_id"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	Stub           bool   `json:"stub"`
}

type orderLineResponse struct {
	ID           string  `json:"id"`
	ProductID    string  `json:"product_id,omitempty"`
	VariantID    *string `json:"variant_id,omitempty"`
	ProductTitle string  `json:"product_title"`
	VariantLabel string  `json:"variant_label,omitempty"`
	Quantity     int     `json:"quantity"`
	UnitPrice    string  `json:"unit_price"`
	TotalPrice   string  `json:"total_price"`
}

type orderResponse struct {
	ID               string              `json:"id"`
	Status           domain.OrderStatus  `json:"status"`
	TotalAmount      string              `json:"total_amount"`
	Currency         string              `json:"currency"`
	GatewayOrderID   *string             `json:"gateway_order_id,omitempty"`
	GatewayPaymentID *string             `json:"gateway_payment_id,omitempty"`
	Lines            []orderLineResponse `json:"items"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

func toOrderResponse(o *domain.Order) orderResponse {
	lines := make([]orderLineResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, orderLineResponse{
			ID:           l.ID,
			ProductID:    l.ProductID,
			VariantID:    l.VariantID,
			ProductTitle: l.ProductTitle,
			VariantLabel: l.VariantLabel,
			Quantity:     l.Quantity,
			UnitPrice:    money(l.UnitPrice),
			TotalPrice:   money(l.TotalPrice),
		})
	}
	return orderResponse{
		ID:               o.ID,
		Status:           o.Status,
		TotalAmount:      money(o.TotalAmount),
		Currency:         o.Currency,
		GatewayOrderID:   o.GatewayOrderID,
		GatewayPaymentID: o.GatewayPaymentID,
		Lines:            lines,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

// POST /orders/place
func (h *OrderHandler) Place(c *gin.Context) {
	placed, err := h.uc.PlaceOrder(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		respondError(c, h.logger, "place order", err)
		return
	}

	resp := placeOrderResponse{
		OrderID:  placed.Order.ID,
		Amount:   money(placed.Order.TotalAmount),
		Currency: placed.Order.Currency,
		Stub:     placed.Stub,
	}
	if placed.Order.GatewayOrderID != nil {
		resp.GatewayOrderID = *placed.Order.GatewayOrderID
	}
	c.JSON(http.StatusCreated, resp)
}

// POST /orders/verify-payment
func (h *OrderHandler) VerifyPayment(c *gin.Context) {
	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := h.uc.VerifyPayment(c.Request.Context(), c.GetString("userID"), req.OrderID, domain.GatewayProof{
		PaymentID: req.PaymentID,
		OrderID:   req.GatewayOrderID,
		Signature: req.Signature,
	})
	if err != nil {
		respondError(c, h.logger, "verify payment", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "Payment verified.", "order": toOrderResponse(order)})
}

// GET /orders
func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.uc.List(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		respondError(c, h.logger, "list orders", err)
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o))
	}
	c.JSON(http.StatusOK, gin.H{"orders": resp})
}

// GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.uc.Get(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "get order", err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}
