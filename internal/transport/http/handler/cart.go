package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/ErlanBelekov/storefront/internal/domain"
)

type cartUsecaser interface {
	GetVariant(ctx context.Context, id string) (*domain.Variant, error)
	List(ctx context.Context, userID string) ([]domain.CartLine, error)
	Add(ctx context.Context, userID, variantID string, quantity int) (*domain.CartLine, error)
	Remove(ctx context.Context, userID, itemID string) error
	Clear(ctx context.Context, userID string) error
}

type CartHandler struct {
	uc     cartUsecaser
	logger *slog.Logger
}

func NewCartHandler(uc cartUsecaser, logger *slog.Logger) *CartHandler {
	return &CartHandler{uc: uc, logger: logger.With("component", "cart_handler")}
}

type addToCartRequest struct {
	VariantID string `json:"variant_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity"   binding:"required,min=1,max=1000"`
}

type variantResponse struct {
	ID           string  `json:"id"`
	ProductID    string  `json:"product_id"`
	ProductTitle string  `json:"product_title"`
	SKU          *string `json:"sku,omitempty"`
	Color        *string `json:"color,omitempty"`
	Size         *string `json:"size,omitempty"`
	Price        string  `json:"price"`
	Stock        int     `json:"stock"`
}

type cartLineResponse struct {
	ID       string          `json:"id"`
	Variant  variantResponse `json:"variant"`
	Quantity int             `json:"quantity"`
	Subtotal string          `json:"subtotal"`
	AddedAt  time.Time       `json:"added_at"`
}

type cartResponse struct {
	Items []cartLineResponse `json:"items"`
	Total string             `json:"total"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toVariantResponse(v *domain.Variant) variantResponse {
	return variantResponse{
		ID:           v.ID,
		ProductID:    v.ProductID,
		ProductTitle: v.ProductTitle,
		SKU:          v.SKU,
		Color:        v.Color,
		Size:         v.Size,
		Price:        money(v.Price),
		Stock:        v.Stock,
	}
}

func toCartLineResponse(l *domain.CartLine) cartLineResponse {
	return cartLineResponse{
		ID:       l.ID,
		Variant:  toVariantResponse(&l.Variant),
		Quantity: l.Quantity,
		Subtotal: money(l.Subtotal()),
		AddedAt:  l.AddedAt,
	}
}

// GET /catalog/variants/:id
func (h *CartHandler) GetVariant(c *gin.Context) {
	v, err := h.uc.GetVariant(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "get variant", err)
		return
	}
	c.JSON(http.StatusOK, toVariantResponse(v))
}

// GET /cart
func (h *CartHandler) List(c *gin.Context) {
	lines, err := h.uc.List(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		respondError(c, h.logger, "list cart", err)
		return
	}

	resp := cartResponse{Items: make([]cartLineResponse, 0, len(lines)), Total: money(decimal.Zero)}
	total := decimal.Zero
	for i := range lines {
		resp.Items = append(resp.Items, toCartLineResponse(&lines[i]))
		total = total.Add(lines[i].Subtotal())
	}
	resp.Total = money(total)
	c.JSON(http.StatusOK, resp)
}

// POST /cart/add
func (h *CartHandler) Add(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	line, err := h.uc.Add(c.Request.Context(), c.GetString("userID"), req.VariantID, req.Quantity)
	if err != nil {
		respondError(c, h.logger, "add to cart", err)
		return
	}
	c.JSON(http.StatusOK, toCartLineResponse(line))
}

// DELETE /cart/:id
func (h *CartHandler) Remove(c *gin.Context) {
	if err := h.uc.Remove(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		respondError(c, h.logger, "remove cart item", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DELETE /cart
func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.uc.Clear(c.Request.Context(), c.GetString("userID")); err != nil {
		respondError(c, h.logger, "clear cart", err)
		return
	}
	c.Status(http.StatusNoContent)
}
