package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/ErlanBelekov/storefront/internal/domain"
)

const (
	errInternalServer = "Internal server error"
	errValidation     = "Validation failed"
	errInvalidBody    = "Request body is not valid JSON"
)

func init() {
	// Report JSON field names instead of Go struct field names.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
	}
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

type errorMapping struct {
	err     error
	status  int
	message string
}

// errorMappings is checked in order; the first errors.Is match wins. Payment
// verification failures wrap gateway errors, so they come first.
var errorMappings = []errorMapping{
	{domain.ErrPaymentVerificationFailed, http.StatusBadRequest, "Payment verification failed"},
	{domain.ErrSignatureInvalid, http.StatusBadRequest, "Payment signature is invalid"},
	{domain.ErrGatewayUnavailable, http.StatusServiceUnavailable, "Payment gateway unavailable, try again"},
	{domain.ErrValidation, http.StatusBadRequest, errValidation},
	{domain.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{domain.ErrEmailTaken, http.StatusConflict, "User with this email, username or phone already exists"},
	{domain.ErrCodeInvalid, http.StatusBadRequest, "Invalid or expired OTP"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{domain.ErrNotVerified, http.StatusForbidden, "Email not verified"},
	{domain.ErrWrongPassword, http.StatusBadRequest, "Old password is incorrect"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	{domain.ErrThrottled, http.StatusTooManyRequests, "Too many requests, try again later"},
	{domain.ErrVariantNotFound, http.StatusNotFound, "Variant not found"},
	{domain.ErrCartItemNotFound, http.StatusNotFound, "Cart item not found"},
	{domain.ErrEmptyCart, http.StatusBadRequest, "Cart is empty"},
	{domain.ErrOrderNotFound, http.StatusNotFound, "Order not found"},
	{domain.ErrOrderNotPending, http.StatusConflict, "Order is no longer pending"},
}

// respondError maps a use case error to a status and a fixed message.
// Anything unmapped is logged and reported as a 500.
func respondError(c *gin.Context, logger *slog.Logger, op string, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			c.JSON(m.status, gin.H{"error": m.message})
			return
		}
	}
	logger.ErrorContext(c.Request.Context(), op, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
}

// respondBindError reports request binding failures with per-field detail.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody})
		return
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": errValidation, "fields": fields})
}
