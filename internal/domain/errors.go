package domain

import "errors"

var (
	ErrValidation = errors.New("validation failed")

	// Identity
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("user with this email, username or phone already exists")
	ErrCodeInvalid        = errors.New("code is invalid or expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWrongPassword      = errors.New("old password is incorrect")
	ErrNotVerified        = errors.New("account is not verified")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrThrottled          = errors.New("too many requests")

	// Catalog and cart
	ErrVariantNotFound  = errors.New("variant not found")
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrEmptyCart        = errors.New("cart is empty")

	// Orders and payments
	ErrOrderNotFound             = errors.New("order not found")
	ErrOrderNotPending           = errors.New("order is no longer pending")
	ErrPaymentVerificationFailed = errors.New("payment verification failed")
	ErrSignatureInvalid          = errors.New("payment signature is invalid")
	ErrGatewayUnavailable        = errors.New("payment gateway unavailable")
)
