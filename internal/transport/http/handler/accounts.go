package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ErlanBelekov/storefront/internal/domain"
	"github.com/ErlanBelekov/storefront/internal/token"
	"github.com/ErlanBelekov/storefront/internal/usecase"
)

// accountUsecaser is the subset of AuthUsecase the handler needs.
type accountUsecaser interface {
	Signup(ctx context.Context, input usecase.SignupInput) (*usecase.SignupResult, error)
	VerifySignup(ctx context.Context, email, code string) (*usecase.Session, error)
	Resend(ctx context.Context, email string) (*usecase.IssuedCode, error)
	Login(ctx context.Context, login, password string) (*usecase.Session, error)
	Forgot(ctx context.Context, email string) (*usecase.IssuedCode, error)
	Reset(ctx context.Context, email, code, newPassword string) error
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	Refresh(ctx context.Context, refreshToken string) (*usecase.Session, error)
}

type AccountHandler struct {
	uc     accountUsecaser
	logger *slog.Logger
}

func NewAccountHandler(uc accountUsecaser, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{uc: uc, logger: logger.With("component", "account_handler")}
}

type signupRequest struct {
	Username string  `json:"username" binding:"required,min=3,max=150"`
	Email    string  `json:"email"    binding:"required,email,max=254"`
	Phone    *string `json:"phone"    binding:"omitempty,e164"`
	Password string  `json:"password" binding:"required,min=8,max=72"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type verifyRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp"   binding:"required,len=6,numeric"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type resetRequest struct {
	Email       string `json:"email"        binding:"required,email"`
	OTP         string `json:"otp"          binding:"required,len=6,numeric"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type codeResponse struct {
	Detail   string `json:"detail"`
	UserID   string `json:"user_id,omitempty"`
	OTPDebug string `json:"otp_debug,omitempty"`
}

type sessionResponse struct {
	Detail string        `json:"detail"`
	Tokens token.Pair    `json:"tokens"`
	User   *userResponse `json:"user,omitempty"`
}

func toUserResponse(u *domain.User) *userResponse {
	return &userResponse{ID: u.ID, Username: u.Username, Email: u.Email}
}

// POST /accounts/signup
func (h *AccountHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	res, err := h.uc.Signup(c.Request.Context(), usecase.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, h.logger, "signup", err)
		return
	}

	c.JSON(http.StatusCreated, codeResponse{
		Detail:   "User created. OTP sent.",
		UserID:   res.User.ID,
		OTPDebug: res.Code.Code,
	})
}

// POST /accounts/verify
func (h *AccountHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	sess, err := h.uc.VerifySignup(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		respondError(c, h.logger, "verify signup", err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{Detail: "Email verified successfully.", Tokens: sess.Tokens})
}

// POST /accounts/resend
func (h *AccountHandler) Resend(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	code, err := h.uc.Resend(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, h.logger, "resend code", err)
		return
	}
	c.JSON(http.StatusOK, codeResponse{Detail: "OTP resent.", OTPDebug: code.Code})
}

// POST /accounts/login
func (h *AccountHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	sess, err := h.uc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, h.logger, "login", err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{
		Detail: "Login successful",
		Tokens: sess.Tokens,
		User:   toUserResponse(sess.User),
	})
}

// POST /accounts/forgot
func (h *AccountHandler) Forgot(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	code, err := h.uc.Forgot(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, h.logger, "forgot password", err)
		return
	}
	c.JSON(http.StatusOK, codeResponse{Detail: "OTP sent for password reset.", OTPDebug: code.Code})
}

// POST /accounts/reset
func (h *AccountHandler) Reset(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.uc.Reset(c.Request.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		respondError(c, h.logger, "reset password", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "Password reset successful."})
}

// POST /accounts/change-password (authenticated)
func (h *AccountHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	err := h.uc.ChangePassword(c.Request.Context(), c.GetString("userID"), req.OldPassword, req.NewPassword)
	if err != nil {
		respondError(c, h.logger, "change password", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "Password changed successfully."})
}

// POST /accounts/refresh
func (h *AccountHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	sess, err := h.uc.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		respondError(c, h.logger, "refresh token", err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{Detail: "Token refreshed", Tokens: sess.Tokens})
}
