package httptransport

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"

	"github.com/ErlanBelekov/storefront/internal/repository"
	"github.com/ErlanBelekov/storefront/internal/transport/http/handler"
	"github.com/ErlanBelekov/storefront/internal/transport/http/middleware"
)

type Handlers struct {
	Accounts *handler.AccountHandler
	Cart     *handler.CartHandler
	Orders   *handler.OrderHandler
}

func NewRouter(logger *slog.Logger, h Handlers, tokens middleware.AccessParser, users repository.UserRepository) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	authMW := middleware.Auth(tokens)
	ensureUser := middleware.EnsureUser(users, logger)

	accounts := r.Group("/accounts")
	accounts.POST("/signup", h.Accounts.Signup)
	accounts.POST("/verify", h.Accounts.Verify)
	accounts.POST("/resend", h.Accounts.Resend)
	accounts.POST("/login", h.Accounts.Login)
	accounts.POST("/forgot", h.Accounts.Forgot)
	accounts.POST("/reset", h.Accounts.Reset)
	accounts.POST("/refresh", h.Accounts.Refresh)
	accounts.POST("/change-password", authMW, ensureUser, h.Accounts.ChangePassword)

	r.GET("/catalog/variants/:id", h.Cart.GetVariant)

	cart := r.Group("/cart", authMW, ensureUser)
	cart.GET("", h.Cart.List)
	cart.POST("/add", h.Cart.Add)
	cart.DELETE("", h.Cart.Clear)
	cart.DELETE("/:id", h.Cart.Remove)

	orders := r.Group("/orders", authMW, ensureUser)
	orders.GET("", h.Orders.List)
	orders.POST("/place", h.Orders.Place)
	orders.POST("/verify-payment", h.Orders.VerifyPayment)
	orders.GET("/:id", h.Orders.Get)

	return r
}
