package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env      string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port     string `env:"PORT" envDefault:"8080" validate:"required"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`
	RedisURL    string `env:"REDIS_URL"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	JWTSecret       string        `env:"JWT_SECRET,required" validate:"required,min=32"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL"    envDefault:"15m"  validate:"min=1m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL"   envDefault:"168h" validate:"gtfield=AccessTokenTTL"`

	ResendAPIKey string `env:"RESEND_API_KEY" validate:"required_if=Env production,required_if=Env staging"`
	ResendFrom   string `env:"RESEND_FROM"    validate:"required_if=Env production,required_if=Env staging"`

	OTPTTL            time.Duration `env:"OTP_TTL"             envDefault:"10m" validate:"min=1m,max=24h"`
	OTPDebugEcho      bool          `env:"OTP_DEBUG_ECHO"      envDefault:"false"`
	OTPResendCooldown time.Duration `env:"OTP_RESEND_COOLDOWN" envDefault:"30s" validate:"min=0"`

	RazorpayKeyID      string        `env:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret  string        `env:"RAZORPAY_KEY_SECRET"`
	RazorpayBaseURL    string        `env:"RAZORPAY_BASE_URL"    envDefault:"https://api.razorpay.com" validate:"required,url"`
	GatewayTimeout     time.Duration `env:"GATEWAY_TIMEOUT"      envDefault:"10s" validate:"min=1s,max=1m"`
	Currency           string        `env:"CURRENCY"             envDefault:"INR" validate:"required,len=3,uppercase"`
	AcceptStubPayments bool          `env:"ACCEPT_STUB_PAYMENTS" envDefault:"false"`

	PendingOrderTTL time.Duration `env:"PENDING_ORDER_TTL" envDefault:"24h" validate:"min=1m"`
	ReaperSchedule  string        `env:"REAPER_SCHEDULE"   envDefault:"*/5 * * * *" validate:"required"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if err := cfg.check(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// check covers the cross-field rules that struct tags can't express.
func (c *Config) check() error {
	if (c.RazorpayKeyID == "") != (c.RazorpayKeySecret == "") {
		return errors.New("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET must be set together")
	}
	if c.Env != "production" {
		return nil
	}
	if c.OTPDebugEcho {
		return errors.New("OTP_DEBUG_ECHO must be disabled in production")
	}
	if c.AcceptStubPayments {
		return errors.New("ACCEPT_STUB_PAYMENTS must be disabled in production")
	}
	if c.GatewayStubMode() {
		return errors.New("payment gateway credentials are required in production")
	}
	return nil
}

// GatewayStubMode reports whether no payment gateway credentials are configured.
func (c *Config) GatewayStubMode() bool {
	return c.RazorpayKeyID == ""
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
