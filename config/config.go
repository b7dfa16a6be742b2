package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	Cloudinary   CloudinaryConfig
	Payments     PaymentsConfig
	Coinremitter CoinremitterConfig
	NOWPayments  NOWPaymentsConfig
}

type ServerConfig struct {
	Port         string        `envconfig:"SERVER_PORT" default:"8099"`
	Env          string        `envconfig:"APP_ENV" default:"development"`
	ReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"10s"`
}

type DatabaseConfig struct {
	DSN             string        `envconfig:"DATABASE_DSN" default:"reverie:reverie@tcp(localhost:3306)/reverie?charset=utf8mb4&parseTime=True&loc=Local"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"100"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"1h"`
}

type JWTConfig struct {
	AccessSecret  string        `envconfig:"JWT_ACCESS_SECRET" default:"change-me-in-production"`
	RefreshSecret string        `envconfig:"JWT_REFRESH_SECRET" default:"change-me-refresh"`
	AccessExpiry  time.Duration `envconfig:"JWT_ACCESS_EXPIRY" default:"15m"`
	RefreshExpiry time.Duration `envconfig:"JWT_REFRESH_EXPIRY" default:"168h"`
	Issuer        string        `envconfig:"JWT_ISSUER" default:"reverie"`
}

type CloudinaryConfig struct {
	CloudName string `envconfig:"CLOUDINARY_CLOUD_NAME"`
	APIKey    string `envconfig:"CLOUDINARY_API_KEY"`
	APISecret string `envconfig:"CLOUDINARY_API_SECRET"`
}

// PaymentsConfig holds settings shared by both payment providers.
type PaymentsConfig struct {
	// AppBaseURL is the public base URL webhooks are delivered to,
	// e.g. https://app.reverie.chat - callback paths are appended to it.
	AppBaseURL string `envconfig:"APP_BASE_URL" default:"http://localhost:8099"`
	// TestMode switches pricing to the reduced test price table.
	TestMode bool `envconfig:"PAYMENTS_TEST_MODE" default:"false"`
	// ExpirySweepSpec is the cron schedule for the subscription expiry sweep.
	ExpirySweepSpec string `envconfig:"SUBSCRIPTION_SWEEP_SPEC" default:"0 * * * *"`
}

type CoinremitterConfig struct {
	BaseURL  string `envconfig:"COINREMITTER_BASE_URL" default:"https://api.coinremitter.com/v1"`
	APIKey   string `envconfig:"COINREMITTER_API_KEY"`
	Password string `envconfig:"COINREMITTER_PASSWORD"`
	Coin     string `envconfig:"COINREMITTER_COIN" default:"USDT"`
}

type NOWPaymentsConfig struct {
	BaseURL   string `envconfig:"NOWPAYMENTS_BASE_URL" default:"https://api.nowpayments.io/v1"`
	APIKey    string `envconfig:"NOWPAYMENTS_API_KEY"`
	IPNSecret string `envconfig:"NOWPAYMENTS_IPN_SECRET"`
	// Email/Password authenticate the /auth endpoint used for the
	// subscription-management bearer token.
	Email    string `envconfig:"NOWPAYMENTS_EMAIL"`
	Password string `envconfig:"NOWPAYMENTS_PASSWORD"`
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT must not be empty")
	}
	if c.Database.MaxOpenConns <= 0 || c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("invalid DB_MAX_OPEN_CONNS/DB_MAX_IDLE_CONNS")
	}
	if c.Server.Env == "production" && c.JWT.AccessSecret == "change-me-in-production" {
		return fmt.Errorf("JWT_ACCESS_SECRET must be set in production")
	}
	return nil
}

// Load reads the environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
