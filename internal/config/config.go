package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

type Config struct {
	AppEnv     string `envconfig:"APP_ENV" default:"development"`
	AppPort    string `envconfig:"APP_PORT" default:"8080"`
	AppURL     string `envconfig:"APP_URL" default:"http://localhost:3000"`
	CORSOrigin string `envconfig:"CORS_ALLOWED_ORIGIN" default:"http://localhost:3000"`

	DatabaseURL       string        `envconfig:"DATABASE_URL"`
	DBHost            string        `envconfig:"DB_HOST"`
	DBUser            string        `envconfig:"DB_USER"`
	DBPassword        string        `envconfig:"DB_PASSWORD"`
	DBName            string        `envconfig:"DB_NAME"`
	DBPort            string        `envconfig:"DB_PORT" default:"5432"`
	DBSSLMode         string        `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	DBMaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	DBConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"1h"`

	// HS256 secret of the managed auth provider that signs access tokens.
	JWTSecret string `envconfig:"AUTH_JWT_SECRET" required:"true"`

	RedisURL        string `envconfig:"REDIS_URL"`
	EventsRateLimit int    `envconfig:"EVENTS_RATE_LIMIT" default:"30"`

	QPayBaseURL     string `envconfig:"QPAY_API_URL" default:"https://merchant.qpay.mn/v2"`
	QPayUsername    string `envconfig:"QPAY_USERNAME"`
	QPayPassword    string `envconfig:"QPAY_PASSWORD"`
	QPayInvoiceCode string `envconfig:"QPAY_INVOICE_CODE"`
	QPayCallbackURL string `envconfig:"QPAY_CALLBACK_URL"`

	ResendAPIKey string `envconfig:"RESEND_API_KEY"`
	EmailFrom    string `envconfig:"EMAIL_FROM" default:"AZ Beauty <noreply@example.com>"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.DatabaseURL == "" && cfg.DBHost == "" {
		return nil, errors.New("DATABASE_URL or DB_HOST must be set")
	}
	return &cfg, nil
}

// LoadConfig is Load for process startup: any error is fatal.
func LoadConfig() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("Environment variables not loaded properly: %v", err)
	}
	return cfg
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

// DSN returns DATABASE_URL or a key/value DSN assembled from the DB_* parts.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode,
	)
}

// CallbackBaseURL is where QPay should deliver payment callbacks.
func (c *Config) CallbackBaseURL() string {
	base := c.QPayCallbackURL
	if base == "" {
		base = c.AppURL
	}
	if u, err := url.Parse(base); err == nil && u.Host != "" {
		return u.Scheme + "://" + u.Host + strings.TrimRight(u.Path, "/")
	}
	return "http://localhost:3000"
}
