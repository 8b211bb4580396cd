package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/repository"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	HTTPPort        string        `envconfig:"HTTP_PORT" default:"8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"text"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	MaxBodySize     int64         `envconfig:"MAX_BODY_SIZE" default:"1048576"`

	CatalogBaseURL  string        `envconfig:"CATALOG_BASE_URL" default:"https://backend-of-nemo.vercel.app"`
	CatalogTimeout  time.Duration `envconfig:"CATALOG_TIMEOUT" default:"10s"`
	CatalogCacheTTL time.Duration `envconfig:"CATALOG_CACHE_TTL" default:"15m"`

	ImageUploadURL string `envconfig:"IMAGE_UPLOAD_URL" default:"https://api.imgbb.com/1/upload"`
	ImageAPIKey    string `envconfig:"IMAGE_API_KEY"`

	ShippingFee string `envconfig:"SHIPPING_FEE" default:"5.99"`
	TaxRate     string `envconfig:"TAX_RATE" default:"0.10"`
	Currency    string `envconfig:"CURRENCY" default:"USD"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	OrdersStore string `envconfig:"ORDERS_STORE" default:"memory"`
	DBHost      string `envconfig:"DB_HOST" default:"localhost"`
	DBPort      int    `envconfig:"DB_PORT" default:"5432"`
	DBUser      string `envconfig:"DB_USER" default:"storefront"`
	DBPassword  string `envconfig:"DB_PASSWORD" default:"storefront"`
	DBName      string `envconfig:"DB_NAME" default:"storefront"`

	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"order-placed"`

	AuthSecret     string        `envconfig:"AUTH_SECRET"`
	AuthTokenTTL   time.Duration `envconfig:"AUTH_TOKEN_TTL" default:"24h"`
	SessionIdleTTL time.Duration `envconfig:"SESSION_IDLE_TTL" default:"24h"`
}

// Load reads the configuration from the environment and validates it.
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

func (c *Config) Validate() error {
	var errs []error
	if _, err := decimal.NewFromString(c.ShippingFee); err != nil {
		errs = append(errs, fmt.Errorf("SHIPPING_FEE: %w", err))
	} else if c.ShippingFeeDecimal().IsNegative() {
		errs = append(errs, errors.New("SHIPPING_FEE must not be negative"))
	}
	if _, err := decimal.NewFromString(c.TaxRate); err != nil {
		errs = append(errs, fmt.Errorf("TAX_RATE: %w", err))
	} else if c.TaxRateDecimal().IsNegative() {
		errs = append(errs, errors.New("TAX_RATE must not be negative"))
	}
	switch c.OrdersStore {
	case StoreMemory, StorePostgres:
	default:
		errs = append(errs, fmt.Errorf("ORDERS_STORE must be %q or %q, got %q", StoreMemory, StorePostgres, c.OrdersStore))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if c.SessionIdleTTL <= 0 {
		errs = append(errs, errors.New("SESSION_IDLE_TTL must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) ShippingFeeDecimal() decimal.Decimal {
	return decimal.RequireFromString(c.ShippingFee)
}

func (c *Config) TaxRateDecimal() decimal.Decimal {
	return decimal.RequireFromString(c.TaxRate)
}

func (c *Config) DBCredentials() repository.Credentials {
	return repository.Credentials{
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		DBName:   c.DBName,
	}
}

// Brokers returns the non-empty Kafka broker addresses.
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range c.KafkaBrokers {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
