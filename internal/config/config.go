package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/storage"
	pkgconfig "github.com/utafrali/storefront/pkg/config"
)

// Config holds all configuration for the storefront collections service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"STOREFRONT_HTTP_PORT" envDefault:"8010"`

	// Slot storage
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"redis"`
	SlotPrefix     string `env:"SLOT_PREFIX" envDefault:"storefront:"`
	WishlistSlot   string `env:"WISHLIST_SLOT" envDefault:"grandmarketja-wishlist"`
	BasketSlot     string `env:"BASKET_SLOT" envDefault:"grandmarketja-basket"`
	SlotTTLHours   int    `env:"SLOT_TTL_HOURS" envDefault:"720"`
	PersistTimeout int    `env:"PERSIST_TIMEOUT_MS" envDefault:"2000"`

	// In-memory sessions
	SessionIdleTTLMinutes int `env:"SESSION_IDLE_TTL_MINUTES" envDefault:"60"`
	MaxSessions           int `env:"MAX_SESSIONS" envDefault:"10000"`

	// Redis
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"storefront"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"storefront"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// MongoDB
	MongoURI        string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase   string `env:"MONGO_DATABASE" envDefault:"storefront"`
	MongoCollection string `env:"MONGO_COLLECTION" envDefault:"slots"`

	// Circuit breaker around slot storage
	BreakerEnabled      bool    `env:"BREAKER_ENABLED" envDefault:"true"`
	BreakerTimeoutSecs  int     `env:"BREAKER_TIMEOUT_SECONDS" envDefault:"30"`
	BreakerFailureRatio float64 `env:"BREAKER_FAILURE_RATIO" envDefault:"0.5"`
	BreakerMinRequests  uint32  `env:"BREAKER_MIN_REQUESTS" envDefault:"5"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Basket
	BasketShippingFlat string `env:"BASKET_SHIPPING_FLAT" envDefault:"15.00"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Slow slot query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`
}

var backends = []string{
	storage.BackendMemory,
	storage.BackendRedis,
	storage.BackendPostgres,
	storage.BackendMongo,
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if !slices.Contains(backends, c.StorageBackend) {
		return fmt.Errorf("STORAGE_BACKEND must be one of %v, got %q", backends, c.StorageBackend)
	}
	if c.WishlistSlot == "" || c.BasketSlot == "" {
		return fmt.Errorf("WISHLIST_SLOT and BASKET_SLOT are required")
	}
	if c.WishlistSlot == c.BasketSlot {
		return fmt.Errorf("WISHLIST_SLOT and BASKET_SLOT must differ, both are %q", c.WishlistSlot)
	}
	if c.SlotTTLHours < 0 {
		return fmt.Errorf("SLOT_TTL_HOURS must not be negative, got %d", c.SlotTTLHours)
	}
	if c.PersistTimeout <= 0 {
		return fmt.Errorf("PERSIST_TIMEOUT_MS must be positive, got %d", c.PersistTimeout)
	}
	if c.SessionIdleTTLMinutes < 0 {
		return fmt.Errorf("SESSION_IDLE_TTL_MINUTES must not be negative, got %d", c.SessionIdleTTLMinutes)
	}
	if c.MaxSessions < 0 {
		return fmt.Errorf("MAX_SESSIONS must not be negative, got %d", c.MaxSessions)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if _, err := decimal.NewFromString(c.BasketShippingFlat); err != nil {
		return fmt.Errorf("BASKET_SHIPPING_FLAT is not a decimal: %q", c.BasketShippingFlat)
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1.0 {
		return fmt.Errorf("BREAKER_FAILURE_RATIO must be in (0, 1], got %f", c.BreakerFailureRatio)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// SlotTTL is the expiry applied to persisted slots. Zero keeps them forever.
func (c *Config) SlotTTL() time.Duration {
	return time.Duration(c.SlotTTLHours) * time.Hour
}

// SessionIdleTTL is how long an unused session stays in memory. Zero keeps
// idle sessions.
func (c *Config) SessionIdleTTL() time.Duration {
	return time.Duration(c.SessionIdleTTLMinutes) * time.Minute
}

// PersistTimeoutDuration bounds a single slot read or write.
func (c *Config) PersistTimeoutDuration() time.Duration {
	return time.Duration(c.PersistTimeout) * time.Millisecond
}

// BreakerTimeout is how long the breaker stays open before probing.
func (c *Config) BreakerTimeout() time.Duration {
	return time.Duration(c.BreakerTimeoutSecs) * time.Second
}

// ShippingFlat returns the flat basket shipping rate.
func (c *Config) ShippingFlat() decimal.Decimal {
	return decimal.RequireFromString(c.BasketShippingFlat)
}
