package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8010, cfg.HTTPPort)
	assert.Equal(t, "redis", cfg.StorageBackend)
	assert.Equal(t, "grandmarketja-wishlist", cfg.WishlistSlot)
	assert.Equal(t, "grandmarketja-basket", cfg.BasketSlot)
	assert.Equal(t, 720*time.Hour, cfg.SlotTTL())
	assert.Equal(t, 2*time.Second, cfg.PersistTimeoutDuration())
	assert.Equal(t, time.Hour, cfg.SessionIdleTTL())
	assert.Equal(t, 10000, cfg.MaxSessions)
	assert.Equal(t, "15", cfg.ShippingFlat().String())
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestLoad_Backends(t *testing.T) {
	for _, backend := range []string{"memory", "redis", "postgres", "mongo"} {
		t.Run(backend, func(t *testing.T) {
			t.Setenv("STORAGE_BACKEND", backend)

			cfg, err := Load()

			require.NoError(t, err)
			assert.Equal(t, backend, cfg.StorageBackend)
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"port", "STOREFRONT_HTTP_PORT", "0", "invalid HTTP port"},
		{"backend", "STORAGE_BACKEND", "sqlite", "STORAGE_BACKEND must be one of"},
		{"same slots", "BASKET_SLOT", "grandmarketja-wishlist", "must differ"},
		{"ttl", "SLOT_TTL_HOURS", "-1", "SLOT_TTL_HOURS"},
		{"persist timeout", "PERSIST_TIMEOUT_MS", "0", "PERSIST_TIMEOUT_MS"},
		{"idle ttl", "SESSION_IDLE_TTL_MINUTES", "-5", "SESSION_IDLE_TTL_MINUTES"},
		{"max sessions", "MAX_SESSIONS", "-1", "MAX_SESSIONS"},
		{"shipping", "BASKET_SHIPPING_FLAT", "free", "BASKET_SHIPPING_FLAT"},
		{"breaker ratio", "BREAKER_FAILURE_RATIO", "1.5", "BREAKER_FAILURE_RATIO"},
		{"sample rate", "OTEL_SAMPLE_RATE", "2.0", "OTEL_SAMPLE_RATE must be between 0.0 and 1.0"},
		{"unparsable", "STOREFRONT_HTTP_PORT", "eighty", "load storefront config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_KafkaBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load()

	require.NoError(t, err)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestLoad_ZeroTTLKeepsForever(t *testing.T) {
	t.Setenv("SLOT_TTL_HOURS", "0")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Zero(t, cfg.SlotTTL())
}
