// Package breaker wraps a storage.KV in a circuit breaker so a failing
// backend is given time to recover instead of being hit on every mutation.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"

	"github.com/utafrali/storefront/internal/storage"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// ErrOpen is returned while the breaker rejects calls. The returned error
// also wraps an apperrors.Unavailable, so it maps to a 503.
var ErrOpen = gobreaker.ErrOpenState

var breakerState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "storefront_storage_breaker_state",
		Help: "Current state of the storage circuit breaker (0=closed, 1=half-open, 2=open)",
	},
	[]string{"name"},
)

// Config holds breaker settings.
type Config struct {
	// Name identifies the breaker in metrics and logs.
	Name string

	// MaxRequests is the number of trial calls allowed while half-open.
	MaxRequests uint32

	// Interval clears the failure counts while closed. Zero never clears.
	Interval time.Duration

	// Timeout is how long the breaker stays open before going half-open.
	Timeout time.Duration

	// FailureRatio trips the breaker once MinRequests have been seen.
	FailureRatio float64
	MinRequests  uint32
}

// DefaultConfig returns the settings used for slot storage.
func DefaultConfig(name string) Config {
	return Config{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// KV is a storage.KV guarded by a circuit breaker. Reads and writes share
// one failure budget; a missing key counts as a success.
type KV struct {
	next storage.KV
	cb   *gobreaker.CircuitBreaker[[]byte]
}

// Wrap guards next with cfg.
func Wrap(next storage.KV, cfg Config, logger *slog.Logger) *KV {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, apperrors.ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("storage circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	}
	breakerState.WithLabelValues(cfg.Name).Set(0)

	return &KV{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

// Get reads through the breaker.
func (k *KV) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := k.cb.Execute(func() ([]byte, error) {
		return k.next.Get(ctx, key)
	})
	return value, rejected(err)
}

// Set writes through the breaker.
func (k *KV) Set(ctx context.Context, key string, value []byte) error {
	_, err := k.cb.Execute(func() ([]byte, error) {
		return nil, k.next.Set(ctx, key, value)
	})
	return rejected(err)
}

// rejected marks calls the breaker refused without reaching the backend.
func rejected(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", apperrors.Unavailable("slot storage"), err)
	}
	return err
}

// Ping bypasses the breaker so readiness reflects the backend itself.
func (k *KV) Ping(ctx context.Context) error {
	return k.next.Ping(ctx)
}

// State returns the current breaker state.
func (k *KV) State() gobreaker.State {
	return k.cb.State()
}
