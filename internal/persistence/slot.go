// Package persistence stores a collection as one JSON document in a
// key-value slot.
package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/utafrali/storefront/internal/collection"
	"github.com/utafrali/storefront/internal/storage"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/tracing"
)

const tracerName = "github.com/utafrali/storefront/internal/persistence"

// FormatVersion is the envelope version written by Save. A bare JSON array
// is read as the legacy, unversioned layout.
const FormatVersion = 1

// DefaultTimeout bounds one load or save.
const DefaultTimeout = 2 * time.Second

type envelope[T any] struct {
	Version int `json:"version"`
	Items   []T `json:"items"`
}

// Slot persists one collection under one key. It satisfies
// collection.Persister.
type Slot[T collection.Item[T]] struct {
	kv      storage.KV
	name    string
	key     string
	timeout time.Duration
	logger  *slog.Logger
}

// NewSlot binds a slot named name (for metrics) to key in kv. A zero timeout
// uses DefaultTimeout.
func NewSlot[T collection.Item[T]](kv storage.KV, name, key string, timeout time.Duration, logger *slog.Logger) *Slot[T] {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Slot[T]{kv: kv, name: name, key: key, timeout: timeout, logger: logger}
}

// Key returns the storage key.
func (s *Slot[T]) Key() string { return s.key }

// Load reads the persisted collection. It never fails: an absent slot,
// a backend error or an unreadable document all yield an empty collection,
// and anything other than absence is logged. ok is false only when the
// backend could not be read, in which case the slot may still hold data
// and must not be overwritten on the strength of this result.
func (s *Slot[T]) Load(ctx context.Context) (items []T, ok bool) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ctx, span := tracing.Tracer(tracerName).Start(ctx, "persistence.load")
	defer span.End()
	span.SetAttributes(attribute.String("storefront.slot", s.name))

	start := time.Now()
	defer func() { operationDuration.WithLabelValues("load").Observe(time.Since(start).Seconds()) }()

	log := logger.WithContext(ctx, s.logger).With(slog.String("slot", s.name), slog.String("key", s.key))

	raw, err := s.kv.Get(ctx, s.key)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		operationsTotal.WithLabelValues(s.name, "load", outcomeAbsent).Inc()
		return make([]T, 0), true
	case err != nil:
		operationsTotal.WithLabelValues(s.name, "load", outcomeError).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.ErrorContext(ctx, "failed to read slot, serving unpersisted", slog.String("error", err.Error()))
		return make([]T, 0), false
	}

	decoded, err := decode[T](raw)
	if err != nil {
		operationsTotal.WithLabelValues(s.name, "load", outcomeCorrupt).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.WarnContext(ctx, "discarding unreadable slot, starting empty", slog.String("error", err.Error()))
		return make([]T, 0), true
	}

	kept := decoded[:0]
	for _, it := range decoded {
		if it.Key() == "" {
			log.WarnContext(ctx, "dropping persisted entry without id")
			continue
		}
		kept = append(kept, it)
	}

	operationsTotal.WithLabelValues(s.name, "load", outcomeOK).Inc()
	span.SetAttributes(attribute.Int("storefront.items", len(kept)))
	return kept, true
}

// Save replaces the slot with items.
func (s *Slot[T]) Save(ctx context.Context, items []T) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ctx, span := tracing.Tracer(tracerName).Start(ctx, "persistence.save")
	defer span.End()
	span.SetAttributes(
		attribute.String("storefront.slot", s.name),
		attribute.Int("storefront.items", len(items)),
	)

	start := time.Now()
	defer func() { operationDuration.WithLabelValues("save").Observe(time.Since(start).Seconds()) }()

	if items == nil {
		items = make([]T, 0)
	}
	raw, err := json.Marshal(envelope[T]{Version: FormatVersion, Items: items})
	if err == nil {
		err = s.kv.Set(ctx, s.key, raw)
	}
	if err != nil {
		operationsTotal.WithLabelValues(s.name, "save", outcomeError).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("save slot %s: %w", s.name, err)
	}

	operationsTotal.WithLabelValues(s.name, "save", outcomeOK).Inc()
	return nil
}

func decode[T any](raw []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("empty document")
	}

	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode legacy array: %w", err)
		}
		return nonNil(items), nil
	}

	var env envelope[T]
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported slot version %d", env.Version)
	}
	return nonNil(env.Items), nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return make([]T, 0)
	}
	return items
}
