package event

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/utafrali/storefront/internal/collection"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
)

// Kafka topics for collection change events.
const (
	TopicWishlistUpdated = "ecommerce.wishlist.updated"
	TopicBasketUpdated   = "ecommerce.basket.updated"
)

// Aggregate types.
const (
	AggregateTypeWishlist = "wishlist"
	AggregateTypeBasket   = "basket"
)

// SourceStorefront identifies events originating from this service.
const SourceStorefront = "storefront-collections"

const publishTimeout = 5 * time.Second

// CollectionUpdatedData is the payload of a wishlist or basket update. Items
// is the full collection after the change.
type CollectionUpdatedData[T any] struct {
	SessionID string `json:"session_id"`
	Op        string `json:"op"`
	ItemID    string `json:"item_id,omitempty"`
	Version   uint64 `json:"version"`
	ItemCount int    `json:"item_count"`
	Items     []T    `json:"items"`
}

// Producer publishes a change event for every applied mutation of one kind
// of collection. It implements collection.Listener.
type Producer[T collection.Item[T]] struct {
	publisher     pkgkafka.Publisher
	topic         string
	aggregateType string
	logger        *slog.Logger
}

// NewProducer creates a producer publishing to topic.
func NewProducer[T collection.Item[T]](publisher pkgkafka.Publisher, topic, aggregateType string, logger *slog.Logger) *Producer[T] {
	return &Producer[T]{
		publisher:     publisher,
		topic:         topic,
		aggregateType: aggregateType,
		logger:        logger,
	}
}

// CollectionChanged publishes the change. Failures are logged; the mutation
// has already been applied and is not affected.
func (p *Producer[T]) CollectionChanged(ctx context.Context, change collection.Change[T]) {
	data := CollectionUpdatedData[T]{
		SessionID: change.Scope,
		Op:        string(change.Op),
		ItemID:    change.Key,
		Version:   change.Snapshot.Version,
		ItemCount: change.Snapshot.Count,
		Items:     change.Snapshot.Items,
	}

	log := logger.WithContext(ctx, p.logger)

	evt, err := pkgkafka.NewEvent(p.topic, change.Scope, p.aggregateType, SourceStorefront, data)
	if err != nil {
		log.ErrorContext(ctx, "failed to build change event",
			slog.String("topic", p.topic),
			slog.String("error", err.Error()),
		)
		return
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}
	evt.WithMetadata("op", string(change.Op)).
		WithMetadata("collection_version", strconv.FormatUint(change.Snapshot.Version, 10))

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.publisher.Publish(ctx, p.topic, evt); err != nil {
		log.WarnContext(ctx, "change event not published",
			slog.String("topic", p.topic),
			slog.String("op", string(change.Op)),
			slog.String("error", err.Error()),
		)
	}
}
