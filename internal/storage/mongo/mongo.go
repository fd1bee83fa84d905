package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/utafrali/storefront/internal/storage"
	"github.com/utafrali/storefront/pkg/database"
)

type slotDocument struct {
	Key       string    `bson:"_id"`
	Value     []byte    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// KV implements storage.KV with one document per slot, keyed by _id.
type KV struct {
	coll *mongo.Collection
	now  func() time.Time
}

// New creates a MongoDB-backed store on coll.
func New(coll *mongo.Collection) *KV {
	return &KV{coll: coll, now: func() time.Time { return time.Now().UTC() }}
}

// EnsureIndexes creates a TTL index on updated_at so untouched slots expire.
// A ttl of zero creates nothing.
func (s *KV) EnsureIndexes(ctx context.Context, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "updated_at", Value: 1}},
		Options: options.Index().SetName("slot_ttl").SetExpireAfterSeconds(int32(ttl.Seconds())),
	})
	if err != nil {
		return fmt.Errorf("create slot ttl index: %w", err)
	}
	return nil
}

// Get reads the slot value.
func (s *KV) Get(ctx context.Context, key string) (_ []byte, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "GetSlot", "findOne")
	defer func() { end(err) }()

	var doc slotDocument
	if err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.NotFound(key)
		}
		return nil, fmt.Errorf("find slot: %w", err)
	}
	return doc.Value, nil
}

// Set replaces the slot document, creating it when absent.
func (s *KV) Set(ctx context.Context, key string, value []byte) (err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "SetSlot", "replaceOne")
	defer func() { end(err) }()

	doc := slotDocument{Key: key, Value: value, UpdatedAt: s.now()}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, opts); err != nil {
		return fmt.Errorf("replace slot: %w", err)
	}
	return nil
}

// Ping checks the primary is reachable.
func (s *KV) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, readpref.Primary())
}
