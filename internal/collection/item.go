// Package collection implements the per-session, deduplicated, write-through
// collection store shared by the wishlist and the basket.
package collection

import (
	"context"
	"time"
)

// Item is an element a Store can hold.
type Item[T any] interface {
	// Key is the business key; unique within a collection.
	Key() string
	// DisplayName names the item in user-facing notifications.
	DisplayName() string
	// AddedAt is the insertion stamp.
	AddedAt() time.Time
	// Stamped returns a copy with the insertion stamp set to at.
	Stamped(at time.Time) T
}

// Persister receives the full collection after every applied mutation.
type Persister[T any] interface {
	Save(ctx context.Context, items []T) error
}

// Op names a mutation.
type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
	OpClear  Op = "clear"
	OpUpdate Op = "update"
)

// Change describes one applied mutation.
type Change[T Item[T]] struct {
	Collection string
	Scope      string
	Op         Op
	// Key is empty for OpClear.
	Key      string
	Snapshot Snapshot[T]
}

// Listener observes applied mutations, after the write-through. Listeners
// run on the mutating goroutine and must not call back into the store.
type Listener[T Item[T]] interface {
	CollectionChanged(ctx context.Context, change Change[T])
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc[T Item[T]] func(ctx context.Context, change Change[T])

func (f ListenerFunc[T]) CollectionChanged(ctx context.Context, change Change[T]) { f(ctx, change) }
