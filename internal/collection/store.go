package collection

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"

	"github.com/utafrali/storefront/internal/notify"
)

// Store is the single authoritative owner of one collection. Mutations are
// serialized and each one is written through to the persister before the
// lock is released, so the persisted order of saves matches mutation order.
// A failed save is logged and never undoes the in-memory change.
type Store[T Item[T]] struct {
	name   string
	scope  string
	labels Labels

	clock     func() time.Time
	persister Persister[T]
	notifier  notify.Notifier
	listeners []Listener[T]
	logger    *slog.Logger

	mu        sync.RWMutex
	items     []T
	version   uint64
	lastStamp time.Time
	subs      map[*Subscription[T]]struct{}
}

// Option configures a Store.
type Option[T Item[T]] func(*Store[T])

// WithScope sets the scope (session id) carried by notifications and changes.
func WithScope[T Item[T]](scope string) Option[T] {
	return func(s *Store[T]) { s.scope = scope }
}

// WithLabels overrides the user-facing wording. Defaults use the store name.
func WithLabels[T Item[T]](l Labels) Option[T] {
	return func(s *Store[T]) { s.labels = l }
}

// WithClock overrides the time source used for insertion stamps.
func WithClock[T Item[T]](clock func() time.Time) Option[T] {
	return func(s *Store[T]) { s.clock = clock }
}

// WithPersister sets the write-through target.
func WithPersister[T Item[T]](p Persister[T]) Option[T] {
	return func(s *Store[T]) { s.persister = p }
}

// WithNotifier sets the toast sink.
func WithNotifier[T Item[T]](n notify.Notifier) Option[T] {
	return func(s *Store[T]) { s.notifier = n }
}

// WithListener appends a change listener.
func WithListener[T Item[T]](l Listener[T]) Option[T] {
	return func(s *Store[T]) { s.listeners = append(s.listeners, l) }
}

// WithLogger sets the logger.
func WithLogger[T Item[T]](l *slog.Logger) Option[T] {
	return func(s *Store[T]) { s.logger = l }
}

// New creates a store named name (e.g. "wishlist") holding initial, which is
// typically the result of loading the persisted slot. Items whose key was
// already seen are dropped, keeping the first occurrence.
func New[T Item[T]](name string, initial []T, opts ...Option[T]) *Store[T] {
	s := &Store[T]{
		name:     name,
		labels:   Labels{Noun: name},
		clock:    func() time.Time { return time.Now().UTC() },
		notifier: notify.Nop{},
		logger:   slog.Default(),
		subs:     make(map[*Subscription[T]]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	seen := make(map[string]struct{}, len(initial))
	s.items = make([]T, 0, len(initial))
	for _, it := range initial {
		if _, dup := seen[it.Key()]; dup {
			s.logger.Warn("dropping duplicate entry from loaded collection",
				slog.String("collection", s.name),
				slog.String("id", it.Key()),
			)
			continue
		}
		seen[it.Key()] = struct{}{}
		s.items = append(s.items, it)
		if at := it.AddedAt(); at.After(s.lastStamp) {
			s.lastStamp = at
		}
	}
	return s
}

// Name returns the collection name.
func (s *Store[T]) Name() string { return s.name }

// Add inserts candidate, stamped with the current time. A candidate whose
// key is already present is rejected with an AlreadyExists error and the
// existing item is left untouched.
func (s *Store[T]) Add(ctx context.Context, candidate T) error {
	key := candidate.Key()

	s.mu.Lock()
	if s.indexOf(key) >= 0 {
		s.mu.Unlock()
		mutationsTotal.WithLabelValues(s.name, string(OpAdd), outcomeRejected).Inc()
		s.notify(ctx, notify.KindError, s.labels.presentTitle(), s.labels.presentDescription())
		return apperrors.AlreadyExists(s.name+" entry", "id", key)
	}

	item := candidate.Stamped(s.nextStamp())
	s.items = append(s.items, item)
	change := s.commitLocked(ctx, OpAdd, key)
	s.mu.Unlock()

	s.notify(ctx, notify.KindSuccess, s.labels.addedTitle(), s.labels.addedDescription(item.DisplayName()))
	s.emit(ctx, change)
	return nil
}

// Upsert adds candidate when its key is absent. When present, merge receives
// the stored item and its result replaces it in place, keeping the original
// insertion stamp. It reports whether a new item was created.
func (s *Store[T]) Upsert(ctx context.Context, candidate T, merge func(existing T) (T, error)) (T, bool, error) {
	key := candidate.Key()

	s.mu.Lock()
	idx := s.indexOf(key)
	if idx < 0 {
		item := candidate.Stamped(s.nextStamp())
		s.items = append(s.items, item)
		change := s.commitLocked(ctx, OpAdd, key)
		s.mu.Unlock()

		s.notify(ctx, notify.KindSuccess, s.labels.addedTitle(), s.labels.addedDescription(item.DisplayName()))
		s.emit(ctx, change)
		return item, true, nil
	}

	next, err := s.replaceLocked(idx, merge)
	if err != nil {
		s.mu.Unlock()
		mutationsTotal.WithLabelValues(s.name, string(OpUpdate), outcomeRejected).Inc()
		var zero T
		return zero, false, err
	}
	change := s.commitLocked(ctx, OpUpdate, key)
	s.mu.Unlock()

	s.notify(ctx, notify.KindSuccess, s.labels.addedTitle(), s.labels.addedDescription(next.DisplayName()))
	s.emit(ctx, change)
	return next, false, nil
}

// Update replaces the item with key id by fn's result, in place. The key and
// insertion stamp cannot be changed. No notification is emitted.
func (s *Store[T]) Update(ctx context.Context, id string, fn func(current T) (T, error)) (T, error) {
	var zero T

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		mutationsTotal.WithLabelValues(s.name, string(OpUpdate), outcomeNoop).Inc()
		return zero, apperrors.NotFound(s.name+" entry", id)
	}

	next, err := s.replaceLocked(idx, fn)
	if err != nil {
		s.mu.Unlock()
		mutationsTotal.WithLabelValues(s.name, string(OpUpdate), outcomeRejected).Inc()
		return zero, err
	}
	change := s.commitLocked(ctx, OpUpdate, id)
	s.mu.Unlock()

	s.emit(ctx, change)
	return next, nil
}

// Remove deletes the item with key id and returns it. An absent id is a
// no-op that returns a NotFound error: nothing is saved, notified or
// broadcast.
func (s *Store[T]) Remove(ctx context.Context, id string) (T, error) {
	var zero T

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		mutationsTotal.WithLabelValues(s.name, string(OpRemove), outcomeNoop).Inc()
		return zero, apperrors.NotFound(s.name+" entry", id)
	}

	removed := s.items[idx]
	s.items = append(s.items[:idx:idx], s.items[idx+1:]...)
	change := s.commitLocked(ctx, OpRemove, id)
	s.mu.Unlock()

	s.notify(ctx, notify.KindSuccess, s.labels.removedTitle(), s.labels.removedDescription(removed.DisplayName()))
	s.emit(ctx, change)
	return removed, nil
}

// Clear empties the collection. It always writes through and always
// notifies, even when the collection was already empty.
func (s *Store[T]) Clear(ctx context.Context) {
	s.mu.Lock()
	s.items = make([]T, 0)
	change := s.commitLocked(ctx, OpClear, "")
	s.mu.Unlock()

	s.notify(ctx, notify.KindSuccess, s.labels.clearedTitle(), s.labels.clearedDescription())
	s.emit(ctx, change)
}

// Contains reports whether an item with key id is present.
func (s *Store[T]) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(id) >= 0
}

// Get returns the item with key id.
func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.indexOf(id); idx >= 0 {
		return s.items[idx], true
	}
	var zero T
	return zero, false
}

// List returns a copy of the items in insertion order.
func (s *Store[T]) List() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Count is the number of items. It is always read from the item slice.
func (s *Store[T]) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Snapshot returns the current state.
func (s *Store[T]) Snapshot() Snapshot[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newSnapshot(s.items, s.version)
}

func (s *Store[T]) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].Key() == id {
			return i
		}
	}
	return -1
}

// nextStamp never goes backwards, even if the wall clock does.
func (s *Store[T]) nextStamp() time.Time {
	now := s.clock()
	if now.Before(s.lastStamp) {
		now = s.lastStamp
	}
	s.lastStamp = now
	return now
}

func (s *Store[T]) replaceLocked(idx int, fn func(T) (T, error)) (T, error) {
	cur := s.items[idx]
	next, err := fn(cur)
	if err != nil {
		var zero T
		return zero, err
	}
	if next.Key() != cur.Key() {
		var zero T
		return zero, apperrors.InvalidInput(fmt.Sprintf("%s entry id cannot change from %q to %q", s.name, cur.Key(), next.Key()))
	}
	next = next.Stamped(cur.AddedAt())
	s.items[idx] = next
	return next, nil
}

// commitLocked bumps the version, writes through, and publishes the new
// snapshot to subscribers. It must be called with mu held.
func (s *Store[T]) commitLocked(ctx context.Context, op Op, key string) Change[T] {
	s.version++
	snap := newSnapshot(s.items, s.version)

	if s.persister != nil {
		if err := s.persister.Save(context.WithoutCancel(ctx), snap.Items); err != nil {
			persistFailures.WithLabelValues(s.name).Inc()
			logger.WithContext(ctx, s.logger).ErrorContext(ctx, "write-through failed, keeping in-memory state",
				slog.String("collection", s.name),
				slog.String("op", string(op)),
				slog.String("error", err.Error()),
			)
		}
	}

	for sub := range s.subs {
		sub.deliver(snap)
	}

	mutationsTotal.WithLabelValues(s.name, string(op), outcomeApplied).Inc()
	collectionSize.WithLabelValues(s.name).Observe(float64(snap.Count))

	return Change[T]{Collection: s.name, Scope: s.scope, Op: op, Key: key, Snapshot: snap}
}

func (s *Store[T]) notify(ctx context.Context, kind notify.Kind, title, description string) {
	s.notifier.Notify(ctx, notify.Notification{
		Scope:       s.scope,
		Collection:  s.name,
		Kind:        kind,
		Title:       title,
		Description: description,
		At:          s.clock(),
	})
}

func (s *Store[T]) emit(ctx context.Context, change Change[T]) {
	for _, l := range s.listeners {
		l.CollectionChanged(ctx, change)
	}
}
