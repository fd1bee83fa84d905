package collection

import "sync"

// Subscription receives the latest snapshot after every applied mutation.
// The channel holds at most one pending snapshot; a slow reader skips
// intermediate versions and never holds up a mutation.
type Subscription[T Item[T]] struct {
	ch    chan Snapshot[T]
	store *Store[T]
	once  sync.Once
}

// Subscribe registers a subscription. The current snapshot is already
// pending on the channel when Subscribe returns.
func (s *Store[T]) Subscribe() *Subscription[T] {
	sub := &Subscription[T]{ch: make(chan Snapshot[T], 1), store: s}

	s.mu.Lock()
	defer s.mu.Unlock()
	sub.ch <- newSnapshot(s.items, s.version)
	s.subs[sub] = struct{}{}
	return sub
}

// C returns the snapshot channel. It is closed by Close.
func (sub *Subscription[T]) C() <-chan Snapshot[T] {
	return sub.ch
}

// Close unregisters the subscription and closes its channel. Safe to call
// more than once.
func (sub *Subscription[T]) Close() {
	sub.once.Do(func() {
		sub.store.mu.Lock()
		defer sub.store.mu.Unlock()
		delete(sub.store.subs, sub)
		close(sub.ch)
	})
}

// deliver replaces any undelivered snapshot with snap. Called with the store
// lock held, so it never races with Close or another deliver.
func (sub *Subscription[T]) deliver(snap Snapshot[T]) {
	select {
	case <-sub.ch:
	default:
	}
	select {
	case sub.ch <- snap:
	default:
	}
}

// Subscribers returns the number of open subscriptions.
func (s *Store[T]) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}
