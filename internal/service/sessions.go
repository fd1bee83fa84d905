package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/utafrali/storefront/internal/collection"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/notify"
	"github.com/utafrali/storefront/internal/persistence"
	"github.com/utafrali/storefront/internal/storage"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
)

var (
	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_sessions_active",
		Help: "Sessions with collections loaded in memory",
	})

	sessionsEvicted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_sessions_evicted_total",
		Help: "Sessions dropped from memory, by reason",
	}, []string{"reason"})

	sessionLoadsDegraded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_session_loads_degraded_total",
		Help: "Session loads that could not read a slot and will be retried",
	})
)

// SlotNames names the storage slots. A session's slot key is
// Prefix + sessionID + ":" + slot name.
type SlotNames struct {
	Prefix   string
	Wishlist string
	Basket   string
}

// DefaultSlotNames returns the slot names used by the storefront web client.
func DefaultSlotNames() SlotNames {
	return SlotNames{
		Prefix:   "storefront:",
		Wishlist: "grandmarketja-wishlist",
		Basket:   "grandmarketja-basket",
	}
}

func (n SlotNames) key(sessionID, slot string) string {
	return n.Prefix + sessionID + ":" + slot
}

// SessionsConfig configures a Sessions registry.
type SessionsConfig struct {
	KV             storage.KV
	Slots          SlotNames
	PersistTimeout time.Duration

	// Notifier receives every toast of every session.
	Notifier notify.Notifier

	WishlistListeners []collection.Listener[domain.Entry]
	BasketListeners   []collection.Listener[domain.BasketItem]

	// Clock overrides the insertion-stamp and idle-tracking time source.
	// Nil uses UTC now.
	Clock func() time.Time

	// IdleTTL drops sessions unused for this long on the next Sweep. Zero
	// keeps idle sessions.
	IdleTTL time.Duration

	// MaxSessions caps the sessions held in memory; the least recently used
	// one is dropped to make room. Zero means no cap.
	MaxSessions int

	Logger *slog.Logger
}

// Storefront is the pair of collections owned by one session.
type Storefront struct {
	ID       string
	Wishlist *collection.Store[domain.Entry]
	Basket   *collection.Store[domain.BasketItem]
}

type sessionEntry struct {
	mu sync.Mutex
	sf *Storefront

	// Set when the slot was read successfully. A store built from an
	// unreadable slot has no persister and is rebuilt on the next Get.
	wishlistLoaded bool
	basketLoaded   bool

	// lastUsed is guarded by Sessions.mu.
	lastUsed time.Time
}

// Sessions lazily creates and caches one Storefront per session id. The
// first access for a session loads both slots; later accesses share the
// same stores. If a slot cannot be read, the session is served an empty,
// unpersisted store for that slot and the read is retried on the next
// access. Once it succeeds, entries added in the meantime are merged into
// the loaded ones and saved.
type Sessions struct {
	cfg SessionsConfig

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

// NewSessions creates an empty registry.
func NewSessions(cfg SessionsConfig) *Sessions {
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Nop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Sessions{cfg: cfg, sessions: make(map[string]*sessionEntry)}
}

// Get returns the storefront for sessionID, loading it on first use.
func (s *Sessions) Get(ctx context.Context, sessionID string) (*Storefront, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	s.mu.Lock()
	e, ok := s.sessions[sessionID]
	if !ok {
		if s.cfg.MaxSessions > 0 && len(s.sessions) >= s.cfg.MaxSessions {
			s.evictLRULocked(len(s.sessions) - s.cfg.MaxSessions + 1)
		}
		e = &sessionEntry{}
		s.sessions[sessionID] = e
		sessionsActive.Inc()
	}
	e.lastUsed = s.now()
	s.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sf == nil || !e.wishlistLoaded || !e.basketLoaded {
		s.load(ctx, sessionID, e)
	}
	return e.sf, nil
}

// Len returns the number of sessions held in memory.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Ping checks the backing store.
func (s *Sessions) Ping(ctx context.Context) error {
	return s.cfg.KV.Ping(ctx)
}

// load fills e.sf, reusing the stores whose slot was already read.
func (s *Sessions) load(ctx context.Context, sessionID string, e *sessionEntry) {
	ctx = context.WithoutCancel(ctx)
	log := logger.WithContext(ctx, s.cfg.Logger)

	var prev Storefront
	if e.sf != nil {
		prev = *e.sf
	}

	wishlistOpts := []collection.Option[domain.Entry]{
		collection.WithScope[domain.Entry](sessionID),
		collection.WithNotifier[domain.Entry](s.cfg.Notifier),
		collection.WithLogger[domain.Entry](s.cfg.Logger),
	}
	for _, l := range s.cfg.WishlistListeners {
		wishlistOpts = append(wishlistOpts, collection.WithListener[domain.Entry](l))
	}

	basketOpts := []collection.Option[domain.BasketItem]{
		collection.WithScope[domain.BasketItem](sessionID),
		collection.WithNotifier[domain.BasketItem](s.cfg.Notifier),
		collection.WithLogger[domain.BasketItem](s.cfg.Logger),
	}
	for _, l := range s.cfg.BasketListeners {
		basketOpts = append(basketOpts, collection.WithListener[domain.BasketItem](l))
	}

	if s.cfg.Clock != nil {
		wishlistOpts = append(wishlistOpts, collection.WithClock[domain.Entry](s.cfg.Clock))
		basketOpts = append(basketOpts, collection.WithClock[domain.BasketItem](s.cfg.Clock))
	}

	sf := &Storefront{ID: sessionID, Wishlist: prev.Wishlist, Basket: prev.Basket}
	if !e.wishlistLoaded {
		slot := persistence.NewSlot[domain.Entry](s.cfg.KV, s.cfg.Slots.Wishlist,
			s.cfg.Slots.key(sessionID, s.cfg.Slots.Wishlist), s.cfg.PersistTimeout, s.cfg.Logger)
		sf.Wishlist, e.wishlistLoaded = openStore(ctx, "wishlist", slot, prev.Wishlist, wishlistOpts, log)
	}
	if !e.basketLoaded {
		slot := persistence.NewSlot[domain.BasketItem](s.cfg.KV, s.cfg.Slots.Basket,
			s.cfg.Slots.key(sessionID, s.cfg.Slots.Basket), s.cfg.PersistTimeout, s.cfg.Logger)
		sf.Basket, e.basketLoaded = openStore(ctx, "basket", slot, prev.Basket, basketOpts, log)
	}
	e.sf = sf

	if !e.wishlistLoaded || !e.basketLoaded {
		sessionLoadsDegraded.Inc()
		log.WarnContext(ctx, "session served without persistence until its slots can be read",
			slog.Bool("wishlist_loaded", e.wishlistLoaded),
			slog.Bool("basket_loaded", e.basketLoaded),
		)
		return
	}

	log.DebugContext(ctx, "session loaded",
		slog.Int("wishlist_count", sf.Wishlist.Count()),
		slog.Int("basket_count", sf.Basket.Count()),
	)
}

// openStore builds the store for one slot. When the slot cannot be read the
// store gets no persister, so nothing can overwrite what the slot still
// holds, and the previous unpersisted store, if any, is kept. When the slot
// is read after such a period, the entries added meanwhile are appended to
// the loaded ones and saved right away.
func openStore[T collection.Item[T]](
	ctx context.Context,
	name string,
	slot *persistence.Slot[T],
	prev *collection.Store[T],
	opts []collection.Option[T],
	log *slog.Logger,
) (*collection.Store[T], bool) {
	items, ok := slot.Load(ctx)
	if !ok {
		if prev != nil {
			return prev, false
		}
		return collection.New(name, items, opts...), false
	}

	merged := 0
	if prev != nil {
		for _, it := range prev.List() {
			if !containsKey(items, it.Key()) {
				items = append(items, it)
				merged++
			}
		}
	}

	if merged > 0 {
		if err := slot.Save(ctx, items); err != nil {
			log.ErrorContext(ctx, "failed to save entries added while the slot was unreadable",
				slog.String("collection", name),
				slog.String("error", err.Error()),
			)
		} else {
			log.InfoContext(ctx, "merged entries added while the slot was unreadable",
				slog.String("collection", name),
				slog.Int("merged", merged),
			)
		}
	}

	return collection.New(name, items, append(opts, collection.WithPersister[T](slot))...), true
}

func containsKey[T collection.Item[T]](items []T, key string) bool {
	for _, it := range items {
		if it.Key() == key {
			return true
		}
	}
	return false
}

// Sweep drops sessions idle for longer than IdleTTL and returns how many
// were dropped. Sessions with live subscribers are kept. Every mutation has
// already been written through, so a dropped session is reloaded from its
// slots on next use.
func (s *Sessions) Sweep() int {
	if s.cfg.IdleTTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.cfg.IdleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, e := range s.sessions {
		if e.lastUsed.After(cutoff) || inUse(e) {
			continue
		}
		s.dropLocked(id, "idle")
		n++
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Sessions) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.cfg.Logger.Debug("evicted idle sessions", slog.Int("count", n))
			}
		}
	}
}

// evictLRULocked drops up to n of the least recently used sessions that
// are not in use. It must be called with mu held.
func (s *Sessions) evictLRULocked(n int) {
	for ; n > 0; n-- {
		var (
			oldestID string
			oldest   time.Time
		)
		for id, e := range s.sessions {
			if inUse(e) {
				continue
			}
			if oldestID == "" || e.lastUsed.Before(oldest) {
				oldestID, oldest = id, e.lastUsed
			}
		}
		if oldestID == "" {
			return
		}
		s.dropLocked(oldestID, "capacity")
	}
}

func (s *Sessions) dropLocked(id, reason string) {
	delete(s.sessions, id)
	sessionsActive.Dec()
	sessionsEvicted.WithLabelValues(reason).Inc()
}

// inUse reports whether a session is loading or has live subscribers.
func inUse(e *sessionEntry) bool {
	if !e.mu.TryLock() {
		return true
	}
	defer e.mu.Unlock()
	if e.sf == nil {
		return false
	}
	return e.sf.Wishlist.Subscribers() > 0 || e.sf.Basket.Subscribers() > 0
}

func (s *Sessions) now() time.Time {
	if s.cfg.Clock != nil {
		return s.cfg.Clock()
	}
	return time.Now().UTC()
}
