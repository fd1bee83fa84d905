package notify

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// listenerBuffer is the number of undelivered toasts a listener may lag by
// before further toasts to it are dropped.
const listenerBuffer = 16

var toastsDropped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "storefront_toasts_dropped_total",
	Help: "Toasts not delivered because a live listener was too slow",
})

// Hub routes toasts to the live listeners of their scope (one session's
// websocket connections).
type Hub struct {
	mu        sync.RWMutex
	listeners map[string]map[chan Notification]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{listeners: make(map[string]map[chan Notification]struct{})}
}

// Listen registers a listener for scope. The returned cancel function
// unregisters it and closes the channel; it is safe to call more than once.
func (h *Hub) Listen(scope string) (<-chan Notification, func()) {
	ch := make(chan Notification, listenerBuffer)

	h.mu.Lock()
	set, ok := h.listeners[scope]
	if !ok {
		set = make(map[chan Notification]struct{})
		h.listeners[scope] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if cur := h.listeners[scope]; cur != nil {
				delete(cur, ch)
				if len(cur) == 0 {
					delete(h.listeners, scope)
				}
			}
			close(ch)
		})
	}
}

// Listeners returns the number of live listeners for scope.
func (h *Hub) Listeners(scope string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners[scope])
}

// Notify delivers n to every listener of n.Scope without blocking.
func (h *Hub) Notify(_ context.Context, n Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.listeners[n.Scope] {
		select {
		case ch <- n:
		default:
			toastsDropped.Inc()
		}
	}
}
