package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/notify"
	"github.com/utafrali/storefront/internal/storage/memory"
)

type toastRecorder struct {
	mu  sync.Mutex
	got []notify.Notification
}

func (r *toastRecorder) Notify(_ context.Context, n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
}

func (r *toastRecorder) titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.got))
	for i, n := range r.got {
		out[i] = n.Title
	}
	return out
}

type testEnv struct {
	kv       *memory.KV
	sessions *Sessions
	wishlist *WishlistService
	basket   *BasketService
	toasts   *toastRecorder
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	return newTestEnvWithKV(t, memory.New())
}

func newTestEnvWithKV(t *testing.T, kv *memory.KV) testEnv {
	t.Helper()
	toasts := &toastRecorder{}
	sessions := NewSessions(SessionsConfig{
		KV:       kv,
		Slots:    DefaultSlotNames(),
		Notifier: toasts,
		Logger:   testLogger(),
	})
	basket := NewBasketService(sessions, domain.NewPrice("15.00"), testLogger())
	return testEnv{
		kv:       kv,
		sessions: sessions,
		wishlist: NewWishlistService(sessions, basket, testLogger()),
		basket:   basket,
		toasts:   toasts,
	}
}

func headphonesInput() domain.EntryInput {
	return domain.EntryInput{
		ID:            "1",
		Name:          "Headphones",
		Price:         domain.NewPrice("299.99"),
		Category:      "electronics",
		Brand:         "Acme",
		AverageRating: 4.5,
		ReviewCount:   128,
	}
}
