package notify

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	got []Notification
}

func (r *recorder) Notify(_ context.Context, n Notification) { r.got = append(r.got, n) }

func toast(scope string, kind Kind) Notification {
	return Notification{
		Scope:       scope,
		Collection:  "wishlist",
		Kind:        kind,
		Title:       "Added to wishlist",
		Description: "Headphones has been added to your wishlist.",
		At:          time.Now(),
	}
}

func TestMulti_FansOut(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	Multi{a, b, Nop{}}.Notify(context.Background(), toast("s1", KindSuccess))

	assert.Len(t, a.got, 1)
	assert.Len(t, b.got, 1)
}

func TestNotifierFunc(t *testing.T) {
	var called bool
	NotifierFunc(func(context.Context, Notification) { called = true }).
		Notify(context.Background(), toast("s1", KindSuccess))
	assert.True(t, called)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewJSONHandler(&buf, nil)))

	before := testutil.ToFloat64(toastsTotal.WithLabelValues("wishlist", "error"))
	n.Notify(context.Background(), toast("s1", KindError))

	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), `"title":"Added to wishlist"`)
	assert.Equal(t, before+1, testutil.ToFloat64(toastsTotal.WithLabelValues("wishlist", "error")))
}

func TestHub_DeliversOnlyToScope(t *testing.T) {
	h := NewHub()
	mine, cancelMine := h.Listen("s1")
	other, cancelOther := h.Listen("s2")
	defer cancelMine()
	defer cancelOther()

	h.Notify(context.Background(), toast("s1", KindSuccess))

	select {
	case n := <-mine:
		assert.Equal(t, "Added to wishlist", n.Title)
	default:
		t.Fatal("expected toast for s1")
	}
	select {
	case <-other:
		t.Fatal("s2 must not receive s1 toasts")
	default:
	}
}

func TestHub_CancelClosesAndUnregisters(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Listen("s1")
	require.Equal(t, 1, h.Listeners("s1"))

	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, h.Listeners("s1"))

	// Notifying a scope without listeners is a no-op.
	h.Notify(context.Background(), toast("s1", KindSuccess))
}

func TestHub_DropsWhenListenerIsFull(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Listen("s1")
	defer cancel()

	before := testutil.ToFloat64(toastsDropped)
	for i := 0; i < listenerBuffer+3; i++ {
		h.Notify(context.Background(), toast("s1", KindSuccess))
	}

	assert.Len(t, ch, listenerBuffer)
	assert.Equal(t, before+3, testutil.ToFloat64(toastsDropped))
}
