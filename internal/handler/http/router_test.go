package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/notify"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/internal/storage/memory"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/middleware"
)

// ============================================================================
// Test helpers
// ============================================================================

const testSession = "sess-1"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

type testServer struct {
	handler  http.Handler
	sessions *service.Sessions
	hub      *notify.Hub
	stream   *StreamHandler
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	hub := notify.NewHub()
	sessions := service.NewSessions(service.SessionsConfig{
		KV:       memory.New(),
		Slots:    service.DefaultSlotNames(),
		Notifier: hub,
		Logger:   testLogger(),
	})
	basket := service.NewBasketService(sessions, domain.NewPrice("15.00"), testLogger())
	wishlist := service.NewWishlistService(sessions, basket, testLogger())
	stream := NewStreamHandler(sessions, hub, []string{"*"}, testLogger())

	h := NewRouter(RouterConfig{
		ServiceName: "storefront-test",
		Wishlist:    NewWishlistHandler(wishlist, testLogger()),
		Basket:      NewBasketHandler(basket, testLogger()),
		Stream:      stream,
		Health:      health.NewHandler(),
		CORS:        middleware.DefaultCORSConfig(),
		Logger:      testLogger(),
	})
	return testServer{handler: h, sessions: sessions, hub: hub, stream: stream}
}

type envelope struct {
	Data  json.RawMessage         `json:"data"`
	Error *httputil.ErrorResponse `json:"error"`
}

func (s testServer) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set(middleware.SessionIDHeader, testSession)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func headphones() domain.EntryInput {
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

// ============================================================================
// Routing and middleware
// ============================================================================

func TestRouter_HealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouter_RequiresSession(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/wishlist", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "SESSION_REQUIRED")
}

func TestRouter_RejectsNonJSONBody(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/wishlist/items", strings.NewReader("id=1"))
	req.Header.Set(middleware.SessionIDHeader, testSession)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNSUPPORTED_MEDIA_TYPE")
}

func TestRouter_ResponsesAreNotCached(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodGet, "/api/v1/wishlist/count", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "no-store")
}

func TestRouter_SessionsAreIsolated(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodPost, "/api/v1/wishlist/items", headphones())
	require.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wishlist/count", nil)
	req.Header.Set(middleware.SessionIDHeader, "someone-else")
	other := httptest.NewRecorder()
	s.handler.ServeHTTP(other, req)

	assert.Equal(t, http.StatusOK, other.Code)
	assert.JSONEq(t, `{"data":{"count":0}}`, other.Body.String())
}
