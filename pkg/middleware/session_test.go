package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/logger"
)

func sessionEcho() http.Handler {
	return RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid, _ := SessionIDFromContext(r.Context())
		_, _ = w.Write([]byte(sid + "|" + logger.SessionIDFromContext(r.Context())))
	}))
}

func TestRequireSession_FromHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/wishlist", nil)
	req.Header.Set(SessionIDHeader, "sess-1")
	rec := httptest.NewRecorder()

	sessionEcho().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sess-1|sess-1", rec.Body.String())
}

func TestRequireSession_FromQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws?session=sess-2", nil)
	rec := httptest.NewRecorder()

	sessionEcho().ServeHTTP(rec, req)

	assert.Equal(t, "sess-2|sess-2", rec.Body.String())
}

func TestRequireSession_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/wishlist", nil)
	rec := httptest.NewRecorder()

	sessionEcho().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "SESSION_REQUIRED", resp.Error.Code)
}

func TestRequireSession_Malformed(t *testing.T) {
	for _, sid := range []string{strings.Repeat("x", maxSessionIDLength+1), "two words"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/basket", nil)
		req.Header.Set(SessionIDHeader, sid)
		rec := httptest.NewRecorder()

		sessionEcho().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, sid)
	}
}

func TestNoStore(t *testing.T) {
	rec := httptest.NewRecorder()
	NoStore(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, SessionIDHeader, rec.Header().Get("Vary"))
}
