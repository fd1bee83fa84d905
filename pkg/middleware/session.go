package middleware

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/logger"
)

// SessionIDHeader identifies the storefront session a request acts on. It
// stands in for the browser's origin-scoped storage; it is not an identity.
const SessionIDHeader = "X-Session-ID"

// maxSessionIDLength bounds the id since it becomes part of storage keys.
const maxSessionIDLength = 128

type sessionKeyType struct{}

var sessionKey sessionKeyType

// RequireSession rejects requests without a usable session id and stores the
// id in the request context. The id may also be supplied as the "session"
// query parameter, which browsers need for websocket upgrades.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := strings.TrimSpace(r.Header.Get(SessionIDHeader))
		if sid == "" {
			sid = strings.TrimSpace(r.URL.Query().Get("session"))
		}

		if sid == "" {
			httputil.WriteError(w, r, apperrors.Unauthorized("SESSION_REQUIRED", "X-Session-ID header is required"), nil)
			return
		}
		if len(sid) > maxSessionIDLength || strings.ContainsAny(sid, " \t\r\n") {
			httputil.WriteError(w, r, apperrors.InvalidInput("session id is malformed"), nil)
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, sid)
		ctx = logger.WithSessionID(ctx, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionIDFromContext returns the session id stored by RequireSession.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	sid, ok := ctx.Value(sessionKey).(string)
	return sid, ok && sid != ""
}
