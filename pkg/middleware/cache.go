package middleware

import "net/http"

// NoStore marks responses as uncacheable. Collection state is per-session and
// changes on every mutation, so no intermediary may serve a stale copy.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Add("Vary", SessionIDHeader)
		next.ServeHTTP(w, r)
	})
}
