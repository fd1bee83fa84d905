package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
)

// RouterConfig carries the handlers and settings the router mounts.
type RouterConfig struct {
	ServiceName string
	Wishlist    *WishlistHandler
	Basket      *BasketHandler
	Stream      *StreamHandler
	Health      *health.Handler
	CORS        middleware.CORSConfig
	PprofCIDRs  []string
	Logger      *slog.Logger
}

// NewRouter creates a chi router with all storefront collection routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimw.Compress(5))
		r.Use(ContentTypeJSON)
		r.Use(middleware.RequireSession)
		r.Use(middleware.NoStore)

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", cfg.Wishlist.List)
			r.Delete("/", cfg.Wishlist.Clear)
			r.Get("/count", cfg.Wishlist.Count)
			r.Post("/move-to-basket", cfg.Wishlist.MoveToBasket)

			r.Post("/items", cfg.Wishlist.Add)
			r.Get("/items/{id}", cfg.Wishlist.Contains)
			r.Delete("/items/{id}", cfg.Wishlist.Remove)
			r.Post("/items/{id}/toggle", cfg.Wishlist.Toggle)
		})

		r.Route("/basket", func(r chi.Router) {
			r.Get("/", cfg.Basket.Get)
			r.Delete("/", cfg.Basket.Clear)

			r.Post("/items", cfg.Basket.AddItem)
			r.Put("/items/{id}", cfg.Basket.UpdateQuantity)
			r.Delete("/items/{id}", cfg.Basket.RemoveItem)
		})
	})

	// Live updates; the session may come from the query string since
	// browsers cannot set headers on websocket upgrades.
	if cfg.Stream != nil {
		r.With(middleware.RequireSession).Get("/ws", cfg.Stream.Handle)
	}

	return r
}
