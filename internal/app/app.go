package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/utafrali/storefront/internal/collection"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	handler "github.com/utafrali/storefront/internal/handler/http"
	"github.com/utafrali/storefront/internal/notify"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/internal/storage"
	"github.com/utafrali/storefront/internal/storage/breaker"
	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/pkg/health"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/tracing"
)

const serviceName = "storefront-collections"

const sessionSweepInterval = time.Minute

// App wires together all dependencies and runs the storefront collections service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	closeStorage   func()
	producer       *pkgkafka.Producer
	sessions       *service.Sessions
	stream         *handler.StreamHandler
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Configure slow query logging.
	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	// Slot storage, optionally behind a circuit breaker.
	kv, closeStorage, err := openStorage(ctx, cfg, logger)
	if err != nil {
		_ = tracerShutdown(context.Background())
		return nil, err
	}
	if cfg.BreakerEnabled && cfg.StorageBackend != storage.BackendMemory {
		bcfg := breaker.DefaultConfig(cfg.StorageBackend)
		bcfg.Timeout = cfg.BreakerTimeout()
		bcfg.FailureRatio = cfg.BreakerFailureRatio
		bcfg.MinRequests = cfg.BreakerMinRequests
		kv = breaker.Wrap(kv, bcfg, logger)
	}

	// Toasts go to the log and to live websocket listeners.
	hub := notify.NewHub()
	notifier := notify.Multi{notify.NewLogNotifier(logger), hub}

	sessionsCfg := service.SessionsConfig{
		KV: kv,
		Slots: service.SlotNames{
			Prefix:   cfg.SlotPrefix,
			Wishlist: cfg.WishlistSlot,
			Basket:   cfg.BasketSlot,
		},
		PersistTimeout: cfg.PersistTimeoutDuration(),
		Notifier:       notifier,
		IdleTTL:        cfg.SessionIdleTTL(),
		MaxSessions:    cfg.MaxSessions,
		Logger:         logger,
	}

	// Change events, when enabled.
	var producer *pkgkafka.Producer
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

		sessionsCfg.WishlistListeners = []collection.Listener[domain.Entry]{
			event.NewProducer[domain.Entry](producer, event.TopicWishlistUpdated, event.AggregateTypeWishlist, logger),
		}
		sessionsCfg.BasketListeners = []collection.Listener[domain.BasketItem]{
			event.NewProducer[domain.BasketItem](producer, event.TopicBasketUpdated, event.AggregateTypeBasket, logger),
		}
	}

	// Build the dependency graph.
	sessions := service.NewSessions(sessionsCfg)
	basketService := service.NewBasketService(sessions, domain.PriceFromDecimal(cfg.ShippingFlat()), logger)
	wishlistService := service.NewWishlistService(sessions, basketService, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("storage", sessions.Ping)
	if producer != nil {
		healthHandler.RegisterOptional("kafka", producer.Ping)
	}

	// HTTP router.
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	stream := handler.NewStreamHandler(sessions, hub, cfg.CORSAllowedOrigins, logger)

	router := handler.NewRouter(handler.RouterConfig{
		ServiceName: serviceName,
		Wishlist:    handler.NewWishlistHandler(wishlistService, logger),
		Basket:      handler.NewBasketHandler(basketService, logger),
		Stream:      stream,
		Health:      healthHandler,
		CORS:        cors,
		PprofCIDRs:  cfg.PprofAllowedCIDRs,
		Logger:      logger,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		closeStorage:   closeStorage,
		producer:       producer,
		sessions:       sessions,
		stream:         stream,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Handler returns the HTTP handler, for tests and embedding.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	if a.cfg.SessionIdleTTLMinutes > 0 {
		go a.sessions.RunSweeper(ctx, sessionSweepInterval)
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order: live streams, HTTP
// server, tracer, Kafka producer, slot storage.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// Hijacked websocket connections are not tracked by http.Server.
	a.stream.CloseAll()

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// Every mutation writes through before it returns, so nothing is
	// pending once the server has drained.
	a.closeStorage()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
