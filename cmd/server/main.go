package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"azbeauty-be/internal/audit"
	"azbeauty-be/internal/auth"
	"azbeauty-be/internal/category"
	"azbeauty-be/internal/config"
	"azbeauty-be/internal/coupon"
	"azbeauty-be/internal/dashboard"
	"azbeauty-be/internal/db"
	"azbeauty-be/internal/graph"
	"azbeauty-be/internal/httpapi"
	"azbeauty-be/internal/inventory"
	"azbeauty-be/internal/logger"
	"azbeauty-be/internal/marketing"
	"azbeauty-be/internal/metrics"
	"azbeauty-be/internal/notification"
	"azbeauty-be/internal/order"
	"azbeauty-be/internal/payment"
	"azbeauty-be/internal/payment/webhook"
	"azbeauty-be/internal/product"
	"azbeauty-be/internal/ratelimit"
	"azbeauty-be/internal/redisstore"
	"azbeauty-be/internal/settings"
	"azbeauty-be/internal/user"
)

const shutdownTimeout = 15 * time.Second

// Swapped in tests.
var (
	initDBFunc      = db.InitDB
	startServerFunc = startServer
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := initDBFunc(cfg)
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler, cleanup := newServer(ctx, cfg, database)
	defer cleanup()

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	logger.L().Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
	return startServerFunc(ctx, srv)
}

// startServer serves until ctx is cancelled, then drains in-flight requests.
func startServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newServer wires repositories, services and handlers. The returned func releases
// background resources.
func newServer(ctx context.Context, cfg *config.Config, database *sql.DB) (http.Handler, func()) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var (
		eventsLimiter ratelimit.Limiter
		qpayOpts      []payment.Option
	)
	window := time.Minute
	if rdb := connectRedis(ctx, cfg); rdb != nil {
		closers = append(closers, func() { _ = rdb.Close() })
		eventsLimiter = ratelimit.NewRedis(rdb, "events", cfg.EventsRateLimit, window)
		qpayOpts = append(qpayOpts, payment.WithTokenStore(rdb, rdb.TokenKey("qpay")))
	} else {
		mem := ratelimit.NewMemory(cfg.EventsRateLimit, window)
		closers = append(closers, mem.Close)
		eventsLimiter = mem
	}

	auditSvc := audit.NewService(audit.NewRepository(database))
	userSvc := user.NewService(user.NewRepository(database), auditSvc)
	productSvc := product.NewService(product.NewRepository(database), auditSvc)
	catalogSvc := category.NewService(category.NewRepository(database))
	inventorySvc := inventory.NewService(inventory.NewRepository(database), auditSvc, m)
	couponSvc := coupon.NewService(coupon.NewRepository(database), auditSvc)
	notifier := notification.New(cfg.ResendAPIKey, cfg.EmailFrom)
	orderSvc := order.NewService(order.NewRepository(database), couponSvc, userSvc, notifier, auditSvc, m)
	marketingSvc := marketing.NewService(marketing.NewRepository(database))
	settingsSvc := settings.NewService(settings.NewRepository(database), auditSvc)
	dashboardSvc := dashboard.NewService(dashboard.NewRepository(database))

	gateway := payment.NewQPayClient(payment.QPayConfig{
		BaseURL:         cfg.QPayBaseURL,
		Username:        cfg.QPayUsername,
		Password:        cfg.QPayPassword,
		InvoiceCode:     cfg.QPayInvoiceCode,
		CallbackBaseURL: cfg.CallbackBaseURL(),
	}, qpayOpts...)
	paymentSvc := payment.NewService(payment.NewRepository(database), gateway, orderSvc, auditSvc, m)

	resolver := &graph.Resolver{
		Users:     userSvc,
		Products:  productSvc,
		Catalog:   catalogSvc,
		Inventory: inventorySvc,
		Orders:    orderSvc,
		Coupons:   couponSvc,
		Marketing: marketingSvc,
		Settings:  settingsSvc,
		Audit:     auditSvc,
		Dashboard: dashboardSvc,
	}

	router := setupRouter(httpapi.Deps{
		GraphQL:       graph.NewServer(graph.NewSchema(resolver, m), !cfg.IsProduction()),
		Auth:          httpapi.NewAuthHandler(userSvc),
		Events:        httpapi.NewEventsHandler(marketingSvc),
		Payments:      httpapi.NewPaymentHandler(paymentSvc),
		Webhook:       webhook.NewWebhookHandler(paymentSvc),
		Verifier:      auth.NewVerifier(cfg.JWTSecret),
		Profiles:      userSvc,
		EventsLimiter: eventsLimiter,
		Metrics:       m,
		Gatherer:      reg,
		CORSOrigin:    cfg.CORSOrigin,
		Playground:    !cfg.IsProduction(),
	})
	return router, cleanup
}

func setupRouter(deps httpapi.Deps) http.Handler {
	return httpapi.NewRouter(deps)
}

// connectRedis returns nil when Redis is not configured or unreachable; callers
// fall back to in-process state.
func connectRedis(ctx context.Context, cfg *config.Config) *redisstore.Client {
	if cfg.RedisURL == "" {
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rdb, err := redisstore.New(pingCtx, cfg.RedisURL)
	if err != nil {
		logger.L().Warn("redis unavailable, using in-memory rate limiting", zap.Error(err))
		return nil
	}
	return rdb
}
