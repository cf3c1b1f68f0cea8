// Package httpapi assembles the HTTP surface: REST handlers, the GraphQL endpoint and operational routes.
package httpapi

import (
	"net/http"
	"time"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"azbeauty-be/internal/logger"
	"azbeauty-be/internal/metrics"
	"azbeauty-be/internal/middleware"
	"azbeauty-be/internal/payment/webhook"
	"azbeauty-be/internal/ratelimit"
	"azbeauty-be/internal/respond"
)

const serviceName = "az-beauty"

type Deps struct {
	GraphQL  http.Handler
	Auth     *AuthHandler
	Events   *EventsHandler
	Payments *PaymentHandler
	Webhook  *webhook.Handler

	Verifier      middleware.TokenVerifier
	Profiles      middleware.ProfileLookup
	EventsLimiter ratelimit.Limiter

	Metrics    *metrics.Metrics
	Gatherer   prometheus.Gatherer
	CORSOrigin string
	Playground bool
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(logger.RequestIDMiddleware)
	r.Use(logger.LoggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.CORS(d.CORSOrigin))
	r.Use(middleware.Metrics(d.Metrics))

	r.Get("/api/health", health)
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}
	if d.Playground {
		r.Handle("/api/playground", playground.Handler("AZ Beauty GraphQL", "/api/graphql"))
	}

	// vendor callback; QPay sends no bearer token
	r.Post("/api/payments/qpay/webhook", d.Webhook.QPayWebhook)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(d.Verifier, d.Profiles))

		r.Post("/api/graphql", d.GraphQL.ServeHTTP)

		r.Get("/api/auth/me", d.Auth.Me)
		r.Post("/api/auth/upsert-profile", d.Auth.UpsertProfile)
		r.Post("/api/auth/bootstrap-owner", d.Auth.BootstrapOwner)

		r.Post("/api/payments/qpay/create", d.Payments.Create)
		r.Get("/api/payments/qpay/check", d.Payments.Check)
	})

	r.With(middleware.RateLimit(d.EventsLimiter, "events", d.Metrics)).
		Post("/api/events", d.Events.Track)

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"service":   serviceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}
