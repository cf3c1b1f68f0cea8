package middleware

import (
	"net"
	"net/http"
	"strings"

	"azbeauty-be/internal/apperror"
	"azbeauty-be/internal/logger"
	"azbeauty-be/internal/metrics"
	"azbeauty-be/internal/ratelimit"
	"azbeauty-be/internal/respond"

	"go.uber.org/zap"
)

// ClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the socket address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return "unknown"
	}
	return host
}

// RateLimit rejects requests over the limiter's budget per client IP with 429.
// A failing limiter lets the request through.
func RateLimit(l ratelimit.Limiter, scope string, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)

			allowed, err := l.Allow(r.Context(), scope+":"+ip)
			if err != nil {
				logger.FromCtx(r.Context()).Warn("rate limiter unavailable",
					zap.String("layer", "middleware"),
					zap.String("scope", scope),
					zap.Error(err),
				)
				allowed = true
			}

			if !allowed {
				m.RateLimited(scope)
				respond.Error(r.Context(), w, apperror.New(apperror.CodeRateLimit, "Too many requests"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
