// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/stockpulse/stockpulse/internal/config"
	"github.com/stockpulse/stockpulse/internal/metrics"
)

// Middleware bundles the cross-cutting chi middleware built from the
// security configuration.
type Middleware struct {
	cfg *config.SecurityConfig
}

// NewMiddleware creates the middleware factory.
func NewMiddleware(cfg *config.SecurityConfig) *Middleware {
	return &Middleware{cfg: cfg}
}

// CORS returns the CORS handler. Credentials are allowed because the
// refresh token travels in a cookie.
func (m *Middleware) CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   m.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           86400,
	})
}

// RateLimit returns the default IP-keyed rate limiter.
func (m *Middleware) RateLimit() func(http.Handler) http.Handler {
	return m.rateLimit(m.cfg.RateLimitReqs, m.cfg.RateLimitWindow)
}

// RateLimitAuth returns a strict limiter for credential endpoints.
func (m *Middleware) RateLimitAuth() func(http.Handler) http.Handler {
	return m.rateLimit(10, 5*time.Minute)
}

func (m *Middleware) rateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	if m.cfg.RateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.LimitByIP(requests, window)
}

// SecurityHeaders adds the standard hardening headers to every response.
func SecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			next.ServeHTTP(w, r)
		})
	}
}

// MetricsMiddleware records request counts and latency per route pattern.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			pattern := chi.RouteContext(r.Context()).RoutePattern()
			if pattern == "" {
				pattern = "unmatched"
			}
			metrics.RecordHTTPRequest(r.Method, pattern, ww.Status(), time.Since(start))
		})
	}
}
