// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

// Package api exposes the HTTP surface of Stockpulse: session endpoints,
// company and watchlist management, alert listing, market data proxying
// and the WebSocket upgrade for live alert delivery.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stockpulse/stockpulse/internal/analysis"
	"github.com/stockpulse/stockpulse/internal/auth"
	"github.com/stockpulse/stockpulse/internal/config"
	"github.com/stockpulse/stockpulse/internal/models"
	"github.com/stockpulse/stockpulse/internal/websocket"
)

// CompanyStore is the company persistence surface the handlers need.
type CompanyStore interface {
	CreateCompany(ctx context.Context, company *models.Company) error
	GetCompanyByID(ctx context.Context, id int64) (*models.Company, error)
	ListCompanies(ctx context.Context) ([]models.Company, error)
}

// WatchlistStore is the watchlist persistence surface the handlers need.
type WatchlistStore interface {
	AddWatchlistItem(ctx context.Context, userID, companyID int64) (*models.WatchlistItem, error)
	RemoveWatchlistItem(ctx context.Context, userID, companyID int64) error
	ListWatchlistByUser(ctx context.Context, userID int64) ([]models.WatchlistItem, error)
}

// UserLister lists registered users.
type UserLister interface {
	ListUsers(ctx context.Context) ([]models.User, error)
}

// AlertService is the alert surface the handlers need.
type AlertService interface {
	List(ctx context.Context, userID int64) ([]models.Alert, error)
	MarkSeen(ctx context.Context, alertID, userID int64) (*models.Alert, error)
	CreateTest(ctx context.Context, userID int64, companyID *int64) (*models.Alert, error)
}

// HistorySource fetches price history from the quote provider.
type HistorySource interface {
	GetHistory(ctx context.Context, symbol, historyRange string) (*models.PriceHistoryResponse, error)
}

// SentimentSource fetches news-sentiment analysis for a company.
type SentimentSource interface {
	Analyze(ctx context.Context, company string, limit int) (*analysis.Result, error)
}

// Pinger reports database reachability for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RevocationProbe is the slice of the revocation store the readiness check
// exercises. A probe of an absent digest must come back ErrTokenRevoked on
// a healthy store.
type RevocationProbe interface {
	Get(ctx context.Context, digest string) (*auth.SessionEntry, error)
}

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config     *config.Config
	Sessions   *auth.SessionService
	Tokens     *auth.TokenManager
	Companies  CompanyStore
	Watchlist  WatchlistStore
	Users      UserLister
	Alerts     AlertService
	Prices     HistorySource
	Sentiment  SentimentSource
	Hub        *websocket.Hub
	DB         Pinger
	Revocation RevocationProbe
}

// Router holds handler dependencies.
type Router struct {
	cfg        *config.Config
	sessions   *auth.SessionService
	tokens     *auth.TokenManager
	companies  CompanyStore
	watchlist  WatchlistStore
	users      UserLister
	alerts     AlertService
	prices     HistorySource
	sentiment  SentimentSource
	hub        *websocket.Hub
	db         Pinger
	revocation RevocationProbe
}

// NewRouter builds the chi mux with all middleware and routes mounted.
func NewRouter(deps Deps) http.Handler {
	rt := &Router{
		cfg:        deps.Config,
		sessions:   deps.Sessions,
		tokens:     deps.Tokens,
		companies:  deps.Companies,
		watchlist:  deps.Watchlist,
		users:      deps.Users,
		alerts:     deps.Alerts,
		prices:     deps.Prices,
		sentiment:  deps.Sentiment,
		hub:        deps.Hub,
		db:         deps.DB,
		revocation: deps.Revocation,
	}

	mw := NewMiddleware(&deps.Config.Security)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(SecurityHeaders())
	r.Use(mw.CORS())
	r.Use(MetricsMiddleware())

	r.Get("/health/live", rt.handleHealthLive)
	r.Get("/health/ready", rt.handleHealthReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.RateLimit())

		r.Get("/health", rt.handleHealth)

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(mw.RateLimitAuth())
				r.Post("/signup", rt.handleSignup)
				r.Post("/login", rt.handleLogin)
			})
			r.Post("/refresh", rt.handleRefresh)
			r.Post("/logout", rt.handleLogout)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth(rt.tokens))
				r.Get("/me", rt.handleMe)
			})
		})

		// WebSocket clients cannot set headers, so the upgrade endpoint
		// authenticates from a query parameter as well.
		r.Get("/ws", rt.handleWS)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(rt.tokens))

			r.Get("/companies", rt.handleListCompanies)
			r.Post("/companies", rt.handleCreateCompany)

			r.Get("/watchlist", rt.handleListWatchlist)
			r.Post("/watchlist", rt.handleAddWatchlist)
			r.Delete("/watchlist/{companyID}", rt.handleRemoveWatchlist)

			r.Get("/alerts", rt.handleListAlerts)
			r.Post("/alerts/{alertID}/seen", rt.handleMarkAlertSeen)
			r.Post("/alerts/test", rt.handleCreateTestAlert)

			r.Get("/price/{symbol}/history", rt.handlePriceHistory)
			r.Get("/analysis/{company}", rt.handleAnalysis)

			r.Get("/users", rt.handleListUsers)
		})
	})

	return r
}
