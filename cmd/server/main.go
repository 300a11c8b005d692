// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

// Command server runs the Stockpulse backend: the HTTP API, the WebSocket
// hub for live alert delivery and the price-move scan engine, all under a
// Suture supervision tree.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stockpulse/stockpulse/internal/alert"
	"github.com/stockpulse/stockpulse/internal/analysis"
	"github.com/stockpulse/stockpulse/internal/api"
	"github.com/stockpulse/stockpulse/internal/auth"
	"github.com/stockpulse/stockpulse/internal/config"
	"github.com/stockpulse/stockpulse/internal/database"
	"github.com/stockpulse/stockpulse/internal/logging"
	"github.com/stockpulse/stockpulse/internal/quote"
	"github.com/stockpulse/stockpulse/internal/supervisor"
	"github.com/stockpulse/stockpulse/internal/websocket"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("environment", cfg.Server.Environment).
		Int("port", cfg.Server.Port).
		Bool("alerts_enabled", cfg.Alerts.Enabled).
		Msg("Stockpulse starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Warn().Err(err).Msg("Database close failed")
		}
	}()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	revocation, err := newRevocationStore(cfg)
	if err != nil {
		return fmt.Errorf("open revocation store: %w", err)
	}
	defer func() {
		if err := revocation.Close(); err != nil {
			logging.Warn().Err(err).Msg("Revocation store close failed")
		}
	}()

	tokens, err := auth.NewTokenManager(&cfg.Auth)
	if err != nil {
		return fmt.Errorf("token manager: %w", err)
	}
	sessions := auth.NewSessionService(db, tokens, revocation)

	quotes := quote.NewClient(&cfg.Quote)
	sentiment := analysis.NewClient(&cfg.NLP)

	hub := websocket.NewHub()
	engine := alert.NewEngine(db, quotes, hub, &cfg.Alerts)
	alerts := alert.NewService(db, hub)

	router := api.NewRouter(api.Deps{
		Config:     cfg,
		Sessions:   sessions,
		Tokens:     tokens,
		Companies:  db,
		Watchlist:  db,
		Users:      db,
		Alerts:     alerts,
		Prices:     quotes,
		Sentiment:  sentiment,
		Hub:        hub,
		DB:         db,
		Revocation: revocation,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	treeCfg := supervisor.DefaultTreeConfig()
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeCfg)
	tree.AddMessagingService(supervisor.NewRunnerService("websocket-hub", hub))
	if cfg.Alerts.Enabled {
		tree.AddMessagingService(supervisor.NewRunnerService("alert-engine", engine))
	} else {
		logging.Info().Msg("Alert scan engine disabled by configuration")
	}
	tree.AddAPIService(supervisor.NewHTTPService(server, treeCfg.ShutdownTimeout))

	err = tree.Serve(ctx)
	if errors.Is(err, context.Canceled) {
		logging.Info().Msg("Stockpulse stopped")
		return nil
	}
	return err
}

// newRevocationStore opens the Badger-backed refresh-token store, or the
// in-memory one when no path is configured.
func newRevocationStore(cfg *config.Config) (auth.RevocationStore, error) {
	if cfg.Auth.RevocationPath == "" {
		logging.Warn().Msg("No revocation path configured; refresh sessions will not survive restarts")
		return auth.NewMemoryRevocationStore(), nil
	}
	return auth.NewBadgerRevocationStore(cfg.Auth.RevocationPath)
}
