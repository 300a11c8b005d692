// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

// Package alert contains the price-move scan engine and the alert service
// backing the HTTP endpoints.
package alert

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/stockpulse/stockpulse/internal/config"
	"github.com/stockpulse/stockpulse/internal/logging"
	"github.com/stockpulse/stockpulse/internal/metrics"
	"github.com/stockpulse/stockpulse/internal/models"
	"github.com/stockpulse/stockpulse/internal/quote"
)

// Store is the persistence surface the engine needs.
type Store interface {
	ListWatchlistPairs(ctx context.Context) ([]models.WatchlistPair, error)
	AlertExistsSince(ctx context.Context, userID, companyID int64, alertType string, cutoff time.Time) (bool, error)
	CreateAlert(ctx context.Context, alert *models.Alert) error
}

// QuoteSource fetches price snapshots for provider symbols.
type QuoteSource interface {
	GetQuote(ctx context.Context, symbol string) (*models.QuoteSnapshot, error)
}

// Publisher delivers a freshly created alert to the owner's live connections.
type Publisher interface {
	PublishAlert(alert *models.Alert)
}

// Engine sweeps all watchlist pairs on a fixed interval and creates
// price-move alerts for moves at or above the configured threshold.
// Runs never overlap: a firing that arrives while a sweep is still
// executing is skipped.
type Engine struct {
	store     Store
	quotes    QuoteSource
	publisher Publisher

	interval     time.Duration
	threshold    float64
	dedupeWindow time.Duration

	// running guards against overlapping sweeps.
	running sync.Mutex
}

// NewEngine wires a scan engine from its collaborators and configuration.
func NewEngine(store Store, quotes QuoteSource, publisher Publisher, cfg *config.AlertsConfig) *Engine {
	return &Engine{
		store:        store,
		quotes:       quotes,
		publisher:    publisher,
		interval:     cfg.ScanInterval,
		threshold:    cfg.MoveThreshold,
		dedupeWindow: cfg.DedupeWindow,
	}
}

// RunWithContext runs the scan loop until the context is canceled. The
// first sweep fires one interval after start, matching a cron-style
// schedule.
func (e *Engine) RunWithContext(ctx context.Context) error {
	logging.Info().
		Dur("interval", e.interval).
		Float64("threshold", e.threshold).
		Dur("dedupe_window", e.dedupeWindow).
		Msg("Alert scan engine started")

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Alert scan engine stopped")
			return ctx.Err()
		case <-ticker.C:
			e.Scan(ctx)
		}
	}
}

// Scan performs one sweep. If a sweep is already in progress the call
// returns immediately without scanning.
func (e *Engine) Scan(ctx context.Context) {
	if !e.running.TryLock() {
		metrics.ScanRunsTotal.WithLabelValues("skipped").Inc()
		logging.Warn().Msg("Previous scan still running, skipping this firing")
		return
	}
	defer e.running.Unlock()

	start := time.Now()
	if err := e.scanOnce(ctx); err != nil {
		metrics.ScanRunsTotal.WithLabelValues("failed").Inc()
		logging.Error().Err(err).Msg("Scan run aborted")
		return
	}

	metrics.ScanRunsTotal.WithLabelValues("completed").Inc()
	metrics.ScanDuration.Observe(time.Since(start).Seconds())
}

// fetchResult caches one provider outcome for the duration of a sweep so
// a company watched by many users is fetched once.
type fetchResult struct {
	snapshot *models.QuoteSnapshot
	err      error
}

func (e *Engine) scanOnce(ctx context.Context) error {
	pairs, err := e.store.ListWatchlistPairs(ctx)
	if err != nil {
		return fmt.Errorf("listing watchlist pairs: %w", err)
	}
	if len(pairs) == 0 {
		logging.Debug().Msg("No watchlist pairs, scan is a no-op")
		return nil
	}

	dedupeSince := time.Now().Add(-e.dedupeWindow)
	snapshots := make(map[string]fetchResult)

	for _, pair := range pairs {
		e.scanPair(ctx, &pair, dedupeSince, snapshots)
	}

	return nil
}

// scanPair evaluates one (user, company) pair. Failures are contained to
// the pair.
func (e *Engine) scanPair(ctx context.Context, pair *models.WatchlistPair, dedupeSince time.Time, snapshots map[string]fetchResult) {
	symbol := quote.MapSymbol(&pair.Company)

	result, ok := snapshots[symbol]
	if !ok {
		snapshot, err := e.quotes.GetQuote(ctx, symbol)
		result = fetchResult{snapshot: snapshot, err: err}
		snapshots[symbol] = result
	}
	if result.err != nil {
		metrics.ScanPairsTotal.WithLabelValues("failed").Inc()
		logging.Warn().
			Err(result.err).
			Str("symbol", symbol).
			Int64("user_id", pair.User.ID).
			Msg("Quote fetch failed, skipping pair")
		return
	}

	snapshot := result.snapshot
	if snapshot.PreviousClose == 0 || snapshot.LastPrice == 0 {
		metrics.ScanPairsTotal.WithLabelValues("failed").Inc()
		logging.Warn().Str("symbol", symbol).Msg("Incomplete quote data, skipping pair")
		return
	}

	changePct := (snapshot.LastPrice - snapshot.PreviousClose) / snapshot.PreviousClose
	if math.Abs(changePct) < e.threshold {
		metrics.ScanPairsTotal.WithLabelValues("below_threshold").Inc()
		return
	}

	exists, err := e.store.AlertExistsSince(ctx, pair.User.ID, pair.Company.ID, models.AlertTypePriceMove, dedupeSince)
	if err != nil {
		metrics.ScanPairsTotal.WithLabelValues("failed").Inc()
		logging.Warn().Err(err).Int64("user_id", pair.User.ID).Int64("company_id", pair.Company.ID).Msg("Dedupe check failed, skipping pair")
		return
	}
	if exists {
		metrics.ScanPairsTotal.WithLabelValues("deduplicated").Inc()
		return
	}

	companyID := pair.Company.ID
	alert := &models.Alert{
		UserID:    pair.User.ID,
		CompanyID: &companyID,
		Type:      models.AlertTypePriceMove,
		Message:   moveMessage(pair.Company.Ticker, changePct),
	}
	if err := e.store.CreateAlert(ctx, alert); err != nil {
		metrics.ScanPairsTotal.WithLabelValues("failed").Inc()
		logging.Error().Err(err).Int64("user_id", pair.User.ID).Msg("Failed to create alert")
		return
	}

	metrics.ScanPairsTotal.WithLabelValues("alerted").Inc()
	metrics.AlertsCreatedTotal.WithLabelValues(models.AlertTypePriceMove).Inc()
	logging.Info().
		Int64("user_id", pair.User.ID).
		Str("ticker", pair.Company.Ticker).
		Float64("change_pct", changePct).
		Msg("Price-move alert created")

	e.publisher.PublishAlert(alert)
}

// moveMessage formats the user-facing alert text with the move rounded to
// one decimal place.
func moveMessage(ticker string, changePct float64) string {
	pct := math.Abs(changePct) * 100
	direction := "moved up"
	if changePct < 0 {
		direction = "dropped"
	}
	return fmt.Sprintf("%s %s %.1f%% today.", strings.ToUpper(ticker), direction, pct)
}
