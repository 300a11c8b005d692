// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

package quote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/stockpulse/stockpulse/internal/config"
	"github.com/stockpulse/stockpulse/internal/logging"
	"github.com/stockpulse/stockpulse/internal/metrics"
	"github.com/stockpulse/stockpulse/internal/models"
)

// Client talks to the market-data provider. All calls go through a shared
// rate limiter and a circuit breaker so one bad provider day cannot melt
// the scan loop.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[any]
}

// NewClient builds a provider client from configuration.
func NewClient(cfg *config.QuoteConfig) *Client {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	cbName := "quote-provider"
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Quote provider circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
		breaker:    breaker,
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// quoteResponse mirrors the provider's v7 quote payload.
type quoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol                     string  `json:"symbol"`
			RegularMarketPrice         float64 `json:"regularMarketPrice"`
			RegularMarketPreviousClose float64 `json:"regularMarketPreviousClose"`
		} `json:"result"`
	} `json:"quoteResponse"`
}

// GetQuote fetches the current snapshot for one provider symbol.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.QuoteSnapshot, error) {
	result, err := c.execute(ctx, "quote", func() (any, error) {
		return c.fetchQuote(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}

	snapshot, ok := result.(*models.QuoteSnapshot)
	if !ok {
		return nil, fmt.Errorf("unexpected breaker result type %T", result)
	}
	return snapshot, nil
}

func (c *Client) fetchQuote(ctx context.Context, symbol string) (*models.QuoteSnapshot, error) {
	endpoint := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", c.baseURL, url.QueryEscape(symbol))

	var payload quoteResponse
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	if len(payload.QuoteResponse.Result) == 0 {
		return nil, models.NewError(models.KindNotFound, "symbol not found", fmt.Errorf("no quote result for %q", symbol))
	}

	result := payload.QuoteResponse.Result[0]
	if result.RegularMarketPreviousClose == 0 {
		return nil, models.NewError(models.KindUpstream, "quote provider returned incomplete data", fmt.Errorf("zero previous close for %q", symbol))
	}

	return &models.QuoteSnapshot{
		Symbol:        result.Symbol,
		LastPrice:     result.RegularMarketPrice,
		PreviousClose: result.RegularMarketPreviousClose,
		FetchedAt:     time.Now().UTC(),
	}, nil
}

// execute runs fn behind the rate limiter and circuit breaker, recording
// provider metrics.
func (c *Client) execute(ctx context.Context, endpoint string, fn func() (any, error)) (any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, models.NewError(models.KindUpstream, "quote provider unavailable", err)
	}

	start := time.Now()
	result, err := c.breaker.Execute(fn)
	metrics.QuoteRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.QuoteRequestsTotal.WithLabelValues(endpoint, "rejected").Inc()
			return nil, models.NewError(models.KindUpstream, "quote provider unavailable", err)
		}
		metrics.QuoteRequestsTotal.WithLabelValues(endpoint, "failure").Inc()
		return nil, err
	}

	metrics.QuoteRequestsTotal.WithLabelValues(endpoint, "success").Inc()
	return result, nil
}

// getJSON performs a GET request and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("building provider request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "stockpulse/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.NewError(models.KindUpstream, "quote provider unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return models.NewError(models.KindNotFound, "symbol not found", fmt.Errorf("provider returned 404"))
	case resp.StatusCode != http.StatusOK:
		return models.NewError(models.KindUpstream, "quote provider error", fmt.Errorf("provider returned status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return models.NewError(models.KindUpstream, "quote provider returned malformed data", err)
	}
	return nil
}
