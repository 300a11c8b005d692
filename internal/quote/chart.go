// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

package quote

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/stockpulse/stockpulse/internal/models"
)

// DefaultRange is used when a history request does not name a range.
const DefaultRange = "1mo"

// rangeIntervals maps each supported history range to the bar interval
// requested from the provider.
var rangeIntervals = map[string]string{
	"5d":  "30m",
	"1mo": "1d",
	"3mo": "1d",
	"6mo": "1d",
	"1y":  "1d",
}

// ValidRange reports whether r is a supported history range.
func ValidRange(r string) bool {
	_, ok := rangeIntervals[r]
	return ok
}

// chartResponse mirrors the provider's v8 chart payload.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
	} `json:"chart"`
}

// GetHistory fetches price history bars for a provider symbol over one of
// the supported ranges. An unsupported range is a validation error.
func (c *Client) GetHistory(ctx context.Context, symbol, historyRange string) (*models.PriceHistoryResponse, error) {
	if historyRange == "" {
		historyRange = DefaultRange
	}
	interval, ok := rangeIntervals[historyRange]
	if !ok {
		return nil, models.NewError(models.KindValidation, fmt.Sprintf("unsupported range %q", historyRange), nil)
	}

	result, err := c.execute(ctx, "chart", func() (any, error) {
		return c.fetchHistory(ctx, symbol, historyRange, interval)
	})
	if err != nil {
		return nil, err
	}

	points, ok := result.([]models.PricePoint)
	if !ok {
		return nil, fmt.Errorf("unexpected breaker result type %T", result)
	}

	return &models.PriceHistoryResponse{
		Symbol:   symbol,
		Range:    historyRange,
		Interval: interval,
		Prices:   points,
	}, nil
}

func (c *Client) fetchHistory(ctx context.Context, symbol, historyRange, interval string) ([]models.PricePoint, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s",
		c.baseURL, url.PathEscape(symbol), url.QueryEscape(historyRange), url.QueryEscape(interval))

	var payload chartResponse
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, models.NewError(models.KindNotFound, "symbol not found", fmt.Errorf("no chart result for %q", symbol))
	}

	result := payload.Chart.Result[0]
	bars := result.Indicators.Quote[0]

	points := make([]models.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(bars.Close) {
			break
		}
		points = append(points, models.PricePoint{
			Date:   time.Unix(ts, 0).UTC(),
			Open:   at(bars.Open, i),
			High:   at(bars.High, i),
			Low:    at(bars.Low, i),
			Close:  at(bars.Close, i),
			Volume: atInt(bars.Volume, i),
		})
	}

	return points, nil
}

func at(values []float64, i int) float64 {
	if i < len(values) {
		return values[i]
	}
	return 0
}

func atInt(values []int64, i int) int64 {
	if i < len(values) {
		return values[i]
	}
	return 0
}
