// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

// Package analysis proxies the news-sentiment service: it scrapes recent
// articles for a company and returns per-article and aggregate sentiment.
package analysis

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/stockpulse/stockpulse/internal/config"
	"github.com/stockpulse/stockpulse/internal/models"
)

// DefaultArticleLimit bounds how many articles are analyzed per request
// when the caller does not specify a limit.
const DefaultArticleLimit = 5

// Sentiment carries the analyzer's per-article label and raw VADER scores
// (neg, neu, pos, compound).
type Sentiment struct {
	Label  string             `json:"label"`
	Scores map[string]float64 `json:"scores"`
}

// Article is one analyzed news article.
type Article struct {
	Title     string    `json:"title"`
	Link      string    `json:"link,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	Sentiment Sentiment `json:"sentiment"`
	Entities  []string  `json:"entities"`
}

// Result is the sentiment summary for a company.
type Result struct {
	Company       string    `json:"company"`
	ArticleCount  int       `json:"article_count"`
	AvgCompound   float64   `json:"avg_compound"`
	PredictedMove string    `json:"predicted_move"`
	Articles      []Article `json:"articles"`
}

// Client calls the sentiment-analysis sidecar.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a sidecar client from configuration.
func NewClient(cfg *config.NLPConfig) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Analyze scrapes and scores recent news for the named company. A company
// name is required; limit falls back to DefaultArticleLimit.
func (c *Client) Analyze(ctx context.Context, company string, limit int) (*Result, error) {
	if company == "" {
		return nil, models.NewError(models.KindValidation, "company is required", nil)
	}
	if limit <= 0 {
		limit = DefaultArticleLimit
	}

	endpoint := fmt.Sprintf("%s/nlp/scrape-and-analyze?company=%s&limit=%s",
		c.baseURL, url.QueryEscape(company), strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building analysis request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, models.NewError(models.KindUpstream, "analysis service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, models.NewError(models.KindUpstream, "analysis service error", fmt.Errorf("service returned status %d", resp.StatusCode))
	}

	result := &Result{}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return nil, models.NewError(models.KindUpstream, "analysis service returned malformed data", err)
	}

	return result, nil
}
