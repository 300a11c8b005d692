// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

package analysis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockpulse/stockpulse/internal/config"
	"github.com/stockpulse/stockpulse/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(&config.NLPConfig{BaseURL: server.URL, Timeout: 2 * time.Second})
}

func TestAnalyzeSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/nlp/scrape-and-analyze", r.URL.Path)
		assert.Equal(t, "Tata Motors", r.URL.Query().Get("company"))
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"company":"Tata Motors","article_count":1,"avg_compound":0.42,"predicted_move":"up","articles":[{"title":"Q2 beats estimates","link":"https://example.com/a","summary":"Strong quarter.","sentiment":{"label":"positive","scores":{"neg":0.0,"neu":0.5,"pos":0.5,"compound":0.8}},"entities":["Tata Motors"]}]}`))
	})

	result, err := client.Analyze(context.Background(), "Tata Motors", 3)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ArticleCount)
	assert.InDelta(t, 0.42, result.AvgCompound, 1e-9)
	assert.Equal(t, "up", result.PredictedMove)
	require.Len(t, result.Articles, 1)
	assert.Equal(t, "positive", result.Articles[0].Sentiment.Label)
	assert.InDelta(t, 0.8, result.Articles[0].Sentiment.Scores["compound"], 1e-9)
	assert.Equal(t, []string{"Tata Motors"}, result.Articles[0].Entities)
}

func TestAnalyzeDefaultsLimit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"company":"X","article_count":0,"avg_compound":0,"predicted_move":"neutral","articles":[]}`))
	})

	_, err := client.Analyze(context.Background(), "X", 0)
	require.NoError(t, err)
}

func TestAnalyzeRequiresCompany(t *testing.T) {
	client := NewClient(&config.NLPConfig{BaseURL: "http://localhost:0", Timeout: time.Second})

	_, err := client.Analyze(context.Background(), "", 3)
	require.Error(t, err)
	assert.Equal(t, models.KindValidation, models.KindOf(err))
}

func TestAnalyzeServiceError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Analyze(context.Background(), "X", 3)
	require.Error(t, err)
	assert.Equal(t, models.KindUpstream, models.KindOf(err))
}

func TestAnalyzeUnreachableService(t *testing.T) {
	client := NewClient(&config.NLPConfig{BaseURL: "http://127.0.0.1:1", Timeout: 500 * time.Millisecond})

	_, err := client.Analyze(context.Background(), "X", 3)
	require.Error(t, err)
	assert.Equal(t, models.KindUpstream, models.KindOf(err))
}
