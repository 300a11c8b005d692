// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockpulse/stockpulse/internal/models"
)

func createCompany(t *testing.T, env *testEnv, token, ticker, exchange string) models.Company {
	t.Helper()

	resp, body := env.doRequest(t, http.MethodPost, "/api/v1/companies", token, models.CreateCompanyRequest{
		Ticker:   ticker,
		Name:     ticker + " Ltd",
		Exchange: exchange,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var company models.Company
	require.NoError(t, json.Unmarshal(body.Data, &company))
	return company
}

func TestCreateCompanyUppercasesTicker(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signupUser(t, "amara@example.com")

	company := createCompany(t, env, token, "tcs", "NSE")
	assert.Equal(t, "TCS", company.Ticker)
	assert.NotZero(t, company.ID)
}

func TestCreateCompanyDuplicateTicker(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signupUser(t, "amara@example.com")
	createCompany(t, env, token, "TCS", "NSE")

	resp, body := env.doRequest(t, http.MethodPost, "/api/v1/companies", token, models.CreateCompanyRequest{
		Ticker: "tcs",
		Name:   "Duplicate",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", body.Error.Code)
}

func TestListCompanies(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signupUser(t, "amara@example.com")
	createCompany(t, env, token, "TCS", "NSE")
	createCompany(t, env, token, "INFY", "NSE")

	resp, body := env.doRequest(t, http.MethodGet, "/api/v1/companies", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var companies []models.Company
	require.NoError(t, json.Unmarshal(body.Data, &companies))
	require.Len(t, companies, 2)
}

func TestWatchlistLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signupUser(t, "amara@example.com")
	company := createCompany(t, env, token, "TCS", "NSE")

	resp, body := env.doRequest(t, http.MethodPost, "/api/v1/watchlist", token, models.AddWatchlistRequest{
		CompanyID: company.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Adding the same company twice conflicts.
	resp, body = env.doRequest(t, http.MethodPost, "/api/v1/watchlist", token, models.AddWatchlistRequest{
		CompanyID: company.ID,
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = env.doRequest(t, http.MethodGet, "/api/v1/watchlist", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var items []models.WatchlistItem
	require.NoError(t, json.Unmarshal(body.Data, &items))
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Company)
	assert.Equal(t, "TCS", items[0].Company.Ticker)

	resp, _ = env.doRequest(t, http.MethodDelete, fmt.Sprintf("/api/v1/watchlist/%d", company.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = env.doRequest(t, http.MethodDelete, fmt.Sprintf("/api/v1/watchlist/%d", company.ID), token, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
}

func TestAddWatchlistUnknownCompany(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signupUser(t, "amara@example.com")

	resp, body := env.doRequest(t, http.MethodPost, "/api/v1/watchlist", token, models.AddWatchlistRequest{
		CompanyID: 999,
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
}

func TestRemoveWatchlistRejectsBadID(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signupUser(t, "amara@example.com")

	resp, body := env.doRequest(t, http.MethodDelete, "/api/v1/watchlist/abc", token, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
}

func TestAlertLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signupUser(t, "amara@example.com")
	company := createCompany(t, env, token, "TCS", "NSE")

	// Test alert with a company reference.
	resp, body := env.doRequest(t, http.MethodPost, "/api/v1/alerts/test", token, models.CreateTestAlertRequest{
		CompanyID: &company.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Alert
	require.NoError(t, json.Unmarshal(body.Data, &created))
	assert.Equal(t, models.AlertTypeTest, created.Type)
	require.NotNil(t, created.CompanyID)
	assert.Equal(t, company.ID, *created.CompanyID)

	// Test alert without a body at all.
	resp, body = env.doRequest(t, http.MethodPost, "/api/v1/alerts/test", token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var companyless models.Alert
	require.NoError(t, json.Unmarshal(body.Data, &companyless))
	assert.Nil(t, companyless.CompanyID)

	resp, body = env.doRequest(t, http.MethodGet, "/api/v1/alerts", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var alerts []models.Alert
	require.NoError(t, json.Unmarshal(body.Data, &alerts))
	require.Len(t, alerts, 2)
	assert.Equal(t, companyless.ID, alerts[0].ID, "newest first")

	resp, body = env.doRequest(t, http.MethodPost, fmt.Sprintf("/api/v1/alerts/%d/seen", created.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var seen models.Alert
	require.NoError(t, json.Unmarshal(body.Data, &seen))
	assert.True(t, seen.Seen)
}

func TestTestAlertUnknownCompany(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signupUser(t, "amara@example.com")

	unknown := int64(999)
	resp, body := env.doRequest(t, http.MethodPost, "/api/v1/alerts/test", token, models.CreateTestAlertRequest{
		CompanyID: &unknown,
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
}

func TestMarkSeenForeignAlert(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.signupUser(t, "owner@example.com")
	other, _ := env.signupUser(t, "other@example.com")

	resp, body := env.doRequest(t, http.MethodPost, "/api/v1/alerts/test", owner, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Alert
	require.NoError(t, json.Unmarshal(body.Data, &created))

	resp, body = env.doRequest(t, http.MethodPost, fmt.Sprintf("/api/v1/alerts/%d/seen", created.ID), other, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
}

func TestPriceHistory(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signupUser(t, "amara@example.com")

	resp, body := env.doRequest(t, http.MethodGet, "/api/v1/price/TCS.NS/history?range=5d", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var history models.PriceHistoryResponse
	require.NoError(t, json.Unmarshal(body.Data, &history))
	assert.Equal(t, "TCS.NS", history.Symbol)
	assert.Equal(t, "5d", history.Range)
	require.Len(t, history.Prices, 1)
}

func TestPriceHistoryProviderError(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signupUser(t, "amara@example.com")
	env.history.err = models.NewError(models.KindUpstream, "quote provider unavailable", nil)

	resp, body := env.doRequest(t, http.MethodGet, "/api/v1/price/TCS.NS/history", token, nil)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "UPSTREAM_ERROR", body.Error.Code)
}

func TestAnalysis(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signupUser(t, "amara@example.com")

	resp, body := env.doRequest(t, http.MethodGet, "/api/v1/analysis/Tata%20Consultancy?limit=3", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, env.sentiment.limit)

	var result struct {
		Company       string  `json:"company"`
		AvgCompound   float64 `json:"avg_compound"`
		PredictedMove string  `json:"predicted_move"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &result))
	assert.Equal(t, "Tata Consultancy", result.Company)
	assert.InDelta(t, 0.62, result.AvgCompound, 1e-9)
	assert.Equal(t, "up", result.PredictedMove)
}

func TestAnalysisRejectsBadLimit(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signupUser(t, "amara@example.com")

	resp, body := env.doRequest(t, http.MethodGet, "/api/v1/analysis/TCS?limit=0", token, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
}

func TestListUsersOmitsSensitiveFields(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signupUser(t, "amara@example.com")

	resp, body := env.doRequest(t, http.MethodGet, "/api/v1/users", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, string(body.Data), "password")

	var users []models.PublicUser
	require.NoError(t, json.Unmarshal(body.Data, &users))
	require.Len(t, users, 1)
	assert.Equal(t, "amara@example.com", users[0].Email)
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.doRequest(t, http.MethodGet, "/health/live", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.doRequest(t, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	env.store.pingErr = fmt.Errorf("connection refused")
	resp, body := env.doRequest(t, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "NOT_READY", body.Error.Code)
}

func TestHealthReportsComponents(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.doRequest(t, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "up", health.Components["database"])
	assert.Equal(t, "up", health.Components["revocation"])

	env.store.pingErr = fmt.Errorf("connection refused")
	resp, body = env.doRequest(t, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body.Data, &health))
	assert.Equal(t, "degraded", health.Status)
	assert.Equal(t, "down", health.Components["database"])
	assert.Equal(t, "up", health.Components["revocation"])
}

func TestMetricsEndpointExposed(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.server.Client().Get(env.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
