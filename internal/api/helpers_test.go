// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/stockpulse/stockpulse/internal/alert"
	"github.com/stockpulse/stockpulse/internal/analysis"
	"github.com/stockpulse/stockpulse/internal/auth"
	"github.com/stockpulse/stockpulse/internal/config"
	"github.com/stockpulse/stockpulse/internal/models"
	"github.com/stockpulse/stockpulse/internal/websocket"
)

// memStore is an in-memory stand-in for the Postgres layer, implementing
// every store interface the router consumes.
type memStore struct {
	mu          sync.Mutex
	users       map[int64]*models.User
	companies   map[int64]*models.Company
	watchlist   []models.WatchlistItem
	alerts      []models.Alert
	nextUser    int64
	nextCompany int64
	nextItem    int64
	nextAlert   int64
	pingErr     error
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[int64]*models.User),
		companies: make(map[int64]*models.Company),
	}
}

func (m *memStore) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return models.NewError(models.KindConflict, "email already registered", nil)
		}
	}
	m.nextUser++
	user.ID = m.nextUser
	user.CreatedAt = time.Now().UTC()
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *memStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, models.NewError(models.KindNotFound, "user not found", nil)
}

func (m *memStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, models.NewError(models.KindNotFound, "user not found", nil)
	}
	clone := *u
	return &clone, nil
}

func (m *memStore) ListUsers(ctx context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) CreateCompany(ctx context.Context, company *models.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.companies {
		if c.Ticker == company.Ticker {
			return models.NewError(models.KindConflict, "ticker already exists", nil)
		}
	}
	m.nextCompany++
	company.ID = m.nextCompany
	company.CreatedAt = time.Now().UTC()
	clone := *company
	m.companies[company.ID] = &clone
	return nil
}

func (m *memStore) GetCompanyByID(ctx context.Context, id int64) (*models.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[id]
	if !ok {
		return nil, models.NewError(models.KindNotFound, "company not found", nil)
	}
	clone := *c
	return &clone, nil
}

func (m *memStore) ListCompanies(ctx context.Context) ([]models.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Company, 0, len(m.companies))
	for _, c := range m.companies {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out, nil
}

func (m *memStore) AddWatchlistItem(ctx context.Context, userID, companyID int64) (*models.WatchlistItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.companies[companyID]; !ok {
		return nil, models.NewError(models.KindNotFound, "company not found", nil)
	}
	for _, item := range m.watchlist {
		if item.UserID == userID && item.CompanyID == companyID {
			return nil, models.NewError(models.KindConflict, "company already on watchlist", nil)
		}
	}
	m.nextItem++
	item := models.WatchlistItem{
		ID:        m.nextItem,
		UserID:    userID,
		CompanyID: companyID,
		CreatedAt: time.Now().UTC(),
	}
	m.watchlist = append(m.watchlist, item)
	return &item, nil
}

func (m *memStore) RemoveWatchlistItem(ctx context.Context, userID, companyID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, item := range m.watchlist {
		if item.UserID == userID && item.CompanyID == companyID {
			m.watchlist = append(m.watchlist[:i], m.watchlist[i+1:]...)
			return nil
		}
	}
	return models.NewError(models.KindNotFound, "watchlist entry not found", nil)
}

func (m *memStore) ListWatchlistByUser(ctx context.Context, userID int64) ([]models.WatchlistItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.WatchlistItem
	for _, item := range m.watchlist {
		if item.UserID == userID {
			if c, ok := m.companies[item.CompanyID]; ok {
				clone := *c
				item.Company = &clone
			}
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *memStore) CreateAlert(ctx context.Context, a *models.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextAlert++
	a.ID = m.nextAlert
	a.CreatedAt = time.Now().UTC()
	m.alerts = append(m.alerts, *a)
	return nil
}

func (m *memStore) ListAlertsByUser(ctx context.Context, userID int64) ([]models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Alert
	for i := len(m.alerts) - 1; i >= 0; i-- {
		if m.alerts[i].UserID == userID {
			out = append(out, m.alerts[i])
		}
	}
	return out, nil
}

func (m *memStore) MarkAlertSeen(ctx context.Context, alertID, userID int64) (*models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.alerts {
		if m.alerts[i].ID == alertID && m.alerts[i].UserID == userID {
			m.alerts[i].Seen = true
			clone := m.alerts[i]
			return &clone, nil
		}
	}
	return nil, models.NewError(models.KindNotFound, "alert not found", nil)
}

func (m *memStore) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pingErr
}

type fakeHistory struct {
	resp *models.PriceHistoryResponse
	err  error
}

func (f *fakeHistory) GetHistory(ctx context.Context, symbol, historyRange string) (*models.PriceHistoryResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	resp := *f.resp
	resp.Symbol = symbol
	if historyRange != "" {
		resp.Range = historyRange
	}
	return &resp, nil
}

type fakeSentiment struct {
	result *analysis.Result
	err    error
	limit  int
}

func (f *fakeSentiment) Analyze(ctx context.Context, company string, limit int) (*analysis.Result, error) {
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	result := *f.result
	result.Company = company
	return &result, nil
}

type testEnv struct {
	server    *httptest.Server
	store     *memStore
	hub       *websocket.Hub
	history   *fakeHistory
	sentiment *fakeSentiment
	tokens    *auth.TokenManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{Environment: "test"},
		Auth: config.AuthConfig{
			JWTSecret:       "0123456789abcdef0123456789abcdef",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 24 * time.Hour,
		},
		Security: config.SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitDisabled: true,
		},
	}

	tokens, err := auth.NewTokenManager(&cfg.Auth)
	require.NoError(t, err)

	store := newMemStore()
	revocation := auth.NewMemoryRevocationStore()
	sessions := auth.NewSessionService(store, tokens, revocation)

	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = hub.RunWithContext(ctx) }()

	history := &fakeHistory{resp: &models.PriceHistoryResponse{
		Range:    "1mo",
		Interval: "1d",
		Prices: []models.PricePoint{
			{Date: time.Now().UTC(), Open: 100, High: 105, Low: 99, Close: 104, Volume: 12345},
		},
	}}
	sentiment := &fakeSentiment{result: &analysis.Result{
		ArticleCount:  1,
		AvgCompound:   0.62,
		PredictedMove: "up",
		Articles: []analysis.Article{
			{
				Title:     "Earnings beat estimates",
				Link:      "https://example.com/1",
				Sentiment: analysis.Sentiment{Label: "positive", Scores: map[string]float64{"compound": 0.8}},
				Entities:  []string{"TCS"},
			},
		},
	}}

	router := NewRouter(Deps{
		Config:     cfg,
		Sessions:   sessions,
		Tokens:     tokens,
		Companies:  store,
		Watchlist:  store,
		Users:      store,
		Alerts:     alert.NewService(store, hub),
		Prices:     history,
		Sentiment:  sentiment,
		Hub:        hub,
		DB:         store,
		Revocation: revocation,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testEnv{
		server:    server,
		store:     store,
		hub:       hub,
		history:   history,
		sentiment: sentiment,
		tokens:    tokens,
	}
}

// envelope mirrors the response wrapper for assertions.
type envelope struct {
	Status string           `json:"status"`
	Data   json.RawMessage  `json:"data"`
	Error  *models.APIError `json:"error"`
}

// doRequest performs an HTTP call against the test server and decodes the
// response envelope. token, when non-empty, is sent as a bearer credential.
func (e *testEnv) doRequest(t *testing.T, method, path, token string, body interface{}, cookies ...*http.Cookie) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), "body: %s", raw)
	}
	return resp, env
}

// signupUser registers a user and returns the access token plus the refresh
// cookie issued alongside it.
func (e *testEnv) signupUser(t *testing.T, email string) (string, *http.Cookie) {
	t.Helper()

	resp, env := e.doRequest(t, http.MethodPost, "/api/v1/auth/signup", "", models.SignupRequest{
		Name:     "Test User",
		Email:    email,
		Password: "correct horse battery",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var login models.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.NotEmpty(t, login.AccessToken)

	cookie := refreshCookie(resp)
	require.NotNil(t, cookie, "signup must set the refresh cookie")
	return login.AccessToken, cookie
}

func refreshCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == refreshCookieName {
			return c
		}
	}
	return nil
}
