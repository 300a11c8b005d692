// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockpulse/stockpulse/internal/models"
	"github.com/stockpulse/stockpulse/internal/websocket"
)

func wsURL(env *testEnv, token string) string {
	base := strings.Replace(env.server.URL, "http://", "ws://", 1)
	url := base + "/api/v1/ws"
	if token != "" {
		url += "?token=" + token
	}
	return url
}

func TestWSRejectsMissingToken(t *testing.T) {
	env := newTestEnv(t)

	//nolint:bodyclose // the dial fails before a body exists
	_, resp, err := gorilla.DefaultDialer.Dial(wsURL(env, ""), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWSRejectsInvalidToken(t *testing.T) {
	env := newTestEnv(t)

	//nolint:bodyclose // the dial fails before a body exists
	_, resp, err := gorilla.DefaultDialer.Dial(wsURL(env, "not-a-token"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWSDeliversAlertToOwner(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signupUser(t, "amara@example.com")

	conn, resp, err := gorilla.DefaultDialer.Dial(wsURL(env, token), nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.Eventually(t, func() bool {
		return env.hub.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	companyID := int64(1)
	env.hub.PublishAlert(&models.Alert{
		ID:        1,
		UserID:    1,
		CompanyID: &companyID,
		Type:      models.AlertTypePriceMove,
		Message:   "TCS moved up 3.4% today.",
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg websocket.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, websocket.EventAlertNew, msg.Event)

	payload, ok := msg.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "TCS moved up 3.4% today.", payload["message"])
}
