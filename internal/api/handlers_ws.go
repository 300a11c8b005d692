// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"strings"

	"github.com/stockpulse/stockpulse/internal/models"
	"github.com/stockpulse/stockpulse/internal/websocket"
)

// wsToken extracts the access token for the upgrade request. Browser
// WebSocket clients cannot set an Authorization header, so a "token"
// query parameter is accepted as well.
func wsToken(r *http.Request) string {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return token
	}
	return r.URL.Query().Get("token")
}

func (rt *Router) handleWS(w http.ResponseWriter, r *http.Request) {
	token := wsToken(r)
	if token == "" {
		respondAppError(w, r, models.NewError(models.KindAuth, "authentication required", nil))
		return
	}

	claims, err := rt.tokens.ValidateAccessToken(token)
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	websocket.ServeWS(rt.hub, w, r, claims.UserID)
}
