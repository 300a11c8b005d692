// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/stockpulse/stockpulse/internal/auth"
	"github.com/stockpulse/stockpulse/internal/logging"
	"github.com/stockpulse/stockpulse/internal/models"
)

const refreshCookieName = "refresh_token"

// refreshCookiePath scopes the cookie to the endpoints that consume it.
const refreshCookiePath = "/api/v1/auth"

func (rt *Router) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     refreshCookiePath,
		MaxAge:   int(rt.tokens.RefreshTTL().Seconds()),
		HttpOnly: true,
		Secure:   rt.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (rt *Router) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   rt.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (rt *Router) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondAppError(w, r, err)
		return
	}

	user, pair, err := rt.sessions.Signup(r.Context(), &req)
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	logging.Info().Int64("user_id", user.ID).Msg("User signed up")

	rt.setRefreshCookie(w, pair.RefreshToken)
	respondData(w, r, http.StatusCreated, models.LoginResponse{
		AccessToken: pair.AccessToken,
		User:        user.Public(),
	})
}

func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondAppError(w, r, err)
		return
	}

	user, pair, err := rt.sessions.Login(r.Context(), &req)
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	rt.setRefreshCookie(w, pair.RefreshToken)
	respondData(w, r, http.StatusOK, models.LoginResponse{
		AccessToken: pair.AccessToken,
		User:        user.Public(),
	})
}

func (rt *Router) handleRefresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		respondAppError(w, r, models.NewError(models.KindAuth, "invalid token", nil))
		return
	}

	_, pair, err := rt.sessions.Refresh(r.Context(), cookie.Value)
	if err != nil {
		rt.clearRefreshCookie(w)
		respondAppError(w, r, err)
		return
	}

	rt.setRefreshCookie(w, pair.RefreshToken)
	respondData(w, r, http.StatusOK, models.RefreshResponse{
		AccessToken: pair.AccessToken,
	})
}

func (rt *Router) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := ""
	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		token = cookie.Value
	}

	if err := rt.sessions.Logout(r.Context(), token); err != nil {
		respondAppError(w, r, err)
		return
	}

	rt.clearRefreshCookie(w)
	respondData(w, r, http.StatusOK, map[string]string{"message": "logged out"})
}

func (rt *Router) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondAppError(w, r, models.NewError(models.KindAuth, "authentication required", nil))
		return
	}

	user, err := rt.sessions.Me(r.Context(), userID)
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	respondData(w, r, http.StatusOK, user.Public())
}
