// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/stockpulse/stockpulse/internal/auth"
	"github.com/stockpulse/stockpulse/internal/models"
)

const healthProbeTimeout = 5 * time.Second

func (rt *Router) handleHealthLive(w http.ResponseWriter, r *http.Request) {
	respondData(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

func (rt *Router) handleHealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
	defer cancel()

	if rt.checkDatabase(ctx) != nil || rt.checkRevocation(ctx) != nil {
		respondJSON(w, r, http.StatusServiceUnavailable, &models.APIResponse{
			Status: "error",
			Error: &models.APIError{
				Code:    "NOT_READY",
				Message: "dependencies unreachable",
			},
		})
		return
	}
	respondData(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// handleHealth reports per-component status for dashboards.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
	defer cancel()

	components := map[string]string{
		"database":   "up",
		"revocation": "up",
	}
	status := http.StatusOK

	if err := rt.checkDatabase(ctx); err != nil {
		components["database"] = "down"
		status = http.StatusServiceUnavailable
	}
	if err := rt.checkRevocation(ctx); err != nil {
		components["revocation"] = "down"
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusOK {
		respondData(w, r, status, map[string]interface{}{
			"status":     "ok",
			"components": components,
		})
		return
	}
	respondJSON(w, r, status, &models.APIResponse{
		Status: "error",
		Data: map[string]interface{}{
			"status":     "degraded",
			"components": components,
		},
		Error: &models.APIError{
			Code:    "NOT_READY",
			Message: "one or more components are down",
		},
	})
}

func (rt *Router) checkDatabase(ctx context.Context) error {
	return rt.db.Ping(ctx)
}

// checkRevocation probes the store with a digest that never exists; a
// healthy store answers ErrTokenRevoked.
func (rt *Router) checkRevocation(ctx context.Context) error {
	_, err := rt.revocation.Get(ctx, "readiness-probe")
	if err != nil && !errors.Is(err, auth.ErrTokenRevoked) {
		return err
	}
	return nil
}

func (rt *Router) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := rt.users.ListUsers(r.Context())
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	public := make([]models.PublicUser, 0, len(users))
	for i := range users {
		public = append(public, users[i].Public())
	}
	respondData(w, r, http.StatusOK, public)
}
