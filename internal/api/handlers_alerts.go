// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/stockpulse/stockpulse/internal/models"
)

func (rt *Router) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	alerts, err := rt.alerts.List(r.Context(), userID)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, alerts)
}

func (rt *Router) handleMarkAlertSeen(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	alertID, err := pathID(r, "alertID")
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	alert, err := rt.alerts.MarkSeen(r.Context(), alertID, userID)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, alert)
}

func (rt *Router) handleCreateTestAlert(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	// The body is optional; an empty body creates a companyless test alert.
	req := models.CreateTestAlertRequest{}
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondAppError(w, r, err)
			return
		}
	}

	alert, err := rt.alerts.CreateTest(r.Context(), userID, req.CompanyID)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondData(w, r, http.StatusCreated, alert)
}
