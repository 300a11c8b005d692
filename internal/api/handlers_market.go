// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/stockpulse/stockpulse/internal/models"
)

func (rt *Router) handlePriceHistory(w http.ResponseWriter, r *http.Request) {
	symbol := strings.TrimSpace(chi.URLParam(r, "symbol"))
	if symbol == "" {
		respondAppError(w, r, models.NewError(models.KindValidation, "symbol is required", nil))
		return
	}

	history, err := rt.prices.GetHistory(r.Context(), symbol, r.URL.Query().Get("range"))
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, history)
}

func (rt *Router) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	company := strings.TrimSpace(chi.URLParam(r, "company"))
	if company == "" {
		respondAppError(w, r, models.NewError(models.KindValidation, "company is required", nil))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 25 {
			respondAppError(w, r, models.NewError(models.KindValidation, "limit must be between 1 and 25", err))
			return
		}
		limit = parsed
	}

	result, err := rt.sentiment.Analyze(r.Context(), company, limit)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, result)
}
