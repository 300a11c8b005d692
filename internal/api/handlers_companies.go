// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/stockpulse/stockpulse/internal/auth"
	"github.com/stockpulse/stockpulse/internal/logging"
	"github.com/stockpulse/stockpulse/internal/models"
)

// requireUserID pulls the authenticated user from the request context. The
// auth middleware guarantees presence on protected routes.
func requireUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondAppError(w, r, models.NewError(models.KindAuth, "authentication required", nil))
		return 0, false
	}
	return userID, true
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, models.NewError(models.KindValidation, name+" must be a positive integer", err)
	}
	return id, nil
}

func (rt *Router) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := rt.companies.ListCompanies(r.Context())
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, companies)
}

func (rt *Router) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCompanyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondAppError(w, r, err)
		return
	}

	company := &models.Company{
		Ticker:   strings.ToUpper(strings.TrimSpace(req.Ticker)),
		Name:     strings.TrimSpace(req.Name),
		Exchange: strings.TrimSpace(req.Exchange),
		Sector:   strings.TrimSpace(req.Sector),
		Industry: strings.TrimSpace(req.Industry),
	}
	if err := rt.companies.CreateCompany(r.Context(), company); err != nil {
		respondAppError(w, r, err)
		return
	}

	logging.Info().Str("ticker", company.Ticker).Int64("company_id", company.ID).Msg("Company created")
	respondData(w, r, http.StatusCreated, company)
}

func (rt *Router) handleListWatchlist(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	items, err := rt.watchlist.ListWatchlistByUser(r.Context(), userID)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, items)
}

func (rt *Router) handleAddWatchlist(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req models.AddWatchlistRequest
	if err := decodeJSON(r, &req); err != nil {
		respondAppError(w, r, err)
		return
	}

	item, err := rt.watchlist.AddWatchlistItem(r.Context(), userID, req.CompanyID)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondData(w, r, http.StatusCreated, item)
}

func (rt *Router) handleRemoveWatchlist(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	companyID, err := pathID(r, "companyID")
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	if err := rt.watchlist.RemoveWatchlistItem(r.Context(), userID, companyID); err != nil {
		respondAppError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, map[string]string{"message": "removed from watchlist"})
}
