// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

// Package api wires the HTTP surface: the chi router, middleware stack,
// request/response envelopes and all endpoint handlers.
package api

import (
	"errors"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/stockpulse/stockpulse/internal/logging"
	"github.com/stockpulse/stockpulse/internal/models"
	"github.com/stockpulse/stockpulse/internal/validation"
)

// maxRequestBody bounds request body size for JSON endpoints.
const maxRequestBody = 1 << 20

// respondJSON sends a JSON response with proper headers.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")

	response.Metadata.Timestamp = time.Now().UTC()
	response.Metadata.RequestID = chimiddleware.GetReqID(r.Context())

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondData sends a success envelope.
func respondData(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	respondJSON(w, r, status, &models.APIResponse{
		Status: "success",
		Data:   data,
	})
}

// kindStatus maps error kinds to HTTP statuses. The api package owns this
// table; nothing below it speaks HTTP.
func kindStatus(kind models.ErrorKind) (int, string) {
	switch kind {
	case models.KindValidation:
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case models.KindAuth:
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case models.KindNotFound:
		return http.StatusNotFound, "NOT_FOUND"
	case models.KindConflict:
		return http.StatusConflict, "CONFLICT"
	case models.KindUpstream:
		return http.StatusBadGateway, "UPSTREAM_ERROR"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// respondAppError translates a classified error into the wire format.
// Internal errors log their detail but surface a generic message; auth
// errors surface a uniform message so failure causes stay opaque.
func respondAppError(w http.ResponseWriter, r *http.Request, err error) {
	kind := models.KindOf(err)
	status, code := kindStatus(kind)

	message := "internal server error"
	var details map[string]interface{}

	var appErr *models.AppError
	if errors.As(err, &appErr) && kind != models.KindInternal {
		message = appErr.Msg
	}
	var reqErr *validation.RequestError
	if errors.As(err, &reqErr) {
		status, code = http.StatusBadRequest, "VALIDATION_ERROR"
		message = "validation failed"
		details = reqErr.Details()
	}

	if status >= http.StatusInternalServerError {
		logging.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	} else {
		logging.Debug().Err(err).Str("path", r.URL.Path).Msg("Request rejected")
	}

	respondJSON(w, r, status, &models.APIResponse{
		Status: "error",
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// decodeJSON reads and validates a JSON request body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return models.NewError(models.KindValidation, "request body is not valid JSON", err)
	}
	if reqErr := validation.ValidateStruct(dst); reqErr != nil {
		return reqErr
	}
	return nil
}
