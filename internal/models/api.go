// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

package models

import "time"

// APIResponse is the envelope for every JSON response.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response metadata for observability.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// APIError is the structured error body. Code is machine-readable
// (e.g. "VALIDATION_ERROR"); Message is safe to show to users.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SignupRequest is the body of POST /auth/signup.
type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the access token; the refresh token travels only in
// the HTTP-only cookie.
type LoginResponse struct {
	AccessToken string     `json:"access_token"`
	User        PublicUser `json:"user"`
}

// RefreshResponse carries the rotated access token.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

// CreateCompanyRequest is the body of POST /companies.
type CreateCompanyRequest struct {
	Ticker   string `json:"ticker" validate:"required,min=1,max=12"`
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Exchange string `json:"exchange" validate:"max=20"`
	Sector   string `json:"sector" validate:"max=100"`
	Industry string `json:"industry" validate:"max=100"`
}

// AddWatchlistRequest is the body of POST /watchlist.
type AddWatchlistRequest struct {
	CompanyID int64 `json:"company_id" validate:"required,gt=0"`
}

// CreateTestAlertRequest is the body of POST /alerts/test.
// CompanyID is optional; test alerts need not reference a company.
type CreateTestAlertRequest struct {
	CompanyID *int64 `json:"company_id" validate:"omitempty,gt=0"`
}

// PriceHistoryResponse is the body of GET /price/{symbol}/history.
type PriceHistoryResponse struct {
	Symbol   string       `json:"symbol"`
	Range    string       `json:"range"`
	Interval string       `json:"interval"`
	Prices   []PricePoint `json:"prices"`
}
