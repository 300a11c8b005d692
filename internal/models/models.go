// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

// Package models defines the core data types shared across Stockpulse:
// users, companies, watchlist entries, alerts and quote snapshots, plus
// the request/response envelopes used by the HTTP API.
package models

import "time"

// Auth providers for User accounts.
const (
	ProviderLocal = "local"
)

// Alert types.
const (
	AlertTypePriceMove = "price_move"
	AlertTypeTest      = "test_alert"
)

// User is an identity record. PasswordHash is only set for local-provider
// accounts and must never be serialized outward.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Provider     string    `json:"provider"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// PublicUser is the outward projection of a User.
type PublicUser struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Provider  string    `json:"provider"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Public returns the projection of u that is safe to serialize.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Provider:  u.Provider,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// Company is a tracked listing. Ticker is unique and stored upper-cased.
type Company struct {
	ID        int64     `json:"id"`
	Ticker    string    `json:"ticker"`
	Name      string    `json:"name"`
	Exchange  string    `json:"exchange,omitempty"`
	Sector    string    `json:"sector,omitempty"`
	Industry  string    `json:"industry,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// WatchlistItem relates a user to a company they track.
// The (UserID, CompanyID) pair is unique.
type WatchlistItem struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	CompanyID int64     `json:"company_id"`
	CreatedAt time.Time `json:"created_at"`

	// Company is populated on reads that join the companies table.
	Company *Company `json:"company,omitempty"`
}

// WatchlistPair is one scan-engine work item: a watchlist entry joined with
// its owning user and tracked company.
type WatchlistPair struct {
	User    User
	Company Company
}

// Alert is a user notification. CompanyID is nullable: test alerts may not
// reference a company. Seen transitions false to true at most once.
type Alert struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	CompanyID *int64    `json:"company_id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Seen      bool      `json:"seen"`
	CreatedAt time.Time `json:"created_at"`
}

// QuoteSnapshot is a transient price observation for one symbol. It is never
// persisted; the scan engine consumes it immediately.
type QuoteSnapshot struct {
	Symbol        string    `json:"symbol"`
	LastPrice     float64   `json:"last_price"`
	PreviousClose float64   `json:"previous_close"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// PricePoint is one bar of provider price history.
type PricePoint struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}
