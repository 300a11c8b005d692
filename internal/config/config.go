// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

// Package config loads layered configuration for Stockpulse using koanf:
// built-in defaults, then an optional YAML file, then environment variables.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Alerts   AlertsConfig   `koanf:"alerts"`
	Quote    QuoteConfig    `koanf:"quote"`
	NLP      NLPConfig      `koanf:"nlp"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// DatabaseConfig selects the Postgres store.
type DatabaseConfig struct {
	DSN string `koanf:"dsn"`
}

// AuthConfig controls token issuance and the revocation store.
type AuthConfig struct {
	// JWTSecret signs both token kinds. Minimum 32 characters.
	JWTSecret string `koanf:"jwt_secret"`

	// AccessTokenTTL bounds access-token lifetime. Access tokens are never
	// revocable server-side; they only self-expire.
	AccessTokenTTL time.Duration `koanf:"access_token_ttl"`

	// RefreshTokenTTL bounds refresh-token lifetime and the TTL of the
	// matching revocation-store entry.
	RefreshTokenTTL time.Duration `koanf:"refresh_token_ttl"`

	// RevocationPath is the Badger directory for refresh-token digests.
	// Empty selects the in-memory store (development only).
	RevocationPath string `koanf:"revocation_path"`
}

// AlertsConfig controls the price-move scan engine.
type AlertsConfig struct {
	Enabled       bool          `koanf:"enabled"`
	ScanInterval  time.Duration `koanf:"scan_interval"`
	MoveThreshold float64       `koanf:"move_threshold"`
	DedupeWindow  time.Duration `koanf:"dedupe_window"`
}

// QuoteConfig controls the quote provider client.
type QuoteConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`

	// RateLimit is the maximum provider requests per second from the
	// scan loop. Zero disables limiting.
	RateLimit float64 `koanf:"rate_limit"`
}

// NLPConfig points at the news-sentiment analysis service.
type NLPConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

// SecurityConfig controls CORS and rate limiting.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig controls zerolog output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether the server runs in production mode. The
// refresh cookie is only marked Secure in production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (set JWT_SECRET)")
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required (set DATABASE_DSN)")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Alerts.MoveThreshold <= 0 || c.Alerts.MoveThreshold >= 1 {
		return fmt.Errorf("alerts.move_threshold %v must be in (0, 1)", c.Alerts.MoveThreshold)
	}
	if c.Alerts.ScanInterval < time.Minute {
		return fmt.Errorf("alerts.scan_interval %v below 1m minimum", c.Alerts.ScanInterval)
	}
	if c.Alerts.DedupeWindow <= 0 {
		return fmt.Errorf("alerts.dedupe_window must be positive")
	}
	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		return fmt.Errorf("auth token TTLs invalid: refresh (%v) must exceed access (%v)",
			c.Auth.RefreshTokenTTL, c.Auth.AccessTokenTTL)
	}
	return nil
}
