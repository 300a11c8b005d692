// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where a config file is searched, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/stockpulse/config.yaml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults. They are loaded first, then
// overridden by the config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8000,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Database: DatabaseConfig{
			DSN: "",
		},
		Auth: AuthConfig{
			JWTSecret:       "",
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: 30 * 24 * time.Hour,
			RevocationPath:  "/data/revocation",
		},
		Alerts: AlertsConfig{
			Enabled:       true,
			ScanInterval:  15 * time.Minute,
			MoveThreshold: 0.03,
			DedupeWindow:  6 * time.Hour,
		},
		Quote: QuoteConfig{
			BaseURL:   "https://query1.finance.yahoo.com",
			Timeout:   10 * time.Second,
			RateLimit: 2,
		},
		NLP: NLPConfig{
			BaseURL: "http://localhost:8001",
			Timeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"http://localhost:5173"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, then
// environment variables, and validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices when
// they arrive as env-var strings.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
//
// Examples:
//   - SERVER_PORT        -> server.port
//   - DATABASE_DSN       -> database.dsn
//   - JWT_SECRET         -> auth.jwt_secret
//   - ALERTS_SCAN_INTERVAL -> alerts.scan_interval
//   - CORS_ORIGINS       -> security.cors_origins
//
// Unknown variables map to the empty string and are ignored by koanf.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	// Short, historical names kept for operator convenience.
	aliases := map[string]string{
		"port":                "server.port",
		"environment":         "server.environment",
		"jwt_secret":          "auth.jwt_secret",
		"access_token_ttl":    "auth.access_token_ttl",
		"refresh_token_ttl":   "auth.refresh_token_ttl",
		"revocation_path":     "auth.revocation_path",
		"cors_origins":        "security.cors_origins",
		"rate_limit_reqs":     "security.rate_limit_reqs",
		"rate_limit_window":   "security.rate_limit_window",
		"disable_rate_limit":  "security.rate_limit_disabled",
		"nlp_service_url":     "nlp.base_url",
		"log_level":           "logging.level",
		"log_format":          "logging.format",
		"log_caller":          "logging.caller",
	}
	if mapped, ok := aliases[key]; ok {
		return mapped
	}

	// Section-prefixed names: SECTION_REST -> section.rest
	for _, section := range []string{"server", "database", "auth", "alerts", "quote", "nlp", "security", "logging"} {
		prefix := section + "_"
		if strings.HasPrefix(key, prefix) {
			return section + "." + strings.TrimPrefix(key, prefix)
		}
	}

	return ""
}
