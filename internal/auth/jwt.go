// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/stockpulse/stockpulse/internal/config"
	"github.com/stockpulse/stockpulse/internal/models"
)

// Token kinds carried in the token_kind claim. An access token is never
// accepted where a refresh token is expected, and vice versa.
const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

// AccessClaims are the claims embedded in a short-lived access token.
type AccessClaims struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	TokenKind string `json:"token_kind"`
	jwt.RegisteredClaims
}

// RefreshClaims are the claims embedded in a long-lived refresh token.
// Refresh tokens intentionally carry no email so a leaked token reveals
// as little as possible.
type RefreshClaims struct {
	UserID    int64  `json:"user_id"`
	TokenKind string `json:"token_kind"`
	jwt.RegisteredClaims
}

// TokenManager creates and validates the two JWT token classes using
// HMAC-SHA256 signing.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenManager builds a TokenManager from the auth configuration.
// The secret must be at least 32 bytes.
func NewTokenManager(cfg *config.AuthConfig) (*TokenManager, error) {
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}

	return &TokenManager{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}, nil
}

// AccessTTL returns the configured access-token lifetime.
func (m *TokenManager) AccessTTL() time.Duration { return m.accessTTL }

// RefreshTTL returns the configured refresh-token lifetime.
func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }

// GenerateAccessToken signs a new access token for the user.
func (m *TokenManager) GenerateAccessToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &AccessClaims{
		UserID:    user.ID,
		Email:     user.Email,
		TokenKind: TokenKindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return signed, nil
}

// GenerateRefreshToken signs a new refresh token for the user. A random
// jti keeps tokens distinct even when two are issued in the same second,
// which rotation depends on.
func (m *TokenManager) GenerateRefreshToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &RefreshClaims{
		UserID:    user.ID,
		TokenKind: TokenKindRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(user.ID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.refreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return signed, nil
}

// ValidateAccessToken verifies signature, expiry and token kind, returning
// the embedded claims. Any failure maps to the auth error kind.
func (m *TokenManager) ValidateAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := m.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.TokenKind != TokenKindAccess {
		return nil, models.NewError(models.KindAuth, "invalid token", fmt.Errorf("token kind %q is not an access token", claims.TokenKind))
	}
	return claims, nil
}

// ValidateRefreshToken verifies signature, expiry and token kind, returning
// the embedded claims.
func (m *TokenManager) ValidateRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := m.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.TokenKind != TokenKindRefresh {
		return nil, models.NewError(models.KindAuth, "invalid token", fmt.Errorf("token kind %q is not a refresh token", claims.TokenKind))
	}
	return claims, nil
}

func (m *TokenManager) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return models.NewError(models.KindAuth, "invalid token", err)
	}
	if !token.Valid {
		return models.NewError(models.KindAuth, "invalid token", nil)
	}
	return nil
}

// HashToken returns the hex-encoded SHA-256 digest of a refresh token.
// The digest, never the raw token, is what the revocation store keys on.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
