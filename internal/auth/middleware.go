// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/stockpulse/stockpulse/internal/models"
)

type contextKey string

// userIDKey carries the authenticated user's ID through the request context.
const userIDKey contextKey = "auth.user_id"

// emailKey carries the authenticated user's email through the request context.
const emailKey contextKey = "auth.email"

// UserID extracts the authenticated user's ID from the request context.
// The boolean is false on requests that never passed RequireAuth.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// Email extracts the authenticated user's email from the request context.
func Email(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(emailKey).(string)
	return email, ok
}

// RequireAuth rejects requests without a valid Bearer access token and puts
// the token's identity into the request context for downstream handlers.
// Every failure mode returns the same 401 body.
func RequireAuth(tokens *TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeUnauthorized(w)
				return
			}

			claims, err := tokens.ValidateAccessToken(token)
			if err != nil {
				writeUnauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			ctx = context.WithValue(ctx, emailKey, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithUserID returns a context carrying the given user identity. Used by
// tests and internal callers that bypass the HTTP middleware.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	//nolint:errcheck // response is already committed
	json.NewEncoder(w).Encode(models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error: &models.APIError{
			Code:    "UNAUTHORIZED",
			Message: "authentication required",
		},
	})
}
