// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

// Package auth implements local credential accounts, the JWT access/refresh
// token pair, refresh-token rotation against a revocation store, and the
// HTTP surface for the session lifecycle.
package auth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/stockpulse/stockpulse/internal/logging"
	"github.com/stockpulse/stockpulse/internal/models"
)

// invalidCredentialsMsg is the single message returned for every login
// failure, so callers cannot probe which emails are registered.
const invalidCredentialsMsg = "invalid email or password"

// UserStore is the persistence surface the session service needs.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// TokenPair is a freshly issued access and refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// SessionService implements the account and session lifecycle: signup,
// login, refresh with rotation, logout and identity lookup.
type SessionService struct {
	users      UserStore
	tokens     *TokenManager
	revocation RevocationStore
}

// NewSessionService wires the session service.
func NewSessionService(users UserStore, tokens *TokenManager, revocation RevocationStore) *SessionService {
	return &SessionService{
		users:      users,
		tokens:     tokens,
		revocation: revocation,
	}
}

// Signup registers a local account and opens a session for it. A duplicate
// email surfaces as a conflict error.
func (s *SessionService) Signup(ctx context.Context, req *models.SignupRequest) (*models.User, *TokenPair, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Provider:     models.ProviderLocal,
		Role:         "user",
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, nil, err
	}

	pair, err := s.openSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	logging.Info().Int64("user_id", user.ID).Msg("User registered")
	return user, pair, nil
}

// Login verifies local credentials and opens a session. Unknown email,
// non-local provider and wrong password all produce the same auth error.
func (s *SessionService) Login(ctx context.Context, req *models.LoginRequest) (*models.User, *TokenPair, error) {
	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, nil, models.NewError(models.KindAuth, invalidCredentialsMsg, err)
	}
	if user.Provider != models.ProviderLocal || user.PasswordHash == "" {
		return nil, nil, models.NewError(models.KindAuth, invalidCredentialsMsg, fmt.Errorf("account provider is %q", user.Provider))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, nil, models.NewError(models.KindAuth, invalidCredentialsMsg, err)
	}

	pair, err := s.openSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	logging.Info().Int64("user_id", user.ID).Msg("User logged in")
	return user, pair, nil
}

// Refresh rotates a refresh token: the presented token is validated, its
// digest must still be active, and it is atomically replaced by a new one.
// A revoked or replayed token fails with an auth error and revokes nothing
// further.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*models.User, *TokenPair, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, models.NewError(models.KindAuth, "invalid token", err)
	}

	newRefresh, err := s.tokens.GenerateRefreshToken(user)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	entry := &SessionEntry{
		UserID:    user.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.tokens.RefreshTTL()),
	}
	err = s.revocation.Rotate(ctx, HashToken(refreshToken), HashToken(newRefresh), entry, s.tokens.RefreshTTL())
	if err != nil {
		return nil, nil, models.NewError(models.KindAuth, "invalid token", err)
	}

	accessToken, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, nil, err
	}

	return user, &TokenPair{AccessToken: accessToken, RefreshToken: newRefresh}, nil
}

// Logout revokes the presented refresh token. It is idempotent and
// best-effort: malformed or already-revoked tokens still log the caller out.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if _, err := s.tokens.ValidateRefreshToken(refreshToken); err != nil {
		return nil
	}
	if err := s.revocation.Delete(ctx, HashToken(refreshToken)); err != nil {
		logging.Warn().Err(err).Msg("Failed to delete session digest on logout")
	}
	return nil
}

// Me returns the user identified by an already-authenticated user ID.
func (s *SessionService) Me(ctx context.Context, userID int64) (*models.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

// openSession issues a token pair and records the refresh digest as active.
func (s *SessionService) openSession(ctx context.Context, user *models.User) (*TokenPair, error) {
	accessToken, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(user)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	entry := &SessionEntry{
		UserID:    user.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.tokens.RefreshTTL()),
	}
	if err := s.revocation.Put(ctx, HashToken(refreshToken), entry, s.tokens.RefreshTTL()); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
