// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

package database

import (
	"context"
	"fmt"

	"github.com/stockpulse/stockpulse/internal/models"
)

// CreateUser inserts a new user and fills ID and CreatedAt on success.
// A duplicate email maps to a conflict error.
func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (name, email, password_hash, provider, role)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id, created_at`

	err := db.conn.QueryRowContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, user.Provider, user.Role,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.NewError(models.KindConflict, "email already registered", err)
		}
		return fmt.Errorf("creating user: %w", err)
	}

	return nil
}

// GetUserByEmail returns the user with the given email address.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, name, email, password_hash, provider, role, created_at
	          FROM users WHERE email = $1`

	user := &models.User{}
	err := db.conn.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&user.Provider, &user.Role, &user.CreatedAt,
	)
	if err != nil {
		return nil, mapNotFound(err, "user not found")
	}

	return user, nil
}

// GetUserByID returns the user with the given ID.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT id, name, email, password_hash, provider, role, created_at
	          FROM users WHERE id = $1`

	user := &models.User{}
	err := db.conn.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&user.Provider, &user.Role, &user.CreatedAt,
	)
	if err != nil {
		return nil, mapNotFound(err, "user not found")
	}

	return user, nil
}

// ListUsers returns all users ordered by creation time.
func (db *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	query := `SELECT id, name, email, password_hash, provider, role, created_at
	          FROM users ORDER BY created_at ASC`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(
			&u.ID, &u.Name, &u.Email, &u.PasswordHash,
			&u.Provider, &u.Role, &u.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}
