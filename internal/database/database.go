// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

// Package database provides the PostgreSQL persistence layer for users,
// companies, watchlist entries and alerts. Schema migrations are embedded
// and applied on startup.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/stockpulse/stockpulse/internal/database/migrations"
	"github.com/stockpulse/stockpulse/internal/logging"
	"github.com/stockpulse/stockpulse/internal/models"
)

const uniqueViolationCode = "23505"

// DB wraps the SQL connection pool and exposes the typed store methods.
type DB struct {
	conn *sql.DB
}

// New opens a connection pool against the given DSN and verifies it with
// a ping. The caller is responsible for running Migrate before serving.
func New(ctx context.Context, dsn string) (*DB, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Migrate applies the embedded goose migrations up to the latest version.
func (db *DB) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("setting migration dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db.conn, "."); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}

	logging.Info().Msg("Database migrations applied")
	return nil
}

// Ping reports whether the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close releases the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// mapNotFound converts sql.ErrNoRows into the application's not-found kind
// so handlers can translate it to a 404 without inspecting driver errors.
func mapNotFound(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return models.NewError(models.KindNotFound, msg, err)
	}
	return fmt.Errorf("db error: %w", err)
}
