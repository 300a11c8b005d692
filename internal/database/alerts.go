// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/stockpulse/stockpulse/internal/models"
)

// maxAlertsPerList caps how many alerts a single list call returns.
const maxAlertsPerList = 50

// CreateAlert inserts an alert and fills ID, CreatedAt and Seen on success.
func (db *DB) CreateAlert(ctx context.Context, alert *models.Alert) error {
	query := `INSERT INTO alerts (user_id, company_id, type, message)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id, seen, created_at`

	err := db.conn.QueryRowContext(ctx, query,
		alert.UserID, alert.CompanyID, alert.Type, alert.Message,
	).Scan(&alert.ID, &alert.Seen, &alert.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating alert: %w", err)
	}

	return nil
}

// ListAlertsByUser returns a user's alerts newest first, capped at 50.
func (db *DB) ListAlertsByUser(ctx context.Context, userID int64) ([]models.Alert, error) {
	query := `SELECT id, user_id, company_id, type, message, seen, created_at
	          FROM alerts
	          WHERE user_id = $1
	          ORDER BY created_at DESC
	          LIMIT $2`

	rows, err := db.conn.QueryContext(ctx, query, userID, maxAlertsPerList)
	if err != nil {
		return nil, fmt.Errorf("listing alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]models.Alert, 0)
	for rows.Next() {
		var a models.Alert
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.CompanyID, &a.Type, &a.Message, &a.Seen, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning alert row: %w", err)
		}
		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}

// MarkAlertSeen sets an alert's seen flag. The update is idempotent: marking
// an already-seen alert succeeds and returns the unchanged row. Alerts
// belonging to other users are reported as not found.
func (db *DB) MarkAlertSeen(ctx context.Context, alertID, userID int64) (*models.Alert, error) {
	query := `UPDATE alerts SET seen = TRUE
	          WHERE id = $1 AND user_id = $2
	          RETURNING id, user_id, company_id, type, message, seen, created_at`

	alert := &models.Alert{}
	err := db.conn.QueryRowContext(ctx, query, alertID, userID).Scan(
		&alert.ID, &alert.UserID, &alert.CompanyID,
		&alert.Type, &alert.Message, &alert.Seen, &alert.CreatedAt,
	)
	if err != nil {
		return nil, mapNotFound(err, "alert not found")
	}

	return alert, nil
}

// AlertExistsSince reports whether the user already has an alert of the
// given type for the company created at or after the cutoff. Direction of
// the underlying price move is not part of the key.
func (db *DB) AlertExistsSince(ctx context.Context, userID, companyID int64, alertType string, cutoff time.Time) (bool, error) {
	query := `SELECT EXISTS (
	            SELECT 1 FROM alerts
	            WHERE user_id = $1 AND company_id = $2 AND type = $3 AND created_at >= $4
	          )`

	var exists bool
	err := db.conn.QueryRowContext(ctx, query, userID, companyID, alertType, cutoff).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking recent alerts: %w", err)
	}

	return exists, nil
}
