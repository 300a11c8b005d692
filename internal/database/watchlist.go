// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

package database

import (
	"context"
	"fmt"

	"github.com/stockpulse/stockpulse/internal/models"
)

// AddWatchlistItem subscribes a user to a company. The company must exist;
// a duplicate subscription maps to a conflict error.
func (db *DB) AddWatchlistItem(ctx context.Context, userID, companyID int64) (*models.WatchlistItem, error) {
	if _, err := db.GetCompanyByID(ctx, companyID); err != nil {
		return nil, err
	}

	query := `INSERT INTO watchlist_items (user_id, company_id)
	          VALUES ($1, $2)
	          RETURNING id, created_at`

	item := &models.WatchlistItem{UserID: userID, CompanyID: companyID}
	err := db.conn.QueryRowContext(ctx, query, userID, companyID).
		Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.NewError(models.KindConflict, "company already on watchlist", err)
		}
		return nil, fmt.Errorf("adding watchlist item: %w", err)
	}

	return item, nil
}

// RemoveWatchlistItem unsubscribes a user from a company. Removing an entry
// that does not exist maps to a not-found error.
func (db *DB) RemoveWatchlistItem(ctx context.Context, userID, companyID int64) error {
	query := `DELETE FROM watchlist_items WHERE user_id = $1 AND company_id = $2`

	res, err := db.conn.ExecContext(ctx, query, userID, companyID)
	if err != nil {
		return fmt.Errorf("removing watchlist item: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("removing watchlist item: %w", err)
	}
	if affected == 0 {
		return models.NewError(models.KindNotFound, "watchlist entry not found", nil)
	}

	return nil
}

// ListWatchlistByUser returns a user's watchlist with the tracked companies
// joined in, newest subscription first.
func (db *DB) ListWatchlistByUser(ctx context.Context, userID int64) ([]models.WatchlistItem, error) {
	query := `SELECT w.id, w.user_id, w.company_id, w.created_at,
	                 c.id, c.name, c.ticker, c.exchange, c.sector, c.industry, c.created_at
	          FROM watchlist_items w
	          JOIN companies c ON c.id = w.company_id
	          WHERE w.user_id = $1
	          ORDER BY w.created_at DESC`

	rows, err := db.conn.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing watchlist: %w", err)
	}
	defer rows.Close()

	items := make([]models.WatchlistItem, 0)
	for rows.Next() {
		var item models.WatchlistItem
		var c models.Company
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.CompanyID, &item.CreatedAt,
			&c.ID, &c.Name, &c.Ticker, &c.Exchange, &c.Sector, &c.Industry, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning watchlist row: %w", err)
		}
		item.Company = &c
		items = append(items, item)
	}

	return items, rows.Err()
}

// ListWatchlistPairs returns every (user, company) subscription across all
// users. This is the scan engine's work list.
func (db *DB) ListWatchlistPairs(ctx context.Context) ([]models.WatchlistPair, error) {
	query := `SELECT u.id, u.name, u.email, u.provider, u.role, u.created_at,
	                 c.id, c.name, c.ticker, c.exchange, c.sector, c.industry, c.created_at
	          FROM watchlist_items w
	          JOIN users u ON u.id = w.user_id
	          JOIN companies c ON c.id = w.company_id
	          ORDER BY w.id ASC`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing watchlist pairs: %w", err)
	}
	defer rows.Close()

	pairs := make([]models.WatchlistPair, 0)
	for rows.Next() {
		var p models.WatchlistPair
		if err := rows.Scan(
			&p.User.ID, &p.User.Name, &p.User.Email, &p.User.Provider, &p.User.Role, &p.User.CreatedAt,
			&p.Company.ID, &p.Company.Name, &p.Company.Ticker,
			&p.Company.Exchange, &p.Company.Sector, &p.Company.Industry, &p.Company.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning watchlist pair: %w", err)
		}
		pairs = append(pairs, p)
	}

	return pairs, rows.Err()
}
