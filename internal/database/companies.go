// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/stockpulse/stockpulse/internal/models"
)

// CreateCompany inserts a new company. The ticker is upper-cased before
// storage; a duplicate ticker maps to a conflict error.
func (db *DB) CreateCompany(ctx context.Context, company *models.Company) error {
	company.Ticker = strings.ToUpper(company.Ticker)

	query := `INSERT INTO companies (name, ticker, exchange, sector, industry)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id, created_at`

	err := db.conn.QueryRowContext(ctx, query,
		company.Name, company.Ticker, company.Exchange, company.Sector, company.Industry,
	).Scan(&company.ID, &company.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.NewError(models.KindConflict, "ticker already exists", err)
		}
		return fmt.Errorf("creating company: %w", err)
	}

	return nil
}

// GetCompanyByID returns the company with the given ID.
func (db *DB) GetCompanyByID(ctx context.Context, id int64) (*models.Company, error) {
	query := `SELECT id, name, ticker, exchange, sector, industry, created_at
	          FROM companies WHERE id = $1`

	company := &models.Company{}
	err := db.conn.QueryRowContext(ctx, query, id).Scan(
		&company.ID, &company.Name, &company.Ticker,
		&company.Exchange, &company.Sector, &company.Industry, &company.CreatedAt,
	)
	if err != nil {
		return nil, mapNotFound(err, "company not found")
	}

	return company, nil
}

// ListCompanies returns all companies ordered by ticker.
func (db *DB) ListCompanies(ctx context.Context) ([]models.Company, error) {
	query := `SELECT id, name, ticker, exchange, sector, industry, created_at
	          FROM companies ORDER BY ticker ASC`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing companies: %w", err)
	}
	defer rows.Close()

	companies := make([]models.Company, 0)
	for rows.Next() {
		var c models.Company
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Ticker,
			&c.Exchange, &c.Sector, &c.Industry, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning company row: %w", err)
		}
		companies = append(companies, c)
	}

	return companies, rows.Err()
}
