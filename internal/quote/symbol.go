// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

// Package quote fetches live prices and price history from the upstream
// market-data provider, with rate limiting and circuit breaking between
// the scan loop and the provider.
package quote

import (
	"strings"

	"github.com/stockpulse/stockpulse/internal/models"
)

// MapSymbol converts a company's ticker and exchange into the provider's
// symbol notation: NSE listings get a ".NS" suffix, BSE listings ".BO",
// anything else is the bare upper-cased ticker.
func MapSymbol(company *models.Company) string {
	ticker := strings.ToUpper(strings.TrimSpace(company.Ticker))
	exchange := strings.ToUpper(company.Exchange)

	switch {
	case strings.Contains(exchange, "NSE"):
		return ticker + ".NS"
	case strings.Contains(exchange, "BSE"):
		return ticker + ".BO"
	default:
		return ticker
	}
}
