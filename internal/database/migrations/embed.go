// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

// Package migrations embeds the SQL schema migrations applied at startup.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
