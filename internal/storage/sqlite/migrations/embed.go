package migrations

import "embed"

// FS contains embedded SQLite migrations for player statistics.
//
//go:embed *.sql
var FS embed.FS
