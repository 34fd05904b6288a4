package migrations

import "embed"

// FS contains the embedded SQLite migrations for global state.
//
//go:embed *.sql
var FS embed.FS
