package migrations

import "embed"

// FS holds the SQL migrations applied at startup and by scripts/db_migrations.
//
//go:embed *.sql
var FS embed.FS
