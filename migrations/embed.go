// Package migrations embeds the SQL schema migrations applied with sql-migrate.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
