// Package migrations embeds the SQL schema for the sql cache backend.
package migrations

import "embed"

// FS holds the numbered up/down migration files
//
//go:embed *.sql
var FS embed.FS
