// Package firelinx holds assets embedded into the bot binary.
package firelinx

import "embed"

// MigrationsFS contains the PostgreSQL schema migrations of the alert journal.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS
