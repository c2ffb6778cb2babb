// Package db embeds the goose SQL migrations so the binary can migrate without a checkout.
package db

import "embed"

// Migrations holds every file under migrations/.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory name inside Migrations passed to goose.
const MigrationsDir = "migrations"
