// Package db embeds the schema migrations for the postgres sink.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
