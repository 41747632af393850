package migrations

import "embed"

// Migrations holds the versioned migrations of service-owned tables, one
// directory per dialect.
//
//go:embed sqlite/*.sql postgres/*.sql
var Migrations embed.FS
