// Package migrations embeds the SQL schema for every supported dialect.
package migrations

import "embed"

// FS holds one subdirectory per dialect (sqlite, postgres, mysql).
//
//go:embed sqlite/*.sql postgres/*.sql mysql/*.sql
var FS embed.FS
