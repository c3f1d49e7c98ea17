// Package migrations embeds the SQL migration files into the binary so the
// server can create its audit schema without files on disk.
package migrations

import "embed"

//go:embed *.sql
var files embed.FS

// FS holds the migration files at its root.
var FS = files
