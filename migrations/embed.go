// Package migrations embeds the SQL schema so binaries can migrate without
// shipping the directory.
package migrations

import "embed"

// FS holds every numbered up/down migration
//
//go:embed *.sql
var FS embed.FS
