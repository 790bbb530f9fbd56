// Package migrations embeds the SQLite schema applied by storage.Open.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
