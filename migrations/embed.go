// Package migrations embeds the SQL schema. The server applies pending
// migrations at startup; integration tests apply them against throwaway
// containers.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
