// Package migrations embeds the goose SQL migrations so the server
// binary can bring any database up to date without shipping files
// alongside it.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
