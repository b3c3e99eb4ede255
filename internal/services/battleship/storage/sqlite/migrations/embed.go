// Package migrations embeds the move journal schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
