// Package migrations embeds the market schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
