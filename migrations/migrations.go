// Package migrations embeds the goose schema migrations so deployed
// binaries carry their own schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
