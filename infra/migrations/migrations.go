// Package migrations holds the versioned Postgres schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
