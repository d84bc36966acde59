// Package migrations embeds the schema migrations of every supported store.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
