// Package migrations embeds the goose SQL migrations for the device-local
// store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
