// Package migrations embeds the Postgres schema for the audit log so the
// binary can migrate without a checkout of this directory.
package migrations

import "embed"

// Files holds every *.sql migration at the root of FS.
//
//go:embed *.sql
var Files embed.FS
