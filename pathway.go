// Package pathway holds the assets embedded into the pathway binaries.
package pathway

import "embed"

// EmailFS contains the html and plaintext email templates, one directory per template.
//
//go:embed templates/emails
var EmailFS embed.FS

// MigrationFS contains the ordered SQL migrations applied by pathwayctl migrate.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS

// PermifySchema is the permission schema written by pathwayctl authz schema.
//
//go:embed permissions/pathway.perm
var PermifySchema string
