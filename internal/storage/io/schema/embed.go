// Package schema has the JSON schemas of the files loaded by galgo.
package schema

import "embed"

// FS contains the JSON schema files.
//
//go:embed *.schema.json
var FS embed.FS
