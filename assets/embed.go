// Package assets embeds the default entity table and attribute schema used
// when no data directory is configured.
package assets

import "embed"

// Embedded file names.
const (
	CatalogFile = "char2attr.json"
	SchemaFile  = "schema.yaml"
)

//go:embed char2attr.json schema.yaml
var FS embed.FS

// Catalog returns the embedded entity → attribute labels table.
func Catalog() ([]byte, error) { return FS.ReadFile(CatalogFile) }

// Schema returns the embedded attribute schema.
func Schema() ([]byte, error) { return FS.ReadFile(SchemaFile) }
