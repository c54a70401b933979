// internal/dataset/dataset.go
//
// Loads the entity table and attribute schema the catalog is built from.
//
// Sources:
//   1. A data directory holding char2attr.json (or char2attr.yaml / .yml),
//      an object mapping entity name → list of attribute labels, plus an
//      optional schema.yaml describing the numeric categories.
//   2. With no directory configured, the defaults embedded in assets.
//
// Open builds the catalog, records load metrics and logs a short summary.

package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/X-Zero-L/aniguessr/assets"
	"github.com/X-Zero-L/aniguessr/internal/catalog"
	"github.com/X-Zero-L/aniguessr/internal/metrics"
)

// File names looked up in a data directory.
const (
	CatalogJSON = "char2attr.json"
	CatalogYAML = "char2attr.yaml"
	CatalogYML  = "char2attr.yml"
	SchemaFile  = "schema.yaml"
)

// OriginEmbedded is the Source.Origin of the built-in defaults.
const OriginEmbedded = "embedded"

// ErrNoCatalogFile is returned when a data directory has no entity table.
var ErrNoCatalogFile = errors.New("dataset: no char2attr file found")

// Source is a decoded entity table plus the schema to build it with.
type Source struct {
	Table  catalog.Table
	Schema catalog.Schema
	Origin string // file path of the table, or OriginEmbedded
}

// Load reads the entity table and schema from dir, or from the embedded
// defaults when dir is empty. A missing schema.yaml means DefaultSchema.
func Load(dir string) (*Source, error) {
	if dir == "" {
		return loadEmbedded()
	}

	var (
		path string
		data []byte
	)
	for _, name := range []string{CatalogJSON, CatalogYAML, CatalogYML} {
		p := filepath.Join(dir, name)
		b, err := os.ReadFile(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		path, data = p, b
		break
	}
	if path == "" {
		return nil, fmt.Errorf("%w in %s", ErrNoCatalogFile, dir)
	}

	table, err := decodeTable(path, data)
	if err != nil {
		return nil, err
	}

	schema := catalog.DefaultSchema()
	sp := filepath.Join(dir, SchemaFile)
	switch b, err := os.ReadFile(sp); {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", sp, err)
	default:
		if schema, err = decodeSchema(sp, b); err != nil {
			return nil, err
		}
	}

	return &Source{Table: table, Schema: schema, Origin: path}, nil
}

func loadEmbedded() (*Source, error) {
	b, err := assets.Catalog()
	if err != nil {
		return nil, fmt.Errorf("embedded catalog: %w", err)
	}
	table, err := decodeTable(assets.CatalogFile, b)
	if err != nil {
		return nil, err
	}
	sb, err := assets.Schema()
	if err != nil {
		return nil, fmt.Errorf("embedded schema: %w", err)
	}
	schema, err := decodeSchema(assets.SchemaFile, sb)
	if err != nil {
		return nil, err
	}
	return &Source{Table: table, Schema: schema, Origin: OriginEmbedded}, nil
}

func decodeTable(name string, data []byte) (catalog.Table, error) {
	var table catalog.Table
	var err error
	if strings.EqualFold(filepath.Ext(name), ".json") {
		err = json.Unmarshal(data, &table)
	} else {
		err = yaml.Unmarshal(data, &table)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return table, nil
}

func decodeSchema(name string, data []byte) (catalog.Schema, error) {
	var s catalog.Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return catalog.Schema{}, fmt.Errorf("decode %s: %w", name, err)
	}
	for i, r := range s.Numeric {
		if r.Category == "" {
			return catalog.Schema{}, fmt.Errorf("decode %s: numeric rule %d has no category", name, i)
		}
	}
	return s, nil
}

// Open loads dir and builds a catalog keeping entities with at least
// minAttrs attributes.
func Open(dir string, minAttrs int) (*catalog.Catalog, error) {
	done := metrics.TimeCatalogLoad()

	src, err := Load(dir)
	if err != nil {
		done(false)
		return nil, err
	}
	cat, err := catalog.Build(src.Table, minAttrs, catalog.WithSchema(src.Schema))
	if err != nil {
		done(false)
		return nil, fmt.Errorf("build catalog from %s: %w", src.Origin, err)
	}
	done(true)

	st := cat.Stats()
	metrics.Default().SetCatalogSize(st.Entities, st.Attributes)
	log.Info().
		Str("source", src.Origin).
		Int("entities", st.Entities).
		Int("dropped", len(src.Table)-st.Entities).
		Int("attributes", st.Attributes).
		Str("richest", st.Richest).
		Int("richest_attrs", st.RichestCount).
		Msg("catalog loaded")
	return cat, nil
}
