// internal/catalog/catalog.go
//
// Entity catalog for the deduction game.
// Responsibilities:
//   - Own the authoritative entity → attribute table (filtered by a minimum
//     attribute count at build time).
//   - Maintain the derived attribute → entities Index.
//   - Resolve guessed names (exact, then fuzzy; see fuzzy.go).
//   - Draw uniformly random targets.
//
// A Catalog is immutable once Build returns. Refreshing data means building a
// new Catalog and swapping it into a Holder; sessions keep whatever snapshot
// they started with.

package catalog

import (
	"errors"
	"math/rand/v2"
	"sort"
)

// ErrEmptyCatalog is returned by Build when no entity survives filtering.
var ErrEmptyCatalog = errors.New("catalog: no entities with enough attributes")

// Table is the raw entity name → attribute labels mapping supplied by a loader.
type Table map[string][]string

// Entity is one catalog item. Its attribute set is fixed at build time.
type Entity struct {
	Name  string
	attrs []string // sorted, deduplicated
	set   set
}

// Has reports whether the entity holds attr.
func (e Entity) Has(attr string) bool {
	_, ok := e.set[attr]
	return ok
}

// Attributes returns a sorted copy of the entity's labels.
func (e Entity) Attributes() []string {
	return append([]string(nil), e.attrs...)
}

// Len is the number of distinct labels.
func (e Entity) Len() int { return len(e.attrs) }

func newEntity(name string, labels []string) Entity {
	s := make(set, len(labels))
	attrs := make([]string, 0, len(labels))
	for _, l := range labels {
		if l == "" {
			continue
		}
		if _, dup := s[l]; dup {
			continue
		}
		s[l] = struct{}{}
		attrs = append(attrs, l)
	}
	sort.Strings(attrs)
	return Entity{Name: name, attrs: attrs, set: s}
}

// Catalog is the read-only entity table plus its attribute index.
type Catalog struct {
	entities map[string]Entity
	names    []string // sorted keys of entities
	index    *Index
	attrs    map[string]Attribute
	schema   Schema
}

// BuildOption customizes Build.
type BuildOption func(*buildOptions)

type buildOptions struct {
	schema Schema
}

// WithSchema replaces DefaultSchema for attribute classification.
func WithSchema(s Schema) BuildOption {
	return func(o *buildOptions) { o.schema = s }
}

// Build filters table to entities with at least minAttrCount distinct labels,
// indexes them in one pass and resolves every label against the schema.
// Empty names and labels are ignored.
func Build(table Table, minAttrCount int, opts ...BuildOption) (*Catalog, error) {
	o := buildOptions{schema: DefaultSchema()}
	for _, opt := range opts {
		opt(&o)
	}

	entities := make(map[string]Entity, len(table))
	for name, labels := range table {
		if name == "" {
			continue
		}
		e := newEntity(name, labels)
		if e.Len() < minAttrCount {
			continue
		}
		entities[name] = e
	}
	if len(entities) == 0 {
		return nil, ErrEmptyCatalog
	}

	names := make([]string, 0, len(entities))
	for name := range entities {
		names = append(names, name)
	}
	sort.Strings(names)

	c := &Catalog{
		entities: entities,
		names:    names,
		index:    newIndex(entities),
		attrs:    make(map[string]Attribute),
		schema:   o.schema,
	}
	for _, label := range c.index.Attributes() {
		c.attrs[label] = o.schema.Resolve(label)
	}
	return c, nil
}

// Lookup is the exact-name lookup.
func (c *Catalog) Lookup(name string) (Entity, bool) {
	e, ok := c.entities[name]
	return e, ok
}

// Len is the number of entities.
func (c *Catalog) Len() int { return len(c.names) }

// Names returns all entity names, sorted.
func (c *Catalog) Names() []string { return append([]string(nil), c.names...) }

// Index exposes the attribute index.
func (c *Catalog) Index() *Index { return c.index }

// Schema returns the schema labels were resolved with.
func (c *Catalog) Schema() Schema { return c.schema }

// Attribute returns the resolved form of label. Labels outside the catalog
// are resolved on the fly.
func (c *Catalog) Attribute(label string) Attribute {
	if a, ok := c.attrs[label]; ok {
		return a
	}
	return c.schema.Resolve(label)
}

// CharactersWithAttribute returns the sorted names holding attr
// (empty for unknown attributes).
func (c *Catalog) CharactersWithAttribute(attr string) []string {
	return c.index.Holders(attr)
}

// AllAttributes returns every label present in the catalog, sorted.
func (c *Catalog) AllAttributes() []string { return c.index.Attributes() }

// RandomEntity draws uniformly from the process-wide random source.
func (c *Catalog) RandomEntity() Entity {
	return c.entities[c.names[rand.IntN(len(c.names))]]
}

// RandomEntityFrom draws uniformly using r.
func (c *Catalog) RandomEntityFrom(r *rand.Rand) Entity {
	if r == nil {
		return c.RandomEntity()
	}
	return c.entities[c.names[r.IntN(len(c.names))]]
}

// Filter returns, sorted, the names not in skip that hold every label in have
// and none of the labels in lack.
// It scans the smallest bucket among have (or every name when have is empty),
// so cost is bounded by that bucket times the number of facts.
func (c *Catalog) Filter(have, lack []string, skip map[string]struct{}) []string {
	var base []string
	if len(have) > 0 {
		smallest := have[0]
		for _, a := range have[1:] {
			if c.index.Count(a) < c.index.Count(smallest) {
				smallest = a
			}
		}
		base = c.index.Holders(smallest)
	} else {
		base = c.names
	}

	out := make([]string, 0)
next:
	for _, name := range base {
		if _, ok := skip[name]; ok {
			continue
		}
		for _, a := range have {
			if !c.index.Has(a, name) {
				continue next
			}
		}
		for _, a := range lack {
			if c.index.Has(a, name) {
				continue next
			}
		}
		out = append(out, name)
	}
	return out
}

// Stats summarizes a catalog for start-up logging.
type Stats struct {
	Entities     int    `json:"entities"`
	Attributes   int    `json:"attributes"`
	Richest      string `json:"richest"` // entity with most labels; ties go to the smaller name
	RichestCount int    `json:"richestCount"`
}

// Stats computes the summary.
func (c *Catalog) Stats() Stats {
	st := Stats{Entities: len(c.names), Attributes: len(c.attrs)}
	for _, name := range c.names {
		if n := c.entities[name].Len(); n > st.RichestCount {
			st.Richest, st.RichestCount = name, n
		}
	}
	return st
}
