package catalog

import "sort"

// set is a string set.
type set map[string]struct{}

// Index maps each attribute label to the names of the entities holding it.
// It is derived from the entity table in one pass and never mutated after
// construction, so concurrent readers need no locking.
type Index struct {
	byAttr map[string]set
}

func newIndex(entities map[string]Entity) *Index {
	idx := &Index{byAttr: make(map[string]set)}
	for name, e := range entities {
		for _, a := range e.attrs {
			bucket, ok := idx.byAttr[a]
			if !ok {
				bucket = make(set)
				idx.byAttr[a] = bucket
			}
			bucket[name] = struct{}{}
		}
	}
	return idx
}

// Holders returns the sorted names of entities holding attr.
// Unknown attributes yield an empty slice.
func (idx *Index) Holders(attr string) []string {
	bucket := idx.byAttr[attr]
	out := make([]string, 0, len(bucket))
	for name := range bucket {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Has reports whether entity name holds attr. O(1).
func (idx *Index) Has(attr, name string) bool {
	_, ok := idx.byAttr[attr][name]
	return ok
}

// Count returns the bucket size for attr.
func (idx *Index) Count(attr string) int { return len(idx.byAttr[attr]) }

// Attributes returns every indexed label, sorted.
func (idx *Index) Attributes() []string {
	out := make([]string, 0, len(idx.byAttr))
	for a := range idx.byAttr {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}
