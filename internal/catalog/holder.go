package catalog

import "sync/atomic"

// Holder publishes the current Catalog to concurrent readers.
// Swapping installs a new snapshot for future sessions; readers that already
// loaded the old one keep using it untouched.
type Holder struct {
	p atomic.Pointer[Catalog]
}

// NewHolder returns a Holder serving c (which may be nil until the first load).
func NewHolder(c *Catalog) *Holder {
	h := &Holder{}
	if c != nil {
		h.p.Store(c)
	}
	return h
}

// Load returns the current snapshot, or nil if none was stored yet.
func (h *Holder) Load() *Catalog { return h.p.Load() }

// Swap installs c and returns the previous snapshot.
func (h *Holder) Swap(c *Catalog) *Catalog { return h.p.Swap(c) }
