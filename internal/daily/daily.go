// internal/daily/daily.go
//
// Daily challenge: every player gets the same hidden target for a calendar
// day. The target is derived from HMAC(salt, YYYY-MM-DD) over the catalog's
// sorted names, so it is stable for a given catalog and unpredictable
// without the salt.

package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/X-Zero-L/aniguessr/internal/catalog"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Index returns a deterministic index in [0, n) for the day of t.
func Index(t time.Time, salt string, n int) int {
	if n <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(t)))
	sum := h.Sum(nil)
	v := binary.BigEndian.Uint64(sum[:8])
	return int(v % uint64(n))
}

// Target picks the day's entity name from cat.
func Target(cat *catalog.Catalog, t time.Time, salt string) (string, error) {
	if cat == nil || cat.Len() == 0 {
		return "", catalog.ErrEmptyCatalog
	}
	names := cat.Names()
	return names[Index(t, salt, len(names))], nil
}
