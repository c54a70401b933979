package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// SimilarityCutoff is the minimum SequenceMatcher ratio a fuzzy match needs.
const SimilarityCutoff = 0.6

// ErrNoMatch means neither exact nor fuzzy lookup found an entity.
var ErrNoMatch = errors.New("catalog: no such entity")

// Resolve looks name up exactly, then falls back to the closest fuzzy match.
// corrected is true when the returned entity came from the fuzzy path.
func (c *Catalog) Resolve(name string) (e Entity, corrected bool, err error) {
	if e, ok := c.entities[name]; ok {
		return e, false, nil
	}
	best, _, ok := c.closest(name)
	if !ok {
		return Entity{}, false, fmt.Errorf("%w: %q", ErrNoMatch, name)
	}
	return c.entities[best], true, nil
}

// FuzzyResolve is Resolve without the correction flag.
func (c *Catalog) FuzzyResolve(name string) (Entity, error) {
	e, _, err := c.Resolve(name)
	return e, err
}

// closest scans every name for the highest ratio at or above SimilarityCutoff.
// Names are visited in sorted order and only a strictly better score replaces
// the current best, so ties resolve to the lexicographically smallest name.
func (c *Catalog) closest(word string) (string, float64, bool) {
	if strings.TrimSpace(word) == "" {
		return "", 0, false
	}
	m := difflib.NewMatcher(nil, chars(word))
	best, bestScore := "", 0.0
	for _, name := range c.names {
		m.SetSeq1(chars(name))
		// Cheap upper bounds first.
		if m.RealQuickRatio() < SimilarityCutoff || m.QuickRatio() < SimilarityCutoff {
			continue
		}
		score := m.Ratio()
		if score >= SimilarityCutoff && score > bestScore {
			best, bestScore = name, score
		}
	}
	return best, bestScore, best != ""
}

// Similarity is the SequenceMatcher ratio of a against b, in [0, 1].
func Similarity(a, b string) float64 {
	return difflib.NewMatcher(chars(a), chars(b)).Ratio()
}

// chars splits s into per-character tokens so matching works on runes.
func chars(s string) []string { return strings.Split(s, "") }
