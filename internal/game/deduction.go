package game

import (
	"errors"
	"fmt"
	"sort"
)

// ErrContradiction is returned when a fact would put one attribute in both
// the confirmed and excluded sets. The state is left unchanged.
var ErrContradiction = errors.New("game: contradictory attribute fact")

// DeductionState accumulates what is known about the hidden target:
// attributes it definitely has (confirmed) and definitely lacks (excluded).
// The two sets stay disjoint and only ever grow.
type DeductionState struct {
	confirmed map[string]struct{}
	excluded  map[string]struct{}
}

// NewDeductionState returns an empty state.
func NewDeductionState() *DeductionState {
	return &DeductionState{
		confirmed: make(map[string]struct{}),
		excluded:  make(map[string]struct{}),
	}
}

// AddConfirmed records that the target has attr.
func (d *DeductionState) AddConfirmed(attr string) error {
	if _, ok := d.excluded[attr]; ok {
		return fmt.Errorf("%w: %q is already excluded", ErrContradiction, attr)
	}
	d.confirmed[attr] = struct{}{}
	return nil
}

// AddExcluded records that the target lacks attr.
func (d *DeductionState) AddExcluded(attr string) error {
	if _, ok := d.confirmed[attr]; ok {
		return fmt.Errorf("%w: %q is already confirmed", ErrContradiction, attr)
	}
	d.excluded[attr] = struct{}{}
	return nil
}

// AddConfirmedMany confirms all attrs or none of them.
func (d *DeductionState) AddConfirmedMany(attrs []string) error {
	for _, a := range attrs {
		if _, ok := d.excluded[a]; ok {
			return fmt.Errorf("%w: %q is already excluded", ErrContradiction, a)
		}
	}
	for _, a := range attrs {
		d.confirmed[a] = struct{}{}
	}
	return nil
}

// IsEmpty reports whether nothing has been learned yet.
func (d *DeductionState) IsEmpty() bool {
	return len(d.confirmed) == 0 && len(d.excluded) == 0
}

// IsConfirmed reports whether attr is known to be held by the target.
func (d *DeductionState) IsConfirmed(attr string) bool {
	_, ok := d.confirmed[attr]
	return ok
}

// IsExcluded reports whether attr is known to be absent from the target.
func (d *DeductionState) IsExcluded(attr string) bool {
	_, ok := d.excluded[attr]
	return ok
}

// Confirmed returns the confirmed attributes, sorted.
func (d *DeductionState) Confirmed() []string { return sortedKeys(d.confirmed) }

// Excluded returns the excluded attributes, sorted.
func (d *DeductionState) Excluded() []string { return sortedKeys(d.excluded) }

// Facts is a read-only snapshot of a DeductionState.
type Facts struct {
	Confirmed []string `json:"confirmed"`
	Excluded  []string `json:"excluded"`
}

// Facts snapshots the state.
func (d *DeductionState) Facts() Facts {
	return Facts{Confirmed: d.Confirmed(), Excluded: d.Excluded()}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
