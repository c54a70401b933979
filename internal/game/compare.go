// internal/game/compare.go
//
// Scoring of one guessed entity against the hidden target.
//
// Pass 1 walks the guessed entity's attributes:
//   - target has it      → confirmed; "exact" (numeric: compared by magnitude).
//   - target lacks it    → excluded; always "different". For a numeric label
//     whose category the target also carries, the note says whether the
//     target's value is higher, lower or close.
//
// Pass 2 re-surfaces every confirmed attribute the guess does not have as
// "different", so previously learned facts show up next to each new guess.
//
// Catalog data is never touched; only the verdicts and the DeductionState are.

package game

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/X-Zero-L/aniguessr/internal/catalog"
)

const (
	valueTargetLacks = "target does not have this trait"
	valueTargetHas   = "target has this trait"
	noteTargetLacks  = "this trait is absent from the target"
	noteTargetHas    = "this trait is present on the target"
	noteValuesMatch  = "values match"
	noteNoValue      = "value could not be compared"
	noteHigher       = "the target's value is higher"
	noteLower        = "the target's value is lower"
	noteClose        = "the target's value is close"
)

// Compare scores guess against target, recording learned facts in state.
func Compare(cat *catalog.Catalog, guess, target catalog.Entity, state *DeductionState) Verdicts {
	out := make(Verdicts)

	for _, label := range guess.Attributes() {
		attr := cat.Attribute(label)
		if target.Has(label) {
			record(state.AddConfirmed(label))
			if attr.Numeric() {
				out[label] = numericVerdict(attr, attr)
			} else {
				out[label] = Verdict{Status: VerdictExact, Value: label}
			}
			continue
		}

		record(state.AddExcluded(label))
		out[label] = Verdict{Status: VerdictDifferent, Value: valueTargetLacks, Note: lackedNote(cat, target, attr)}
	}

	for _, label := range state.Confirmed() {
		if guess.Has(label) {
			continue
		}
		out[label] = Verdict{Status: VerdictDifferent, Value: valueTargetHas, Note: noteTargetHas}
	}
	return out
}

// numericVerdict compares the target's value against the guess's value.
func numericVerdict(guessed, target catalog.Attribute) Verdict {
	if !guessed.HasValue || !target.HasValue {
		return Verdict{Status: VerdictDifferent, Value: guessed.Label, Note: noteNoValue}
	}
	diff := target.Value - guessed.Value
	switch {
	case diff == 0:
		return Verdict{Status: VerdictExact, Value: guessed.Label, Note: noteValuesMatch}
	case guessed.Tolerance > 0 && math.Abs(diff) <= guessed.Tolerance:
		return Verdict{Status: VerdictClose, Value: guessed.Label, Note: noteClose}
	case diff > 0:
		return Verdict{Status: VerdictHigher, Value: guessed.Label, Note: noteHigher}
	default:
		return Verdict{Status: VerdictLower, Value: guessed.Label, Note: noteLower}
	}
}

// lackedNote describes a trait the target lacks. Numeric labels get a
// magnitude hint when the target carries a value in the same category.
func lackedNote(cat *catalog.Catalog, target catalog.Entity, attr catalog.Attribute) string {
	if !attr.Numeric() {
		return noteTargetLacks
	}
	other, ok := sameCategory(cat, target, attr)
	if !ok {
		return noteTargetLacks
	}
	return numericVerdict(attr, other).Note
}

// sameCategory finds the target's first parseable label in attr's category.
func sameCategory(cat *catalog.Catalog, target catalog.Entity, attr catalog.Attribute) (catalog.Attribute, bool) {
	for _, label := range target.Attributes() {
		other := cat.Attribute(label)
		if other.Numeric() && other.HasValue && other.Category == attr.Category {
			return other, true
		}
	}
	return catalog.Attribute{}, false
}

// record logs facts that contradict what is already known. Facts derived from
// the real target can't contradict each other, so this only fires on bugs.
func record(err error) {
	if err != nil {
		log.Warn().Err(err).Msg("deduction fact rejected")
	}
}
