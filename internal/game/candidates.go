package game

import "github.com/X-Zero-L/aniguessr/internal/catalog"

// Candidates lists, sorted, the catalog entities consistent with every fact in
// state, minus excludedNames (entities already guessed).
//
// With no facts at all it returns nil: "no clues yet" is reported as unknown
// rather than as the whole catalog. Callers tell that apart from "no entity
// fits" with state.IsEmpty().
func Candidates(cat *catalog.Catalog, state *DeductionState, excludedNames map[string]struct{}) []string {
	if state.IsEmpty() {
		return nil
	}
	return cat.Filter(state.Confirmed(), state.Excluded(), excludedNames)
}
