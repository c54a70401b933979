// internal/game/types.go
//
// Core type definitions for the deduction engine.
// Defines:
//   - Verdict: per-attribute result of scoring a guess (exact/close/higher/lower/different).
//   - Verdicts: the full scoring of one guess, keyed by attribute label.
//   - Status: lifecycle state of a Session.
//   - Settings: per-session policy snapshot.
//   - GuessResult: what a Guess call reports back to the caller.

package game

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// VerdictStatus is the outcome for a single attribute.
//   - "exact":     the target has this attribute (numeric: same magnitude).
//   - "close":     numeric, same category, within the category tolerance.
//   - "higher":    numeric, the target's value is higher than the guess's.
//   - "lower":     numeric, the target's value is lower than the guess's.
//   - "different": categorical mismatch in either direction.
type VerdictStatus string

const (
	VerdictExact     VerdictStatus = "exact"
	VerdictClose     VerdictStatus = "close"
	VerdictHigher    VerdictStatus = "higher"
	VerdictLower     VerdictStatus = "lower"
	VerdictDifferent VerdictStatus = "different"
)

// Verdict is immutable once produced.
type Verdict struct {
	Status VerdictStatus `json:"status"`
	Value  string        `json:"value"`
	Note   string        `json:"note,omitempty"`
}

// Verdicts maps attribute label → verdict for one guess.
type Verdicts map[string]Verdict

// Keys returns the attribute labels in a stable (sorted) order.
func (v Verdicts) Keys() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Count returns how many verdicts have status s.
func (v Verdicts) Count(s VerdictStatus) int {
	n := 0
	for _, x := range v {
		if x.Status == s {
			n++
		}
	}
	return n
}

// Status is the lifecycle state of a Session.
type Status string

const (
	StatusActive    Status = "active"
	StatusWon       Status = "won"
	StatusGivenUp   Status = "given_up"
	StatusTimedOut  Status = "timed_out"
	StatusExhausted Status = "exhausted"
)

// Terminal reports whether no further guesses are accepted.
func (s Status) Terminal() bool { return s != StatusActive }

// Settings is the per-session policy snapshot.
type Settings struct {
	MaxAttempts  int           // guesses before the session is forced to Exhausted
	Timeout      time.Duration // session age ceiling
	HintCount    int           // target attributes revealed at start
	MinAttrCount int           // catalog inclusion floor used to build the catalog
}

// DefaultSettings mirrors the stock game: 10 attempts, 5 minutes, 3 hints,
// entities need 5 attributes.
func DefaultSettings() Settings {
	return Settings{
		MaxAttempts:  10,
		Timeout:      300 * time.Second,
		HintCount:    3,
		MinAttrCount: 5,
	}
}

// ErrInvalidSettings wraps every Settings validation failure.
var ErrInvalidSettings = errors.New("game: invalid settings")

// Validate rejects settings no session could run with.
func (s Settings) Validate() error {
	switch {
	case s.MaxAttempts <= 0:
		return fmt.Errorf("%w: max attempts must be positive, got %d", ErrInvalidSettings, s.MaxAttempts)
	case s.Timeout <= 0:
		return fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidSettings, s.Timeout)
	case s.HintCount < 0:
		return fmt.Errorf("%w: hint count must not be negative, got %d", ErrInvalidSettings, s.HintCount)
	case s.MinAttrCount < 0:
		return fmt.Errorf("%w: min attribute count must not be negative, got %d", ErrInvalidSettings, s.MinAttrCount)
	}
	return nil
}

// GuessResult reports one Guess call.
// Target is only filled in once the session reached a terminal state.
type GuessResult struct {
	Input     string   `json:"input"`               // name as typed
	Guess     string   `json:"guess,omitempty"`     // resolved entity name
	Corrected bool     `json:"corrected,omitempty"` // resolved through fuzzy matching
	Correct   bool     `json:"correct"`
	Verdicts  Verdicts `json:"verdicts,omitempty"`
	Attempts  int      `json:"attempts"`
	Status    Status   `json:"status"`
	Target    string   `json:"target,omitempty"`
}
