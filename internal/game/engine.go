// internal/game/engine.go
//
// Game engine for a single deduction session.
// Responsibilities:
//   - Draw the hidden target and seed the DeductionState with hint attributes.
//   - Gate every guess on the timeout and attempt limits.
//   - Resolve guessed names (exact, then fuzzy) and score them with Compare.
//   - Track state transitions: active → won / given_up / timed_out / exhausted.
//
// Notes:
//   - A Session is owned by one player and is not safe for concurrent use;
//     callers serialize access (see internal/store).
//   - The timeout is polled on each Guess against a monotonic clock; nothing
//     runs in the background.
//   - The target name is only revealed once the session is terminal.
package game

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/X-Zero-L/aniguessr/internal/catalog"
)

// Session holds the state of one play-through.
type Session struct {
	id        string
	catalog   *catalog.Catalog
	settings  Settings
	target    catalog.Entity
	status    Status
	attempts  int
	startedAt time.Time
	now       func() time.Time
	state     *DeductionState
	guessed   map[string]struct{}
	hints     []string
}

// Option customizes Start.
type Option func(*options)

type options struct {
	id     string
	target string
	now    func() time.Time
	rng    *rand.Rand
}

// WithTarget fixes the hidden target instead of drawing one at random.
func WithTarget(name string) Option { return func(o *options) { o.target = name } }

// WithClock replaces time.Now for timeout checks.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// WithRand uses r for target selection and hint sampling.
func WithRand(r *rand.Rand) Option { return func(o *options) { o.rng = r } }

// WithID sets the session id (a random UUID otherwise).
func WithID(id string) Option { return func(o *options) { o.id = id } }

// Start creates an active session over cat.
// If no target is given a random one is drawn. The DeductionState is seeded
// with HintCount randomly sampled target attributes, or all of them when the
// target has no more than HintCount.
func Start(cat *catalog.Catalog, settings Settings, opts ...Option) (*Session, error) {
	if cat == nil || cat.Len() == 0 {
		return nil, catalog.ErrEmptyCatalog
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = uuid.NewString()
	}

	var target catalog.Entity
	if o.target != "" {
		t, ok := cat.Lookup(o.target)
		if !ok {
			return nil, fmt.Errorf("start with target %q: %w", o.target, catalog.ErrNoMatch)
		}
		target = t
	} else {
		target = cat.RandomEntityFrom(o.rng)
	}

	s := &Session{
		id:        o.id,
		catalog:   cat,
		settings:  settings,
		target:    target,
		status:    StatusActive,
		startedAt: o.now(),
		now:       o.now,
		state:     NewDeductionState(),
		guessed:   make(map[string]struct{}),
	}
	s.hints = sampleHints(target.Attributes(), settings.HintCount, o.rng)
	if err := s.state.AddConfirmedMany(s.hints); err != nil {
		return nil, err
	}

	log.Info().Str("session", s.id).Int("hints", len(s.hints)).Msg("game created")
	log.Debug().Str("session", s.id).Str("target", target.Name).Msg("target drawn")
	return s, nil
}

// sampleHints picks n labels from attrs without replacement.
func sampleHints(attrs []string, n int, r *rand.Rand) []string {
	if len(attrs) <= n {
		return attrs
	}
	var perm []int
	if r != nil {
		perm = r.Perm(len(attrs))
	} else {
		perm = rand.Perm(len(attrs))
	}
	out := make([]string, n)
	for i := range out {
		out[i] = attrs[perm[i]]
	}
	return out
}

// Guess scores one guess.
//
// Precondition gates run first: a timed-out or exhausted session transitions
// to its terminal state and the returned result reveals the target instead of
// scoring anything. Otherwise the attempt counter increments and the name is
// resolved; an unresolvable name returns *UnknownEntityError (the attempt is
// still consumed). A case-sensitive match with the target wins; anything else
// is scored with Compare and the session stays active.
func (s *Session) Guess(name string) (*GuessResult, error) {
	if s.status.Terminal() {
		return nil, fmt.Errorf("%w (%s)", ErrSessionNotActive, s.status)
	}
	if s.IsTimedOut() {
		return s.finish(StatusTimedOut, name), nil
	}
	if s.IsExhausted() {
		return s.finish(StatusExhausted, name), nil
	}

	s.attempts++
	e, corrected, err := s.catalog.Resolve(name)
	if err != nil {
		log.Debug().Str("session", s.id).Str("input", name).Int("attempts", s.attempts).Msg("unknown entity")
		return nil, &UnknownEntityError{Name: name, Attempts: s.attempts}
	}
	if corrected {
		log.Debug().Str("session", s.id).Str("input", name).Str("resolved", e.Name).Msg("fuzzy match")
	}
	s.guessed[e.Name] = struct{}{}

	res := &GuessResult{
		Input:     name,
		Guess:     e.Name,
		Corrected: corrected,
		Attempts:  s.attempts,
	}
	if e.Name == s.target.Name {
		res.Correct = true
		s.status = StatusWon
		res.Status, res.Target = s.status, s.target.Name
		log.Info().Str("session", s.id).Int("attempts", s.attempts).Msg("game won")
		return res, nil
	}

	res.Verdicts = Compare(s.catalog, e, s.target, s.state)
	res.Status = s.status
	log.Debug().Str("session", s.id).Str("guess", e.Name).Int("attempts", s.attempts).
		Int("verdicts", len(res.Verdicts)).Msg("guess scored")
	return res, nil
}

// GiveUp ends an active session and reveals the target.
func (s *Session) GiveUp() (string, error) {
	if s.status.Terminal() {
		return "", fmt.Errorf("%w (%s)", ErrSessionNotActive, s.status)
	}
	s.finish(StatusGivenUp, "")
	return s.target.Name, nil
}

func (s *Session) finish(st Status, input string) *GuessResult {
	s.status = st
	log.Info().Str("session", s.id).Str("status", string(st)).Int("attempts", s.attempts).Msg("game over")
	return &GuessResult{Input: input, Attempts: s.attempts, Status: st, Target: s.target.Name}
}

// Expire moves an active session past its timeout to StatusTimedOut.
// It reports whether the transition happened.
func (s *Session) Expire() bool {
	if s.status.Terminal() || !s.IsTimedOut() {
		return false
	}
	s.finish(StatusTimedOut, "")
	return true
}

// IsTimedOut reports whether the session is older than its timeout.
func (s *Session) IsTimedOut() bool {
	return s.Elapsed() > s.settings.Timeout
}

// IsExhausted reports whether every allowed attempt has been used.
func (s *Session) IsExhausted() bool {
	return s.attempts >= s.settings.MaxAttempts
}

// Candidates lists the entities still consistent with what is known,
// excluding those already guessed. See the package-level Candidates.
func (s *Session) Candidates() []string {
	return Candidates(s.catalog, s.state, s.guessed)
}

// Target returns the target name once the session is terminal.
func (s *Session) Target() (string, bool) {
	if !s.status.Terminal() {
		return "", false
	}
	return s.target.Name, true
}

// ID is the session identifier.
func (s *Session) ID() string { return s.id }

// Status is the current lifecycle state.
func (s *Session) Status() Status { return s.status }

// Attempts is the number of attempts consumed so far.
func (s *Session) Attempts() int { return s.attempts }

// Remaining is the number of attempts left.
func (s *Session) Remaining() int {
	if n := s.settings.MaxAttempts - s.attempts; n > 0 {
		return n
	}
	return 0
}

// Settings returns the session's policy snapshot.
func (s *Session) Settings() Settings { return s.settings }

// StartedAt is the creation time.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Elapsed is the session age.
func (s *Session) Elapsed() time.Duration { return s.now().Sub(s.startedAt) }

// TimeLeft is the time until the timeout, floored at zero.
func (s *Session) TimeLeft() time.Duration {
	if d := s.settings.Timeout - s.Elapsed(); d > 0 {
		return d
	}
	return 0
}

// Hints returns the attributes revealed at start.
func (s *Session) Hints() []string { return append([]string(nil), s.hints...) }

// Facts snapshots the deduction state.
func (s *Session) Facts() Facts { return s.state.Facts() }

// HasClues reports whether any fact is known yet.
func (s *Session) HasClues() bool { return !s.state.IsEmpty() }

// Guessed returns the resolved names guessed so far, sorted.
func (s *Session) Guessed() []string {
	out := make([]string, 0, len(s.guessed))
	for name := range s.guessed {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// IsUnknownEntity reports whether err came from a guess that matched nothing.
func IsUnknownEntity(err error) bool {
	var ue *UnknownEntityError
	return errors.As(err, &ue)
}
