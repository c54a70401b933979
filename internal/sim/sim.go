// internal/sim/sim.go
//
// Automated players for exercising the engine end to end.
//
// Each simulated player runs its games one after another through the shared
// session store; players run concurrently. A player guesses from the
// session's consistent candidates (first or random), opens with a random
// entity while nothing is known, and gives up if no candidate is left.
// Finished sessions are reported to metrics and, when configured, the
// results store. Sessions the store sweeps away mid-game are left to the
// sweeper's reporting and only tallied as Swept.

package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/X-Zero-L/aniguessr/internal/catalog"
	"github.com/X-Zero-L/aniguessr/internal/daily"
	"github.com/X-Zero-L/aniguessr/internal/game"
	"github.com/X-Zero-L/aniguessr/internal/metrics"
	"github.com/X-Zero-L/aniguessr/internal/results"
	"github.com/X-Zero-L/aniguessr/internal/store"
)

// Strategy picks the next guess among the consistent candidates.
type Strategy string

const (
	StrategyFirst  Strategy = "first"
	StrategyRandom Strategy = "random"
)

// ErrUnknownStrategy is returned by Run for an unrecognized Strategy.
var ErrUnknownStrategy = errors.New("sim: unknown strategy")

// Config controls a simulation run.
type Config struct {
	Players  int
	Games    int // per player
	Settings game.Settings
	Strategy Strategy
	Seed     uint64
	Daily    bool   // every session uses the day's target
	Salt     string // daily target salt
}

// Summary aggregates a run.
type Summary struct {
	Games       int           `json:"games"`
	Won         int           `json:"won"`
	GivenUp     int           `json:"givenUp"`
	TimedOut    int           `json:"timedOut"`
	Exhausted   int           `json:"exhausted"`
	Guesses     int           `json:"guesses"`
	Swept       int           `json:"swept"` // expired by the store sweeper, not counted in Games
	AvgAttempts float64       `json:"avgAttempts"` // per won game
	Duration    time.Duration `json:"duration"`
}

// Runner plays simulated games.
type Runner struct {
	holder   *catalog.Holder
	sessions *store.Sessions
	results  *results.Store
	cfg      Config
	now      func() time.Time

	mu      sync.Mutex
	sum     Summary
	winAtts int
}

// NewRunner builds a Runner. res may be nil to skip persistence.
func NewRunner(holder *catalog.Holder, sessions *store.Sessions, res *results.Store, cfg Config) *Runner {
	if cfg.Players <= 0 {
		cfg.Players = 1
	}
	if cfg.Games <= 0 {
		cfg.Games = 1
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyFirst
	}
	return &Runner{holder: holder, sessions: sessions, results: res, cfg: cfg, now: time.Now}
}

// Run plays every game and returns the summary. The first error aborts the
// remaining players.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	if r.cfg.Strategy != StrategyFirst && r.cfg.Strategy != StrategyRandom {
		return Summary{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, r.cfg.Strategy)
	}
	if err := r.cfg.Settings.Validate(); err != nil {
		return Summary{}, err
	}

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < r.cfg.Players; i++ {
		p := &player{
			id:  fmt.Sprintf("sim-%03d", i),
			rng: rand.New(rand.NewPCG(r.cfg.Seed, uint64(i))),
			r:   r,
		}
		g.Go(func() error {
			for n := 0; n < r.cfg.Games; n++ {
				if err := p.play(ctx); err != nil {
					return fmt.Errorf("%s game %d: %w", p.id, n, err)
				}
			}
			return nil
		})
	}
	err := g.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	sum := r.sum
	if sum.Won > 0 {
		sum.AvgAttempts = float64(r.winAtts) / float64(sum.Won)
	}
	sum.Duration = time.Since(start)
	log.Info().
		Int("games", sum.Games).
		Int("won", sum.Won).
		Int("guesses", sum.Guesses).
		Int("swept", sum.Swept).
		Float64("avg_attempts", sum.AvgAttempts).
		Dur("took", sum.Duration).
		Msg("simulation finished")
	return sum, err
}

func (r *Runner) record(ctx context.Context, playerID string, s *game.Session, day string) error {
	metrics.Default().IncSession(string(s.Status()))

	r.mu.Lock()
	r.sum.Games++
	switch s.Status() {
	case game.StatusWon:
		r.sum.Won++
		r.winAtts += s.Attempts()
	case game.StatusGivenUp:
		r.sum.GivenUp++
	case game.StatusTimedOut:
		r.sum.TimedOut++
	case game.StatusExhausted:
		r.sum.Exhausted++
	}
	r.mu.Unlock()

	if r.results == nil {
		return nil
	}
	rec, ok := results.FromSession(playerID, s, day)
	if !ok {
		return nil
	}
	return r.results.Insert(ctx, rec)
}

type player struct {
	id  string
	rng *rand.Rand
	r   *Runner
}

func (p *player) play(ctx context.Context) error {
	cat := p.r.holder.Load()
	if cat == nil {
		return catalog.ErrEmptyCatalog
	}

	var day string
	opts := []game.Option{game.WithRand(p.rng)}
	if p.r.cfg.Daily {
		now := p.r.now()
		target, err := daily.Target(cat, now, p.r.cfg.Salt)
		if err != nil {
			return err
		}
		day = daily.DateKey(now)
		opts = append(opts, game.WithTarget(target))
	}

	sess, err := p.r.sessions.Start(ctx, p.id, func() (*game.Session, error) {
		return game.Start(cat, p.r.cfg.Settings, opts...)
	})
	if err != nil {
		return err
	}

	for done := false; !done; {
		err := p.r.sessions.Do(ctx, p.id, func(s *game.Session) error {
			var err error
			done, err = p.turn(cat, s)
			return err
		})
		if errors.Is(err, store.ErrNoSession) {
			// Swept after timing out; the sweeper reports it.
			p.r.mu.Lock()
			p.r.sum.Swept++
			p.r.mu.Unlock()
			return nil
		}
		if err != nil {
			return err
		}
	}
	// Terminal sessions leave the store inside Do, so nothing else touches sess.
	return p.r.record(ctx, p.id, sess, day)
}

// turn makes one move: a guess, or giving up when nothing fits. It reports
// whether the session is over, read while the caller holds the session.
func (p *player) turn(cat *catalog.Catalog, s *game.Session) (bool, error) {
	name, ok := p.pick(cat, s)
	if !ok {
		_, err := s.GiveUp()
		return s.Status().Terminal(), err
	}

	res, err := s.Guess(name)
	if err != nil {
		if game.IsUnknownEntity(err) {
			metrics.Default().IncGuess(metrics.GuessUnknown)
			return s.Status().Terminal(), nil
		}
		return s.Status().Terminal(), err
	}
	switch {
	case res.Correct:
		metrics.Default().IncGuess(metrics.GuessCorrect)
	case res.Status == game.StatusActive:
		metrics.Default().IncGuess(metrics.GuessWrong)
	default:
		return true, nil
	}

	p.r.mu.Lock()
	p.r.sum.Guesses++
	p.r.mu.Unlock()
	return s.Status().Terminal(), nil
}

func (p *player) pick(cat *catalog.Catalog, s *game.Session) (string, bool) {
	if !s.HasClues() {
		return p.opening(cat, s)
	}
	cands := s.Candidates()
	if len(cands) == 0 {
		return "", false
	}
	if p.r.cfg.Strategy == StrategyRandom {
		return cands[p.rng.IntN(len(cands))], true
	}
	return cands[0], true
}

// opening picks a random entity not guessed yet.
func (p *player) opening(cat *catalog.Catalog, s *game.Session) (string, bool) {
	guessed := make(map[string]struct{})
	for _, n := range s.Guessed() {
		guessed[n] = struct{}{}
	}
	var pool []string
	for _, n := range cat.Names() {
		if _, ok := guessed[n]; !ok {
			pool = append(pool, n)
		}
	}
	if len(pool) == 0 {
		return "", false
	}
	return pool[p.rng.IntN(len(pool))], true
}
