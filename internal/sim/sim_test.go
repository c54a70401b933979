package sim

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/X-Zero-L/aniguessr/internal/catalog"
	"github.com/X-Zero-L/aniguessr/internal/daily"
	"github.com/X-Zero-L/aniguessr/internal/game"
	"github.com/X-Zero-L/aniguessr/internal/results"
	"github.com/X-Zero-L/aniguessr/internal/store"
)

func holder(t *testing.T) *catalog.Holder {
	t.Helper()
	c, err := catalog.Build(catalog.Table{
		"Alice": {"red_hair", "tall", "glasses"},
		"Bob":   {"red_hair", "short"},
		"Carol": {"black_hair", "tall"},
		"Dave":  {"black_hair", "short", "glasses"},
		"Eve":   {"blonde", "tall", "hat"},
		"Frank": {"blonde", "short"},
	}, 1)
	require.NoError(t, err)
	return catalog.NewHolder(c)
}

func generous() game.Settings {
	s := game.DefaultSettings()
	s.MaxAttempts = 10
	s.HintCount = 1
	s.MinAttrCount = 1
	s.Timeout = time.Minute
	return s
}

func TestRunWinsEveryGame(t *testing.T) {
	for _, strat := range []Strategy{StrategyFirst, StrategyRandom} {
		t.Run(string(strat), func(t *testing.T) {
			sessions := store.NewSessions()
			r := NewRunner(holder(t), sessions, nil, Config{
				Players:  4,
				Games:    5,
				Settings: generous(),
				Strategy: strat,
				Seed:     42,
			})

			sum, err := r.Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 20, sum.Games)
			assert.Equal(t, 20, sum.Won)
			assert.Zero(t, sum.GivenUp+sum.TimedOut+sum.Exhausted)
			assert.GreaterOrEqual(t, sum.Guesses, 20)
			assert.GreaterOrEqual(t, sum.AvgAttempts, 1.0)
			assert.LessOrEqual(t, sum.AvgAttempts, 6.0)
			assert.Zero(t, sessions.Len(), "finished sessions are released")
		})
	}
}

// Sessions swept by the store mid-game are left to the sweeper and never
// reported a second time by the runner.
func TestRunWithConcurrentSweep(t *testing.T) {
	st := generous()
	st.Timeout = time.Microsecond
	sessions := store.NewSessions()
	r := NewRunner(holder(t), sessions, nil, Config{Players: 4, Games: 5, Settings: st, Seed: 3})

	stop := make(chan struct{})
	swept := make(chan int)
	go func() {
		n := 0
		for {
			select {
			case <-stop:
				swept <- n
				return
			default:
				n += len(sessions.Sweep())
			}
		}
	}()

	sum, err := r.Run(context.Background())
	close(stop)
	n := <-swept
	require.NoError(t, err)

	assert.Equal(t, n, sum.Swept)
	assert.Equal(t, 20, sum.Games+sum.Swept)
	assert.Equal(t, sum.Games, sum.Won+sum.GivenUp+sum.TimedOut+sum.Exhausted)
	assert.Zero(t, sessions.Len())
}

func TestRunWithoutHints(t *testing.T) {
	st := generous()
	st.HintCount = 0
	r := NewRunner(holder(t), store.NewSessions(), nil, Config{Players: 2, Games: 3, Settings: st, Seed: 7})

	sum, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, sum.Won)
}

func TestRunTightLimitExhausts(t *testing.T) {
	st := generous()
	st.MaxAttempts = 1
	st.HintCount = 0
	r := NewRunner(holder(t), store.NewSessions(), nil, Config{Players: 1, Games: 30, Settings: st, Seed: 1})

	sum, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 30, sum.Games)
	assert.Equal(t, 30, sum.Won+sum.Exhausted)
	assert.Positive(t, sum.Exhausted)
}

func TestRunDailyRecordsResults(t *testing.T) {
	h := holder(t)
	rs, err := results.Open(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	defer rs.Close()

	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	r := NewRunner(h, store.NewSessions(), rs, Config{
		Players:  3,
		Games:    2,
		Settings: generous(),
		Seed:     3,
		Daily:    true,
		Salt:     "salt",
	})
	r.now = func() time.Time { return now }

	sum, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 6, sum.Won)

	want, err := daily.Target(h.Load(), now, "salt")
	require.NoError(t, err)

	ctx := context.Background()
	h0, err := rs.History(ctx, "sim-000", 10)
	require.NoError(t, err)
	require.Len(t, h0, 2)
	for _, rec := range h0 {
		assert.Equal(t, want, rec.Target)
		assert.Equal(t, "2024-05-01", rec.Day)
	}

	lb, err := rs.DailyLeaderboard(ctx, "2024-05-01", 50)
	require.NoError(t, err)
	assert.Len(t, lb, 6)
}

func TestRunRejectsBadConfig(t *testing.T) {
	r := NewRunner(holder(t), store.NewSessions(), nil, Config{Settings: generous(), Strategy: "greedy"})
	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, ErrUnknownStrategy)

	r = NewRunner(holder(t), store.NewSessions(), nil, Config{Settings: game.Settings{}})
	_, err = r.Run(context.Background())
	assert.ErrorIs(t, err, game.ErrInvalidSettings)

	r = NewRunner(catalog.NewHolder(nil), store.NewSessions(), nil, Config{Settings: generous()})
	_, err = r.Run(context.Background())
	assert.ErrorIs(t, err, catalog.ErrEmptyCatalog)
}
