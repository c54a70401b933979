package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/X-Zero-L/aniguessr/internal/catalog"
	"github.com/X-Zero-L/aniguessr/internal/game"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Build(catalog.Table{
		"Alice": {"red_hair", "tall"},
		"Bob":   {"red_hair", "short"},
	}, 1)
	require.NoError(t, err)
	return c
}

func starter(t *testing.T, cat *catalog.Catalog, opts ...game.Option) func() (*game.Session, error) {
	t.Helper()
	return func() (*game.Session, error) {
		st := game.DefaultSettings()
		st.MinAttrCount = 1
		st.Timeout = time.Minute
		return game.Start(cat, st, append([]game.Option{game.WithTarget("Alice")}, opts...)...)
	}
}

func TestStartRejectsSecondLiveSession(t *testing.T) {
	ctx := context.Background()
	m := NewSessions()
	cat := newCatalog(t)

	s, err := m.Start(ctx, "p1", starter(t, cat))
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.True(t, m.Active("p1"))

	called := false
	_, err = m.Start(ctx, "p1", func() (*game.Session, error) {
		called = true
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrActiveSession)
	assert.False(t, called)

	_, err = m.Start(ctx, "p2", starter(t, cat))
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())
}

func TestDoReleasesTerminalSession(t *testing.T) {
	ctx := context.Background()
	m := NewSessions()
	_, err := m.Start(ctx, "p1", starter(t, newCatalog(t)))
	require.NoError(t, err)

	err = m.Do(ctx, "p1", func(s *game.Session) error {
		_, err := s.Guess("Bob")
		return err
	})
	require.NoError(t, err)
	assert.True(t, m.Active("p1"))

	err = m.Do(ctx, "p1", func(s *game.Session) error {
		res, err := s.Guess("Alice")
		require.NoError(t, err)
		assert.True(t, res.Correct)
		return nil
	})
	require.NoError(t, err)
	assert.False(t, m.Active("p1"))

	err = m.Do(ctx, "p1", func(*game.Session) error { return nil })
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = m.Start(ctx, "p1", starter(t, newCatalog(t)))
	assert.NoError(t, err)
}

func TestDoHonorsContext(t *testing.T) {
	m := NewSessions()
	_, err := m.Start(context.Background(), "p1", starter(t, newCatalog(t)))
	require.NoError(t, err)

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- m.Do(context.Background(), "p1", func(*game.Session) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = m.Do(ctx, "p1", func(*game.Session) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, <-done)
}

func TestDoSerializesPerPlayer(t *testing.T) {
	m := NewSessions()
	_, err := m.Start(context.Background(), "p1", starter(t, newCatalog(t)))
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Do(context.Background(), "p1", func(*game.Session) error {
				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

func TestSweepExpiresTimedOutSessions(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cat := newCatalog(t)
	m := NewSessions()

	_, err := m.Start(ctx, "old", starter(t, cat, game.WithClock(clk.Now)))
	require.NoError(t, err)
	assert.Empty(t, m.Sweep())

	clk.Advance(2 * time.Minute)
	_, err = m.Start(ctx, "fresh", starter(t, cat))
	require.NoError(t, err)

	swept := m.Sweep()
	require.Len(t, swept, 1)
	require.Contains(t, swept, "old")
	assert.Equal(t, game.StatusTimedOut, swept["old"].Status())
	assert.Equal(t, 1, m.Len())
	assert.True(t, m.Active("fresh"))
}

func TestStartReplacesTimedOutSession(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cat := newCatalog(t)
	m := NewSessions()

	first, err := m.Start(ctx, "p1", starter(t, cat, game.WithClock(clk.Now)))
	require.NoError(t, err)
	clk.Advance(2 * time.Minute)

	second, err := m.Start(ctx, "p1", starter(t, cat))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID(), second.ID())
	assert.Equal(t, game.StatusTimedOut, first.Status())
	assert.Equal(t, 1, m.Len())
}
