// internal/store/memory.go
//
// In-memory registry of live game sessions, keyed by player.
//
// Characteristics:
//   - One slot per player: the session plus a 1-buffered channel used as its
//     exclusive lock. Guesses for the same player are serialized; different
//     players never contend beyond the short map lookup.
//   - A slot is dropped as soon as its session reaches a terminal state, so
//     memory is bounded by the number of live sessions.
//   - Lock acquisition honors context cancellation.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/X-Zero-L/aniguessr/internal/game"
)

var (
	// ErrActiveSession is returned by Start while the player still has a live session.
	ErrActiveSession = errors.New("store: player already has an active session")
	// ErrNoSession is returned by Do when the player has no live session.
	ErrNoSession = errors.New("store: no active session")
)

type slot struct {
	sem     chan struct{}
	session *game.Session
}

func newSlot(s *game.Session) *slot {
	return &slot{sem: make(chan struct{}, 1), session: s}
}

func (sl *slot) tryLock() bool {
	select {
	case sl.sem <- struct{}{}:
		return true
	default:
		return false
	}
}

func (sl *slot) lock(ctx context.Context) error {
	select {
	case sl.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (sl *slot) unlock() { <-sl.sem }

// Sessions maps players to their live session.
type Sessions struct {
	mu    sync.RWMutex     // guards slots
	slots map[string]*slot // keyed by player id
}

// NewSessions constructs an empty registry.
func NewSessions() *Sessions {
	return &Sessions{slots: make(map[string]*slot)}
}

// Start registers the session built by fn for player.
// A player whose previous session is terminal or past its timeout gets a new
// one; a player with a session still in play gets ErrActiveSession and fn is
// not called.
func (m *Sessions) Start(ctx context.Context, player string, fn func() (*game.Session, error)) (*game.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.slots[player]; ok {
		if !old.tryLock() {
			return nil, ErrActiveSession
		}
		expired := old.session.Expire()
		live := !old.session.Status().Terminal()
		old.unlock()
		if live {
			return nil, ErrActiveSession
		}
		if expired {
			log.Debug().Str("player", player).Str("session", old.session.ID()).Msg("replacing timed out session")
		}
		delete(m.slots, player)
	}

	s, err := fn()
	if err != nil {
		return nil, err
	}
	m.slots[player] = newSlot(s)
	return s, nil
}

// Do runs fn with exclusive access to player's session.
// If the session is terminal afterwards the slot is released, and the next
// Start for that player succeeds.
func (m *Sessions) Do(ctx context.Context, player string, fn func(*game.Session) error) error {
	m.mu.RLock()
	sl, ok := m.slots[player]
	m.mu.RUnlock()
	if !ok {
		return ErrNoSession
	}

	if err := sl.lock(ctx); err != nil {
		return err
	}
	defer sl.unlock()

	// The slot may have been swept or replaced while we waited.
	m.mu.RLock()
	cur := m.slots[player]
	m.mu.RUnlock()
	if cur != sl {
		return ErrNoSession
	}

	err := fn(sl.session)
	if sl.session.Status().Terminal() {
		m.drop(player, sl)
	}
	return err
}

func (m *Sessions) drop(player string, sl *slot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slots[player] == sl {
		delete(m.slots, player)
	}
}

// Sweep expires and removes every session past its timeout, skipping those
// currently in use. The removed sessions are returned keyed by player.
func (m *Sessions) Sweep() map[string]*game.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]*game.Session)
	for player, sl := range m.slots {
		if !sl.tryLock() {
			continue
		}
		sl.session.Expire()
		if sl.session.Status().Terminal() {
			delete(m.slots, player)
			out[player] = sl.session
		}
		sl.unlock()
	}
	if len(out) > 0 {
		log.Info().Int("expired", len(out)).Int("live", len(m.slots)).Msg("session sweep")
	}
	return out
}

// Active reports whether player has a registered session.
func (m *Sessions) Active(player string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.slots[player]
	return ok
}

// Len is the number of registered sessions.
func (m *Sessions) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.slots)
}
