// Package results keeps the history of finished sessions in SQLite and
// derives per-player statistics and leaderboards from it.
package results

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/X-Zero-L/aniguessr/internal/game"
)

// Record is one finished session.
type Record struct {
	SessionID string
	Player    string
	Target    string
	Status    game.Status
	Attempts  int
	Hints     int
	Elapsed   time.Duration
	Day       string // YYYY-MM-DD for daily sessions, empty otherwise
	CreatedAt time.Time
}

// FromSession builds a Record from a terminal session.
// It returns false while the session is still active.
func FromSession(player string, s *game.Session, day string) (Record, bool) {
	target, ok := s.Target()
	if !ok {
		return Record{}, false
	}
	return Record{
		SessionID: s.ID(),
		Player:    player,
		Target:    target,
		Status:    s.Status(),
		Attempts:  s.Attempts(),
		Hints:     len(s.Hints()),
		Elapsed:   s.Elapsed(),
		Day:       day,
	}, true
}

// PlayerStats summarizes one player's history.
type PlayerStats struct {
	Player      string  `json:"player"`
	Played      int     `json:"played"`
	Won         int     `json:"won"`
	GivenUp     int     `json:"givenUp"`
	TimedOut    int     `json:"timedOut"`
	Exhausted   int     `json:"exhausted"`
	AvgAttempts float64 `json:"avgAttempts"` // over won sessions
}

// LBRow is one leaderboard line.
type LBRow struct {
	Player      string  `json:"player"`
	Wins        int     `json:"wins"`
	Played      int     `json:"played"`
	AvgAttempts float64 `json:"avgAttempts"`
}

// DailyLBRow is one line of a day's leaderboard.
type DailyLBRow struct {
	Player    string `json:"player"`
	Attempts  int    `json:"attempts"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// Store persists Records.
type Store struct{ db *sql.DB }

// Open opens (creating if needed) the database at dsn and migrates it.
func Open(dsn string) (*Store, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, fmt.Errorf("open results db: %w", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate results db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// Insert stores r. A second insert for the same session is ignored.
func (s *Store) Insert(ctx context.Context, r Record) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT OR IGNORE INTO game_results
            (session_id, player, target, status, attempts, hints, elapsed_ms, day)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SessionID, r.Player, r.Target, string(r.Status), r.Attempts, r.Hints, r.Elapsed.Milliseconds(), r.Day,
	)
	return err
}

// History returns a player's most recent records, newest first.
func (s *Store) History(ctx context.Context, player string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT session_id, player, target, status, attempts, hints, elapsed_ms, day, created_at
        FROM game_results
        WHERE player=?
        ORDER BY created_at DESC, id DESC
        LIMIT ?`, player, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r       Record
			status  string
			elapsed int64
		)
		if err := rows.Scan(&r.SessionID, &r.Player, &r.Target, &status, &r.Attempts, &r.Hints, &elapsed, &r.Day, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Status = game.Status(status)
		r.Elapsed = time.Duration(elapsed) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}

// PlayerStats aggregates a player's history. Unknown players get zero counts.
func (s *Store) PlayerStats(ctx context.Context, player string) (PlayerStats, error) {
	st := PlayerStats{Player: player}
	err := s.db.QueryRowContext(ctx, `
        SELECT
            COUNT(*),
            COALESCE(SUM(status = ?), 0),
            COALESCE(SUM(status = ?), 0),
            COALESCE(SUM(status = ?), 0),
            COALESCE(SUM(status = ?), 0),
            COALESCE(AVG(CASE WHEN status = ? THEN attempts END), 0)
        FROM game_results
        WHERE player=?`,
		string(game.StatusWon), string(game.StatusGivenUp), string(game.StatusTimedOut), string(game.StatusExhausted), string(game.StatusWon), player,
	).Scan(&st.Played, &st.Won, &st.GivenUp, &st.TimedOut, &st.Exhausted, &st.AvgAttempts)
	return st, err
}

// Leaderboard ranks players by wins (desc), then average attempts per win
// (asc), then name.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT
            player,
            SUM(status = ?) AS wins,
            COUNT(*) AS played,
            COALESCE(AVG(CASE WHEN status = ? THEN attempts END), 0) AS avg_attempts
        FROM game_results
        GROUP BY player
        ORDER BY wins DESC, avg_attempts ASC, player ASC
        LIMIT ?`, string(game.StatusWon), string(game.StatusWon), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LBRow, 0, limit)
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.Player, &r.Wins, &r.Played, &r.AvgAttempts); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DailyLeaderboard ranks the winners of day by attempts, then elapsed time,
// then finishing order.
func (s *Store) DailyLeaderboard(ctx context.Context, day string, limit int) ([]DailyLBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT player, attempts, elapsed_ms
        FROM game_results
        WHERE day=? AND status=?
        ORDER BY attempts ASC, elapsed_ms ASC, created_at ASC, id ASC
        LIMIT ?`, day, string(game.StatusWon), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]DailyLBRow, 0, limit)
	for rows.Next() {
		var r DailyLBRow
		if err := rows.Scan(&r.Player, &r.Attempts, &r.ElapsedMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
