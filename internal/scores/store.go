package scores

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store is a SQLite-backed Sink plus the read side of the leaderboard.
type Store struct {
	db       *sql.DB
	pageSize int
}

// ErrEmptyLeaderboard is returned by Page when no one has played yet.
var ErrEmptyLeaderboard = errors.New("scores: leaderboard is empty")

// Open opens (or creates) the leaderboard database at path.
// busy_timeout avoids "database locked" errors when timer goroutines and
// command handlers write concurrently.
func Open(path string, pageSize int) (*Store, error) {
	if pageSize < 1 {
		return nil, fmt.Errorf("scores: page size must be positive, got %d", pageSize)
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("scores: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("scores: ping database: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS leaderboard (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		points INTEGER NOT NULL,
		solves INTEGER NOT NULL,
		strikes INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("scores: create schema: %w", err)
	}
	return &Store{db: db, pageSize: pageSize}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) record(actor string, points, solves, strikes int) error {
	_, err := s.db.Exec(`INSERT INTO leaderboard (id, username, points, solves, strikes)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			points = points + excluded.points,
			solves = solves + excluded.solves,
			strikes = strikes + excluded.strikes`,
		actor, actor, points, solves, strikes)
	if err != nil {
		return fmt.Errorf("scores: record for %s: %w", actor, err)
	}
	return nil
}

// RecordSolve credits a solve worth weight points.
func (s *Store) RecordSolve(actor string, weight int) error {
	return s.record(actor, weight, 1, 0)
}

// RecordStrike debits a strike worth weight points.
func (s *Store) RecordStrike(actor string, weight int) error {
	return s.record(actor, -weight, 0, 1)
}

// RecordPenalty debits points without counting a strike. Used for forfeits
// such as abandoning a claimed module in a lost game.
func (s *Store) RecordPenalty(actor string, points int) error {
	return s.record(actor, -points, 0, 0)
}

// Page returns one leaderboard page (1-based) ordered by points, along with
// the total page count.
func (s *Store) Page(page int) ([]Entry, int, error) {
	if page < 1 {
		return nil, 0, fmt.Errorf("scores: page must be positive, got %d", page)
	}
	var total int
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM leaderboard`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("scores: count entries: %w", err)
	}
	if total == 0 {
		return nil, 0, ErrEmptyLeaderboard
	}
	pages := (total-1)/s.pageSize + 1
	if page > pages {
		return nil, pages, fmt.Errorf("scores: page %d out of range, leaderboard has %d", page, pages)
	}

	rows, err := s.db.Query(`SELECT
			(SELECT COUNT(1) FROM leaderboard AS i WHERE i.points > o.points) + 1 AS position,
			o.username, o.solves, o.strikes, o.points
		FROM leaderboard AS o
		ORDER BY o.points DESC, o.username ASC
		LIMIT ? OFFSET ?`, s.pageSize, (page-1)*s.pageSize)
	if err != nil {
		return nil, pages, fmt.Errorf("scores: query page %d: %w", page, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Position, &e.Username, &e.Solves, &e.Strikes, &e.Points); err != nil {
			return nil, pages, fmt.Errorf("scores: scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, pages, fmt.Errorf("scores: iterate page %d: %w", page, err)
	}
	return entries, pages, nil
}

// Rank returns the entry for one actor. The boolean reports whether the actor
// has ever played.
func (s *Store) Rank(actor string) (Entry, bool, error) {
	var e Entry
	err := s.db.QueryRow(`SELECT
			(SELECT COUNT(1) FROM leaderboard AS i WHERE i.points > o.points) + 1 AS position,
			o.username, o.solves, o.strikes, o.points
		FROM leaderboard AS o
		WHERE o.id = ?`, actor).
		Scan(&e.Position, &e.Username, &e.Solves, &e.Strikes, &e.Points)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("scores: rank for %s: %w", actor, err)
	}
	return e, true, nil
}
