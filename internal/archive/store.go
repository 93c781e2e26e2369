// Package archive keeps finished matches and their camera sessions in a
// SQLite database so history survives map changes and restarts.
package archive

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/admincam/camwatch/internal/camera"
)

//go:embed schema.sql
var schema string

// Match is one archived round.
type Match struct {
	ID        int64             `json:"id"`
	Layer     string            `json:"layer,omitempty"`
	Winner    string            `json:"winner,omitempty"`
	StartedAt time.Time         `json:"startedAt"`
	EndedAt   time.Time         `json:"endedAt"`
	Stats     camera.Stats      `json:"stats"`
	Sessions  []*camera.Session `json:"sessions,omitempty"`
}

// AdminTotal is the all-time camera usage of one admin.
type AdminTotal struct {
	AdminID     string    `json:"adminId"`
	Name        string    `json:"name"`
	Sessions    int       `json:"sessions"`
	TotalTimeMs int64     `json:"totalTimeMs"`
	Orphaned    int       `json:"orphaned"`
	LastSeen    time.Time `json:"lastSeen"`
}

// Store is safe for concurrent use.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("archive path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveMatch stores m and its sessions in one transaction and returns the new
// match ID. Sessions still open are stored without an end time.
func (s *Store) SaveMatch(ctx context.Context, m Match) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
INSERT INTO matches (
	layer, winner, started_at, ended_at,
	total_sessions, total_time_ms, peak_users, orphaned_sessions
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Layer, m.Winner, m.StartedAt.UTC().UnixMilli(), m.EndedAt.UTC().UnixMilli(),
		m.Stats.TotalSessions, m.Stats.TotalTimeMs, m.Stats.PeakUsers, m.Stats.OrphanedSessions,
	)
	if err != nil {
		return 0, fmt.Errorf("insert match: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO sessions (
	match_id, admin_id, steam_id, name, start_time, end_time, duration_ms, orphaned
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare session insert: %w", err)
	}
	defer stmt.Close()

	for _, sess := range m.Sessions {
		var end sql.NullInt64
		if sess.EndTime != nil {
			end = sql.NullInt64{Int64: sess.EndTime.UTC().UnixMilli(), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			id, sess.AdminID, sess.SteamID, sess.Name,
			sess.StartTime.UTC().UnixMilli(), end, sess.DurationMs, sess.Orphaned,
		); err != nil {
			return 0, fmt.Errorf("insert session for %s: %w", sess.AdminID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// ListMatches returns up to limit matches, newest first, without sessions.
func (s *Store) ListMatches(ctx context.Context, limit int) ([]Match, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be greater than zero")
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, layer, winner, started_at, ended_at,
	total_sessions, total_time_ms, peak_users, orphaned_sessions
FROM matches
ORDER BY id DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		var (
			m              Match
			started, ended int64
		)
		if err := rows.Scan(&m.ID, &m.Layer, &m.Winner, &started, &ended,
			&m.Stats.TotalSessions, &m.Stats.TotalTimeMs, &m.Stats.PeakUsers, &m.Stats.OrphanedSessions,
		); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		m.StartedAt = fromMillis(started)
		m.EndedAt = fromMillis(ended)
		out = append(out, m)
	}
	return out, rows.Err()
}

// MatchSessions returns the sessions of one match in start order.
func (s *Store) MatchSessions(ctx context.Context, matchID int64) ([]*camera.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT admin_id, steam_id, name, start_time, end_time, duration_ms, orphaned
FROM sessions
WHERE match_id = ?
ORDER BY start_time, id`, matchID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []*camera.Session
	for rows.Next() {
		var (
			sess  camera.Session
			start int64
			end   sql.NullInt64
		)
		if err := rows.Scan(&sess.AdminID, &sess.SteamID, &sess.Name, &start, &end, &sess.DurationMs, &sess.Orphaned); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.StartTime = fromMillis(start)
		if end.Valid {
			t := fromMillis(end.Int64)
			sess.EndTime = &t
			sess.Duration = camera.FormatDuration(sess.DurationMs)
		}
		out = append(out, &sess)
	}
	return out, rows.Err()
}

// AdminTotals sums closed sessions per admin across every archived match,
// most camera time first.
func (s *Store) AdminTotals(ctx context.Context, limit int) ([]AdminTotal, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be greater than zero")
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT admin_id, MAX(name), COUNT(*), SUM(duration_ms), SUM(orphaned), MAX(start_time)
FROM sessions
WHERE end_time IS NOT NULL
GROUP BY admin_id
ORDER BY SUM(duration_ms) DESC, admin_id
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("admin totals: %w", err)
	}
	defer rows.Close()

	var out []AdminTotal
	for rows.Next() {
		var (
			t    AdminTotal
			last int64
		)
		if err := rows.Scan(&t.AdminID, &t.Name, &t.Sessions, &t.TotalTimeMs, &t.Orphaned, &last); err != nil {
			return nil, fmt.Errorf("scan admin total: %w", err)
		}
		t.LastSeen = fromMillis(last)
		out = append(out, t)
	}
	return out, rows.Err()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
