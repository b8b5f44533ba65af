// Package history persists scan results so verdict drift is visible over
// time ("this skill scored 12 last month, 65 today").
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS scans (
	id TEXT PRIMARY KEY,
	skill TEXT NOT NULL,
	score INTEGER NOT NULL,
	verdict TEXT NOT NULL,
	critical_count INTEGER NOT NULL DEFAULT 0,
	warning_count INTEGER NOT NULL DEFAULT 0,
	info_count INTEGER NOT NULL DEFAULT 0,
	files_scanned INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_scans_skill ON scans(skill);
CREATE INDEX IF NOT EXISTS idx_scans_created ON scans(created_at);
`

// Entry is one recorded scan.
type Entry struct {
	ID            string    `json:"id"`
	Skill         string    `json:"skill"`
	Score         int       `json:"score"`
	Verdict       string    `json:"verdict"`
	CriticalCount int       `json:"critical_count"`
	WarningCount  int       `json:"warning_count"`
	InfoCount     int       `json:"info_count"`
	FilesScanned  int       `json:"files_scanned"`
	CreatedAt     time.Time `json:"created_at"`
}

// Store is the scan-history database.
type Store struct {
	db *sql.DB
}

// Open opens (and migrates) the history database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Record inserts one scan result and returns its id.
func (s *Store) Record(e Entry) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO scans (id, skill, score, verdict, critical_count, warning_count, info_count, files_scanned, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Skill, e.Score, e.Verdict,
		e.CriticalCount, e.WarningCount, e.InfoCount, e.FilesScanned,
		e.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("failed to record scan: %w", err)
	}
	return e.ID, nil
}

// Recent returns the latest scans, newest first. skill narrows to one skill
// when non-empty; limit <= 0 means 20.
func (s *Store) Recent(skill string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, skill, score, verdict, critical_count, warning_count, info_count, files_scanned, created_at
		FROM scans`
	args := []any{}
	if skill != "" {
		query += ` WHERE skill = ?`
		args = append(args, skill)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.ID, &e.Skill, &e.Score, &e.Verdict,
			&e.CriticalCount, &e.WarningCount, &e.InfoCount, &e.FilesScanned, &created); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, e)
	}
	return out, rows.Err()
}

// LastVerdict returns the most recent entry for a skill, or nil if the
// skill was never scanned.
func (s *Store) LastVerdict(skill string) (*Entry, error) {
	entries, err := s.Recent(skill, 1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}
