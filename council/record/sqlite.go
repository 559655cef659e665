package record

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite records the decision in a single-row table inside a database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and makes sure
// the decision table exists.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("record: opening sqlite at %s: %w", path, err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS decision (
			id         INTEGER PRIMARY KEY CHECK (id = 1),
			value      TEXT NOT NULL,
			ballot     TEXT NOT NULL,
			decided_at TEXT NOT NULL
		)`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("record: initializing sqlite schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// SaveDecision records d, replacing any earlier row.
func (s *SQLite) SaveDecision(d Decision) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO decision (id, value, ballot, decided_at) VALUES (1, ?, ?, ?)`,
		d.Value, d.Ballot, d.DecidedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record: saving decision: %w", err)
	}
	return nil
}

// LastDecision returns the recorded decision, if any.
func (s *SQLite) LastDecision() (Decision, bool, error) {
	var d Decision
	var decidedAt string
	err := s.db.QueryRow(`SELECT value, ballot, decided_at FROM decision WHERE id = 1`).
		Scan(&d.Value, &d.Ballot, &decidedAt)
	if err == sql.ErrNoRows {
		return Decision{}, false, nil
	}
	if err != nil {
		return Decision{}, false, fmt.Errorf("record: reading decision: %w", err)
	}
	if t, err := time.Parse(time.RFC3339Nano, decidedAt); err == nil {
		d.DecidedAt = t
	}
	return d, true, nil
}

// Close closes the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}
