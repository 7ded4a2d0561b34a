// Package archive keeps a DuckDB copy of decoded log entries. It is an
// optional side channel of the collector; live statistics never read from it.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tinytelemetry/logrelay/internal/model"
)

// Store manages the DuckDB connection.
type Store struct {
	db           *sql.DB
	mu           sync.RWMutex
	QueryTimeout time.Duration
}

// NewStore opens or creates a DuckDB database and brings its schema up to
// SchemaVersion.
// If dbPath is empty, an in-memory database is used.
func NewStore(dbPath string, queryTimeout ...time.Duration) (*Store, error) {
	dsn := ""
	if dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, err
		}
		dsn = dbPath
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, err
	}

	qt := 30 * time.Second
	if len(queryTimeout) > 0 && queryTimeout[0] > 0 {
		qt = queryTimeout[0]
	}

	ctx, cancel := context.WithTimeout(context.Background(), qt)
	defer cancel()
	if err := ensureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, QueryTimeout: qt}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertEntryBatch writes entries in a single transaction.
func (s *Store) InsertEntryBatch(entries []model.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.QueryTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO entries (timestamp, unix_time, level, level_num, message, length) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx,
			time.Unix(e.Time, 0).UTC(), e.Time, e.Level.String(), int(e.Level), e.Message, len(e.Message),
		); err != nil {
			return fmt.Errorf("entry insert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// TotalCount returns the number of archived entries.
func (s *Store) TotalCount() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.QueryTimeout)
	defer cancel()

	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n)
	return n, err
}

// LevelCounts returns archived entry counts keyed by level name.
func (s *Store) LevelCounts() (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.QueryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT level, COUNT(*) FROM entries GROUP BY level`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var level string
		var n int64
		if err := rows.Scan(&level, &n); err != nil {
			return nil, err
		}
		out[level] = n
	}
	return out, rows.Err()
}

// RecentEntries returns up to limit archived entries, newest first.
func (s *Store) RecentEntries(limit int) ([]model.Entry, error) {
	if limit <= 0 {
		limit = model.DefaultRecentEntries
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.QueryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT message, level_num, unix_time FROM entries ORDER BY unix_time DESC, received_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Entry
	for rows.Next() {
		var e model.Entry
		var level int
		if err := rows.Scan(&e.Message, &level, &e.Time); err != nil {
			return nil, err
		}
		e.Level = model.Level(level)
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteBefore removes entries whose time is older than cutoff.
func (s *Store) DeleteBefore(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.QueryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE unix_time < ?`, cutoff.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
