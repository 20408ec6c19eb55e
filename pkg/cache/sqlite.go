package cache

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLite is a durable cache backend for single-instance deployments that
// need the cache to survive restarts. It uses WAL mode for concurrent
// read performance.
type SQLite struct {
	db        *sql.DB
	closeOnce sync.Once

	getStmt     *sql.Stmt
	setStmt     *sql.Stmt
	cleanupStmt *sql.Stmt
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key         TEXT PRIMARY KEY,
	value       BLOB NOT NULL,
	updated_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cache_entries_updated_at ON cache_entries(updated_at);
`

// NewSQLite opens (creating if necessary) a SQLite-backed cache at dbPath.
func NewSQLite(dbPath string) (*SQLite, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database %q: %w", dbPath, err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	s := &SQLite{db: db}
	if s.getStmt, err = db.Prepare(`SELECT value FROM cache_entries WHERE key = ?`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	if s.setStmt, err = db.Prepare(`INSERT INTO cache_entries (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	if s.cleanupStmt, err = db.Prepare(`DELETE FROM cache_entries WHERE updated_at < ?`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	return s, nil
}

// Get implements Cache.
func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.getStmt.QueryRowContext(ctx, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get failed: %w", err)
	}
	return value, true, nil
}

// Set implements Cache.
func (s *SQLite) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.setStmt.ExecContext(ctx, key, value, time.Now().UnixNano()); err != nil {
		return fmt.Errorf("cache set failed: %w", err)
	}
	return nil
}

// Cleanup implements Cache.
func (s *SQLite) Cleanup(ctx context.Context, olderThan time.Time) (int, error) {
	res, err := s.cleanupStmt.ExecContext(ctx, olderThan.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("cache cleanup failed: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(removed), nil
}

// Close implements Cache.
func (s *SQLite) Close() error {
	var err error
	s.closeOnce.Do(func() {
		for _, stmt := range []*sql.Stmt{s.getStmt, s.setStmt, s.cleanupStmt} {
			if stmt != nil {
				stmt.Close()
			}
		}
		err = s.db.Close()
	})
	return err
}
