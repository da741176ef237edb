package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ashureev/edubot/internal/shared"
	_ "modernc.org/sqlite"
)

const (
	saveRetries   = 3
	saveBaseDelay = 50 * time.Millisecond
)

// SQLiteKV implements KV using a single SQLite table.
type SQLiteKV struct {
	db *sql.DB
}

// NewSQLiteKV opens (or creates) a SQLite-backed key-value store at dbPath.
func NewSQLiteKV(dbPath string) (*SQLiteKV, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL mode lets the gateway read history while another connection saves.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	kv := &SQLiteKV{db: db}
	if err := kv.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return kv, nil
}

func (s *SQLiteKV) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteKV) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Load returns the value stored under key.
func (s *SQLiteKV) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load key %q: %w", key, err)
	}
	return value, true, nil
}

// Save upserts value under key, retrying when the database is busy.
func (s *SQLiteKV) Save(ctx context.Context, key string, value []byte) error {
	query := `
	INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		value = excluded.value,
		updated_at = excluded.updated_at`

	return shared.RetryOnConflict(ctx, "save key "+key, saveRetries, saveBaseDelay, func() error {
		_, err := s.db.ExecContext(ctx, query, key, value, time.Now().Unix())
		return err
	})
}

// Close closes the database connection.
func (s *SQLiteKV) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

var _ KV = (*SQLiteKV)(nil)
