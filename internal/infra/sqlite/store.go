// Package sqlite is the default port.KVStore: one table in a single
// SQLite file, driven by the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

var tracer = otel.Tracer("sqlite")

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at TEXT NOT NULL
);`

const upsert = `
INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

// Store implements port.KVStore on SQLite.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open creates the database file (and its directory) when missing.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer; keeps :memory: databases on a single connection too.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		schema,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
	}

	logger.Info("sqlite store ready", zap.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, span := tracer.Start(ctx, "SQLite.Get")
	defer span.End()
	span.SetAttributes(attribute.String("kv.key", key))

	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlite get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.SetMany(ctx, map[string][]byte{key: value})
}

// SetMany writes all entries inside one transaction.
func (s *Store) SetMany(ctx context.Context, entries map[string][]byte) error {
	ctx, span := tracer.Start(ctx, "SQLite.SetMany")
	defer span.End()
	span.SetAttributes(attribute.Int("kv.entries", len(entries)))

	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, upsert)
	if err != nil {
		return fmt.Errorf("sqlite prepare: %w", err)
	}
	defer stmt.Close()

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, k := range keys {
		if _, err := stmt.ExecContext(ctx, k, entries[k], now); err != nil {
			return fmt.Errorf("sqlite set %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite commit: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.DeleteMany(ctx, []string{key})
}

// DeleteMany removes all keys inside one transaction.
func (s *Store) DeleteMany(ctx context.Context, keys []string) error {
	ctx, span := tracer.Start(ctx, "SQLite.DeleteMany")
	defer span.End()
	span.SetAttributes(attribute.Int("kv.entries", len(keys)))

	if len(keys) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `DELETE FROM kv WHERE key = ?`)
	if err != nil {
		return fmt.Errorf("sqlite prepare: %w", err)
	}
	defer stmt.Close()

	for _, k := range keys {
		if _, err := stmt.ExecContext(ctx, k); err != nil {
			return fmt.Errorf("sqlite delete %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite commit: %w", err)
	}
	return nil
}

// Keys matches the prefix with substr rather than LIKE, where "_" is a wildcard.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "SQLite.Keys")
	defer span.End()

	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM kv WHERE substr(key, 1, ?) = ? ORDER BY key`, len(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("sqlite keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("sqlite keys scan: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
