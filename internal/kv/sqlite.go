package kv

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/tubevault/tubevault/internal/errors"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv_items (
	origin TEXT NOT NULL,
	key    TEXT NOT NULL,
	value  TEXT NOT NULL,
	PRIMARY KEY (origin, key)
);`

// SQLite is a Medium persisted in a single SQLite table.
type SQLite struct {
	db   *sql.DB
	opts options
}

// OpenSQLite opens (or creates) a SQLite database at path.
// It configures WAL mode, sets pragmas, and creates the kv_items table.
func OpenSQLite(path string, opts ...Option) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	return &SQLite{db: db, opts: buildOptions(opts)}, nil
}

// GetItem implements Medium.
func (s *SQLite) GetItem(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv_items WHERE origin = ? AND key = ?`,
		s.opts.origin, key,
	).Scan(&value)

	if stderrors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Storage(err, "sqlite get")
	}
	return value, true, nil
}

// SetItem implements Medium.
func (s *SQLite) SetItem(ctx context.Context, key, value string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Storage(err, "sqlite begin")
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after Commit is a no-op.

	if s.opts.quota > 0 {
		var used int64
		err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(length(CAST(key AS BLOB)) + length(CAST(value AS BLOB))), 0)
			 FROM kv_items WHERE origin = ? AND key <> ?`,
			s.opts.origin, key,
		).Scan(&used)
		if err != nil {
			return errors.Storage(err, "sqlite usage")
		}
		if err := s.opts.checkQuota(used, key, value); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO kv_items (origin, key, value) VALUES (?, ?, ?)
		ON CONFLICT (origin, key) DO UPDATE SET value = excluded.value`,
		s.opts.origin, key, value,
	)
	if err != nil {
		return classifySQLiteWrite(err)
	}

	if err := tx.Commit(); err != nil {
		return classifySQLiteWrite(err)
	}
	return nil
}

// RemoveItem implements Medium.
func (s *SQLite) RemoveItem(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM kv_items WHERE origin = ? AND key = ?`,
		s.opts.origin, key,
	)
	if err != nil {
		return errors.Storage(err, "sqlite delete")
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// classifySQLiteWrite maps SQLITE_FULL onto the quota error.
func classifySQLiteWrite(err error) error {
	if strings.Contains(err.Error(), "database or disk is full") {
		return errors.ErrQuotaExceeded.WithCause(err)
	}
	return errors.Storage(err, "sqlite set")
}
