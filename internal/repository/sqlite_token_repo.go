package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"pet-adoption-portal/internal/model"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS session_tokens (
	session_id TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (session_id, key)
)`

// SQLiteTokenRepository stores token entries in a local SQLite file. The CLI
// uses it as its durable per-profile store.
type SQLiteTokenRepository struct {
	db *sqlx.DB
}

func OpenSQLiteTokenRepository(path string) (*SQLiteTokenRepository, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite token store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create token store dir: %w", err)
	}

	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite token store: %w", err)
	}

	repo, err := NewSQLiteTokenRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// NewSQLiteTokenRepository wraps an open handle and makes sure the schema exists.
func NewSQLiteTokenRepository(db *sqlx.DB) (*SQLiteTokenRepository, error) {
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("ensure sqlite token schema: %w", err)
	}
	return &SQLiteTokenRepository{db: db}, nil
}

func (r *SQLiteTokenRepository) Set(ctx context.Context, sessionID string, key string, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO session_tokens (session_id, key, value, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (session_id, key)
		 DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		sessionID, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("store session token: %w", err)
	}
	return nil
}

type tokenRow struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

// Get reads key and refreshes updated_at for the whole session in the same
// statement.
func (r *SQLiteTokenRepository) Get(ctx context.Context, sessionID string, key string) (string, error) {
	var rows []tokenRow
	err := r.db.SelectContext(ctx, &rows,
		`UPDATE session_tokens SET updated_at = ?
		 WHERE session_id = ?
		 RETURNING key, value`, time.Now().UTC(), sessionID)
	if err != nil {
		return "", fmt.Errorf("load session token: %w", err)
	}

	for _, row := range rows {
		if row.Key == key {
			return row.Value, nil
		}
	}
	return "", model.ErrTokenNotFound
}

func (r *SQLiteTokenRepository) Delete(ctx context.Context, sessionID string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`DELETE FROM session_tokens WHERE session_id = ? AND key IN (?)`, sessionID, keys)
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("delete session tokens: %w", err)
	}
	return nil
}

func (r *SQLiteTokenRepository) CleanIdle(ctx context.Context, idle time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-idle)
	res, err := r.db.ExecContext(ctx, `DELETE FROM session_tokens WHERE updated_at <= ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("clean idle session tokens: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteTokenRepository) Close() error {
	return r.db.Close()
}
