package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pet-adoption-portal/internal/model"
)

// TokenRepository keeps the token entries of every browser session in
// Postgres, one row per (session, key).
type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

func (r *TokenRepository) Set(ctx context.Context, sessionID string, key string, value string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO session_tokens (session_id, key, value, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (session_id, key)
		 DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		sessionID, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("store session token: %w", err)
	}
	return nil
}

// Get reads key and marks the whole session as used, so CleanIdle only
// reclaims sessions nobody has read or written for the idle window.
func (r *TokenRepository) Get(ctx context.Context, sessionID string, key string) (string, error) {
	var value string
	err := r.pool.QueryRow(ctx,
		`WITH touched AS (
		   UPDATE session_tokens SET updated_at = $3
		   WHERE session_id = $1
		   RETURNING key, value
		 )
		 SELECT value FROM touched WHERE key = $2`, sessionID, key, time.Now().UTC()).Scan(&value)

	if errors.Is(err, pgx.ErrNoRows) {
		return "", model.ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load session token: %w", err)
	}
	return value, nil
}

func (r *TokenRepository) Delete(ctx context.Context, sessionID string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx,
		`DELETE FROM session_tokens WHERE session_id = $1 AND key = ANY($2)`, sessionID, keys)
	if err != nil {
		return fmt.Errorf("delete session tokens: %w", err)
	}
	return nil
}

// CleanIdle removes entries not used for longer than idle.
func (r *TokenRepository) CleanIdle(ctx context.Context, idle time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-idle)
	tag, err := r.pool.Exec(ctx, `DELETE FROM session_tokens WHERE updated_at <= $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("clean idle session tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
