package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const pingTimeout = 2 * time.Second

// PoolConfig sizes the connection pool behind the session token table.
type PoolConfig struct {
	URL      string
	MaxConns int32
	MinConns int32
}

// DB is the Postgres handle the session token repository runs on.
type DB struct {
	Pool *pgxpool.Pool
}

// Open connects to Postgres and fails fast when the server cannot be reached.
func Open(ctx context.Context, pc PoolConfig) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(pc.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	cfg.MaxConns = pc.MaxConns
	cfg.MinConns = pc.MinConns
	// Token rows are tiny and short-lived; keep few idle connections around.
	cfg.MaxConnIdleTime = 2 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create session store pool: %w", err)
	}

	db := &DB{Pool: pool}
	if err := db.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	slog.Info("session store connected", "max_conns", pc.MaxConns, "min_conns", pc.MinConns)
	return db, nil
}

func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Ping reports whether the session store answers within pingTimeout. The
// /health endpoint calls it on every load balancer check.
func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping session store: %w", err)
	}
	return nil
}
