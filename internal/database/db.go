// Package database holds the PostgreSQL side of the service: player
// statistics, ratings and friendships.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// DB is the shared pool. It stays nil when no database is configured.
var DB *pgxpool.Pool

// schema is applied on startup. Statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS player_stats (
		user_id      UUID PRIMARY KEY,
		wins         INTEGER NOT NULL DEFAULT 0,
		losses       INTEGER NOT NULL DEFAULT 0,
		win_streak   INTEGER NOT NULL DEFAULT 0,
		best_streak  INTEGER NOT NULL DEFAULT 0,
		elo          INTEGER NOT NULL DEFAULT 1000,
		elo_pairs    INTEGER NOT NULL DEFAULT 1000,
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS friendships (
		user_a     UUID NOT NULL,
		user_b     UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_a, user_b)
	)`,
	`CREATE TABLE IF NOT EXISTS match_results (
		match_id      UUID NOT NULL,
		user_id       UUID NOT NULL,
		won           BOOLEAN NOT NULL,
		pairs         BOOLEAN NOT NULL,
		rating_before INTEGER NOT NULL,
		rating_after  INTEGER NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (match_id, user_id)
	)`,
}

// ConnectDB opens the pool, verifies it and applies the schema.
func ConnectDB(ctx context.Context, url string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("open database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	DB = pool
	log.Infof("Connected to PostgreSQL (max %d connections).", poolConfig.MaxConns)
	return pool, nil
}

// Migrate creates missing tables.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
