// Package repository persists card catalogs and finished games in Postgres.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/thraizz/gridduel-server/internal/config"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

const schemaSQL = `
CREATE TABLE IF NOT EXISTS cards (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	rarity         TEXT NOT NULL DEFAULT 'common',
	power_top      INT  NOT NULL,
	power_right    INT  NOT NULL,
	power_bottom   INT  NOT NULL,
	power_left     INT  NOT NULL,
	tags           TEXT[] NOT NULL DEFAULT '{}',
	ability_id     TEXT,
	ability_params JSONB,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS games (
	id           TEXT PRIMARY KEY,
	mode         TEXT NOT NULL,
	status       TEXT NOT NULL,
	player1_id   TEXT NOT NULL,
	player2_id   TEXT NOT NULL,
	player1_score INT NOT NULL,
	player2_score INT NOT NULL,
	winner_id    TEXT,
	turn_number  INT NOT NULL,
	checksum     TEXT NOT NULL,
	game_state   JSONB NOT NULL,
	game_events  JSONB NOT NULL DEFAULT '[]',
	finished_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_games_player1 ON games(player1_id);
CREATE INDEX IF NOT EXISTS idx_games_player2 ON games(player2_id);
`

// DB wraps the connection pool.
type DB struct {
	*pgxpool.Pool
	logger *zap.Logger
}

// NewDB opens a pool, pings it and applies the schema.
func NewDB(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &DB{Pool: pool, logger: logger}
	if err := db.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if logger != nil {
		logger.Info("database connected",
			zap.String("host", poolCfg.ConnConfig.Host),
			zap.String("database", poolCfg.ConnConfig.Database),
			zap.Int32("max_conns", poolCfg.MaxConns),
		)
	}
	return db, nil
}

// Migrate creates the tables if they are missing.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
