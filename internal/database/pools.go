package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/ibmirror/internal/config"
)

// HistoricalBarsDDL creates the table written by writer.PostgresSink.
const HistoricalBarsDDL = `
CREATE TABLE IF NOT EXISTS historical_bars (
	symbol        TEXT             NOT NULL,
	bar_time      TIMESTAMPTZ      NOT NULL,
	datetime      TEXT             NOT NULL,
	open          DOUBLE PRECISION NOT NULL,
	high          DOUBLE PRECISION NOT NULL,
	low           DOUBLE PRECISION NOT NULL,
	close         DOUBLE PRECISION NOT NULL,
	volume        BIGINT           NOT NULL,
	open_interest INTEGER          NOT NULL,
	PRIMARY KEY (symbol, bar_time)
)`

// Execer runs a statement. *pgxpool.Pool satisfies it.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// EnsureSchema creates the tables the mirror writes to.
func EnsureSchema(ctx context.Context, db Execer) error {
	if _, err := db.Exec(ctx, HistoricalBarsDDL); err != nil {
		return fmt.Errorf("create historical_bars: %w", err)
	}
	return nil
}

// Connect creates a connection pool and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	connStr := BuildConnString(cfg)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
