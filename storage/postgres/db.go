package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/extra/bundebug"
)

// DB bundles the shared pgx pool with the bun ORM handle layered on top.
// The river job queue drives the pool directly; everything else goes
// through bun.
type DB struct {
	Pool *pgxpool.Pool
	Bun  *bun.DB
}

// Connect opens a pooled connection and verifies it with a ping, mirroring
// the pre-ping behavior of the previous deployment. verbose enables SQL
// echo for development.
func Connect(ctx context.Context, dsn string, verbose bool) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pgstore: parse dsn: %w", err)
	}
	cfg.MaxConns = 10
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgstore: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: ping: %w", err)
	}

	sqldb := stdlib.OpenDBFromPool(pool)
	bdb := bun.NewDB(sqldb, pgdialect.New())
	if verbose {
		bdb.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return &DB{Pool: pool, Bun: bdb}, nil
}

// Close releases the ORM handle and the underlying pool.
func (db *DB) Close() error {
	err := db.Bun.Close()
	db.Pool.Close()
	return err
}
