package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DB struct {
	Pool   *pgxpool.Pool
	closed bool
}

func NewDB(ctx context.Context, dsn string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// connection pooling
	cfg.MaxConns = 25
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	pingCx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Test connection
	if err := pool.Ping(pingCx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	slog.Info("[DB] connection established...")

	return &DB{
		Pool:   pool,
		closed: false,
	}, nil
}

func (d *DB) Close() {
	if d.closed {
		return
	}
	d.closed = true
	d.Pool.Close()
}

// RunTx runs fn inside a transaction bounded by the default query timeout.
// fn's error rolls the transaction back.
func (d *DB) RunTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	if d.Pool == nil {
		return errors.New("[DB] underlying pool is nil")
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	// Rollback is a no-op once committed
	defer tx.Rollback(ctx)

	if err := fn(ctx, tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Migrate applies every pending migration found at path (a directory).
func Migrate(dsn, path string) error {
	m, err := migrate.New("file://"+path, dsn)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("[DB] migrations applied", "path", path)
	return nil
}
