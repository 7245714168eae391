package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	schemaAttempts   = 5
	schemaRetryDelay = 2 * time.Second
)

// Connect creates a pgx connection pool and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// RunMigrations applies the embedded schema migrations. Safe to run
// repeatedly; an already-provisioned store is a no-op.
func RunMigrations(databaseURL string) error {
	conn, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer conn.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(conn, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// DefaultBackoff is the production provisioning policy: a fixed delay
// between a bounded number of attempts.
func DefaultBackoff() retry.Backoff {
	return retry.WithMaxRetries(schemaAttempts-1, retry.NewConstant(schemaRetryDelay))
}

// EnsureSchema runs migrations under the given backoff policy, retrying
// while the store is unavailable. Exhaustion returns the last error; the
// caller decides whether that is fatal.
func EnsureSchema(ctx context.Context, databaseURL string, b retry.Backoff) error {
	return provision(ctx, b, func() error {
		return RunMigrations(databaseURL)
	})
}

func provision(ctx context.Context, b retry.Backoff, apply func() error) error {
	attempt := 0
	return retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if err := apply(); err != nil {
			log.Printf("Schema provisioning attempt %d failed: %v", attempt, err)
			return retry.RetryableError(err)
		}
		return nil
	})
}
