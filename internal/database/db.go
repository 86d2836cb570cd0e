package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	connLifetime      = 1 * time.Hour
	connIdleTime      = 15 * time.Minute
	healthCheckPeriod = 30 * time.Second
)

// Connect opens a pgx connection pool, applies pool tuning and verifies the
// server is reachable before handing the pool back.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN must not be empty")
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}
	cfg.MaxConnLifetime = connLifetime
	cfg.MaxConnIdleTime = connIdleTime
	cfg.HealthCheckPeriod = healthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// schema is applied on startup. The functional unique index on
// (lower(name), phone) backs the upsert conflict target used by the
// companies repository.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS companies (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT NOT NULL,
		phone TEXT NOT NULL,
		website TEXT,
		email TEXT NOT NULL DEFAULT '',
		email_verification TEXT,
		founder TEXT,
		district TEXT NOT NULL,
		source TEXT NOT NULL,
		email_source TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS companies_name_phone_key
		ON companies (lower(name), phone)`,
	`CREATE INDEX IF NOT EXISTS companies_district_idx ON companies (district)`,
	`CREATE INDEX IF NOT EXISTS companies_verification_idx ON companies (email_verification)`,
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates the tables and indexes the service depends on. Statements
// are idempotent so repeated startups are safe.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
