package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the license tables for the configured prefix if they
// do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			key        TEXT PRIMARY KEY,
			email      VARCHAR(320) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			revoked_at TIMESTAMPTZ
		);
		CREATE UNIQUE INDEX IF NOT EXISTS %[1]s_email_active_idx
			ON %[1]s (email) WHERE email <> '' AND revoked_at IS NULL;

		CREATE TABLE IF NOT EXISTS %[2]s (
			session_id TEXT PRIMARY KEY,
			key        TEXT NOT NULL REFERENCES %[1]s (key) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`, tables.Licenses, tables.Sessions)

	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// DropSchema removes the license tables for the configured prefix.
func DropSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	ddl := fmt.Sprintf(`
		DROP TABLE IF EXISTS %s CASCADE;
		DROP TABLE IF EXISTS %s CASCADE;
	`, tables.Sessions, tables.Licenses)

	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	return nil
}
