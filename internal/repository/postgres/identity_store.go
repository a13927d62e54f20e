package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cardquery/internal/domain/models"
	"cardquery/internal/domain/repositories"
)

// PostgresIdentityStore implements the IdentityStore interface
type PostgresIdentityStore struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewIdentityStore creates a new postgres-backed identity store
func NewIdentityStore(config *RepositoryConfig) repositories.IdentityStore {
	return &PostgresIdentityStore{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// IsValid reports whether key exists and has not been revoked
func (r *PostgresIdentityStore) IsValid(ctx context.Context, key string) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS (SELECT 1 FROM %s WHERE key = $1 AND revoked_at IS NULL)
	`, r.tables.Licenses)

	var ok bool
	if err := r.pool.QueryRow(ctx, query, key).Scan(&ok); err != nil {
		return false, fmt.Errorf("check license: %w", err)
	}
	return ok, nil
}

// Add inserts a license and its checkout session, if any, in one transaction.
// A conflict on the key or on an active email inserts nothing.
func (r *PostgresIdentityStore) Add(ctx context.Context, license *models.License) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Error ignored: no-op after commit

	query := fmt.Sprintf(`
		INSERT INTO %s (key, email, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`, r.tables.Licenses)

	tag, err := tx.Exec(ctx, query, license.Key, license.Email, license.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert license: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if license.SessionID != "" {
		if err := r.insertSession(ctx, tx, license.SessionID, license.Key); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit license: %w", err)
	}
	return true, nil
}

// FindByEmail returns the oldest active key for email
func (r *PostgresIdentityStore) FindByEmail(ctx context.Context, email string) (string, error) {
	query := fmt.Sprintf(`
		SELECT key FROM %s
		WHERE email = $1 AND revoked_at IS NULL
		ORDER BY created_at ASC
		LIMIT 1
	`, r.tables.Licenses)

	return r.scanKey(ctx, query, email)
}

// FindBySession returns the key linked to a checkout session
func (r *PostgresIdentityStore) FindBySession(ctx context.Context, sessionID string) (string, error) {
	query := fmt.Sprintf(`SELECT key FROM %s WHERE session_id = $1`, r.tables.Sessions)
	return r.scanKey(ctx, query, sessionID)
}

// LinkSession records sessionID for an existing key; relinking is a no-op
func (r *PostgresIdentityStore) LinkSession(ctx context.Context, sessionID, key string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Error ignored: no-op after commit

	if err := r.insertSession(ctx, tx, sessionID, key); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Count returns the number of active licenses
func (r *PostgresIdentityStore) Count(ctx context.Context) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE revoked_at IS NULL`, r.tables.Licenses)

	var n int
	if err := r.pool.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count licenses: %w", err)
	}
	return n, nil
}

// Ping checks database connectivity
func (r *PostgresIdentityStore) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *PostgresIdentityStore) insertSession(ctx context.Context, tx pgx.Tx, sessionID, key string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (session_id, key)
		VALUES ($1, $2)
		ON CONFLICT (session_id) DO NOTHING
	`, r.tables.Sessions)

	if _, err := tx.Exec(ctx, query, sessionID, key); err != nil {
		if isPgDuplicateError(err) {
			r.logger.Warn("checkout session already linked", "session_id", sessionID)
			return nil
		}
		return fmt.Errorf("link session: %w", err)
	}
	return nil
}

func (r *PostgresIdentityStore) scanKey(ctx context.Context, query string, arg string) (string, error) {
	var key string
	if err := r.pool.QueryRow(ctx, query, arg).Scan(&key); err != nil {
		if isPgNoRowsError(err) {
			return "", nil
		}
		return "", fmt.Errorf("find license: %w", err)
	}
	return key, nil
}
