package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smallnest/toolgate/credential"
)

// DBPool defines the interface for database connection pool
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Resolver implements credential.Resolver backed by PostgreSQL.
type Resolver struct {
	pool      DBPool
	tableName string
}

var _ credential.Resolver = (*Resolver)(nil)

// Options configures the Postgres connection.
type Options struct {
	ConnString string
	TableName  string // Default "credentials"
}

// NewResolver creates a Postgres-backed resolver with its own pool.
func NewResolver(ctx context.Context, opts Options) (*Resolver, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	return NewResolverWithPool(pool, opts.TableName), nil
}

// NewResolverWithPool creates a resolver with an existing pool. Useful
// for testing with mocks.
func NewResolverWithPool(pool DBPool, tableName string) *Resolver {
	if tableName == "" {
		tableName = "credentials"
	}
	return &Resolver{pool: pool, tableName: tableName}
}

// InitSchema creates the credentials table if it doesn't exist.
func (r *Resolver) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			user_id TEXT NOT NULL,
			service TEXT NOT NULL,
			account_id TEXT NOT NULL DEFAULT 'default',
			credential JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (user_id, service, account_id)
		);
	`, r.tableName)

	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (r *Resolver) Close() {
	r.pool.Close()
}

func normalizeAccount(accountID string) string {
	if accountID == "" {
		return "default"
	}
	return accountID
}

// Put upserts a credential for (userID, service, accountID).
func (r *Resolver) Put(ctx context.Context, userID, service, accountID string, cred credential.Credential) error {
	if err := cred.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, service, account_id, credential, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id, service, account_id) DO UPDATE SET
			credential = EXCLUDED.credential,
			updated_at = now()
	`, r.tableName)

	if _, err := r.pool.Exec(ctx, query, userID, service, normalizeAccount(accountID), data); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// Resolve implements credential.Resolver. A missing row resolves to
// *credential.NotConnectedError.
func (r *Resolver) Resolve(ctx context.Context, userID, service, accountID string) (credential.Credential, error) {
	query := fmt.Sprintf(`
		SELECT credential FROM %s
		WHERE user_id = $1 AND service = $2 AND account_id = $3
	`, r.tableName)

	var data []byte
	err := r.pool.QueryRow(ctx, query, userID, service, normalizeAccount(accountID)).Scan(&data)
	if err != nil {
		if err == pgx.ErrNoRows {
			return credential.Credential{}, &credential.NotConnectedError{UserID: userID, Service: service}
		}
		return credential.Credential{}, fmt.Errorf("failed to load credential: %w", err)
	}

	var cred credential.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return credential.Credential{}, fmt.Errorf("failed to unmarshal credential: %w", err)
	}
	return cred, nil
}

// Delete removes a stored credential.
func (r *Resolver) Delete(ctx context.Context, userID, service, accountID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE user_id = $1 AND service = $2 AND account_id = $3
	`, r.tableName)

	if _, err := r.pool.Exec(ctx, query, userID, service, normalizeAccount(accountID)); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}

// Services lists the services a user has connected, in alphabetical
// order.
func (r *Resolver) Services(ctx context.Context, userID string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT service FROM %s
		WHERE user_id = $1
		ORDER BY service ASC
	`, r.tableName)

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	var services []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, s)
	}
	return services, rows.Err()
}
