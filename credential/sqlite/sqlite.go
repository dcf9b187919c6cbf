// Package sqlite provides an embedded SQLite credential resolver,
// suitable for local and single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/smallnest/toolgate/credential"
)

// Resolver implements credential.Resolver using SQLite.
type Resolver struct {
	db        *sql.DB
	tableName string
}

var _ credential.Resolver = (*Resolver)(nil)

// Options configuration for the SQLite connection.
type Options struct {
	Path      string
	TableName string // Default "credentials"
}

// NewResolver opens (or creates) the database and ensures the schema
// exists.
func NewResolver(opts Options) (*Resolver, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "credentials"
	}

	r := &Resolver{db: db, tableName: tableName}
	if err := r.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Resolver) initSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			user_id TEXT NOT NULL,
			service TEXT NOT NULL,
			account_id TEXT NOT NULL DEFAULT 'default',
			credential TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, service, account_id)
		);
	`, r.tableName)

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Resolver) Close() error {
	return r.db.Close()
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
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id, service, account_id) DO UPDATE SET
			credential = excluded.credential,
			updated_at = CURRENT_TIMESTAMP
	`, r.tableName)

	if _, err := r.db.ExecContext(ctx, query, userID, service, normalizeAccount(accountID), string(data)); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// Resolve implements credential.Resolver.
func (r *Resolver) Resolve(ctx context.Context, userID, service, accountID string) (credential.Credential, error) {
	query := fmt.Sprintf(`
		SELECT credential FROM %s
		WHERE user_id = ? AND service = ? AND account_id = ?
	`, r.tableName)

	var data string
	err := r.db.QueryRowContext(ctx, query, userID, service, normalizeAccount(accountID)).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return credential.Credential{}, &credential.NotConnectedError{UserID: userID, Service: service}
		}
		return credential.Credential{}, fmt.Errorf("failed to load credential: %w", err)
	}

	var cred credential.Credential
	if err := json.Unmarshal([]byte(data), &cred); err != nil {
		return credential.Credential{}, fmt.Errorf("failed to unmarshal credential: %w", err)
	}
	return cred, nil
}

// Delete removes a stored credential.
func (r *Resolver) Delete(ctx context.Context, userID, service, accountID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE user_id = ? AND service = ? AND account_id = ?
	`, r.tableName)

	if _, err := r.db.ExecContext(ctx, query, userID, service, normalizeAccount(accountID)); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}
