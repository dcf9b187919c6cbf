// Package postgres provides a PostgreSQL-backed credential resolver
// using pgx. Credentials are stored as JSONB rows keyed by
// (user_id, service, account_id), with an upsert Put so reconnecting a
// service replaces the stored token in place.
package postgres
