// Package credential defines the typed credential union adapters
// receive and the Resolver collaborator that produces it.
//
// Credential is a closed tagged union: OAuth bearer (access token plus
// optional connection and account ids) or API key. Backend invokers
// switch on Kind, so every call site handles both shapes explicitly.
//
// A user without a stored connection resolves to *NotConnectedError.
// This is an expected outcome — the dispatcher turns it into a
// standardized "service not connected" envelope with a reconnect URL
// and does not alert on it.
//
// Resolver implementations live in the subpackages:
//
//   - credential/memory: in-process map, for tests and single-node use
//   - credential/redis: Redis-backed store with optional TTL
//   - credential/postgres: PostgreSQL via pgx
//   - credential/sqlite: embedded SQLite
//
// The framework never caches resolved credentials; each dispatch
// resolves fresh, and token refresh is entirely the resolver's concern.
package credential
