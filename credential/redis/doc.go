// Package redis provides a Redis-backed credential resolver.
//
// Credentials are stored as JSON under "<prefix>cred:<user>:<service>:<account>"
// keys, with a per-user set indexing active connections. An optional
// TTL makes stored credentials expire, which resolves as a
// not-connected condition and so forces the user back through the
// connect flow.
package redis
