package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smallnest/toolgate/credential"
)

// Resolver implements credential.Resolver backed by Redis. Credentials
// are stored as JSON under prefixed keys; an optional TTL lets token
// expiry double as connection expiry.
type Resolver struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ credential.Resolver = (*Resolver)(nil)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "toolgate:"
	TTL      time.Duration // Expiration for stored credentials, default 0 (no expiration)
}

// NewResolver creates a Redis-backed resolver.
func NewResolver(opts Options) *Resolver {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "toolgate:"
	}

	return &Resolver{
		client: client,
		prefix: prefix,
		ttl:    opts.TTL,
	}
}

func (r *Resolver) credKey(userID, service, accountID string) string {
	if accountID == "" {
		accountID = "default"
	}
	return fmt.Sprintf("%scred:%s:%s:%s", r.prefix, userID, service, accountID)
}

func (r *Resolver) userKey(userID string) string {
	return fmt.Sprintf("%suser:%s:connections", r.prefix, userID)
}

// Put stores a credential, indexing it under the user's connection set.
func (r *Resolver) Put(ctx context.Context, userID, service, accountID string, cred credential.Credential) error {
	if err := cred.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	key := r.credKey(userID, service, accountID)
	pipe := r.client.Pipeline()
	pipe.Set(ctx, key, data, r.ttl)
	pipe.SAdd(ctx, r.userKey(userID), key)
	if r.ttl > 0 {
		pipe.Expire(ctx, r.userKey(userID), r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save credential to redis: %w", err)
	}
	return nil
}

// Resolve implements credential.Resolver. Missing or expired keys
// resolve to *credential.NotConnectedError.
func (r *Resolver) Resolve(ctx context.Context, userID, service, accountID string) (credential.Credential, error) {
	data, err := r.client.Get(ctx, r.credKey(userID, service, accountID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return credential.Credential{}, &credential.NotConnectedError{UserID: userID, Service: service}
		}
		return credential.Credential{}, fmt.Errorf("failed to load credential from redis: %w", err)
	}

	var cred credential.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return credential.Credential{}, fmt.Errorf("failed to unmarshal credential: %w", err)
	}
	return cred, nil
}

// Delete removes a stored credential and its index entry.
func (r *Resolver) Delete(ctx context.Context, userID, service, accountID string) error {
	key := r.credKey(userID, service, accountID)
	pipe := r.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.SRem(ctx, r.userKey(userID), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}

// Connections lists the credential keys stored for a user.
func (r *Resolver) Connections(ctx context.Context, userID string) ([]string, error) {
	keys, err := r.client.SMembers(ctx, r.userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list connections for user %s: %w", userID, err)
	}
	return keys, nil
}

// Close closes the underlying Redis client.
func (r *Resolver) Close() error {
	return r.client.Close()
}
