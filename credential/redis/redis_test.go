package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/toolgate/credential"
)

func TestRedisResolver(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	r := NewResolver(Options{Addr: mr.Addr()})
	ctx := context.Background()

	// Unknown user resolves to not-connected.
	_, err = r.Resolve(ctx, "u1", "slack", "")
	assert.True(t, credential.IsNotConnected(err))

	// Put then resolve round-trips the union.
	err = r.Put(ctx, "u1", "slack", "", credential.OAuth("tok-1", "conn-1", ""))
	require.NoError(t, err)

	cred, err := r.Resolve(ctx, "u1", "slack", "")
	require.NoError(t, err)
	assert.Equal(t, credential.KindOAuth, cred.Kind)
	assert.Equal(t, "tok-1", cred.AccessToken)
	assert.Equal(t, "conn-1", cred.ConnectionID)

	// API-key credentials round-trip too.
	err = r.Put(ctx, "u1", "brave", "", credential.APIKey("key-9"))
	require.NoError(t, err)
	cred, err = r.Resolve(ctx, "u1", "brave", "")
	require.NoError(t, err)
	assert.Equal(t, credential.KindAPIKey, cred.Kind)
	assert.Equal(t, "key-9", cred.Key)

	// Connections index covers both services.
	keys, err := r.Connections(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	// Delete returns the user to not-connected.
	require.NoError(t, r.Delete(ctx, "u1", "slack", ""))
	_, err = r.Resolve(ctx, "u1", "slack", "")
	assert.True(t, credential.IsNotConnected(err))

	keys, err = r.Connections(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestRedisResolverTTLExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	r := NewResolver(Options{Addr: mr.Addr(), TTL: time.Minute})
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, "u1", "slack", "", credential.OAuth("tok", "", "")))

	_, err = r.Resolve(ctx, "u1", "slack", "")
	require.NoError(t, err)

	// Expired credentials look exactly like a missing connection.
	mr.FastForward(2 * time.Minute)
	_, err = r.Resolve(ctx, "u1", "slack", "")
	assert.True(t, credential.IsNotConnected(err))
}

func TestRedisResolverAccountScoping(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	r := NewResolver(Options{Addr: mr.Addr()})
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, "u1", "slack", "work", credential.OAuth("tok-work", "", "work")))

	_, err = r.Resolve(ctx, "u1", "slack", "")
	assert.True(t, credential.IsNotConnected(err))

	cred, err := r.Resolve(ctx, "u1", "slack", "work")
	require.NoError(t, err)
	assert.Equal(t, "tok-work", cred.AccessToken)
}
