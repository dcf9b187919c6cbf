package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/toolgate/credential"
)

func TestPutResolveDelete(t *testing.T) {
	r := NewResolver()
	ctx := context.Background()

	require.NoError(t, r.Put("u1", "slack", "", credential.OAuth("tok", "conn", "")))

	cred, err := r.Resolve(ctx, "u1", "slack", "")
	require.NoError(t, err)
	assert.Equal(t, credential.KindOAuth, cred.Kind)
	assert.Equal(t, "tok", cred.AccessToken)

	r.Delete("u1", "slack", "")
	_, err = r.Resolve(ctx, "u1", "slack", "")
	assert.True(t, credential.IsNotConnected(err))
}

func TestResolveUnknownUserNotConnected(t *testing.T) {
	r := NewResolver()

	_, err := r.Resolve(context.Background(), "stranger", "slack", "")
	require.Error(t, err)
	assert.True(t, credential.IsNotConnected(err))
}

func TestAccountScoping(t *testing.T) {
	r := NewResolver()
	ctx := context.Background()

	require.NoError(t, r.Put("u1", "slack", "work", credential.OAuth("tok-work", "", "work")))
	require.NoError(t, r.Put("u1", "slack", "", credential.OAuth("tok-default", "", "")))

	work, err := r.Resolve(ctx, "u1", "slack", "work")
	require.NoError(t, err)
	assert.Equal(t, "tok-work", work.AccessToken)

	def, err := r.Resolve(ctx, "u1", "slack", "")
	require.NoError(t, err)
	assert.Equal(t, "tok-default", def.AccessToken)

	_, err = r.Resolve(ctx, "u1", "slack", "personal")
	assert.True(t, credential.IsNotConnected(err))
}

func TestPutRejectsMalformed(t *testing.T) {
	r := NewResolver()
	assert.Error(t, r.Put("u1", "slack", "", credential.Credential{Kind: credential.KindOAuth}))
}
