package credential

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOAuthCredential(t *testing.T) {
	c := OAuth("tok-1", "conn-1", "acct-1")

	assert.Equal(t, KindOAuth, c.Kind)
	assert.Equal(t, "tok-1", c.Secret())
	assert.NoError(t, c.Validate())
}

func TestAPIKeyCredential(t *testing.T) {
	c := APIKey("key-1")

	assert.Equal(t, KindAPIKey, c.Kind)
	assert.Equal(t, "key-1", c.Secret())
	assert.NoError(t, c.Validate())
}

func TestValidateRejectsMalformed(t *testing.T) {
	assert.Error(t, Credential{Kind: KindOAuth}.Validate())
	assert.Error(t, Credential{Kind: KindAPIKey}.Validate())
	assert.Error(t, Credential{Kind: "bearer"}.Validate())
}

func TestIsNotConnected(t *testing.T) {
	err := &NotConnectedError{UserID: "u1", Service: "slack"}

	assert.True(t, IsNotConnected(err))
	assert.True(t, IsNotConnected(fmt.Errorf("resolve: %w", err)))
	assert.False(t, IsNotConnected(errors.New("some other failure")))
	assert.Contains(t, err.Error(), "slack")
	assert.Contains(t, err.Error(), "u1")
}
