package credential

import (
	"context"
	"errors"
	"fmt"
)

// Kind discriminates the credential union.
type Kind string

const (
	KindOAuth  Kind = "oauth"
	KindAPIKey Kind = "api_key"
)

// Credential is the closed tagged union of credential shapes an adapter
// may receive. Construct through OAuth or APIKey so Kind and payload
// stay consistent; switch on Kind at call sites.
type Credential struct {
	Kind Kind `json:"kind"`

	// OAuth payload.
	AccessToken  string `json:"accessToken,omitempty"`
	ConnectionID string `json:"connectionId,omitempty"`
	AccountID    string `json:"accountId,omitempty"`

	// API-key payload.
	Key string `json:"key,omitempty"`
}

// OAuth builds an OAuth bearer credential.
func OAuth(accessToken, connectionID, accountID string) Credential {
	return Credential{
		Kind:         KindOAuth,
		AccessToken:  accessToken,
		ConnectionID: connectionID,
		AccountID:    accountID,
	}
}

// APIKey builds an API-key credential.
func APIKey(key string) Credential {
	return Credential{Kind: KindAPIKey, Key: key}
}

// Secret returns the sensitive payload for the credential kind: the
// access token for OAuth, the key for API keys.
func (c Credential) Secret() string {
	switch c.Kind {
	case KindOAuth:
		return c.AccessToken
	case KindAPIKey:
		return c.Key
	}
	return ""
}

// Validate checks the union is well formed.
func (c Credential) Validate() error {
	switch c.Kind {
	case KindOAuth:
		if c.AccessToken == "" {
			return errors.New("oauth credential missing access token")
		}
	case KindAPIKey:
		if c.Key == "" {
			return errors.New("api_key credential missing key")
		}
	default:
		return fmt.Errorf("unknown credential kind: %q", c.Kind)
	}
	return nil
}

// NotConnectedError signals that a user has no stored connection for a
// service. It is an expected, user-actionable outcome, not a system
// error: the dispatcher surfaces it without alerting.
type NotConnectedError struct {
	UserID  string
	Service string
}

func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("service %s not connected for user %s", e.Service, e.UserID)
}

// IsNotConnected reports whether err is a not-connected signal.
func IsNotConnected(err error) bool {
	var nc *NotConnectedError
	return errors.As(err, &nc)
}

// Resolver turns a user identity into typed credentials for a service.
// Implementations own caching and refresh; the framework never caches a
// resolved credential across dispatches.
type Resolver interface {
	// Resolve returns the credential for (userID, service). accountID
	// selects among multiple connected accounts and may be empty for
	// the default account. A missing connection fails with a
	// *NotConnectedError.
	Resolve(ctx context.Context, userID, service, accountID string) (Credential, error)
}
