// Package memory provides an in-process credential resolver, useful for
// tests and single-node deployments.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/smallnest/toolgate/credential"
)

// Resolver stores credentials in a map guarded by a mutex. Safe for
// concurrent use.
type Resolver struct {
	mu    sync.RWMutex
	creds map[string]credential.Credential
}

var _ credential.Resolver = (*Resolver)(nil)

// NewResolver creates an empty in-memory resolver.
func NewResolver() *Resolver {
	return &Resolver{creds: make(map[string]credential.Credential)}
}

func key(userID, service, accountID string) string {
	if accountID == "" {
		accountID = "default"
	}
	return fmt.Sprintf("%s/%s/%s", userID, service, accountID)
}

// Put stores a credential for (userID, service, accountID). An empty
// accountID stores the default account.
func (r *Resolver) Put(userID, service, accountID string, cred credential.Credential) error {
	if err := cred.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creds[key(userID, service, accountID)] = cred
	return nil
}

// Delete removes a stored credential.
func (r *Resolver) Delete(userID, service, accountID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.creds, key(userID, service, accountID))
}

// Resolve implements credential.Resolver.
func (r *Resolver) Resolve(_ context.Context, userID, service, accountID string) (credential.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cred, ok := r.creds[key(userID, service, accountID)]
	if !ok {
		return credential.Credential{}, &credential.NotConnectedError{UserID: userID, Service: service}
	}
	return cred, nil
}
