package adapter

import (
	"context"
	"fmt"

	"github.com/smallnest/toolgate/catalog"
	"github.com/smallnest/toolgate/credential"
	"github.com/smallnest/toolgate/envelope"
)

// Invocation is one validated, credentialed action handed to a backend
// handler. Params passed catalog validation; Credential was freshly
// resolved for this call and must not be retained.
type Invocation struct {
	Action     string
	Params     map[string]any
	UserID     string
	AccountID  string
	Credential credential.Credential
}

// Handler executes one named operation against the provider and
// returns the structured result payload. Returned errors are routed
// through the error normalizer; handlers never build envelopes.
type Handler func(ctx context.Context, inv Invocation) (any, error)

// RawRequest is the constrained pass-through request accepted by the
// raw escape hatch.
type RawRequest struct {
	Endpoint string            `json:"endpoint"`
	Method   string            `json:"method"`
	Body     any               `json:"body,omitempty"`
	Query    map[string]string `json:"query,omitempty"`
}

// Adapter is the per-service dispatch contract. Implementations
// guarantee that Execute and ExecuteRaw always return exactly one
// envelope and never panic or leak errors across the boundary.
type Adapter interface {
	// Service returns the machine identifier, e.g. "slack".
	Service() string

	// Catalog returns the adapter's static operation metadata. Pure
	// and deterministic.
	Catalog() *catalog.Catalog

	// Validate runs the presence-only pre-flight check without
	// touching credentials or the network.
	Validate(action string, params map[string]any) catalog.ValidationResult

	// Execute runs the full dispatch state machine for one action.
	Execute(ctx context.Context, action string, params map[string]any, userID, accountID string) *envelope.Envelope

	// ExecuteRaw forwards a constrained raw provider request through
	// the adapter's transport.
	ExecuteRaw(ctx context.Context, raw RawRequest, userID, accountID string) *envelope.Envelope

	// OperationHelp returns the definition of one operation, for
	// reduced-context introspection by the calling LLM.
	OperationHelp(name string) (catalog.Operation, error)
}

// ErrUnknownOperation is returned by OperationHelp for names absent
// from the catalog.
type ErrUnknownOperation struct {
	Service string
	Name    string
}

func (e *ErrUnknownOperation) Error() string {
	return fmt.Sprintf("%s has no operation %q; list the catalog to see supported operations", e.Service, e.Name)
}
