package adapter

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/smallnest/toolgate/apierr"
	"github.com/smallnest/toolgate/catalog"
	"github.com/smallnest/toolgate/credential"
	"github.com/smallnest/toolgate/envelope"
	"github.com/smallnest/toolgate/log"
	"github.com/smallnest/toolgate/monitor"
)

// RawConfig enables the raw escape hatch for an adapter. Endpoint
// prefixes and the verb set are a security boundary: the proxy
// credential must not reach arbitrary hosts or admin endpoints.
type RawConfig struct {
	// Prefix is the required endpoint prefix, e.g. "/api/" or "2/".
	Prefix string
	// Methods is the allowed verb set, e.g. GET/POST.
	Methods []string
	// Forward issues the raw request over the same transport named
	// operations use.
	Forward func(ctx context.Context, cred credential.Credential, raw RawRequest) (any, error)
}

func (rc *RawConfig) methodAllowed(method string) bool {
	for _, m := range rc.Methods {
		if m == method {
			return true
		}
	}
	return false
}

// endpointAllowed canonicalizes the endpoint and checks it against the
// prefix. Dot segments are resolved first so "/api/../admin/x" cannot
// slip past a plain prefix match and reach a provider that normalizes
// paths. Embedded query or fragment markers are rejected outright:
// query parameters travel in the structured Query map, never inside
// the endpoint string.
func (rc *RawConfig) endpointAllowed(endpoint string) bool {
	if strings.ContainsAny(endpoint, "?#") {
		return false
	}
	cleaned := path.Clean(endpoint)
	// path.Clean drops the trailing slash that a bare prefix request
	// ("/api/") legitimately carries.
	if strings.HasSuffix(endpoint, "/") && cleaned != "/" {
		cleaned += "/"
	}
	return strings.HasPrefix(cleaned, rc.Prefix)
}

// Config assembles a Dispatcher.
type Config struct {
	Catalog  *catalog.Catalog
	Handlers map[string]Handler
	Resolver credential.Resolver
	// Normalizer defaults to a bare normalizer for the catalog's
	// service name.
	Normalizer *apierr.Normalizer
	// Logger defaults to the package-level logger.
	Logger log.Logger
	// Monitor defaults to monitor.Nop.
	Monitor monitor.Monitor
	// Raw is nil when the adapter exposes no escape hatch.
	Raw *RawConfig
}

// Dispatcher is the generic per-service dispatch engine every concrete
// adapter embeds: validate, resolve credentials, route to the handler
// map, normalize failures, envelope. It is stateless across calls; the
// catalog is its only long-lived data.
type Dispatcher struct {
	cat      *catalog.Catalog
	handlers map[string]Handler
	resolver credential.Resolver
	norm     *apierr.Normalizer
	builder  *envelope.Builder
	logger   log.Logger
	mon      monitor.Monitor
	raw      *RawConfig
}

var _ Adapter = (*Dispatcher)(nil)

// New builds a Dispatcher. The catalog, handler map and resolver are
// required; every catalog operation must have a handler so the
// discovery surface never advertises an action that cannot run.
func New(cfg Config) (*Dispatcher, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("adapter: catalog is required")
	}
	if cfg.Resolver == nil {
		return nil, errors.New("adapter: credential resolver is required")
	}
	if len(cfg.Handlers) == 0 {
		return nil, errors.New("adapter: at least one handler is required")
	}
	for _, name := range cfg.Catalog.OperationNames() {
		if _, ok := cfg.Handlers[name]; !ok {
			return nil, fmt.Errorf("adapter: catalog operation %q has no handler", name)
		}
	}

	d := &Dispatcher{
		cat:      cfg.Catalog,
		handlers: cfg.Handlers,
		resolver: cfg.Resolver,
		norm:     cfg.Normalizer,
		builder:  envelope.NewBuilder(cfg.Catalog.Service),
		logger:   cfg.Logger,
		mon:      cfg.Monitor,
		raw:      cfg.Raw,
	}
	if d.norm == nil {
		d.norm = apierr.NewNormalizer(cfg.Catalog.Service)
	}
	if d.logger == nil {
		d.logger = log.GetDefaultLogger()
	}
	if d.mon == nil {
		d.mon = monitor.Nop{}
	}
	return d, nil
}

// Service implements Adapter.
func (d *Dispatcher) Service() string {
	return d.cat.Service
}

// Catalog implements Adapter.
func (d *Dispatcher) Catalog() *catalog.Catalog {
	return d.cat
}

// Validate implements Adapter.
func (d *Dispatcher) Validate(action string, params map[string]any) catalog.ValidationResult {
	return d.cat.Validate(action, params)
}

// OperationHelp implements Adapter.
func (d *Dispatcher) OperationHelp(name string) (catalog.Operation, error) {
	op, ok := d.cat.Operation(name)
	if !ok {
		return catalog.Operation{}, &ErrUnknownOperation{Service: d.cat.Service, Name: name}
	}
	return op, nil
}

// Execute implements Adapter. It never returns an error and never
// panics across the boundary: every exit path produces an envelope.
// Validation always precedes credential resolution, which always
// precedes network I/O — a malformed request must never cost a network
// round trip.
func (d *Dispatcher) Execute(ctx context.Context, action string, params map[string]any, userID, accountID string) (env *envelope.Envelope) {
	requestID := uuid.NewString()
	if params == nil {
		params = map[string]any{}
	}
	defer func() {
		if r := recover(); r != nil {
			env = d.fail(action, params, requestID, fmt.Errorf("handler panic: %v", r))
		}
	}()

	if res := d.cat.Validate(action, params); !res.Valid {
		return d.finish(d.builder.Error(strings.Join(res.Errors, "\n")), action, requestID, string(apierr.CategoryValidation))
	}

	cred, err := d.resolver.Resolve(ctx, userID, d.cat.Service, accountID)
	if err != nil {
		if credential.IsNotConnected(err) {
			// Expected outcome: surface the reconnect URL, no alerting.
			return d.finish(d.normalizedEnvelope(d.norm.NotConnected()), action, requestID, string(apierr.CategoryNotConnected))
		}
		return d.fail(action, params, requestID, fmt.Errorf("resolve credential: %w", err))
	}

	handler, ok := d.handlers[action]
	if !ok {
		// Catalog and handler map are checked for drift at
		// construction, so this only fires for adapters assembled by
		// hand.
		return d.finish(d.builder.Errorf(
			"unknown action %q: list the %s catalog to see supported actions", action, d.cat.Service),
			action, requestID, string(apierr.CategoryValidation))
	}

	result, err := handler(ctx, Invocation{
		Action:     action,
		Params:     params,
		UserID:     userID,
		AccountID:  accountID,
		Credential: cred,
	})
	if err != nil {
		return d.fail(action, params, requestID, err)
	}

	return d.finish(d.builder.Success(result), action, requestID, "")
}

// ExecuteRaw implements Adapter. The endpoint prefix check fails closed
// before any credential is resolved.
func (d *Dispatcher) ExecuteRaw(ctx context.Context, raw RawRequest, userID, accountID string) (env *envelope.Envelope) {
	requestID := uuid.NewString()
	const action = "raw_api"
	defer func() {
		if r := recover(); r != nil {
			env = d.fail(action, map[string]any{"endpoint": raw.Endpoint, "method": raw.Method},
				requestID, fmt.Errorf("handler panic: %v", r))
		}
	}()

	if d.raw == nil {
		return d.finish(d.builder.Errorf("%s does not expose a raw API escape hatch", d.cat.Service),
			action, requestID, string(apierr.CategoryValidation))
	}
	if !d.raw.endpointAllowed(raw.Endpoint) {
		return d.finish(d.builder.Errorf(
			"endpoint %q is outside the allowed %s API surface (must start with %q)",
			raw.Endpoint, d.cat.Service, d.raw.Prefix),
			action, requestID, string(apierr.CategoryValidation))
	}
	// The provider sees the canonical path, never raw dot segments.
	raw.Endpoint = path.Clean(raw.Endpoint)
	if !d.raw.methodAllowed(raw.Method) {
		return d.finish(d.builder.Errorf(
			"method %s is not allowed for %s raw requests (allowed: %s)",
			raw.Method, d.cat.Service, strings.Join(d.raw.Methods, ", ")),
			action, requestID, string(apierr.CategoryValidation))
	}

	cred, err := d.resolver.Resolve(ctx, userID, d.cat.Service, accountID)
	if err != nil {
		if credential.IsNotConnected(err) {
			return d.finish(d.normalizedEnvelope(d.norm.NotConnected()), action, requestID, string(apierr.CategoryNotConnected))
		}
		return d.fail(action, nil, requestID, fmt.Errorf("resolve credential: %w", err))
	}

	result, err := d.raw.Forward(ctx, cred, raw)
	if err != nil {
		return d.fail(action, map[string]any{"endpoint": raw.Endpoint, "method": raw.Method}, requestID, err)
	}

	// The raw response is enveloped unmodified.
	return d.finish(d.builder.Success(result), action, requestID, "")
}

// fail handles the unexpected-failure path: error log with redacted
// params, monitoring event, normalized envelope.
func (d *Dispatcher) fail(action string, params map[string]any, requestID string, err error) *envelope.Envelope {
	norm := d.norm.Normalize(err)

	d.logger.Error("dispatch failed service=%s action=%s category=%s params=%v err=%v",
		d.cat.Service, action, norm.Category, log.RedactParams(params), err)
	d.mon.ReportError(monitor.Event{
		Service:  d.cat.Service,
		Action:   action,
		Category: string(norm.Category),
		Message:  norm.UserMessage,
	})

	return d.finish(d.normalizedEnvelope(norm), action, requestID, string(norm.Category))
}

// normalizedEnvelope renders a normalized error as an envelope,
// appending the remediation URL to the user-facing text when present.
func (d *Dispatcher) normalizedEnvelope(n apierr.Normalized) *envelope.Envelope {
	text := n.UserMessage
	if n.RemediationURL != "" {
		text += "\nReconnect: " + n.RemediationURL
	}
	return d.builder.Error(text)
}

// finish stamps common meta onto every outgoing envelope.
func (d *Dispatcher) finish(env *envelope.Envelope, action, requestID, category string) *envelope.Envelope {
	envelope.WithAction(env, action)
	extra := map[string]any{"requestId": requestID}
	if category != "" {
		extra["errorCategory"] = category
	}
	return envelope.WithMeta(env, extra)
}
