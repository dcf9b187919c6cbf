package adapter

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/toolgate/apierr"
	"github.com/smallnest/toolgate/catalog"
	"github.com/smallnest/toolgate/credential"
	"github.com/smallnest/toolgate/credential/memory"
	"github.com/smallnest/toolgate/envelope"
	"github.com/smallnest/toolgate/monitor"
)

// spyMonitor records events so tests can assert on (the absence of)
// alerting.
type spyMonitor struct {
	mu     sync.Mutex
	events []monitor.Event
}

func (s *spyMonitor) ReportError(ev monitor.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *spyMonitor) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// failingResolver fails resolution with an arbitrary error.
type failingResolver struct{ err error }

func (f failingResolver) Resolve(context.Context, string, string, string) (credential.Credential, error) {
	return credential.Credential{}, f.err
}

func driveCatalog() *catalog.Catalog {
	return catalog.New("drive", "Google Drive", []catalog.Operation{
		{
			Name:        "list_items",
			Description: "List files in a folder",
			Params: []catalog.Parameter{
				{Name: "folder_id", Type: "string", Required: true},
				{Name: "page_size", Type: "number"},
			},
			ReadOnly: true,
		},
		{
			Name:        "move_item",
			Description: "Move a file",
			Params: []catalog.Parameter{
				{Name: "item_id", Type: "string", Required: true},
				{Name: "target_folder_id", Type: "string", Required: true},
			},
		},
	})
}

func newTestDispatcher(t *testing.T, handlers map[string]Handler, opts ...func(*Config)) (*Dispatcher, *spyMonitor) {
	t.Helper()

	resolver := memory.NewResolver()
	require.NoError(t, resolver.Put("u1", "drive", "", credential.OAuth("tok-1", "conn-1", "")))

	spy := &spyMonitor{}
	cfg := Config{
		Catalog:  driveCatalog(),
		Handlers: handlers,
		Resolver: resolver,
		Normalizer: apierr.NewNormalizer("drive",
			apierr.WithReconnectURL("https://example.com/connect/drive")),
		Monitor: spy,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	d, err := New(cfg)
	require.NoError(t, err)
	return d, spy
}

func passthroughHandlers(result any, err error) map[string]Handler {
	h := func(context.Context, Invocation) (any, error) { return result, err }
	return map[string]Handler{"list_items": h, "move_item": h}
}

func TestNewRequiresHandlerPerOperation(t *testing.T) {
	_, err := New(Config{
		Catalog:  driveCatalog(),
		Resolver: memory.NewResolver(),
		Handlers: map[string]Handler{
			"list_items": func(context.Context, Invocation) (any, error) { return nil, nil },
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "move_item")
}

func TestExecuteSuccess(t *testing.T) {
	want := map[string]any{"items": []any{map[string]any{"id": "1"}}}
	var got Invocation
	d, spy := newTestDispatcher(t, map[string]Handler{
		"list_items": func(_ context.Context, inv Invocation) (any, error) {
			got = inv
			return want, nil
		},
		"move_item": func(context.Context, Invocation) (any, error) { return nil, nil },
	})

	env := d.Execute(context.Background(), "list_items", map[string]any{"folder_id": "f-1"}, "u1", "")

	assert.False(t, env.IsError)
	assert.Equal(t, want, env.StructuredContent)
	assert.Equal(t, "list_items", env.Meta.Action)
	assert.NotEmpty(t, env.Meta.Extra["requestId"])
	assert.Zero(t, spy.count())

	// The handler saw the resolved credential and original params.
	assert.Equal(t, credential.KindOAuth, got.Credential.Kind)
	assert.Equal(t, "tok-1", got.Credential.AccessToken)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "f-1", got.Params["folder_id"])
}

func TestExecuteValidationFailureSkipsEverything(t *testing.T) {
	handlerCalled := false
	d, spy := newTestDispatcher(t, map[string]Handler{
		"list_items": func(context.Context, Invocation) (any, error) {
			handlerCalled = true
			return nil, nil
		},
		"move_item": func(context.Context, Invocation) (any, error) { return nil, nil },
	})

	env := d.Execute(context.Background(), "move_item", map[string]any{}, "u1", "")

	assert.True(t, env.IsError)
	// Both missing parameters surface at once, newline-joined.
	assert.Contains(t, env.Text(), "missing required parameter: item_id\nmissing required parameter: target_folder_id")
	assert.False(t, handlerCalled)
	assert.Zero(t, spy.count(), "validation errors must not alert")
}

func TestExecuteUnknownAction(t *testing.T) {
	d, spy := newTestDispatcher(t, passthroughHandlers(nil, nil))

	env := d.Execute(context.Background(), "rename_item", map[string]any{}, "u1", "")

	assert.True(t, env.IsError)
	assert.Contains(t, env.Text(), "unknown action")
	assert.Zero(t, spy.count())
}

func TestExecuteNotConnected(t *testing.T) {
	d, spy := newTestDispatcher(t, passthroughHandlers(nil, nil))

	env := d.Execute(context.Background(), "list_items", map[string]any{"folder_id": "f"}, "stranger", "")

	assert.True(t, env.IsError)
	assert.Contains(t, env.Text(), "not connected")
	assert.Contains(t, env.Text(), "https://example.com/connect/drive")
	assert.Zero(t, spy.count(), "not-connected must not alert")
	assert.Equal(t, "not_connected", env.Meta.Extra["errorCategory"])
}

func TestExecuteResolverFailureAlerts(t *testing.T) {
	d, spy := newTestDispatcher(t, passthroughHandlers(nil, nil), func(cfg *Config) {
		cfg.Resolver = failingResolver{err: errors.New("vault sealed")}
	})

	env := d.Execute(context.Background(), "list_items", map[string]any{"folder_id": "f"}, "u1", "")

	assert.True(t, env.IsError)
	assert.Contains(t, env.Text(), "vault sealed")
	assert.Equal(t, 1, spy.count())
}

func TestExecuteBackendErrorNormalized(t *testing.T) {
	d, spy := newTestDispatcher(t, passthroughHandlers(nil, errors.New("HTTP 429: too many requests")))

	env := d.Execute(context.Background(), "list_items", map[string]any{"folder_id": "f"}, "u1", "")

	assert.True(t, env.IsError)
	assert.Contains(t, env.Text(), "rate limit")
	assert.Contains(t, env.Text(), "HTTP 429: too many requests", "raw message preserved")
	require.Equal(t, 1, spy.count())
	assert.Equal(t, "rate_limited", spy.events[0].Category)
	assert.Equal(t, "drive", spy.events[0].Service)
	assert.Equal(t, "list_items", spy.events[0].Action)
}

func TestExecuteNeverReturnsNilEnvelope(t *testing.T) {
	d, _ := newTestDispatcher(t, passthroughHandlers(nil, errors.New("anything")))

	for _, action := range []string{"list_items", "move_item", "bogus", ""} {
		env := d.Execute(context.Background(), action, nil, "u1", "")
		require.NotNil(t, env)
		assert.True(t, env.IsError)
		assert.NotEmpty(t, env.Text(), "error envelopes always carry text")
	}
}

func TestExecuteNilParamsTreatedAsEmpty(t *testing.T) {
	d, _ := newTestDispatcher(t, passthroughHandlers(map[string]any{"ok": true}, nil))

	// list_items requires folder_id, so nil params is a validation
	// failure, not a panic.
	env := d.Execute(context.Background(), "list_items", nil, "u1", "")
	assert.True(t, env.IsError)
	assert.Contains(t, env.Text(), "missing required parameter: folder_id")
}

func rawConfig(forward func(ctx context.Context, cred credential.Credential, raw RawRequest) (any, error)) *RawConfig {
	return &RawConfig{
		Prefix:  "/api/",
		Methods: []string{"GET", "POST"},
		Forward: forward,
	}
}

func TestExecuteRawPrefixFailsClosed(t *testing.T) {
	forwarded := false
	d, spy := newTestDispatcher(t, passthroughHandlers(nil, nil), func(cfg *Config) {
		cfg.Raw = rawConfig(func(context.Context, credential.Credential, RawRequest) (any, error) {
			forwarded = true
			return nil, nil
		})
	})

	env := d.ExecuteRaw(context.Background(), RawRequest{
		Endpoint: "/admin/users", Method: "GET",
	}, "u1", "")

	assert.True(t, env.IsError)
	assert.Contains(t, env.Text(), `outside the allowed`)
	assert.False(t, forwarded)
	assert.Zero(t, spy.count())
}

func TestExecuteRawRejectsDotSegments(t *testing.T) {
	forwarded := false
	d, _ := newTestDispatcher(t, passthroughHandlers(nil, nil), func(cfg *Config) {
		cfg.Raw = rawConfig(func(context.Context, credential.Credential, RawRequest) (any, error) {
			forwarded = true
			return nil, nil
		})
	})

	// Endpoints that start with the prefix but escape it after
	// canonicalization, plus embedded query/fragment smuggling.
	for _, endpoint := range []string{
		"/api/../admin/teams.delete",
		"/api/./../admin/users",
		"/api/v1/../../admin",
		"/api/users.list?limit=5",
		"/api/users.list#frag",
	} {
		env := d.ExecuteRaw(context.Background(), RawRequest{
			Endpoint: endpoint, Method: "GET",
		}, "u1", "")

		assert.True(t, env.IsError, endpoint)
		assert.Contains(t, env.Text(), "outside the allowed", endpoint)
	}
	assert.False(t, forwarded, "escaping endpoints must never reach the provider")
}

func TestExecuteRawForwardsCanonicalPath(t *testing.T) {
	var gotRaw RawRequest
	d, _ := newTestDispatcher(t, passthroughHandlers(nil, nil), func(cfg *Config) {
		cfg.Raw = rawConfig(func(_ context.Context, _ credential.Credential, raw RawRequest) (any, error) {
			gotRaw = raw
			return nil, nil
		})
	})

	// Dot segments that stay inside the prefix are forwarded cleaned.
	env := d.ExecuteRaw(context.Background(), RawRequest{
		Endpoint: "/api/v2/../users.list", Method: "GET",
	}, "u1", "")

	assert.False(t, env.IsError)
	assert.Equal(t, "/api/users.list", gotRaw.Endpoint)
}

func TestExecuteRawMethodNotAllowed(t *testing.T) {
	d, _ := newTestDispatcher(t, passthroughHandlers(nil, nil), func(cfg *Config) {
		cfg.Raw = rawConfig(func(context.Context, credential.Credential, RawRequest) (any, error) {
			return nil, nil
		})
	})

	env := d.ExecuteRaw(context.Background(), RawRequest{
		Endpoint: "/api/chat.delete", Method: "DELETE",
	}, "u1", "")

	assert.True(t, env.IsError)
	assert.Contains(t, env.Text(), "method DELETE is not allowed")
}

func TestExecuteRawForwardsWithCredential(t *testing.T) {
	var gotCred credential.Credential
	var gotRaw RawRequest
	d, _ := newTestDispatcher(t, passthroughHandlers(nil, nil), func(cfg *Config) {
		cfg.Raw = rawConfig(func(_ context.Context, cred credential.Credential, raw RawRequest) (any, error) {
			gotCred, gotRaw = cred, raw
			return map[string]any{"ok": true}, nil
		})
	})

	env := d.ExecuteRaw(context.Background(), RawRequest{
		Endpoint: "/api/users.list", Method: "GET", Query: map[string]string{"limit": "5"},
	}, "u1", "")

	assert.False(t, env.IsError)
	assert.Equal(t, map[string]any{"ok": true}, env.StructuredContent)
	assert.Equal(t, "tok-1", gotCred.AccessToken)
	assert.Equal(t, "/api/users.list", gotRaw.Endpoint)
	assert.Equal(t, "raw_api", env.Meta.Action)
}

func TestExecuteRecoversHandlerPanic(t *testing.T) {
	d, spy := newTestDispatcher(t, map[string]Handler{
		"list_items": func(context.Context, Invocation) (any, error) {
			panic("nil map write")
		},
		"move_item": func(context.Context, Invocation) (any, error) { return nil, nil },
	})

	var env *envelope.Envelope
	require.NotPanics(t, func() {
		env = d.Execute(context.Background(), "list_items", map[string]any{"folder_id": "f"}, "u1", "")
	})

	require.NotNil(t, env)
	assert.True(t, env.IsError)
	assert.Contains(t, env.Text(), "handler panic")
	assert.Contains(t, env.Text(), "nil map write")
	assert.Equal(t, 1, spy.count())
}

func TestExecuteRawRecoversForwardPanic(t *testing.T) {
	d, spy := newTestDispatcher(t, passthroughHandlers(nil, nil), func(cfg *Config) {
		cfg.Raw = rawConfig(func(context.Context, credential.Credential, RawRequest) (any, error) {
			panic("short response")
		})
	})

	var env *envelope.Envelope
	require.NotPanics(t, func() {
		env = d.ExecuteRaw(context.Background(), RawRequest{
			Endpoint: "/api/users.list", Method: "GET",
		}, "u1", "")
	})

	require.NotNil(t, env)
	assert.True(t, env.IsError)
	assert.Contains(t, env.Text(), "handler panic")
	assert.Equal(t, 1, spy.count())
}

func TestExecuteRawDisabled(t *testing.T) {
	d, _ := newTestDispatcher(t, passthroughHandlers(nil, nil))

	env := d.ExecuteRaw(context.Background(), RawRequest{Endpoint: "/api/x", Method: "GET"}, "u1", "")
	assert.True(t, env.IsError)
	assert.Contains(t, env.Text(), "does not expose a raw API escape hatch")
}

func TestOperationHelp(t *testing.T) {
	d, _ := newTestDispatcher(t, passthroughHandlers(nil, nil))

	op, err := d.OperationHelp("list_items")
	require.NoError(t, err)
	assert.Equal(t, "list_items", op.Name)

	_, err = d.OperationHelp("bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list the catalog")
}
