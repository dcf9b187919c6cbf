package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/toolgate/adapter"
	"github.com/smallnest/toolgate/catalog"
	"github.com/smallnest/toolgate/credential"
	"github.com/smallnest/toolgate/credential/memory"
	"github.com/smallnest/toolgate/envelope"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cat := catalog.New("echo", "Echo", []catalog.Operation{
		{
			Name:        "say",
			Description: "Echo text back",
			Params: []catalog.Parameter{
				{Name: "text", Type: "string", Required: true, Description: "Text to echo"},
			},
		},
	})
	resolver := memory.NewResolver()
	require.NoError(t, resolver.Put("u1", "echo", "", credential.APIKey("k")))

	a, err := adapter.New(adapter.Config{
		Catalog:  cat,
		Resolver: resolver,
		Handlers: map[string]adapter.Handler{
			"say": func(_ context.Context, inv adapter.Invocation) (any, error) {
				return map[string]any{"echo": inv.Params["text"]}, nil
			},
		},
	})
	require.NoError(t, err)

	registry := adapter.NewRegistry()
	require.NoError(t, registry.Register(a))

	srv := httptest.NewServer(New(registry, WithMetrics(prometheus.NewRegistry())).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListServices(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/v1/services")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Services []string `json:"services"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{"echo"}, body.Services)
}

func TestExecute(t *testing.T) {
	srv := newTestServer(t)
	resp, body := postJSON(t, srv.URL+"/v1/services/echo/execute",
		`{"action":"say","params":{"text":"hi"},"userId":"u1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var env envelope.Envelope
	require.NoError(t, json.Unmarshal(body, &env))
	assert.False(t, env.IsError)
	assert.Contains(t, env.Text(), "hi")
}

func TestExecuteErrorsKeepHTTP200(t *testing.T) {
	srv := newTestServer(t)
	resp, body := postJSON(t, srv.URL+"/v1/services/echo/execute",
		`{"action":"say","params":{},"userId":"u1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var env envelope.Envelope
	require.NoError(t, json.Unmarshal(body, &env))
	assert.True(t, env.IsError)
	assert.Contains(t, env.Text(), "missing required parameter: text")
}

func TestExecuteRejectsNonObjectParams(t *testing.T) {
	srv := newTestServer(t)
	resp, body := postJSON(t, srv.URL+"/v1/services/echo/execute",
		`{"action":"say","params":"just a string","userId":"u1"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "params must be a JSON object")
}

func TestExecuteRequiresUserID(t *testing.T) {
	srv := newTestServer(t)
	resp, body := postJSON(t, srv.URL+"/v1/services/echo/execute",
		`{"action":"say","params":{"text":"hi"}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "userId is required")
}

func TestExecuteNullParamsMeansEmpty(t *testing.T) {
	srv := newTestServer(t)
	resp, body := postJSON(t, srv.URL+"/v1/services/echo/execute",
		`{"action":"say","params":null,"userId":"u1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var env envelope.Envelope
	require.NoError(t, json.Unmarshal(body, &env))
	assert.True(t, env.IsError)
	assert.Contains(t, env.Text(), "missing required parameter: text")
}

func TestValidate(t *testing.T) {
	srv := newTestServer(t)
	resp, body := postJSON(t, srv.URL+"/v1/services/echo/validate",
		`{"action":"say","params":{}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res catalog.ValidationResult
	require.NoError(t, json.Unmarshal(body, &res))
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"missing required parameter: text"}, res.Errors)
}

func TestUnknownService(t *testing.T) {
	srv := newTestServer(t)
	resp, body := postJSON(t, srv.URL+"/v1/services/nope/execute",
		`{"action":"say","userId":"u1"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "unknown service")
}

func TestCatalogEndpoint(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/v1/services/echo/catalog")
	require.NoError(t, err)
	defer resp.Body.Close()

	var cat catalog.Catalog
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cat))
	assert.Equal(t, "echo", cat.Service)
	require.Len(t, cat.Operations, 1)
}

func TestOperationHelp(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/v1/services/echo/operations/say")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/v1/services/echo/operations/shout")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDocsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/v1/services/echo/docs")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "say")
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRawWithoutHatch(t *testing.T) {
	srv := newTestServer(t)
	resp, body := postJSON(t, srv.URL+"/v1/services/echo/execute/raw",
		`{"endpoint":"/api/x","method":"GET","userId":"u1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var env envelope.Envelope
	require.NoError(t, json.Unmarshal(body, &env))
	assert.True(t, env.IsError)
	assert.Contains(t, env.Text(), "raw API escape hatch")
}
