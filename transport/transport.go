package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Request is a generic verb-based provider request. Path is joined onto
// the client's base URL; Query and Header are optional; Body, when
// non-nil, is JSON-encoded.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   any
}

// Doer issues provider requests. Implementations return the decoded
// JSON body on 2xx and a *StatusError on any other status. Transport
// failures (connection reset, timeout) surface as ordinary errors;
// retries and timeouts are the HTTP client's concern, never the
// framework's.
type Doer interface {
	Do(ctx context.Context, req Request) (any, error)
}

// Client is a JSON-over-HTTP Doer bound to one base URL. Auth headers
// are applied per request by the configured header function, so the
// same client serves bearer-token and API-key providers.
type Client struct {
	baseURL    string
	httpClient *http.Client
	headers    func(h http.Header)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBearer sets an Authorization bearer header on every request.
func WithBearer(token string) Option {
	return func(c *Client) {
		c.headers = func(h http.Header) {
			h.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithHeader sets a static header on every request, e.g. an API-key
// header like X-Subscription-Token.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers = func(h http.Header) {
			h.Set(key, value)
		}
	}
}

// WithHeaderFunc sets an arbitrary header mutator applied to every
// request.
func WithHeaderFunc(fn func(h http.Header)) Option {
	return func(c *Client) {
		c.headers = fn
	}
}

// New creates a Client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do issues the request and decodes the JSON response. Non-2xx statuses
// return a *StatusError carrying the structured status code and the raw
// body, so error classification downstream never has to re-parse
// message text.
func (c *Client) Do(ctx context.Context, req Request) (any, error) {
	var bodyReader io.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(raw)
	}

	u := c.baseURL + "/" + strings.TrimPrefix(req.Path, "/")
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if c.headers != nil {
		c.headers(httpReq.Header)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	if len(bytes.TrimSpace(respBody)) == 0 {
		return nil, nil
	}

	var decoded any
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		// Some providers answer 2xx with non-JSON bodies; hand the
		// raw text back rather than failing the call.
		return string(respBody), nil
	}
	return decoded, nil
}
