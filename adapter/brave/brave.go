// Package brave implements the Brave Search adapter: API-key auth via
// the X-Subscription-Token header, REST over the Brave Search API.
package brave

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/smallnest/toolgate/adapter"
	"github.com/smallnest/toolgate/apierr"
	"github.com/smallnest/toolgate/catalog"
	"github.com/smallnest/toolgate/credential"
	"github.com/smallnest/toolgate/log"
	"github.com/smallnest/toolgate/monitor"
	"github.com/smallnest/toolgate/transport"
)

const defaultBaseURL = "https://api.search.brave.com"

type invoker struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the adapter.
type Option func(*config)

type config struct {
	baseURL      string
	httpClient   *http.Client
	reconnectURL string
	logger       log.Logger
	monitor      monitor.Monitor
}

// WithBaseURL overrides the Brave API base URL, for tests.
func WithBaseURL(u string) Option {
	return func(c *config) { c.baseURL = u }
}

// WithHTTPClient sets the outbound HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) { c.httpClient = hc }
}

// WithReconnectURL sets the URL users visit to store a Brave API key.
func WithReconnectURL(u string) Option {
	return func(c *config) { c.reconnectURL = u }
}

// WithLogger sets the adapter logger.
func WithLogger(l log.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithMonitor sets the monitoring collaborator.
func WithMonitor(m monitor.Monitor) Option {
	return func(c *config) { c.monitor = m }
}

// New builds the Brave Search adapter around the given credential
// resolver.
func New(resolver credential.Resolver, opts ...Option) (adapter.Adapter, error) {
	cfg := &config{baseURL: defaultBaseURL, httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(cfg)
	}

	inv := &invoker{baseURL: cfg.baseURL, httpClient: cfg.httpClient}

	return adapter.New(adapter.Config{
		Catalog:  newCatalog(),
		Resolver: resolver,
		Normalizer: apierr.NewNormalizer("brave",
			apierr.WithReconnectURL(cfg.reconnectURL),
			apierr.WithQuotaHint("Free-plan keys allow 2,000 queries per month.")),
		Logger:  cfg.logger,
		Monitor: cfg.monitor,
		Handlers: map[string]adapter.Handler{
			"web_search":  inv.webSearch,
			"news_search": inv.newsSearch,
		},
		Raw: &adapter.RawConfig{
			Prefix:  "/res/v1/",
			Methods: []string{http.MethodGet},
			Forward: inv.forwardRaw,
		},
	})
}

func newCatalog() *catalog.Catalog {
	return catalog.New("brave", "Brave Search", []catalog.Operation{
		{
			Name:        "web_search",
			Description: "Search the web",
			Params: []catalog.Parameter{
				{Name: "query", Type: "string", Required: true, Description: "Search terms", Example: "golang context cancellation"},
				{Name: "count", Type: "number", Description: "Results to return, 1-20 (default 10)"},
				{Name: "country", Type: "string", Description: "Country code (default US)"},
				{Name: "lang", Type: "string", Description: "Language code (default en)"},
			},
			Returns:    "Web results with title, url and description",
			ReadOnly:   true,
			Idempotent: true,
		},
		{
			Name:        "news_search",
			Description: "Search recent news articles",
			Params: []catalog.Parameter{
				{Name: "query", Type: "string", Required: true, Description: "Search terms"},
				{Name: "count", Type: "number", Description: "Results to return, 1-20 (default 10)"},
			},
			Returns:    "News results with title, url and age",
			ReadOnly:   true,
			Idempotent: true,
		},
	}).WithCommon("web_search").
		WithDocsURL("https://api.search.brave.com/app/documentation")
}

func (b *invoker) client(cred credential.Credential) transport.Doer {
	return transport.New(b.baseURL,
		transport.WithHeader("X-Subscription-Token", cred.Secret()),
		transport.WithHTTPClient(b.httpClient))
}

type searchParams struct {
	Query   string `json:"query"`
	Count   int    `json:"count"`
	Country string `json:"country"`
	Lang    string `json:"lang"`
}

// normalize applies the API's defaults and clamps count to 1-20.
func (p *searchParams) normalize() {
	if p.Count <= 0 {
		p.Count = 10
	}
	if p.Count > 20 {
		p.Count = 20
	}
	if p.Country == "" {
		p.Country = "US"
	}
	if p.Lang == "" {
		p.Lang = "en"
	}
}

func (b *invoker) webSearch(ctx context.Context, inv adapter.Invocation) (any, error) {
	var p searchParams
	if err := adapter.DecodeParams(inv.Params, &p); err != nil {
		return nil, err
	}
	p.normalize()

	q := url.Values{}
	q.Set("q", p.Query)
	q.Set("count", fmt.Sprintf("%d", p.Count))
	q.Set("country", p.Country)
	q.Set("search_lang", p.Lang)

	raw, err := b.client(inv.Credential).Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/res/v1/web/search",
		Query:  q,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"results": webResults(raw)}, nil
}

func (b *invoker) newsSearch(ctx context.Context, inv adapter.Invocation) (any, error) {
	var p searchParams
	if err := adapter.DecodeParams(inv.Params, &p); err != nil {
		return nil, err
	}
	p.normalize()

	q := url.Values{}
	q.Set("q", p.Query)
	q.Set("count", fmt.Sprintf("%d", p.Count))

	raw, err := b.client(inv.Credential).Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/res/v1/news/search",
		Query:  q,
	})
	if err != nil {
		return nil, err
	}
	resp, _ := raw.(map[string]any)
	return map[string]any{"results": resp["results"]}, nil
}

// webResults extracts the web.results array from Brave's response
// shape, keeping title, url and description.
func webResults(raw any) []map[string]any {
	resp, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	web, ok := resp["web"].(map[string]any)
	if !ok {
		return nil
	}
	items, ok := web["results"].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		item, ok := it.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, map[string]any{
			"title":       item["title"],
			"url":         item["url"],
			"description": item["description"],
		})
	}
	return out
}

func (b *invoker) forwardRaw(ctx context.Context, cred credential.Credential, raw adapter.RawRequest) (any, error) {
	q := url.Values{}
	for k, v := range raw.Query {
		q.Set(k, v)
	}
	return b.client(cred).Do(ctx, transport.Request{
		Method: raw.Method,
		Path:   raw.Endpoint,
		Query:  q,
		Body:   raw.Body,
	})
}
