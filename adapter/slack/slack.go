// Package slack implements the Slack adapter: OAuth bearer auth over
// the Slack Web API, with the provider's "ok"/"error" response
// convention translated into the framework's error taxonomy.
package slack

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

const defaultBaseURL = "https://slack.com"

// invoker is the Slack backend invoker: it turns validated actions
// into Web API calls.
type invoker struct {
	baseURL    string
	httpClient *http.Client
	norm       *apierr.Normalizer
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

// WithBaseURL overrides the Slack API base URL, for tests.
func WithBaseURL(u string) Option {
	return func(c *config) { c.baseURL = u }
}

// WithHTTPClient sets the outbound HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) { c.httpClient = hc }
}

// WithReconnectURL sets the URL users visit to (re)connect Slack.
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

// New builds the Slack adapter around the given credential resolver.
func New(resolver credential.Resolver, opts ...Option) (adapter.Adapter, error) {
	cfg := &config{baseURL: defaultBaseURL, httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(cfg)
	}

	norm := apierr.NewNormalizer("slack", apierr.WithReconnectURL(cfg.reconnectURL))
	inv := &invoker{baseURL: cfg.baseURL, httpClient: cfg.httpClient, norm: norm}

	return adapter.New(adapter.Config{
		Catalog:    newCatalog(),
		Resolver:   resolver,
		Normalizer: norm,
		Logger:     cfg.logger,
		Monitor:    cfg.monitor,
		Handlers: map[string]adapter.Handler{
			"list_channels":   inv.listChannels,
			"post_message":    inv.postMessage,
			"channel_history": inv.channelHistory,
			"join_and_post":   inv.joinAndPost,
			"whoami":          inv.whoami,
		},
		Raw: &adapter.RawConfig{
			Prefix:  "/api/",
			Methods: []string{http.MethodGet, http.MethodPost},
			Forward: inv.forwardRaw,
		},
	})
}

func newCatalog() *catalog.Catalog {
	return catalog.New("slack", "Slack", []catalog.Operation{
		{
			Name:        "list_channels",
			Description: "List channels visible to the connected account",
			Params: []catalog.Parameter{
				{Name: "limit", Type: "number", Description: "Max channels to return (default 100)"},
				{Name: "types", Type: "string", Description: "Channel types, e.g. public_channel,private_channel"},
			},
			Returns:  "Channel list with ids, names and membership flags",
			ReadOnly: true,
		},
		{
			Name:        "post_message",
			Description: "Post a message to a channel the bot is in",
			Params: []catalog.Parameter{
				{Name: "channel", Type: "string", Required: true, Description: "Channel id or name", Example: "C024BE91L"},
				{Name: "text", Type: "string", Required: true, Description: "Message text"},
				{Name: "thread_ts", Type: "string", Description: "Thread timestamp to reply under"},
			},
			Returns: "The posted message timestamp and channel",
		},
		{
			Name:        "channel_history",
			Description: "Fetch recent messages from a channel",
			Params: []catalog.Parameter{
				{Name: "channel", Type: "string", Required: true, Description: "Channel id"},
				{Name: "limit", Type: "number", Description: "Max messages (default 20)"},
			},
			Returns:  "Messages newest first",
			ReadOnly: true,
		},
		{
			Name:        "join_and_post",
			Description: "Join a public channel, then post a message to it",
			Params: []catalog.Parameter{
				{Name: "channel", Type: "string", Required: true, Description: "Channel id to join"},
				{Name: "text", Type: "string", Required: true, Description: "Message text"},
			},
			Returns: "The posted message timestamp",
		},
		{
			Name:        "whoami",
			Description: "Identify the connected user and workspace",
			Returns:     "User id, user name and team",
			ReadOnly:    true,
			Idempotent:  true,
		},
	}).WithCommon("list_channels", "post_message").
		WithDocsURL("https://api.slack.com/methods")
}

func (s *invoker) client(cred credential.Credential) transport.Doer {
	return transport.New(s.baseURL,
		transport.WithBearer(cred.Secret()),
		transport.WithHTTPClient(s.httpClient))
}

// call issues one Web API method and translates Slack's in-band error
// convention: 200 responses with {"ok": false, "error": "..."} are
// failures.
func (s *invoker) call(ctx context.Context, cred credential.Credential, req transport.Request) (map[string]any, error) {
	raw, err := s.client(cred).Do(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected slack response shape: %T", raw)
	}
	if okFlag, _ := resp["ok"].(bool); !okFlag {
		code, _ := resp["error"].(string)
		return nil, s.slackError(code)
	}
	return resp, nil
}

// slackError maps Slack's error vocabulary onto the framework
// taxonomy. Unmapped codes pass through verbatim so nothing is
// swallowed.
func (s *invoker) slackError(code string) error {
	if code == "" {
		// ok:false with no error field still has to read as a failure.
		code = "unknown_error"
	}
	switch code {
	case "not_in_channel":
		return apierr.Classified(s.norm.PermissionDenied(
			"not_in_channel: invite the bot to the channel (or use join_and_post) and retry"))
	case "channel_not_found":
		return apierr.Classified(apierr.Normalized{
			Category:    apierr.CategoryNotFound,
			UserMessage: "slack could not find that channel (channel_not_found)",
		})
	case "invalid_auth", "token_revoked", "token_expired", "account_inactive":
		return apierr.Classified(apierr.Normalized{
			Category:       apierr.CategoryInvalidCredentials,
			UserMessage:    fmt.Sprintf("slack rejected the stored credentials (%s). Reconnect and retry.", code),
			RemediationURL: s.norm.NotConnected().RemediationURL,
		})
	case "ratelimited", "rate_limited":
		return apierr.Classified(apierr.Normalized{
			Category:    apierr.CategoryRateLimited,
			UserMessage: fmt.Sprintf("slack rate limit hit (%s). Wait before retrying.", code),
		})
	}
	return fmt.Errorf("slack API error: %s", code)
}

type listChannelsParams struct {
	Limit int    `json:"limit"`
	Types string `json:"types"`
}

func (s *invoker) listChannels(ctx context.Context, inv adapter.Invocation) (any, error) {
	var p listChannelsParams
	if err := adapter.DecodeParams(inv.Params, &p); err != nil {
		return nil, err
	}
	if p.Limit <= 0 {
		p.Limit = 100
	}
	if p.Types == "" {
		p.Types = "public_channel"
	}

	q := url.Values{}
	q.Set("limit", fmt.Sprintf("%d", p.Limit))
	q.Set("types", p.Types)

	resp, err := s.call(ctx, inv.Credential, transport.Request{
		Method: http.MethodGet,
		Path:   "/api/conversations.list",
		Query:  q,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"channels": resp["channels"]}, nil
}

type postMessageParams struct {
	Channel  string `json:"channel"`
	Text     string `json:"text"`
	ThreadTS string `json:"thread_ts,omitempty"`
}

func (s *invoker) postMessage(ctx context.Context, inv adapter.Invocation) (any, error) {
	var p postMessageParams
	if err := adapter.DecodeParams(inv.Params, &p); err != nil {
		return nil, err
	}

	resp, err := s.call(ctx, inv.Credential, transport.Request{
		Method: http.MethodPost,
		Path:   "/api/chat.postMessage",
		Body:   p,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"channel": resp["channel"], "ts": resp["ts"]}, nil
}

type channelHistoryParams struct {
	Channel string `json:"channel"`
	Limit   int    `json:"limit"`
}

func (s *invoker) channelHistory(ctx context.Context, inv adapter.Invocation) (any, error) {
	var p channelHistoryParams
	if err := adapter.DecodeParams(inv.Params, &p); err != nil {
		return nil, err
	}
	if p.Limit <= 0 {
		p.Limit = 20
	}

	q := url.Values{}
	q.Set("channel", p.Channel)
	q.Set("limit", fmt.Sprintf("%d", p.Limit))

	resp, err := s.call(ctx, inv.Credential, transport.Request{
		Method: http.MethodGet,
		Path:   "/api/conversations.history",
		Query:  q,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"messages": resp["messages"]}, nil
}

// joinAndPost is a two-step operation: join the channel, then post.
// The second call depends on the first succeeding, so the steps are
// sequential, never parallel.
func (s *invoker) joinAndPost(ctx context.Context, inv adapter.Invocation) (any, error) {
	var p postMessageParams
	if err := adapter.DecodeParams(inv.Params, &p); err != nil {
		return nil, err
	}

	if _, err := s.call(ctx, inv.Credential, transport.Request{
		Method: http.MethodPost,
		Path:   "/api/conversations.join",
		Body:   map[string]any{"channel": p.Channel},
	}); err != nil {
		return nil, fmt.Errorf("join channel: %w", err)
	}

	resp, err := s.call(ctx, inv.Credential, transport.Request{
		Method: http.MethodPost,
		Path:   "/api/chat.postMessage",
		Body:   p,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"channel": resp["channel"], "ts": resp["ts"]}, nil
}

func (s *invoker) whoami(ctx context.Context, inv adapter.Invocation) (any, error) {
	resp, err := s.call(ctx, inv.Credential, transport.Request{
		Method: http.MethodPost,
		Path:   "/api/auth.test",
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"user_id": resp["user_id"],
		"user":    resp["user"],
		"team":    resp["team"],
	}, nil
}

// forwardRaw serves the raw escape hatch over the same transport as
// named operations. The response is returned unmodified, including
// Slack's in-band ok/error fields.
func (s *invoker) forwardRaw(ctx context.Context, cred credential.Credential, raw adapter.RawRequest) (any, error) {
	q := url.Values{}
	for k, v := range raw.Query {
		q.Set(k, v)
	}
	return s.client(cred).Do(ctx, transport.Request{
		Method: raw.Method,
		Path:   raw.Endpoint,
		Query:  q,
		Body:   raw.Body,
	})
}
