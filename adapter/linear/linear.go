// Package linear implements the Linear adapter: OAuth bearer auth over
// Linear's GraphQL API. Linear exposes no raw escape hatch; its GraphQL
// surface is too open-ended to bound with an endpoint prefix.
package linear

import (
	"context"
	"net/http"

	"github.com/smallnest/toolgate/adapter"
	"github.com/smallnest/toolgate/apierr"
	"github.com/smallnest/toolgate/catalog"
	"github.com/smallnest/toolgate/credential"
	"github.com/smallnest/toolgate/log"
	"github.com/smallnest/toolgate/monitor"
	"github.com/smallnest/toolgate/transport"
)

const defaultBaseURL = "https://api.linear.app"

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

// WithBaseURL overrides the Linear API base URL, for tests.
func WithBaseURL(u string) Option {
	return func(c *config) { c.baseURL = u }
}

// WithHTTPClient sets the outbound HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) { c.httpClient = hc }
}

// WithReconnectURL sets the URL users visit to (re)connect Linear.
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

// New builds the Linear adapter around the given credential resolver.
func New(resolver credential.Resolver, opts ...Option) (adapter.Adapter, error) {
	cfg := &config{baseURL: defaultBaseURL, httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(cfg)
	}

	inv := &invoker{baseURL: cfg.baseURL, httpClient: cfg.httpClient}

	return adapter.New(adapter.Config{
		Catalog:    newCatalog(),
		Resolver:   resolver,
		Normalizer: apierr.NewNormalizer("linear", apierr.WithReconnectURL(cfg.reconnectURL)),
		Logger:     cfg.logger,
		Monitor:    cfg.monitor,
		Handlers: map[string]adapter.Handler{
			"list_issues":   inv.listIssues,
			"get_issue":     inv.getIssue,
			"create_issue":  inv.createIssue,
			"search_issues": inv.searchIssues,
			"list_teams":    inv.listTeams,
		},
	})
}

func newCatalog() *catalog.Catalog {
	return catalog.New("linear", "Linear", []catalog.Operation{
		{
			Name:        "list_issues",
			Description: "List recent issues, optionally filtered by team",
			Params: []catalog.Parameter{
				{Name: "team_id", Type: "string", Description: "Restrict to one team"},
				{Name: "limit", Type: "number", Description: "Max issues (default 25)"},
			},
			Returns:  "Issues with identifier, title, state and assignee",
			ReadOnly: true,
		},
		{
			Name:        "get_issue",
			Description: "Fetch one issue by id or identifier",
			Params: []catalog.Parameter{
				{Name: "id", Type: "string", Required: true, Description: "Issue id or identifier", Example: "ENG-123"},
			},
			Returns:  "The issue with description, state and assignee",
			ReadOnly: true,
		},
		{
			Name:        "create_issue",
			Description: "Create an issue in a team",
			Params: []catalog.Parameter{
				{Name: "title", Type: "string", Required: true, Description: "Issue title"},
				{Name: "team_id", Type: "string", Required: true, Description: "Team to create the issue in"},
				{Name: "description", Type: "string", Description: "Markdown body"},
			},
			Returns: "The created issue identifier and URL",
		},
		{
			Name:        "search_issues",
			Description: "Full-text search across issues",
			Params: []catalog.Parameter{
				{Name: "query", Type: "string", Required: true, Description: "Search terms"},
				{Name: "limit", Type: "number", Description: "Max results (default 10)"},
			},
			Returns:  "Matching issues",
			ReadOnly: true,
		},
		{
			Name:        "list_teams",
			Description: "List teams in the workspace",
			Returns:     "Teams with id, key and name",
			ReadOnly:    true,
			Idempotent:  true,
		},
	}).WithCommon("list_issues", "create_issue", "search_issues").
		WithDocsURL("https://developers.linear.app/docs/graphql/working-with-the-graphql-api")
}

func (l *invoker) gql(cred credential.Credential) *transport.GraphQLClient {
	doer := transport.New(l.baseURL,
		transport.WithBearer(cred.Secret()),
		transport.WithHTTPClient(l.httpClient))
	return transport.NewGraphQL(doer, "/graphql")
}

type listIssuesParams struct {
	TeamID string `json:"team_id"`
	Limit  int    `json:"limit"`
}

func (l *invoker) listIssues(ctx context.Context, inv adapter.Invocation) (any, error) {
	var p listIssuesParams
	if err := adapter.DecodeParams(inv.Params, &p); err != nil {
		return nil, err
	}
	if p.Limit <= 0 {
		p.Limit = 25
	}

	const query = `query Issues($first: Int!, $teamId: ID) {
  issues(first: $first, filter: { team: { id: { eq: $teamId } } }, orderBy: updatedAt) {
    nodes { id identifier title state { name } assignee { name } }
  }
}`
	vars := map[string]any{"first": p.Limit}
	if p.TeamID != "" {
		vars["teamId"] = p.TeamID
	}
	return l.gql(inv.Credential).Query(ctx, query, vars)
}

type getIssueParams struct {
	ID string `json:"id"`
}

func (l *invoker) getIssue(ctx context.Context, inv adapter.Invocation) (any, error) {
	var p getIssueParams
	if err := adapter.DecodeParams(inv.Params, &p); err != nil {
		return nil, err
	}

	const query = `query Issue($id: String!) {
  issue(id: $id) {
    id identifier title description url
    state { name } assignee { name } team { key }
  }
}`
	return l.gql(inv.Credential).Query(ctx, query, map[string]any{"id": p.ID})
}

type createIssueParams struct {
	Title       string `json:"title"`
	TeamID      string `json:"team_id"`
	Description string `json:"description"`
}

func (l *invoker) createIssue(ctx context.Context, inv adapter.Invocation) (any, error) {
	var p createIssueParams
	if err := adapter.DecodeParams(inv.Params, &p); err != nil {
		return nil, err
	}

	const mutation = `mutation CreateIssue($input: IssueCreateInput!) {
  issueCreate(input: $input) {
    success
    issue { id identifier url }
  }
}`
	input := map[string]any{"title": p.Title, "teamId": p.TeamID}
	if p.Description != "" {
		input["description"] = p.Description
	}
	return l.gql(inv.Credential).Query(ctx, mutation, map[string]any{"input": input})
}

type searchIssuesParams struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

func (l *invoker) searchIssues(ctx context.Context, inv adapter.Invocation) (any, error) {
	var p searchIssuesParams
	if err := adapter.DecodeParams(inv.Params, &p); err != nil {
		return nil, err
	}
	if p.Limit <= 0 {
		p.Limit = 10
	}

	const query = `query Search($term: String!, $first: Int!) {
  searchIssues(term: $term, first: $first) {
    nodes { id identifier title state { name } }
  }
}`
	return l.gql(inv.Credential).Query(ctx, query, map[string]any{"term": p.Query, "first": p.Limit})
}

func (l *invoker) listTeams(ctx context.Context, inv adapter.Invocation) (any, error) {
	const query = `query Teams {
  teams { nodes { id key name } }
}`
	return l.gql(inv.Credential).Query(ctx, query, nil)
}
