package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// GraphQLClient issues GraphQL operations against a single endpoint
// through an underlying Doer. It surfaces non-empty error arrays as
// *GraphQLErrors even when the HTTP status is 200.
type GraphQLClient struct {
	doer     Doer
	endpoint string
}

// NewGraphQL wraps a Doer for GraphQL use. endpoint is the path of the
// GraphQL endpoint relative to the Doer's base URL, e.g. "/graphql".
func NewGraphQL(doer Doer, endpoint string) *GraphQLClient {
	return &GraphQLClient{doer: doer, endpoint: endpoint}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// Query runs a GraphQL query or mutation and returns the "data" value.
func (g *GraphQLClient) Query(ctx context.Context, query string, variables map[string]any) (any, error) {
	raw, err := g.doer.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   g.endpoint,
		Body:   graphQLRequest{Query: query, Variables: variables},
	})
	if err != nil {
		return nil, err
	}

	// Re-encode to pick apart data/errors regardless of the decoded
	// map's concrete shape.
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("re-encode graphql response: %w", err)
	}
	var resp struct {
		Data   any            `json:"data"`
		Errors []GraphQLError `json:"errors"`
	}
	if err := json.Unmarshal(encoded, &resp); err != nil {
		return nil, fmt.Errorf("decode graphql response: %w", err)
	}

	if len(resp.Errors) > 0 {
		return nil, &GraphQLErrors{Errors: resp.Errors}
	}
	return resp.Data, nil
}
