package transport

import (
	"errors"
	"fmt"
	"strings"
)

// StatusError is a non-2xx provider response. It preserves the
// structured status code so downstream classification keys off the
// code itself instead of re-parsing stringified messages.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, body)
}

// AsStatusError unwraps err to a *StatusError if one is in the chain.
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// GraphQLError is one entry of a GraphQL error array.
type GraphQLError struct {
	Message    string         `json:"message"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// GraphQLErrors is a provider response whose errors array was non-empty.
// GraphQL transports answer 200 even for failed operations, so this is
// the GraphQL analogue of StatusError.
type GraphQLErrors struct {
	Errors []GraphQLError
}

func (e *GraphQLErrors) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ge := range e.Errors {
		msgs[i] = ge.Message
	}
	return "graphql: " + strings.Join(msgs, "; ")
}

// Messages returns every error message in order.
func (e *GraphQLErrors) Messages() []string {
	msgs := make([]string, len(e.Errors))
	for i, ge := range e.Errors {
		msgs[i] = ge.Message
	}
	return msgs
}

// AsGraphQLErrors unwraps err to a *GraphQLErrors if one is in the chain.
func AsGraphQLErrors(err error) (*GraphQLErrors, bool) {
	var ge *GraphQLErrors
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}
