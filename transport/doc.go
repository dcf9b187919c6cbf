// Package transport is the outbound HTTP collaborator shared by all
// backend invokers: a generic verb-based JSON client plus a GraphQL
// wrapper.
//
// The contract that matters downstream is error shape. A non-2xx
// response is returned as *StatusError carrying the structured status
// code; a GraphQL response with a non-empty errors array is returned
// as *GraphQLErrors. The error normalizer classifies off these typed
// errors first and only falls back to message-text matching for
// failures that arrive pre-stringified.
//
// Timeouts and retries belong to the http.Client passed in via
// WithHTTPClient. Nothing in this package retries.
package transport
