// Package apierr maps heterogeneous backend failures — structured HTTP
// status errors, GraphQL error arrays, stringified provider messages —
// into one small, stable taxonomy with user-facing remediation text.
//
// Structured signals win: a *transport.StatusError classifies off its
// status code directly, and substring matching over message text is
// only the fallback for failures that arrive pre-stringified. The raw
// underlying message is always preserved inside the user-facing text so
// the calling LLM keeps enough signal to retry intelligently.
package apierr
