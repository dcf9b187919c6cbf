package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/smallnest/toolgate/transport"
)

// Category is the closed failure taxonomy every backend error maps into.
type Category string

const (
	CategoryNotConnected       Category = "not_connected"
	CategoryInvalidCredentials Category = "invalid_credentials"
	CategoryValidation         Category = "validation"
	CategoryNotFound           Category = "not_found"
	CategoryRateLimited        Category = "rate_limited"
	CategoryServerUnavailable  Category = "server_unavailable"
	CategoryPermissionDenied   Category = "permission_denied"
	CategoryUnknown            Category = "unknown"
)

// Normalized is the stable classification of an arbitrary backend
// failure, with user-facing remediation text.
type Normalized struct {
	Category       Category `json:"category"`
	UserMessage    string   `json:"userMessage"`
	RemediationURL string   `json:"remediationUrl,omitempty"`
}

// Normalizer classifies backend failures for one service. The reconnect
// URL is stamped into credential failures so the calling LLM can hand
// the user a fix.
type Normalizer struct {
	service      string
	reconnectURL string
	// quotaHint is optional provider-specific rate-limit text, e.g.
	// "2,000 calls/month on the free plan".
	quotaHint string
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithReconnectURL sets the remediation URL attached to credential
// failures.
func WithReconnectURL(url string) NormalizerOption {
	return func(n *Normalizer) {
		n.reconnectURL = url
	}
}

// WithQuotaHint appends provider-specific quota text to rate-limit
// messages.
func WithQuotaHint(hint string) NormalizerOption {
	return func(n *Normalizer) {
		n.quotaHint = hint
	}
}

// NewNormalizer creates a Normalizer for the named service.
func NewNormalizer(service string, opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{service: service}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// ClassifiedError carries an already-normalized failure through an
// error return. Backend invokers that recognize provider-specific
// vocabularies (Slack's "not_in_channel", for one) classify at the
// source; Normalize passes the classification through untouched.
type ClassifiedError struct {
	Normalized
}

func (e *ClassifiedError) Error() string {
	return e.UserMessage
}

// Classified wraps a Normalized into an error.
func Classified(n Normalized) *ClassifiedError {
	return &ClassifiedError{Normalized: n}
}

// Normalize maps err into the stable taxonomy. It is total and
// deterministic: every error classifies, and the raw message is always
// preserved inside the user-facing text, never swallowed.
//
// Classification order: structured status codes carried by
// *transport.StatusError are consulted first; GraphQL error arrays are
// joined and re-classified by sub-message; only then does substring
// matching over the message text run, explicit status-code signatures
// before anything else. First match wins.
func (n *Normalizer) Normalize(err error) Normalized {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Normalized
	}

	if se, ok := transport.AsStatusError(err); ok {
		return n.fromStatus(se.StatusCode, err.Error())
	}

	if ge, ok := transport.AsGraphQLErrors(err); ok {
		joined := strings.Join(ge.Messages(), "; ")
		// A sub-message may still carry a recognizable signature.
		if byText, matched := n.fromText(joined); matched {
			return byText
		}
		return Normalized{
			Category:    CategoryUnknown,
			UserMessage: fmt.Sprintf("%s API error: %s", n.service, joined),
		}
	}

	if byText, matched := n.fromText(err.Error()); matched {
		return byText
	}
	return Normalized{
		Category:    CategoryUnknown,
		UserMessage: fmt.Sprintf("%s error: %s", n.service, err.Error()),
	}
}

func (n *Normalizer) fromStatus(code int, raw string) Normalized {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return Normalized{
			Category: CategoryInvalidCredentials,
			UserMessage: fmt.Sprintf(
				"%s rejected the stored credentials (%s). Reconnect the integration and try again.",
				n.service, raw),
			RemediationURL: n.reconnectURL,
		}
	case http.StatusNotFound:
		return Normalized{
			Category:    CategoryNotFound,
			UserMessage: fmt.Sprintf("%s could not find the requested resource (%s).", n.service, raw),
		}
	case http.StatusTooManyRequests:
		msg := fmt.Sprintf("%s rate limit hit (%s). Wait before retrying.", n.service, raw)
		if n.quotaHint != "" {
			msg += " " + n.quotaHint
		}
		return Normalized{Category: CategoryRateLimited, UserMessage: msg}
	case http.StatusInternalServerError, http.StatusServiceUnavailable:
		return Normalized{
			Category:    CategoryServerUnavailable,
			UserMessage: fmt.Sprintf("%s is currently unavailable (%s). Try again shortly.", n.service, raw),
		}
	}
	return Normalized{
		Category:    CategoryUnknown,
		UserMessage: fmt.Sprintf("%s error: %s", n.service, raw),
	}
}

// textSignatures is the ordered fallback for errors that arrive
// pre-stringified. Explicit status-code signatures run before anything
// generic so a message that merely contains "404" inside an unrelated
// token is not misclassified. Each signature keys off a distinct
// "HTTP <code>" substring, so rules are mutually exclusive by
// construction.
var textSignatures = []struct {
	substr string
	code   int
}{
	{"HTTP 401", http.StatusUnauthorized},
	{"HTTP 403", http.StatusForbidden},
	{"HTTP 404", http.StatusNotFound},
	{"HTTP 429", http.StatusTooManyRequests},
	{"HTTP 500", http.StatusInternalServerError},
	{"HTTP 503", http.StatusServiceUnavailable},
}

func (n *Normalizer) fromText(msg string) (Normalized, bool) {
	for _, sig := range textSignatures {
		if strings.Contains(msg, sig.substr) {
			return n.fromStatus(sig.code, msg), true
		}
	}
	return Normalized{}, false
}

// PermissionDenied builds a normalized permission failure with
// provider-specific remediation text, for invokers that recognize
// provider error vocabularies (e.g. Slack's "not_in_channel").
func (n *Normalizer) PermissionDenied(detail string) Normalized {
	return Normalized{
		Category:    CategoryPermissionDenied,
		UserMessage: fmt.Sprintf("%s denied the operation: %s", n.service, detail),
	}
}

// NotConnected builds the standardized not-connected failure with the
// reconnect URL.
func (n *Normalizer) NotConnected() Normalized {
	return Normalized{
		Category: CategoryNotConnected,
		UserMessage: fmt.Sprintf(
			"%s is not connected for this user. Connect the integration, then retry.", n.service),
		RemediationURL: n.reconnectURL,
	}
}
