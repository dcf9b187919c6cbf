package envelope

import (
	"encoding/json"
	"fmt"
	"time"
)

// Block types used in Envelope.Content.
const (
	BlockText       = "text"
	BlockStructured = "structured"
)

// Block is one content entry in an envelope. Text blocks carry a
// human-readable string; structured blocks carry a machine-readable
// value.
type Block struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	Data any    `json:"data,omitempty"`
}

// Meta carries response metadata. Extra keys merge flat into the JSON
// object alongside the named fields.
type Meta struct {
	Service   string    `json:"service"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action,omitempty"`
	Extra     map[string]any
}

// MarshalJSON flattens Extra into the meta object. Named fields win
// over colliding Extra keys.
func (m Meta) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extra)+3)
	for k, v := range m.Extra {
		out[k] = v
	}
	out["service"] = m.Service
	out["timestamp"] = m.Timestamp
	if m.Action != "" {
		out["action"] = m.Action
	}
	return json.Marshal(out)
}

// Envelope is the single normalized response shape returned by every
// dispatch call, success or failure. IsError is the only signal
// consumers need to branch on.
type Envelope struct {
	Content           []Block `json:"content"`
	IsError           bool    `json:"isError"`
	StructuredContent any     `json:"structuredContent,omitempty"`
	Meta              *Meta   `json:"_meta,omitempty"`
}

// Text returns the first text block, or "" when none exists. Error
// envelopes always have one, so consumers can rely on Text for the
// human-readable explanation.
func (e *Envelope) Text() string {
	for _, b := range e.Content {
		if b.Type == BlockText {
			return b.Text
		}
	}
	return ""
}

// Builder constructs envelopes for one service. The zero value is not
// usable; use NewBuilder.
type Builder struct {
	service string
	now     func() time.Time
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) {
		b.now = now
	}
}

// NewBuilder creates a Builder stamping envelopes with the given
// service name.
func NewBuilder(service string, opts ...BuilderOption) *Builder {
	b := &Builder{
		service: service,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Success wraps data into a success envelope. Content holds the
// pretty-printed JSON of data so an LLM caller can read it as text;
// StructuredContent holds data itself for machine consumers. The meta
// timestamp is the wall-clock time of envelope construction, not of the
// original request.
func (b *Builder) Success(data any) *Envelope {
	text, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		// Data that cannot marshal still yields a readable envelope.
		text = []byte(fmt.Sprintf("%v", data))
	}
	return &Envelope{
		Content:           []Block{{Type: BlockText, Text: string(text)}},
		IsError:           false,
		StructuredContent: data,
		Meta: &Meta{
			Service:   b.service,
			Timestamp: b.now(),
		},
	}
}

// Error wraps a message into an error envelope. Error envelopes carry
// no structured content: the message is the payload.
func (b *Builder) Error(message string) *Envelope {
	return &Envelope{
		Content: []Block{{Type: BlockText, Text: message}},
		IsError: true,
		Meta: &Meta{
			Service:   b.service,
			Timestamp: b.now(),
		},
	}
}

// Errorf is Error with formatting.
func (b *Builder) Errorf(format string, v ...any) *Envelope {
	return b.Error(fmt.Sprintf(format, v...))
}

// WithMeta merges extra keys into the envelope meta without destroying
// existing entries. Keys already present are overridden only when the
// same key appears in extra. Returns the envelope for chaining.
func WithMeta(e *Envelope, extra map[string]any) *Envelope {
	if e.Meta == nil {
		e.Meta = &Meta{}
	}
	if e.Meta.Extra == nil {
		e.Meta.Extra = make(map[string]any, len(extra))
	}
	for k, v := range extra {
		e.Meta.Extra[k] = v
	}
	return e
}

// WithAction stamps the action name into meta and returns the envelope.
func WithAction(e *Envelope, action string) *Envelope {
	if e.Meta == nil {
		e.Meta = &Meta{}
	}
	e.Meta.Action = action
	return e
}
