// Package envelope builds the single normalized response shape every
// dispatch call returns.
//
// The wire-level JSON shape is stable:
//
//	{
//	  "content": [{"type": "text", "text": "..."}],
//	  "isError": false,
//	  "structuredContent": {...},
//	  "_meta": {"service": "slack", "timestamp": "...", "action": "post_message"}
//	}
//
// Success envelopes carry the payload twice: pretty-printed JSON in a
// text block for LLM consumption, and the raw value in
// structuredContent for machine consumers. Error envelopes carry only a
// text block; isError is the single signal callers branch on, and an
// error envelope never omits its human-readable explanation.
//
// The meta timestamp is stamped at envelope construction. It is not the
// request start time and must not be used for latency measurement.
package envelope
