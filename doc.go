// Toolgate - Uniform Tool Dispatch for AI Assistants in Go
//
// Toolgate gives AI assistants one execution contract over many
// heterogeneous provider APIs. Every integration, whether it speaks
// REST with OAuth bearer tokens, GraphQL, or API keys, is an adapter
// with the same surface: a static operation catalog, presence-only
// validation, per-user credential resolution, and a single normalized
// response envelope for both success and failure.
//
// # Quick Start
//
// Install the package:
//
//	go get github.com/smallnest/toolgate
//
// Basic example:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//
//		"github.com/smallnest/toolgate/adapter/slack"
//		"github.com/smallnest/toolgate/credential"
//		"github.com/smallnest/toolgate/credential/memory"
//	)
//
//	func main() {
//		resolver := memory.NewResolver()
//		resolver.Put("user-1", "slack", "", credential.OAuth("xoxb-...", "conn-1", ""))
//
//		a, _ := slack.New(resolver,
//			slack.WithReconnectURL("https://myapp.example/connect/slack"))
//
//		env := a.Execute(context.Background(), "post_message", map[string]any{
//			"channel": "C024BE91L",
//			"text":    "hello from toolgate",
//		}, "user-1", "")
//
//		fmt.Println(env.IsError, env.Text())
//	}
//
// # Key Guarantees
//
//   - One envelope per call: Execute never returns a Go error and
//     never panics across the boundary; failures arrive as error
//     envelopes with remediation text
//   - Validation before credentials before network: a malformed
//     request never costs a credential lookup or a round trip
//   - Stable error taxonomy: every backend failure classifies into a
//     closed category set, with the raw provider message preserved
//   - Credential isolation: adapters receive a freshly resolved
//     credential per call and never store one
//
// # Package Structure
//
// catalog/
// Static operation metadata and the presence-only validator. Catalogs
// list every operation with its parameters, return description and
// risk annotations; validation reports every missing required
// parameter at once and never checks value shapes.
//
// envelope/
// The normalized response shape. Success envelopes carry the result
// both as pretty-printed text (for LLM consumption) and as structured
// content; error envelopes carry a readable message. Metadata includes
// the service, action, timestamp and request id.
//
// apierr/
// The failure taxonomy and per-service Normalizer. Structured HTTP
// status codes classify first, GraphQL error arrays next, message-text
// signatures last. Invokers that understand provider vocabularies
// (Slack's "not_in_channel") classify at the source with Classified.
//
// credential/
// The credential union (OAuth or API key) and the Resolver interface,
// with memory, redis, postgres and sqlite backends:
//
//	store, _ := postgres.NewResolver(ctx, postgres.Options{
//		ConnString: "postgres://localhost/toolgate",
//	})
//	store.InitSchema(ctx)
//
// transport/
// JSON-over-HTTP and GraphQL clients shared by all adapters. Non-2xx
// responses surface as *StatusError with the structured status code;
// GraphQL error arrays surface as *GraphQLErrors even on HTTP 200.
//
// adapter/
// The dispatch engine and the Adapter contract, plus the concrete
// integrations:
//
//   - adapter/slack: OAuth REST with the ok/error convention and a
//     raw escape hatch under /api/
//   - adapter/linear: OAuth GraphQL, no escape hatch
//   - adapter/brave: API-key REST with a GET-only escape hatch under
//     /res/v1/
//
// llmtool/
// Bridges adapters to tool-calling LLMs: langchaingo tools.Tool
// wrappers plus llms.Tool and go-openai definitions generated from a
// catalog.
//
//	ts := llmtool.CommonTools(slackAdapter, "user-1", "")
//	defs := llmtool.LLMTools(slackAdapter.Catalog())
//
// server/
// The chi HTTP surface: execute, validate, catalog discovery,
// per-operation help, rendered HTML docs, health and Prometheus
// metrics.
//
// monitor/
// Error-rate reporting. The Prometheus implementation counts dispatch
// failures by service, action and category; validation misses and
// not-connected outcomes never alert.
//
// # Running the Service
//
// cmd/toolgate serves the HTTP API; configuration comes from
// TOOLGATE_* environment variables (credential store selection, listen
// address, per-service reconnect URLs, log level). cmd/toolctl browses
// catalogs from the terminal.
//
// # License
//
// This project is licensed under the MIT License - see the LICENSE file for details.
package toolgate // import "github.com/smallnest/toolgate"
