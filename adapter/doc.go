// Package adapter implements the per-service dispatch contract that
// lets one calling convention drive arbitrarily different backends.
//
// A Dispatcher composes the framework's pieces into the fixed dispatch
// pipeline:
//
//	Received → Validated → CredentialResolved → BackendInvoked → Enveloped
//
// No stage may be skipped. Validation runs before credential
// resolution, which runs before any network I/O, so a request that is
// already known to be malformed never costs a round trip. Every exit
// path — success, validation failure, missing connection, backend
// error — produces exactly one envelope; errors never escape Execute.
//
// # Building an adapter
//
// A concrete adapter supplies a catalog, a handler per operation, and
// optionally a raw escape hatch:
//
//	d, err := adapter.New(adapter.Config{
//		Catalog:  cat,
//		Resolver: resolver,
//		Handlers: map[string]adapter.Handler{
//			"list_items": listItems,
//			"move_item":  moveItem,
//		},
//		Raw: &adapter.RawConfig{
//			Prefix:  "/api/",
//			Methods: []string{"GET", "POST"},
//			Forward: forwardRaw,
//		},
//	})
//
// Handlers receive a validated Invocation with a freshly resolved
// credential and return the structured result payload; enveloping and
// error normalization stay in the dispatcher. The handler map is built
// once at construction and checked against the catalog, so the
// discovery surface can never advertise an action without a handler.
//
// # Failure policy
//
// Validation errors and not-connected conditions are expected,
// user-actionable outcomes: they envelope directly without alerting.
// Everything else is logged at error level with redacted parameters,
// reported to the monitoring collaborator, and normalized into the
// stable error taxonomy with the raw message preserved.
//
// Concrete adapters live in the subpackages: slack (OAuth REST),
// linear (OAuth GraphQL) and brave (API-key REST).
package adapter
