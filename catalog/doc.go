// Package catalog defines the static operation metadata every adapter
// publishes, and the presence-only validator that gates execution.
//
// A Catalog is pure data: adapter identity plus an ordered list of
// Operations, each with an ordered parameter list, a return description
// and optional risk annotations (read-only, destructive, idempotent).
// Catalogs are built once at adapter construction and are the only
// long-lived shared state in the framework; they require no locking
// because they are never mutated after New returns.
//
// # Validation
//
// Validate enforces two things before any credential is resolved or any
// network call is made:
//
//   - the action exists in the catalog (exact, case-sensitive match)
//   - every required parameter key is present in the params map
//
// It deliberately does NOT check the types or shapes of present values.
// Each backend invoker decodes params into its own typed struct, where
// the provider-specific meaning of a value is known. Keeping the
// validator to presence checks lets one validation pass serve REST,
// GraphQL and proxy-routed backends alike.
//
// # Example
//
//	cat := catalog.New("drive", "Google Drive", []catalog.Operation{
//		{
//			Name:        "list_items",
//			Description: "List files in a folder",
//			Params: []catalog.Parameter{
//				{Name: "folder_id", Type: "string", Required: true,
//					Description: "Folder to list"},
//			},
//			ReadOnly: true,
//		},
//	})
//
//	res := cat.Validate("list_items", map[string]any{})
//	// res.Valid == false
//	// res.Errors == ["missing required parameter: folder_id"]
package catalog
