package catalog

import "fmt"

// Parameter describes a single operation parameter.
type Parameter struct {
	// Name is the parameter key expected in the params map.
	Name string `json:"name"`
	// Type is the semantic type shown to callers ("string", "number",
	// "boolean", "object", "array"). It is documentation only: the
	// validator checks presence, not shape.
	Type string `json:"type"`
	// Required marks parameters the validator insists on.
	Required bool `json:"required"`
	// Description is free text shown on the discovery surface.
	Description string `json:"description"`
	// Example is an optional example value.
	Example string `json:"example,omitempty"`
}

// Operation describes one named action an adapter supports.
type Operation struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Params      []Parameter `json:"params"`
	Returns     string      `json:"returns,omitempty"`

	// Risk annotations. An operation may set any combination.
	ReadOnly    bool `json:"readOnly,omitempty"`
	Destructive bool `json:"destructive,omitempty"`
	Idempotent  bool `json:"idempotent,omitempty"`
}

// RequiredParams returns the names of all required parameters in
// declaration order.
func (op Operation) RequiredParams() []string {
	var names []string
	for _, p := range op.Params {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

// Catalog is the static, immutable metadata for one adapter: its
// identity and the ordered list of operations it supports. Catalogs are
// built once at adapter construction and never mutated at runtime.
type Catalog struct {
	// Service is the machine identifier, e.g. "slack".
	Service string `json:"service"`
	// DisplayName is the human-readable name, e.g. "Slack".
	DisplayName string `json:"displayName"`
	// Operations is the ordered list of supported operations.
	Operations []Operation `json:"operations"`
	// Common optionally names a subset of operations for
	// reduced-context discovery by the calling LLM.
	Common []string `json:"common,omitempty"`
	// DocsURL optionally points at provider API documentation.
	DocsURL string `json:"docsUrl,omitempty"`

	index map[string]int
}

// New builds a Catalog and its operation index. Duplicate operation
// names are a programming error and panic at construction.
func New(service, displayName string, ops []Operation) *Catalog {
	c := &Catalog{
		Service:     service,
		DisplayName: displayName,
		Operations:  ops,
		index:       make(map[string]int, len(ops)),
	}
	for i, op := range ops {
		if _, dup := c.index[op.Name]; dup {
			panic(fmt.Sprintf("catalog %s: duplicate operation %q", service, op.Name))
		}
		c.index[op.Name] = i
	}
	return c
}

// WithCommon sets the common-operations subset and returns the catalog
// for chaining during construction.
func (c *Catalog) WithCommon(names ...string) *Catalog {
	c.Common = names
	return c
}

// WithDocsURL sets the documentation URL.
func (c *Catalog) WithDocsURL(url string) *Catalog {
	c.DocsURL = url
	return c
}

// Operation looks up an operation by exact, case-sensitive name.
func (c *Catalog) Operation(name string) (Operation, bool) {
	i, ok := c.index[name]
	if !ok {
		return Operation{}, false
	}
	return c.Operations[i], true
}

// Has reports whether the catalog contains the named operation.
func (c *Catalog) Has(name string) bool {
	_, ok := c.index[name]
	return ok
}

// OperationNames returns all operation names in declaration order.
func (c *Catalog) OperationNames() []string {
	names := make([]string, len(c.Operations))
	for i, op := range c.Operations {
		names[i] = op.Name
	}
	return names
}
