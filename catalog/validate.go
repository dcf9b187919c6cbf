package catalog

import "fmt"

// ValidationResult reports whether a requested action may proceed to
// execution. Errors are ordered: the unknown-action check runs first,
// then one error per missing required parameter.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Validate checks that action names an operation in the catalog and
// that every required parameter is present in params. All missing
// required parameters are reported at once so a single round trip
// surfaces every omission. Present parameter values are not
// shape-checked here: per-operation decoding happens at the backend
// invoker boundary where provider-specific meaning is known.
//
// Validate never touches the network.
func (c *Catalog) Validate(action string, params map[string]any) ValidationResult {
	op, ok := c.Operation(action)
	if !ok {
		return ValidationResult{
			Valid:  false,
			Errors: []string{fmt.Sprintf("unknown action: %s", action)},
		}
	}

	var errs []string
	for _, p := range op.Params {
		if !p.Required {
			continue
		}
		if _, present := params[p.Name]; !present {
			errs = append(errs, fmt.Sprintf("missing required parameter: %s", p.Name))
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
