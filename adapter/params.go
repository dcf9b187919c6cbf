package adapter

import (
	"encoding/json"
	"fmt"
)

// DecodeParams decodes a validated params map into a per-operation
// typed struct. Shape errors surface here, at the backend invoker
// boundary where the provider-specific meaning of each field is known,
// not in the presence-only validator.
func DecodeParams(params map[string]any, out any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}
