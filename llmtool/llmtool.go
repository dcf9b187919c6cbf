// Package llmtool bridges adapters to LLM tool-calling surfaces. It
// turns an adapter's catalog into tool definitions for langchaingo and
// the OpenAI chat-completions API, and wraps each operation as a
// callable tool whose string result is the envelope's text.
package llmtool

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"

	"github.com/smallnest/toolgate/adapter"
	"github.com/smallnest/toolgate/catalog"
)

// Tool adapts one catalog operation to the langchaingo tools.Tool
// interface. Call input is a JSON object of parameters; the result is
// the envelope text, so errors come back as readable text rather than
// a Go error, which keeps agent loops running.
type Tool struct {
	adapter   adapter.Adapter
	op        catalog.Operation
	userID    string
	accountID string
}

var _ tools.Tool = (*Tool)(nil)

// Name returns "<service>_<operation>", e.g. "slack_post_message".
func (t *Tool) Name() string {
	return fmt.Sprintf("%s_%s", t.adapter.Service(), t.op.Name)
}

// Description returns the operation description plus its required
// parameters, so the model knows what to pass without a schema.
func (t *Tool) Description() string {
	desc := t.op.Description
	if req := t.op.RequiredParams(); len(req) > 0 {
		desc += fmt.Sprintf(" Input is a JSON object; required keys: %v.", req)
	} else {
		desc += " Input is a JSON object of parameters, or empty."
	}
	return desc
}

// Call implements tools.Tool. A blank input means no parameters.
func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	params := map[string]any{}
	if input != "" {
		if err := json.Unmarshal([]byte(input), &params); err != nil {
			return "", fmt.Errorf("tool input must be a JSON object: %w", err)
		}
	}
	env := t.adapter.Execute(ctx, t.op.Name, params, t.userID, t.accountID)
	return env.Text(), nil
}

// Tools wraps every operation of the adapter's catalog as a
// tools.Tool bound to the given user identity.
func Tools(a adapter.Adapter, userID, accountID string) []tools.Tool {
	cat := a.Catalog()
	out := make([]tools.Tool, 0, len(cat.Operations))
	for _, op := range cat.Operations {
		out = append(out, &Tool{adapter: a, op: op, userID: userID, accountID: accountID})
	}
	return out
}

// CommonTools wraps only the catalog's common subset, falling back to
// all operations when no subset is declared. Agents with tight context
// budgets start here and escalate to the full catalog on demand.
func CommonTools(a adapter.Adapter, userID, accountID string) []tools.Tool {
	cat := a.Catalog()
	if len(cat.Common) == 0 {
		return Tools(a, userID, accountID)
	}
	out := make([]tools.Tool, 0, len(cat.Common))
	for _, name := range cat.Common {
		op, ok := cat.Operation(name)
		if !ok {
			continue
		}
		out = append(out, &Tool{adapter: a, op: op, userID: userID, accountID: accountID})
	}
	return out
}

// paramSchema renders an operation's parameter list as a JSON-schema
// object, the shape both langchaingo and OpenAI function definitions
// expect.
func paramSchema(op catalog.Operation) map[string]any {
	properties := map[string]any{}
	for _, p := range op.Params {
		prop := map[string]any{
			"type":        schemaType(p.Type),
			"description": p.Description,
		}
		properties[p.Name] = prop
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if req := op.RequiredParams(); len(req) > 0 {
		schema["required"] = req
	}
	return schema
}

func schemaType(t string) string {
	switch t {
	case "string", "number", "boolean", "object", "array":
		return t
	case "":
		return "string"
	}
	return "string"
}

// LLMTools renders a catalog as langchaingo llms.Tool definitions for
// use with llms.WithTools.
func LLMTools(cat *catalog.Catalog) []llms.Tool {
	out := make([]llms.Tool, 0, len(cat.Operations))
	for _, op := range cat.Operations {
		out = append(out, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        fmt.Sprintf("%s_%s", cat.Service, op.Name),
				Description: op.Description,
				Parameters:  paramSchema(op),
			},
		})
	}
	return out
}

// OpenAITools renders a catalog as go-openai tool definitions for the
// chat-completions API.
func OpenAITools(cat *catalog.Catalog) []openai.Tool {
	out := make([]openai.Tool, 0, len(cat.Operations))
	for _, op := range cat.Operations {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        fmt.Sprintf("%s_%s", cat.Service, op.Name),
				Description: op.Description,
				Parameters:  paramSchema(op),
			},
		})
	}
	return out
}
