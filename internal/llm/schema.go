package llm

import (
	"github.com/nextlevelrentals/assistant-platform/internal/model"
)

// paramSchema renders a function's parameter list as a JSON-schema object,
// the shape all three providers accept for tool parameters.
func paramSchema(fn model.FunctionSpec) map[string]any {
	if len(fn.Params) == 0 {
		return nil
	}

	props := make(map[string]any, len(fn.Params))
	for _, p := range fn.Params {
		prop := map[string]any{"type": string(p.Type)}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		props[p.Name] = prop
	}

	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if req := fn.Required(); len(req) > 0 {
		schema["required"] = req
	}
	return schema
}
