package llm

import (
	"fmt"

	"github.com/google/generative-ai-go/genai"
)

var schemaTypes = map[string]genai.Type{
	"string":  genai.TypeString,
	"number":  genai.TypeNumber,
	"integer": genai.TypeInteger,
	"boolean": genai.TypeBoolean,
	"array":   genai.TypeArray,
	"object":  genai.TypeObject,
}

// ToGenaiSchema converts the JSON Schema subset used for verdicts into the
// Gemini response schema. Keywords Gemini cannot express (minimum, maximum,
// additionalProperties) are dropped; they are still enforced on parse.
func ToGenaiSchema(m map[string]any) *genai.Schema {
	if m == nil {
		return nil
	}

	s := &genai.Schema{}
	if t, ok := m["type"].(string); ok {
		s.Type = schemaTypes[t]
	}
	if d, ok := m["description"].(string); ok {
		s.Description = d
	}
	if f, ok := m["format"].(string); ok {
		s.Format = f
	}
	s.Enum = stringList(m["enum"])
	s.Required = stringList(m["required"])

	if items, ok := m["items"].(map[string]any); ok {
		s.Items = ToGenaiSchema(items)
	}
	if props, ok := m["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, p := range props {
			if pm, ok := p.(map[string]any); ok {
				s.Properties[name] = ToGenaiSchema(pm)
			}
		}
	}
	return s
}

func stringList(v any) []string {
	switch vs := v.(type) {
	case []string:
		return vs
	case []any:
		out := make([]string, 0, len(vs))
		for _, x := range vs {
			out = append(out, fmt.Sprint(x))
		}
		return out
	}
	return nil
}
