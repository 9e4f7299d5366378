package core

import "context"

// StructuredGenerator asks an LLM for JSON output constrained by a JSON Schema.
// The returned string is the raw text payload; parsing is left to the caller.
type StructuredGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, schema map[string]any) (string, error)
}
