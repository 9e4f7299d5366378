package prompt

// Schema is a JSON Schema document (draft 2020-12 subset) held as a generic map.
// It is passed to the LLM as a structured output constraint and used locally to validate.
type Schema = map[string]any

// ResultSchema returns the contract for the verdict array. A fresh map is
// built per call so callers may not alias each other's schema.
func ResultSchema() Schema {
	return Schema{
		"type": "array",
		"items": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]any{
				"rule": map[string]any{
					"type":        "string",
					"description": "The exact rule that was checked.",
				},
				"status": map[string]any{
					"type":        "string",
					"enum":        []any{"pass", "fail"},
					"description": "The result of the check.",
				},
				"evidence": map[string]any{
					"type":        "string",
					"description": "A short, direct quote from the document supporting the status. Use 'N/A' if status is 'fail'.",
				},
				"reasoning": map[string]any{
					"type":        "string",
					"description": "A concise explanation for the status.",
				},
				"confidence": map[string]any{
					"type":        "number",
					"minimum":     0,
					"maximum":     100,
					"description": "A score from 0 to 100.",
				},
			},
			"required": []any{"rule", "status", "evidence", "reasoning", "confidence"},
		},
	}
}
