package verdict

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/markdave123-py/rulecheck/internal/core"
	"github.com/markdave123-py/rulecheck/internal/core/prompt"
	"github.com/markdave123-py/rulecheck/internal/models"
)

var jsonBlockRegex = regexp.MustCompile(`(?s)` + "```" + `(?:json)?\s*\n?(.*?)\n?` + "```")

// Validator decodes LLM payloads into verdict records against a JSON Schema
// compiled once at construction.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles schema. A schema that does not compile is a
// programming error and is reported here rather than per response.
func NewValidator(schema map[string]any) (*Validator, error) {
	b, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: compiled}, nil
}

// Parse decodes an LLM payload into verdict records. The payload may be bare
// JSON or a markdown-fenced JSON block. Status values are case-normalized,
// then the whole document is validated before decoding.
// Every failure wraps core.ErrMalformedResponse.
func (v *Validator) Parse(content string) ([]models.VerdictRecord, error) {
	doc, err := decodeLoose(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrMalformedResponse, err)
	}

	normalizeStatus(doc)

	if err := v.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: json does not match schema: %w", core.ErrMalformedResponse, err)
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: re-encode: %w", core.ErrMalformedResponse, err)
	}

	var records []models.VerdictRecord
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("%w: decode records: %w", core.ErrMalformedResponse, err)
	}
	return records, nil
}

func decodeLoose(content string) (any, error) {
	content = strings.TrimSpace(content)

	var v any
	if err := json.Unmarshal([]byte(content), &v); err == nil {
		return v, nil
	}

	matches := jsonBlockRegex.FindStringSubmatch(content)
	if len(matches) >= 2 {
		if err := json.Unmarshal([]byte(strings.TrimSpace(matches[1])), &v); err == nil {
			return v, nil
		}
	}

	return nil, fmt.Errorf("response is not JSON: %q", abbreviate(content, 200))
}

// normalizeStatus lower-cases string status fields in place so "PASS" and
// "pass" validate identically. Anything else is left for the schema to reject.
func normalizeStatus(doc any) {
	items, ok := doc.([]any)
	if !ok {
		return
	}
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		if s, ok := m["status"].(string); ok {
			m["status"] = strings.ToLower(strings.TrimSpace(s))
		}
	}
}

func abbreviate(s string, n int) string {
	if cut := prompt.Truncate(s, n); len(cut) < len(s) {
		return cut + "..."
	}
	return s
}
