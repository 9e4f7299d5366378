// Package prompt renders rule sets and document text into the evaluation
// prompt and the JSON Schema the model output must satisfy.
package prompt

import (
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/markdave123-py/rulecheck/internal/models"
)

// DefaultMaxDocumentChars bounds how much document text is embedded.
const DefaultMaxDocumentChars = 15000

// TruncationNotice always follows the embedded document text.
const TruncationNotice = "Note: The document text might be truncated. Analyze based on the text provided."

// ErrNoRules is returned when Build receives an empty rule list.
var ErrNoRules = errors.New("no rules to check")

// Prompt is the rendered instruction text. The result shape it asks for is
// ResultSchema.
type Prompt struct {
	Text string
}

// Builder renders prompts with a fixed document character budget.
type Builder struct {
	maxChars int
}

// NewBuilder returns a Builder. Non-positive maxChars selects DefaultMaxDocumentChars.
func NewBuilder(maxChars int) *Builder {
	if maxChars <= 0 {
		maxChars = DefaultMaxDocumentChars
	}
	return &Builder{maxChars: maxChars}
}

// MaxChars reports the document budget in characters.
func (b *Builder) MaxChars() int {
	return b.maxChars
}

var tmpl = template.Must(template.New("check").Parse(`You are a highly analytical document checker.
Your task is to analyze the provided PDF text against a list of specific rules.
For each rule, you must provide a definitive "PASS" or "FAIL" status.

The rules to check are: {{.Rules}}.

For each rule, follow these steps strictly:
1. Determine the status: "pass" or "fail".
2. Find a single evidence sentence (max 20 words) from the PDF text that best supports your status. If status is "fail", use "N/A".
3. Provide a brief, objective reasoning (max 15 words).
4. Give a confidence score (0-100) for your finding.

Echo each rule exactly as written in the "rule" field.
Output your results as a single JSON array that strictly adheres to the provided JSON Schema. Do not include any extra text or markdown outside of the JSON block.

--- DOCUMENT TEXT TO ANALYZE ---
{{.Document}}

{{.Notice}}
`))

// Build renders the prompt for rules against documentText. It is pure.
func (b *Builder) Build(rules []models.Rule, documentText string) (Prompt, error) {
	if len(rules) == 0 {
		return Prompt{}, ErrNoRules
	}

	quoted := make([]string, len(rules))
	for i, r := range rules {
		quoted[i] = `"` + string(r) + `"`
	}

	var sb strings.Builder
	err := tmpl.Execute(&sb, map[string]string{
		"Rules":    strings.Join(quoted, ", "),
		"Document": Truncate(documentText, b.maxChars),
		"Notice":   TruncationNotice,
	})
	if err != nil {
		return Prompt{}, fmt.Errorf("render prompt: %w", err)
	}

	return Prompt{Text: sb.String()}, nil
}

// Truncate returns the first n characters of s. The cut is character-level,
// not token- or sentence-aware.
func Truncate(s string, n int) string {
	if n < 0 {
		n = 0
	}
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
