package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EvidenceNotAvailable is the evidence sentinel for failed rules.
const EvidenceNotAvailable = "N/A"

// Rule is one natural-language compliance rule. Identity is its exact text.
type Rule string

// NormalizeRules trims every entry and drops blank ones.
// Order and duplicates are preserved.
func NormalizeRules(raw []string) []Rule {
	out := make([]Rule, 0, len(raw))
	for _, r := range raw {
		if r = strings.TrimSpace(r); r == "" {
			continue
		}
		out = append(out, Rule(r))
	}
	return out
}

// Status is the verdict for one rule: pass or fail.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
)

// ParseStatus accepts "pass" or "fail", ignoring case and surrounding space.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPass:
		return StatusPass, nil
	case StatusFail:
		return StatusFail, nil
	}
	return "", fmt.Errorf("invalid status %q", s)
}

func (s Status) MarshalJSON() ([]byte, error) {
	if _, err := ParseStatus(string(s)); err != nil {
		return nil, err
	}
	return json.Marshal(string(s))
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// VerdictRecord is the structured judgment for one rule against one document.
type VerdictRecord struct {
	Rule       string  `json:"rule"`
	Status     Status  `json:"status"`
	Evidence   string  `json:"evidence"`   // short excerpt, or "N/A" on fail
	Reasoning  string  `json:"reasoning"`  // ~15 words
	Confidence float64 `json:"confidence"` // 0..100
}

// ExtractedDocument holds the page texts of one document, in page order.
type ExtractedDocument struct {
	Pages []string `json:"pages"`
}

// Text joins the pages with newlines.
func (d ExtractedDocument) Text() string {
	return strings.Join(d.Pages, "\n")
}

// CheckResponse is the success body returned to callers.
type CheckResponse struct {
	Success bool            `json:"success"`
	Results []VerdictRecord `json:"results"`
}

// ErrorResponse is the failure body returned to callers.
type ErrorResponse struct {
	Error string `json:"error"`
}
