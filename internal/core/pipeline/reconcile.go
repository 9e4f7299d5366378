package pipeline

import (
	"fmt"
	"strings"

	"github.com/markdave123-py/rulecheck/internal/core"
	"github.com/markdave123-py/rulecheck/internal/models"
)

// Reconcile puts records into rule order. A count mismatch is a malformed
// response. Records are matched to rules by exact text first, then by text
// ignoring case and whitespace runs; whatever is left pairs up by position.
// Each record is used once, so duplicate rules get distinct records.
func Reconcile(rules []models.Rule, records []models.VerdictRecord) ([]models.VerdictRecord, error) {
	if len(records) != len(rules) {
		return nil, fmt.Errorf("%w: got %d verdicts for %d rules", core.ErrMalformedResponse, len(records), len(rules))
	}

	out := make([]models.VerdictRecord, len(rules))
	filled := make([]bool, len(rules))
	used := make([]bool, len(records))

	match := func(eq func(a, b string) bool) {
		for i, r := range rules {
			if filled[i] {
				continue
			}
			for j, rec := range records {
				if !used[j] && eq(string(r), rec.Rule) {
					out[i], filled[i], used[j] = rec, true, true
					break
				}
			}
		}
	}
	match(func(a, b string) bool { return a == b })
	match(func(a, b string) bool { return strings.EqualFold(squash(a), squash(b)) })

	j := 0
	for i := range rules {
		if filled[i] {
			continue
		}
		for used[j] {
			j++
		}
		out[i], used[j] = records[j], true
	}
	return out, nil
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
