// Package verdict requests rule verdicts from an LLM and validates the
// structured output at the parsing boundary.
package verdict

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/markdave123-py/rulecheck/internal/core"
	"github.com/markdave123-py/rulecheck/internal/core/prompt"
	"github.com/markdave123-py/rulecheck/internal/models"
)

// Requester issues one schema-constrained LLM call per request. It never retries.
type Requester struct {
	gen       core.StructuredGenerator
	schema    prompt.Schema
	validator *Validator
	logger    *slog.Logger
}

// NewRequester compiles schema once. The same schema constrains the model
// and validates every response.
func NewRequester(gen core.StructuredGenerator, schema prompt.Schema, logger *slog.Logger) (*Requester, error) {
	v, err := NewValidator(schema)
	if err != nil {
		return nil, err
	}
	return &Requester{
		gen:       gen,
		schema:    schema,
		validator: v,
		logger:    logger.With("component", "verdict"),
	}, nil
}

// Request sends p.Text to the LLM and returns the parsed records. Call failures
// wrap core.ErrUpstream; unparseable or non-conforming payloads wrap
// core.ErrMalformedResponse.
func (r *Requester) Request(ctx context.Context, p prompt.Prompt) ([]models.VerdictRecord, error) {
	start := time.Now()
	raw, err := r.gen.GenerateJSON(ctx, p.Text, r.schema)
	if err != nil {
		r.logger.ErrorContext(ctx, "llm call failed", "duration", time.Since(start), "error", err)
		return nil, fmt.Errorf("%w: %w", core.ErrUpstream, err)
	}

	records, err := r.validator.Parse(raw)
	if err != nil {
		r.logger.ErrorContext(ctx, "llm response rejected", "bytes", len(raw), "error", err)
		return nil, err
	}

	r.logger.InfoContext(ctx, "llm verdicts received",
		"count", len(records),
		"duration", time.Since(start),
	)
	return records, nil
}
