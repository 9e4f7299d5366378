// Package pipeline sequences document verification: validation, text
// extraction, prompt construction and the verdict request. It is the only
// place that decides which failure kind a caller sees.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/rulecheck/internal/core"
	"github.com/markdave123-py/rulecheck/internal/core/prompt"
	"github.com/markdave123-py/rulecheck/internal/core/verdict"
	"github.com/markdave123-py/rulecheck/internal/models"
)

// Stage is a step of one pipeline execution. Stages only move forward;
// StageFailed is reachable from any of them and is final.
type Stage string

const (
	StageReceived   Stage = "received"
	StageValidating Stage = "validating"
	StageExtracting Stage = "extracting"
	StagePrompting  Stage = "prompting"
	StageRequesting Stage = "requesting"
	StageCompleted  Stage = "completed"
	StageFailed     Stage = "failed"
)

// Request is one verification call. The pipeline owns Document for the
// duration of the call and keeps no reference afterwards. Filename is
// metadata only; it never becomes part of a filesystem path.
type Request struct {
	Document []byte
	Filename string
	Rules    []string
}

type Pipeline struct {
	extractor core.TextExtractor
	builder   *prompt.Builder
	requester *verdict.Requester
	logger    *slog.Logger
}

func New(extractor core.TextExtractor, builder *prompt.Builder, requester *verdict.Requester, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		builder:   builder,
		requester: requester,
		logger:    logger.With("component", "pipeline"),
	}
}

// Run verifies req.Document against req.Rules. It returns one verdict per
// rule in rule order, or a single error classifiable with Classify.
// No step is retried.
func (p *Pipeline) Run(ctx context.Context, req Request) ([]models.VerdictRecord, error) {
	return p.run(ctx, req, nil)
}

// RunEncoded is Run for callers holding the rules as a JSON array string.
func (p *Pipeline) RunEncoded(ctx context.Context, document []byte, filename, rulesJSON string) ([]models.VerdictRecord, error) {
	rules, err := DecodeRules(rulesJSON)
	return p.run(ctx, Request{Document: document, Filename: filename, Rules: rules}, err)
}

// DecodeRules parses a JSON array of strings. Blank payloads and payloads of
// any other shape are input errors.
func DecodeRules(rulesJSON string) ([]string, error) {
	if strings.TrimSpace(rulesJSON) == "" {
		return nil, fmt.Errorf("%w: %w", core.ErrInput, ErrNoRules)
	}
	var rules []string
	if err := json.Unmarshal([]byte(rulesJSON), &rules); err != nil {
		return nil, fmt.Errorf("%w: %w: %w", core.ErrInput, ErrBadRules, err)
	}
	return rules, nil
}

func (p *Pipeline) run(ctx context.Context, req Request, decodeErr error) ([]models.VerdictRecord, error) {
	x := &execution{
		stage:  StageReceived,
		start:  time.Now(),
		logger: p.logger.With("request_id", uuid.NewString(), "filename", req.Filename),
	}
	x.logger.InfoContext(ctx, "request received", "size", len(req.Document), "rules", len(req.Rules))

	x.advance(ctx, StageValidating)
	if len(req.Document) == 0 {
		return nil, x.fail(ctx, fmt.Errorf("%w: %w", core.ErrInput, ErrNoDocument))
	}
	if decodeErr != nil {
		return nil, x.fail(ctx, decodeErr)
	}
	rules := models.NormalizeRules(req.Rules)
	if len(rules) == 0 {
		return nil, x.fail(ctx, fmt.Errorf("%w: %w", core.ErrInput, ErrNoRules))
	}

	x.advance(ctx, StageExtracting)
	if err := ctx.Err(); err != nil {
		return nil, x.fail(ctx, err)
	}
	doc, err := p.extractor.Extract(ctx, req.Document)
	if err != nil {
		return nil, x.fail(ctx, err)
	}
	text := doc.Text()

	x.advance(ctx, StagePrompting)
	pr, err := p.builder.Build(rules, text)
	if err != nil {
		return nil, x.fail(ctx, fmt.Errorf("build prompt: %w", err))
	}
	x.logger.DebugContext(ctx, "prompt built",
		"pages", len(doc.Pages),
		"text_chars", len([]rune(text)),
		"truncated", len([]rune(text)) > p.builder.MaxChars(),
	)

	x.advance(ctx, StageRequesting)
	records, err := p.requester.Request(ctx, pr)
	if err != nil {
		return nil, x.fail(ctx, err)
	}
	records, err = Reconcile(rules, records)
	if err != nil {
		return nil, x.fail(ctx, err)
	}

	x.advance(ctx, StageCompleted)
	return records, nil
}

// execution tracks the stage of a single Run for logging.
type execution struct {
	stage  Stage
	start  time.Time
	logger *slog.Logger
}

func (x *execution) advance(ctx context.Context, next Stage) {
	x.logger.DebugContext(ctx, "stage transition", "from", x.stage, "to", next)
	x.stage = next
	if next == StageCompleted {
		x.logger.InfoContext(ctx, "request completed", "duration", time.Since(x.start))
	}
}

// fail logs err and returns it. Once ctx has ended every failure is marked
// ErrCanceled, so an interrupted run classifies the same at any stage.
func (x *execution) fail(ctx context.Context, err error) error {
	if ctx.Err() != nil && !errors.Is(err, ErrCanceled) {
		err = fmt.Errorf("%w: %w", ErrCanceled, err)
	}
	kind := Classify(err)
	attrs := []any{"stage", x.stage, "kind", kind.String(), "duration", time.Since(x.start), "error", err}
	if kind == KindInput {
		x.logger.WarnContext(ctx, "request rejected", attrs...)
	} else {
		x.logger.ErrorContext(ctx, "request failed", attrs...)
	}
	x.stage = StageFailed
	return err
}
