package pipeline

import (
	"errors"
	"net/http"

	"github.com/markdave123-py/rulecheck/internal/core"
)

// Kind classifies a pipeline failure for the caller.
type Kind int

const (
	KindNone Kind = iota
	KindInput
	KindExtraction
	KindUpstream
	KindMalformedResponse
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindInput:
		return "input"
	case KindExtraction:
		return "extraction"
	case KindUpstream:
		return "upstream"
	case KindMalformedResponse:
		return "malformed_response"
	}
	return "internal"
}

// Input failures, each wrapped with core.ErrInput.
var (
	ErrNoDocument = errors.New("no document uploaded")
	ErrNoRules    = errors.New("rules are missing")
	ErrBadRules   = errors.New("rules must be a JSON array of strings")
)

// ErrCanceled marks a failure that happened after the caller's context ended,
// whatever stage it interrupted.
var ErrCanceled = errors.New("request canceled")

var inputMessages = []struct {
	err error
	msg string
}{
	{ErrNoDocument, "No PDF file uploaded."},
	{ErrNoRules, "Rules are missing."},
	{ErrBadRules, "Rules must be a JSON array of strings."},
}

// Classify maps err onto exactly one failure kind.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, core.ErrInput):
		return KindInput
	case errors.Is(err, ErrCanceled):
		return KindInternal
	case errors.Is(err, core.ErrExtraction):
		return KindExtraction
	case errors.Is(err, core.ErrMalformedResponse):
		return KindMalformedResponse
	case errors.Is(err, core.ErrUpstream):
		return KindUpstream
	}
	return KindInternal
}

// HTTPStatus maps pipeline errors to HTTP status codes.
func HTTPStatus(err error) int {
	switch Classify(err) {
	case KindNone:
		return http.StatusOK
	case KindInput:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the message safe to show a caller. Diagnostic detail
// for server faults stays in the logs.
func PublicMessage(err error) string {
	switch Classify(err) {
	case KindNone:
		return ""
	case KindInput:
		for _, m := range inputMessages {
			if errors.Is(err, m.err) {
				return m.msg
			}
		}
		return "Invalid request."
	case KindExtraction:
		return "Failed to extract text from PDF."
	case KindUpstream, KindMalformedResponse:
		return "Error communicating with Gemini API."
	}
	return "Internal server error."
}
