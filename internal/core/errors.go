package core

import "errors"

// Failure kinds surfaced by the verification pipeline.
var (
	ErrInput             = errors.New("invalid input")
	ErrExtraction        = errors.New("text extraction failed")
	ErrUpstream          = errors.New("llm request failed")
	ErrMalformedResponse = errors.New("malformed llm response")
)
