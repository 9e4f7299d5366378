package core

import (
	"context"

	"github.com/markdave123-py/rulecheck/internal/models"
)

// TextExtractor defines the interface for turning raw document bytes into page texts.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (models.ExtractedDocument, error)
}
