package extraction

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"code.sajari.com/docconv"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/markdave123-py/rulecheck/internal/core"
	"github.com/markdave123-py/rulecheck/internal/models"
)

var _ core.TextExtractor = (*DocconvExtractor)(nil)

// errNoPages is returned for structurally valid PDFs without a single page.
var errNoPages = errors.New("document has no pages")

// DocconvExtractor implements core.TextExtractor. pdfcpu validates the
// document and splits it into single-page files; sajari/docconv converts each
// page. Both need file paths, hence the temp artifacts.
type DocconvExtractor struct {
	tempDir string
	logger  *slog.Logger

	pageCount func(path string) (int, error)
	split     func(path, outDir string) ([]string, error)
	convert   func(path string) (string, error)
}

// Option customizes a DocconvExtractor.
type Option func(*DocconvExtractor)

// WithPageCounter replaces the pdfcpu page count used to validate documents.
func WithPageCounter(fn func(path string) (int, error)) Option {
	return func(e *DocconvExtractor) { e.pageCount = fn }
}

// WithPageSplitter replaces the pdfcpu split. fn writes one file per page
// into outDir and returns their paths in page order.
func WithPageSplitter(fn func(path, outDir string) ([]string, error)) Option {
	return func(e *DocconvExtractor) { e.split = fn }
}

// WithConverter replaces the docconv text conversion.
func WithConverter(fn func(path string) (string, error)) Option {
	return func(e *DocconvExtractor) { e.convert = fn }
}

func NewDocconvExtractor(tempDir string, logger *slog.Logger, opts ...Option) *DocconvExtractor {
	e := &DocconvExtractor{
		tempDir:   tempDir,
		logger:    logger.With("component", "extractor"),
		pageCount: api.PageCountFile,
		split:     splitPDF,
		convert:   convertPath,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract persists data to a scoped temp artifact, validates it as a PDF and
// returns the text of each page in order. Every artifact is removed on every
// return path. A document with no text on any page yields no pages.
func (e *DocconvExtractor) Extract(ctx context.Context, data []byte) (models.ExtractedDocument, error) {
	if len(data) == 0 {
		return models.ExtractedDocument{}, fmt.Errorf("%w: empty document", core.ErrExtraction)
	}

	artifact, err := Acquire(e.tempDir, data, e.logger)
	if err != nil {
		return models.ExtractedDocument{}, fmt.Errorf("%w: %w", core.ErrExtraction, err)
	}
	defer artifact.Release()

	if err := ctx.Err(); err != nil {
		return models.ExtractedDocument{}, err
	}

	n, err := e.pageCount(artifact.Path)
	if err != nil {
		e.logger.Error("pdf validation failed", "size", len(data), "error", err)
		return models.ExtractedDocument{}, fmt.Errorf("%w: validate pdf: %w", core.ErrExtraction, err)
	}
	if n == 0 {
		return models.ExtractedDocument{}, fmt.Errorf("%w: %w", core.ErrExtraction, errNoPages)
	}

	pagesDir, err := AcquireDir(e.tempDir, e.logger)
	if err != nil {
		return models.ExtractedDocument{}, fmt.Errorf("%w: %w", core.ErrExtraction, err)
	}
	defer pagesDir.Release()

	paths, err := e.split(artifact.Path, pagesDir.Path)
	if err != nil {
		e.logger.Error("pdf split failed", "pages", n, "error", err)
		return models.ExtractedDocument{}, fmt.Errorf("%w: split pdf: %w", core.ErrExtraction, err)
	}
	if len(paths) != n {
		return models.ExtractedDocument{}, fmt.Errorf("%w: split produced %d pages, document has %d", core.ErrExtraction, len(paths), n)
	}

	pages := make([]string, 0, n)
	blank := true
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return models.ExtractedDocument{}, err
		}
		text, err := e.convert(path)
		if err != nil {
			e.logger.Error("docconv: extraction failed", "page", i+1, "pages", n, "error", err)
			return models.ExtractedDocument{}, fmt.Errorf("%w: convert page %d: %w", core.ErrExtraction, i+1, err)
		}
		text = strings.TrimRightFunc(text, unicode.IsSpace)
		if text != "" {
			blank = false
		}
		pages = append(pages, text)
	}

	if blank {
		e.logger.Warn("docconv: extracted empty text", "pages", n)
		return models.ExtractedDocument{Pages: []string{}}, nil
	}
	return models.ExtractedDocument{Pages: pages}, nil
}

func convertPath(path string) (string, error) {
	res, err := docconv.ConvertPath(path)
	if err != nil {
		return "", err
	}
	return res.Body, nil
}

// splitPDF writes every page of path to its own file in outDir.
func splitPDF(path, outDir string) ([]string, error) {
	if err := api.SplitFile(path, outDir, 1, nil); err != nil {
		return nil, err
	}
	return pageFiles(outDir)
}

// pdfcpu names split output <name>_<page>.pdf.
var pageFileRegex = regexp.MustCompile(`_(\d+)\.pdf$`)

// pageFiles lists the single-page files in dir ordered by page number.
func pageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type pageFile struct {
		n    int
		path string
	}
	var files []pageFile
	for _, entry := range entries {
		m := pageFileRegex.FindStringSubmatch(entry.Name())
		if entry.IsDir() || m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("page file %s: %w", entry.Name(), err)
		}
		files = append(files, pageFile{n: n, path: filepath.Join(dir, entry.Name())})
	}
	slices.SortFunc(files, func(a, b pageFile) int { return cmp.Compare(a.n, b.n) })

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}
