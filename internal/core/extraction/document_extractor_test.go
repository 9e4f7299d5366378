package extraction

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/rulecheck/internal/core"
	"github.com/markdave123-py/rulecheck/internal/pdftest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dirEntries(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return entries
}

// writePages is a page splitter that writes the given texts as page files,
// so readPage hands them back as converter output.
func writePages(texts ...string) func(string, string) ([]string, error) {
	return func(_, outDir string) ([]string, error) {
		paths := make([]string, len(texts))
		for i, text := range texts {
			paths[i] = filepath.Join(outDir, fmt.Sprintf("doc_%d.pdf", i+1))
			if err := os.WriteFile(paths[i], []byte(text), 0o600); err != nil {
				return nil, err
			}
		}
		return paths, nil
	}
}

func readPage(path string) (string, error) {
	b, err := os.ReadFile(path)
	return string(b), err
}

// stubbed returns an extractor whose pdf checks and conversion are replaced.
// seen records the paths handed to the converter.
func stubbed(dir string, pages []string, convErr error, seen *[]string) *DocconvExtractor {
	return NewDocconvExtractor(dir, discardLogger(),
		WithPageCounter(func(string) (int, error) { return len(pages), nil }),
		WithPageSplitter(writePages(pages...)),
		WithConverter(func(path string) (string, error) {
			*seen = append(*seen, path)
			text, err := readPage(path)
			if err != nil {
				return "", err
			}
			return text, convErr
		}),
	)
}

func TestExtractSuccessRemovesArtifact(t *testing.T) {
	dir := t.TempDir()
	var seen []string
	e := stubbed(dir, []string{"page one\n", "page two"}, nil, &seen)

	doc, err := e.Extract(context.Background(), []byte("%PDF-1.4 stub"))
	require.NoError(t, err)

	assert.Equal(t, []string{"page one", "page two"}, doc.Pages)
	assert.Equal(t, "page one\npage two", doc.Text())

	require.Len(t, seen, 2)
	for _, path := range seen {
		assert.Equal(t, dir, filepath.Dir(filepath.Dir(path)))
		assert.True(t, strings.HasSuffix(path, ".pdf"))
	}
	assert.Empty(t, dirEntries(t, dir))
}

// Real pdfcpu validation and splitting; only the pdftotext step is replaced.
func TestExtractOneTextPerPdfPage(t *testing.T) {
	dir := t.TempDir()
	data := pdftest.Minimal(3)

	want, err := api.PageCount(bytes.NewReader(data), nil)
	require.NoError(t, err)
	require.Equal(t, 3, want)

	var seen []string
	e := NewDocconvExtractor(dir, discardLogger(), WithConverter(func(path string) (string, error) {
		seen = append(seen, path)
		n, err := api.PageCountFile(path)
		if err != nil {
			return "", err
		}
		if n != 1 {
			return "", fmt.Errorf("page file %s has %d pages", path, n)
		}
		return fmt.Sprintf("text of page %d\n", len(seen)), nil
	}))

	doc, err := e.Extract(context.Background(), data)
	require.NoError(t, err)

	require.Len(t, doc.Pages, want)
	assert.Equal(t, []string{"text of page 1", "text of page 2", "text of page 3"}, doc.Pages)
	assert.Len(t, seen, want)
	assert.Empty(t, dirEntries(t, dir))
}

func TestExtractBlankPagesAreKept(t *testing.T) {
	var seen []string
	e := stubbed(t.TempDir(), []string{"cover", "  \n", "body"}, nil, &seen)

	doc, err := e.Extract(context.Background(), []byte("%PDF-1.4 stub"))
	require.NoError(t, err)
	assert.Equal(t, []string{"cover", "", "body"}, doc.Pages)
}

func TestExtractSplitMismatch(t *testing.T) {
	dir := t.TempDir()
	e := NewDocconvExtractor(dir, discardLogger(),
		WithPageCounter(func(string) (int, error) { return 3, nil }),
		WithPageSplitter(writePages("only one")),
		WithConverter(readPage),
	)

	_, err := e.Extract(context.Background(), []byte("%PDF-1.4 stub"))
	assert.ErrorIs(t, err, core.ErrExtraction)
	assert.Empty(t, dirEntries(t, dir))
}

func TestExtractSplitFailure(t *testing.T) {
	dir := t.TempDir()
	e := NewDocconvExtractor(dir, discardLogger(),
		WithPageCounter(func(string) (int, error) { return 1, nil }),
		WithPageSplitter(func(string, string) ([]string, error) { return nil, errors.New("corrupt xref") }),
	)

	_, err := e.Extract(context.Background(), []byte("%PDF-1.4 stub"))
	assert.ErrorIs(t, err, core.ErrExtraction)
	assert.Empty(t, dirEntries(t, dir))
}

func TestExtractCancelledBetweenPages(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	e := NewDocconvExtractor(dir, discardLogger(),
		WithPageCounter(func(string) (int, error) { return 2, nil }),
		WithPageSplitter(writePages("one", "two")),
		WithConverter(func(path string) (string, error) {
			calls++
			cancel()
			return readPage(path)
		}),
	)

	_, err := e.Extract(ctx, []byte("%PDF-1.4 stub"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Empty(t, dirEntries(t, dir))
}

func TestExtractConvertFailureRemovesArtifact(t *testing.T) {
	dir := t.TempDir()
	var seen []string
	e := stubbed(dir, []string{"text"}, errors.New("pdftotext exploded"), &seen)

	_, err := e.Extract(context.Background(), []byte("%PDF-1.4 stub"))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrExtraction)
	assert.Empty(t, dirEntries(t, dir))
}

func TestExtractMalformedBytes(t *testing.T) {
	dir := t.TempDir()
	converted := false
	e := NewDocconvExtractor(dir, discardLogger(), WithConverter(func(string) (string, error) {
		converted = true
		return "", nil
	}))

	_, err := e.Extract(context.Background(), []byte("this is definitely not a pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrExtraction)
	assert.False(t, converted)
	assert.Empty(t, dirEntries(t, dir))
}

func TestExtractZeroPages(t *testing.T) {
	dir := t.TempDir()
	var seen []string
	e := stubbed(dir, []string{}, nil, &seen)

	_, err := e.Extract(context.Background(), []byte("%PDF-1.4 stub"))
	assert.ErrorIs(t, err, core.ErrExtraction)
	assert.ErrorIs(t, err, errNoPages)
	assert.Empty(t, seen)
	assert.Empty(t, dirEntries(t, dir))
}

func TestExtractNoText(t *testing.T) {
	dir := t.TempDir()
	var seen []string
	e := stubbed(dir, []string{" \n", ""}, nil, &seen)

	doc, err := e.Extract(context.Background(), []byte("%PDF-1.4 stub"))
	require.NoError(t, err)
	assert.Empty(t, doc.Pages)
	assert.Equal(t, "", doc.Text())
}

func TestExtractEmptyInput(t *testing.T) {
	dir := t.TempDir()
	e := NewDocconvExtractor(dir, discardLogger())

	_, err := e.Extract(context.Background(), nil)
	assert.ErrorIs(t, err, core.ErrExtraction)
	assert.Empty(t, dirEntries(t, dir))
}

func TestExtractCancelledContext(t *testing.T) {
	dir := t.TempDir()
	var seen []string
	e := stubbed(dir, []string{"text"}, nil, &seen)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Extract(ctx, []byte("%PDF-1.4 stub"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, seen)
	assert.Empty(t, dirEntries(t, dir))
}

func TestTempArtifactUniqueAndIdempotentRelease(t *testing.T) {
	dir := t.TempDir()

	a, err := Acquire(dir, []byte("a"), discardLogger())
	require.NoError(t, err)
	b, err := Acquire(dir, []byte("b"), discardLogger())
	require.NoError(t, err)
	assert.NotEqual(t, a.Path, b.Path)

	data, err := os.ReadFile(a.Path)
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))

	a.Release()
	a.Release()
	_, err = os.Stat(a.Path)
	assert.True(t, os.IsNotExist(err))

	b.Release()
	assert.Empty(t, dirEntries(t, dir))
}

func TestPageFilesOrdersNumerically(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"doc_10.pdf", "doc_2.pdf", "doc_1.pdf", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}

	got, err := pageFiles(dir)
	require.NoError(t, err)

	names := make([]string, len(got))
	for i, p := range got {
		names[i] = filepath.Base(p)
	}
	assert.Equal(t, []string{"doc_1.pdf", "doc_2.pdf", "doc_10.pdf"}, names)
}

func TestAcquireDirReleaseRemovesContents(t *testing.T) {
	dir := t.TempDir()

	a, err := AcquireDir(dir, discardLogger())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(a.Path, "page_1.pdf"), []byte("x"), 0o600))

	a.Release()
	a.Release()
	assert.Empty(t, dirEntries(t, dir))
}
