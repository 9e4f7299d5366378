package extraction

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// TempArtifact is a file or directory under a generated name so path-based
// tools can read it. Caller-supplied filenames never reach the path.
type TempArtifact struct {
	Path string

	remove   func(string) error
	logger   *slog.Logger
	released bool
}

// Acquire writes data to a new uniquely named .pdf file inside dir.
// An empty dir means os.TempDir().
func Acquire(dir string, data []byte, logger *slog.Logger) (*TempArtifact, error) {
	dir, err := ensureDir(dir)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, uuid.NewString()+".pdf")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create temp artifact: %w", err)
	}

	_, werr := f.Write(data)
	cerr := f.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write temp artifact: %w", errors.Join(werr, cerr))
	}

	return &TempArtifact{Path: path, remove: os.Remove, logger: logger}, nil
}

// AcquireDir creates a new uniquely named directory inside dir. Release
// removes it with everything written into it.
func AcquireDir(dir string, logger *slog.Logger) (*TempArtifact, error) {
	dir, err := ensureDir(dir)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, uuid.NewString())
	if err := os.Mkdir(path, 0o700); err != nil {
		return nil, fmt.Errorf("create temp artifact dir: %w", err)
	}
	return &TempArtifact{Path: path, remove: os.RemoveAll, logger: logger}, nil
}

func ensureDir(dir string) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	return dir, nil
}

// Release deletes the artifact. It is safe to call more than once; only the
// first call touches the filesystem. Failures are logged, not returned.
func (a *TempArtifact) Release() {
	if a == nil || a.released {
		return
	}
	a.released = true

	if err := a.remove(a.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		a.logger.Error("temp artifact cleanup failed", "path", a.Path, "error", err)
		return
	}
	a.logger.Debug("temp artifact released", "path", a.Path)
}
