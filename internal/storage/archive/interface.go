// Package archive reads and writes flat files on object storage.
package archive

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/newthinker/finwindow/internal/core"
)

// Storage is a flat-file store addressed by slash-separated paths relative
// to its root. Paths that leave the root fail with core.ErrInvalidPath.
type Storage interface {
	// Open streams the object at path. Callers must close the reader.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Write stores data at path, replacing any existing object.
	Write(ctx context.Context, path string, data []byte) error

	// List returns every object path under prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists reports whether an object is stored at path.
	Exists(ctx context.Context, path string) (bool, error)
}

// Name reports a short backend label for logs and metrics.
func Name(s Storage) string {
	switch s.(type) {
	case *LocalFS:
		return "localfs"
	case *S3Storage:
		return "s3"
	default:
		return "unknown"
	}
}

// checkPath rejects paths that are absolute or climb out of the root with
// "..". The empty path names the root itself.
func checkPath(path string) error {
	if path == "" || filepath.IsLocal(filepath.FromSlash(path)) {
		return nil
	}
	return core.WrapError(core.ErrInvalidPath, fmt.Errorf("%q", path))
}
