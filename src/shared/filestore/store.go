package filestore

import (
	"context"

	"github.com/cockroachdb/errors"
)

var FileNotFound = errors.New("File not found in store")

// FileStore persists session artifacts. Paths are slash-separated and
// relative to the store root; a session's artifacts all live under its own
// prefix so DeleteAll can remove them as a unit.
type FileStore interface {
	WriteFile(ctx context.Context, path string, contents []byte) error
	ReadFile(ctx context.Context, path string) ([]byte, error)
	DeleteAll(ctx context.Context, prefix string) error
}
