package filestore

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

var _ FileStore = LocalFileStore{}

func NewLocalFileStore(rootPath string) (LocalFileStore, error) {
	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return LocalFileStore{}, errors.Wrap(err, "Cannot convert storage root to absolute format")
	}

	if err := os.MkdirAll(absRoot, os.ModePerm); err != nil {
		return LocalFileStore{}, errors.Wrap(err, "Failed to create storage root dir")
	}

	return LocalFileStore{root: absRoot}, nil
}

type LocalFileStore struct {
	root string
}

func (l LocalFileStore) WriteFile(ctx context.Context, path string, contents []byte) error {
	fullPath := filepath.Join(l.root, filepath.FromSlash(path))

	if err := os.MkdirAll(filepath.Dir(fullPath), os.ModePerm); err != nil {
		return errors.Wrap(err, "Failed to create artifact dir")
	}

	if err := os.WriteFile(fullPath, contents, 0644); err != nil {
		return errors.Wrap(err, "Failed to write artifact file")
	}

	return nil
}

func (l LocalFileStore) ReadFile(ctx context.Context, path string) ([]byte, error) {
	fullPath := filepath.Join(l.root, filepath.FromSlash(path))

	contents, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(FileNotFound, "No file at %s", path)
		}

		return nil, errors.Wrap(err, "Failed to read artifact file")
	}

	return contents, nil
}

func (l LocalFileStore) DeleteAll(ctx context.Context, prefix string) error {
	fullPath := filepath.Join(l.root, filepath.FromSlash(prefix))

	if err := os.RemoveAll(fullPath); err != nil {
		return errors.Wrap(err, "Failed to remove artifact subtree")
	}

	return nil
}
