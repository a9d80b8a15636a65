package dummy

import (
	"context"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/veedubyou/instant-karaoke-be/src/shared/filestore"
)

var _ filestore.FileStore = &FileStore{}

func NewDummyFileStore() *FileStore {
	return &FileStore{
		Unavailable: false,
		State:       map[string][]byte{},
	}
}

type FileStore struct {
	Unavailable bool
	State       map[string][]byte
	mutex       sync.RWMutex
}

func (f *FileStore) WriteFile(ctx context.Context, filePath string, contents []byte) error {
	if f.Unavailable {
		return NetworkFailure
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.State[filePath] = contents
	return nil
}

func (f *FileStore) ReadFile(ctx context.Context, filePath string) ([]byte, error) {
	if f.Unavailable {
		return nil, NetworkFailure
	}

	f.mutex.RLock()
	defer f.mutex.RUnlock()

	contents, ok := f.State[filePath]
	if !ok {
		return nil, errors.Wrapf(filestore.FileNotFound, "No file at %s", filePath)
	}

	return contents, nil
}

func (f *FileStore) DeleteAll(ctx context.Context, prefix string) error {
	if f.Unavailable {
		return NetworkFailure
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()

	for filePath := range f.State {
		if filePath == prefix || strings.HasPrefix(filePath, prefix+"/") {
			delete(f.State, filePath)
		}
	}

	return nil
}
