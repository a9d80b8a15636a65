package filestore

import (
	"context"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/cockroachdb/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

var _ FileStore = GoogleFileStore{}

func NewGoogleFileStore(jsonKey string, bucketName string) (GoogleFileStore, error) {
	client, err := storage.NewClient(
		context.Background(),
		option.WithCredentialsJSON([]byte(jsonKey)),
	)
	if err != nil {
		return GoogleFileStore{}, errors.Wrap(err, "Failed to create Google Cloud Storage client")
	}

	return GoogleFileStore{
		client:     client,
		bucketName: bucketName,
	}, nil
}

type GoogleFileStore struct {
	client     *storage.Client
	bucketName string
}

func (g GoogleFileStore) WriteFile(ctx context.Context, path string, contents []byte) error {
	writer := g.bucket().Object(path).NewWriter(ctx)

	if _, err := writer.Write(contents); err != nil {
		_ = writer.Close()
		return errors.Wrap(err, "Failed to write contents to GCS object")
	}

	if err := writer.Close(); err != nil {
		return errors.Wrap(err, "Failed to close GCS object writer")
	}

	return nil
}

func (g GoogleFileStore) ReadFile(ctx context.Context, path string) ([]byte, error) {
	reader, err := g.bucket().Object(path).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, errors.Wrapf(FileNotFound, "No object at %s", path)
		}

		return nil, errors.Wrap(err, "Failed to open GCS object reader")
	}
	defer reader.Close()

	contents, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to read GCS object contents")
	}

	return contents, nil
}

func (g GoogleFileStore) DeleteAll(ctx context.Context, prefix string) error {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	objects := g.bucket().Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := objects.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return errors.Wrap(err, "Failed to iterate GCS objects for deletion")
		}

		if err := g.bucket().Object(attrs.Name).Delete(ctx); err != nil {
			return errors.Wrap(err, "Failed to delete GCS object")
		}
	}

	return nil
}

func (g GoogleFileStore) bucket() *storage.BucketHandle {
	return g.client.Bucket(g.bucketName)
}
