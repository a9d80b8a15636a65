package config

// Storage selects where session artifacts live. Local disk is used for
// development and tests, GCS for production deployments.
type Storage interface {
	StorageConfig()
}

var _ Storage = LocalStorage{}

type LocalStorage struct {
	RootPath string
}

func (l LocalStorage) StorageConfig() {}

var _ Storage = GoogleCloudStorage{}

type GoogleCloudStorage struct {
	SecretKey  string
	BucketName string
}

func (g GoogleCloudStorage) StorageConfig() {}
