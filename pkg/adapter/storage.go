package adapter

import (
	"context"
	"errors"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
)

// ErrObjectNotFound is returned by Storage when the key does not exist
var ErrObjectNotFound = goerr.New("object not found")

// Storage is the interface for conversation document storage
type Storage interface {
	// Put returns a writer to save an object. The object is committed when
	// the writer is closed.
	Put(ctx context.Context, key string) (io.WriteCloser, error)
	// Get opens an object for reading. It returns ErrObjectNotFound when the
	// key does not exist.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes an object. It returns ErrObjectNotFound when the key
	// does not exist.
	Delete(ctx context.Context, key string) error
	// List returns all keys in the storage
	List(ctx context.Context) ([]string, error)
}

// storageClient implements Storage interface using Cloud Storage
type storageClient struct {
	bucketName string
	prefix     string
	client     *storage.Client
}

type StorageOption func(*storageClient)

// WithPrefix sets the object name prefix under which keys are stored
func WithPrefix(prefix string) StorageOption {
	return func(s *storageClient) {
		s.prefix = prefix
	}
}

// NewStorage creates a new Cloud Storage client
func NewStorage(ctx context.Context, bucketName string, opts ...StorageOption) (Storage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	s := &storageClient{
		bucketName: bucketName,
		client:     client,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *storageClient) object(key string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucketName).Object(s.prefix + key)
}

func (s *storageClient) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	writer := s.object(key).NewWriter(ctx)
	writer.ContentType = "application/json"
	return writer, nil
}

func (s *storageClient) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	reader, err := s.object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, goerr.Wrap(ErrObjectNotFound, "object does not exist", goerr.V("key", key))
		}
		return nil, goerr.Wrap(err, "failed to read from storage", goerr.V("key", key))
	}

	return reader, nil
}

func (s *storageClient) Delete(ctx context.Context, key string) error {
	if err := s.object(key).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return goerr.Wrap(ErrObjectNotFound, "object does not exist", goerr.V("key", key))
		}
		return goerr.Wrap(err, "failed to delete from storage", goerr.V("key", key))
	}
	return nil
}

func (s *storageClient) List(ctx context.Context) ([]string, error) {
	it := s.client.Bucket(s.bucketName).Objects(ctx, &storage.Query{Prefix: s.prefix})

	var keys []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list objects", goerr.V("bucket", s.bucketName))
		}

		key := strings.TrimPrefix(attrs.Name, s.prefix)
		// Objects in nested "directories" belong to someone else
		if key == "" || strings.Contains(key, "/") {
			continue
		}
		keys = append(keys, key)
	}

	return keys, nil
}
