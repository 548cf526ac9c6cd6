package adapter

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
)

// fileStorage implements Storage interface on a local directory. Each key is
// a file directly under the directory.
type fileStorage struct {
	dir string
}

// NewFileStorage creates a Storage on dir, creating the directory if needed
func NewFileStorage(dir string) (Storage, error) {
	if dir == "" {
		return nil, goerr.New("storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, goerr.Wrap(err, "failed to create storage directory", goerr.V("dir", dir))
	}
	return &fileStorage{dir: dir}, nil
}

func (s *fileStorage) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || key == "." || key == ".." {
		return "", goerr.New("invalid storage key", goerr.V("key", key))
	}
	return filepath.Join(s.dir, key), nil
}

// fileWriter writes into a temporary file and renames it over the target on
// Close, so readers never observe a partially written document.
type fileWriter struct {
	tmp    *os.File
	target string
	closed bool
}

func (w *fileWriter) Write(p []byte) (int, error) {
	return w.tmp.Write(p)
}

func (w *fileWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.tmp.Close(); err != nil {
		_ = os.Remove(w.tmp.Name())
		return goerr.Wrap(err, "failed to close temporary file", goerr.V("path", w.tmp.Name()))
	}
	if err := os.Rename(w.tmp.Name(), w.target); err != nil {
		_ = os.Remove(w.tmp.Name())
		return goerr.Wrap(err, "failed to replace file", goerr.V("path", w.target))
	}
	return nil
}

func (s *fileStorage) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(s.dir, "."+key+".*.tmp")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create temporary file", goerr.V("key", key))
	}

	return &fileWriter{tmp: tmp, target: path}, nil
}

func (s *fileStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrObjectNotFound, "file does not exist", goerr.V("key", key))
		}
		return nil, goerr.Wrap(err, "failed to open file", goerr.V("key", key))
	}
	return f, nil
}

func (s *fileStorage) Delete(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return goerr.Wrap(ErrObjectNotFound, "file does not exist", goerr.V("key", key))
		}
		return goerr.Wrap(err, "failed to remove file", goerr.V("key", key))
	}
	return nil
}

func (s *fileStorage) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read storage directory", goerr.V("dir", s.dir))
	}

	var keys []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || entry.Name()[0] == '.' {
			continue
		}
		keys = append(keys, entry.Name())
	}
	return keys, nil
}
