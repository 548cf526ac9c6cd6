package adapter_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/aide-dev/aide/pkg/adapter"
	"github.com/m-mizutani/gt"
)

func putObject(t *testing.T, s adapter.Storage, key, data string) {
	t.Helper()
	w, err := s.Put(context.Background(), key)
	gt.NoError(t, err)
	_, err = w.Write([]byte(data))
	gt.NoError(t, err)
	gt.NoError(t, w.Close())
}

func getObject(t *testing.T, s adapter.Storage, key string) string {
	t.Helper()
	r, err := s.Get(context.Background(), key)
	gt.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	gt.NoError(t, err)
	return string(data)
}

// testStorage runs the behavior every Storage backend must share
func testStorage(t *testing.T, s adapter.Storage, suffix string) {
	ctx := context.Background()
	key1 := "a-" + suffix + ".json"
	key2 := "b-" + suffix + ".json"

	t.Run("put and get", func(t *testing.T) {
		putObject(t, s, key1, `{"v":1}`)
		gt.Equal(t, getObject(t, s, key1), `{"v":1}`)
	})

	t.Run("put overwrites", func(t *testing.T) {
		putObject(t, s, key1, `{"v":2}`)
		gt.Equal(t, getObject(t, s, key1), `{"v":2}`)
	})

	t.Run("list", func(t *testing.T) {
		putObject(t, s, key2, `{}`)
		keys, err := s.List(ctx)
		gt.NoError(t, err)
		sort.Strings(keys)
		gt.A(t, keys).Length(2)
		gt.Equal(t, keys[0], key1)
		gt.Equal(t, keys[1], key2)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := s.Get(ctx, "missing-"+suffix+".json")
		gt.Error(t, err)
		gt.True(t, errors.Is(err, adapter.ErrObjectNotFound))
	})

	t.Run("delete", func(t *testing.T) {
		gt.NoError(t, s.Delete(ctx, key1))
		gt.NoError(t, s.Delete(ctx, key2))

		_, err := s.Get(ctx, key1)
		gt.True(t, errors.Is(err, adapter.ErrObjectNotFound))

		err = s.Delete(ctx, key1)
		gt.True(t, errors.Is(err, adapter.ErrObjectNotFound))
	})
}

func TestFileStorage(t *testing.T) {
	s, err := adapter.NewFileStorage(filepath.Join(t.TempDir(), "conversations"))
	gt.NoError(t, err)
	testStorage(t, s, "local")
}

func TestFileStorageRejectsUnsafeKeys(t *testing.T) {
	ctx := context.Background()
	s, err := adapter.NewFileStorage(t.TempDir())
	gt.NoError(t, err)

	for _, key := range []string{"", ".", "..", "../escape.json", "nested/key.json"} {
		_, err := s.Put(ctx, key)
		gt.Error(t, err)
		_, err = s.Get(ctx, key)
		gt.Error(t, err)
		gt.True(t, !errors.Is(err, adapter.ErrObjectNotFound))
	}
}

func TestFileStorageListSkipsTemporaryAndDirectories(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := adapter.NewFileStorage(dir)
	gt.NoError(t, err)

	putObject(t, s, "x.json", "{}")
	gt.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	gt.NoError(t, os.WriteFile(filepath.Join(dir, ".x.json.123.tmp"), []byte("partial"), 0o644))

	// An unfinished writer must not be visible
	w, err := s.Put(ctx, "pending.json")
	gt.NoError(t, err)
	_, err = w.Write([]byte("{}"))
	gt.NoError(t, err)

	keys, err := s.List(ctx)
	gt.NoError(t, err)
	sort.Strings(keys)
	gt.A(t, keys).Length(1)
	gt.Equal(t, keys[0], "x.json")

	gt.NoError(t, w.Close())
	keys, err = s.List(ctx)
	gt.NoError(t, err)
	gt.A(t, keys).Length(2)
}

func TestCloudStorage(t *testing.T) {
	bucket := os.Getenv("TEST_STORAGE_BUCKET")
	if bucket == "" {
		t.Skip("TEST_STORAGE_BUCKET is not set")
	}

	ctx := context.Background()
	prefix := fmt.Sprintf("aide-test/%d/", time.Now().UnixNano())
	s, err := adapter.NewStorage(ctx, bucket, adapter.WithPrefix(prefix))
	gt.NoError(t, err)

	testStorage(t, s, "gcs")
}
