package repository_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aide-dev/aide/pkg/adapter"
	"github.com/aide-dev/aide/pkg/model"
	"github.com/aide-dev/aide/pkg/repository"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

// tickingClock returns strictly increasing timestamps
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTickingClock() *tickingClock {
	return &tickingClock{now: time.Date(2030, time.March, 15, 10, 0, 0, 0, time.UTC)}
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func setupRepository(t *testing.T) (*repository.Conversation, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "conversations")
	storage, err := adapter.NewFileStorage(dir)
	gt.NoError(t, err)
	return repository.New(storage, repository.WithClock(newTickingClock().Now)), dir
}

func TestCreateConversation(t *testing.T) {
	ctx := context.Background()
	repo, dir := setupRepository(t)

	id, err := repo.Create(ctx)
	gt.NoError(t, err)
	gt.NotEqual(t, string(id), "")

	_, err = os.Stat(filepath.Join(dir, string(id)+".json"))
	gt.NoError(t, err)

	conv, err := repo.Load(ctx, id)
	gt.NoError(t, err)
	gt.V(t, conv).NotNil()
	gt.Equal(t, conv.ID, id)
	gt.A(t, conv.Messages).Length(0)
}

func TestCreatedDocumentHasEmptyMessageList(t *testing.T) {
	ctx := context.Background()
	repo, dir := setupRepository(t)

	id, err := repo.Create(ctx)
	gt.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, string(id)+".json"))
	gt.NoError(t, err)
	gt.S(t, string(data)).Contains(`"messages": []`)
	gt.S(t, string(data)).Contains(`"id": "` + string(id) + `"`)
}

func TestSaveAndLoadConversation(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupRepository(t)

	created := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	conv := &model.Conversation{
		ID:        "test-id",
		CreatedAt: created,
		Messages: []model.Message{
			{Role: model.RoleUser, Content: "Hello", Timestamp: created},
			{Role: model.RoleAssistant, Content: "Hi!", Timestamp: created.Add(time.Second)},
		},
	}

	gt.NoError(t, repo.Save(ctx, conv))
	gt.True(t, conv.UpdatedAt.After(created))

	loaded, err := repo.Load(ctx, "test-id")
	gt.NoError(t, err)
	gt.V(t, loaded).NotNil()
	gt.Equal(t, loaded.ID, model.ConversationID("test-id"))
	gt.A(t, loaded.Messages).Length(2)
	gt.Equal(t, loaded.Messages[1].Content, "Hi!")
	gt.True(t, loaded.CreatedAt.Equal(created))
	gt.True(t, loaded.UpdatedAt.Equal(conv.UpdatedAt))
}

func TestSaveRejectsInvalidID(t *testing.T) {
	repo, _ := setupRepository(t)
	err := repo.Save(context.Background(), &model.Conversation{ID: "../escape"})
	gt.Error(t, err)
}

func TestLoadNonexistentConversation(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupRepository(t)

	for _, id := range []model.ConversationID{"nonexistent", "", "../etc/passwd", "a/b"} {
		conv, err := repo.Load(ctx, id)
		gt.NoError(t, err)
		gt.Nil(t, conv)
	}
}

func TestLoadCorruptedConversation(t *testing.T) {
	ctx := context.Background()
	repo, dir := setupRepository(t)

	gt.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0o644))

	conv, err := repo.Load(ctx, "broken")
	gt.NoError(t, err)
	gt.Nil(t, conv)
}

func TestLoadMismatchedID(t *testing.T) {
	ctx := context.Background()
	repo, dir := setupRepository(t)

	gt.NoError(t, os.WriteFile(filepath.Join(dir, "one.json"), []byte(`{"id":"two","messages":[]}`), 0o644))

	conv, err := repo.Load(ctx, "one")
	gt.NoError(t, err)
	gt.Nil(t, conv)
}

func TestListConversations(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupRepository(t)

	id1, err := repo.Create(ctx)
	gt.NoError(t, err)
	id2, err := repo.Create(ctx)
	gt.NoError(t, err)

	// Updating the older conversation moves it to the top
	_, err = repo.AddMessage(ctx, id1, model.RoleUser, "Test")
	gt.NoError(t, err)

	summaries, err := repo.List(ctx)
	gt.NoError(t, err)
	gt.A(t, summaries).Length(2)

	gt.Equal(t, summaries[0].ID, id1)
	gt.Equal(t, summaries[0].MessageCount, 1)
	gt.Equal(t, summaries[1].ID, id2)
	gt.Equal(t, summaries[1].MessageCount, 0)
	gt.True(t, summaries[0].UpdatedAt.After(summaries[1].UpdatedAt))
}

func TestListSkipsUnreadableDocuments(t *testing.T) {
	ctx := context.Background()
	repo, dir := setupRepository(t)

	id, err := repo.Create(ctx)
	gt.NoError(t, err)

	gt.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("garbage"), 0o644))
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a conversation"), 0o644))

	summaries, err := repo.List(ctx)
	gt.NoError(t, err)
	gt.A(t, summaries).Length(1)
	gt.Equal(t, summaries[0].ID, id)
}

func TestListEmpty(t *testing.T) {
	repo, _ := setupRepository(t)
	summaries, err := repo.List(context.Background())
	gt.NoError(t, err)
	gt.A(t, summaries).Length(0)
}

func TestDeleteConversation(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupRepository(t)

	id, err := repo.Create(ctx)
	gt.NoError(t, err)

	conv, err := repo.Load(ctx, id)
	gt.NoError(t, err)
	gt.V(t, conv).NotNil()

	deleted, err := repo.Delete(ctx, id)
	gt.NoError(t, err)
	gt.True(t, deleted)

	conv, err = repo.Load(ctx, id)
	gt.NoError(t, err)
	gt.Nil(t, conv)
}

func TestDeleteNonexistentConversation(t *testing.T) {
	repo, _ := setupRepository(t)

	deleted, err := repo.Delete(context.Background(), "nonexistent")
	gt.NoError(t, err)
	gt.True(t, !deleted)
}

func TestAddMessage(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupRepository(t)

	id, err := repo.Create(ctx)
	gt.NoError(t, err)
	before, err := repo.Load(ctx, id)
	gt.NoError(t, err)

	updated, err := repo.AddMessage(ctx, id, model.RoleUser, "Hello")
	gt.NoError(t, err)
	gt.V(t, updated).NotNil()
	gt.A(t, updated.Messages).Length(1)

	loaded, err := repo.Load(ctx, id)
	gt.NoError(t, err)
	gt.A(t, loaded.Messages).Length(len(before.Messages) + 1)

	last := loaded.Messages[len(loaded.Messages)-1]
	gt.Equal(t, last.Role, model.RoleUser)
	gt.Equal(t, last.Content, "Hello")
	gt.True(t, !last.Timestamp.Before(before.UpdatedAt))
	gt.True(t, loaded.CreatedAt.Equal(before.CreatedAt))

	_, err = repo.AddMessage(ctx, id, model.RoleAssistant, "Hi there")
	gt.NoError(t, err)
	loaded, err = repo.Load(ctx, id)
	gt.NoError(t, err)
	gt.A(t, loaded.Messages).Length(2)
	gt.Equal(t, loaded.Messages[0].Content, "Hello")
	gt.Equal(t, loaded.Messages[1].Role, model.RoleAssistant)
}

func TestAddMessageToNonexistentConversation(t *testing.T) {
	repo, _ := setupRepository(t)

	conv, err := repo.AddMessage(context.Background(), "nonexistent", model.RoleUser, "Hello")
	gt.NoError(t, err)
	gt.Nil(t, conv)
}

func TestAddMessageRejectsInvalidRole(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupRepository(t)

	id, err := repo.Create(ctx)
	gt.NoError(t, err)

	_, err = repo.AddMessage(ctx, id, model.Role("system"), "Hello")
	gt.Error(t, err)
}

// failingStorage accepts writers but fails on commit
type failingStorage struct {
	adapter.Storage
}

type failingWriter struct {
	bytes.Buffer
}

func (w *failingWriter) Close() error {
	return goerr.New("disk full")
}

func (s *failingStorage) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	return &failingWriter{}, nil
}

func TestSaveFailurePropagates(t *testing.T) {
	repo := repository.New(&failingStorage{})

	_, err := repo.Create(context.Background())
	gt.Error(t, err)
	gt.S(t, err.Error()).Contains("failed to create conversation")
}

func TestListFailurePropagates(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "conversations")
	storage, err := adapter.NewFileStorage(dir)
	gt.NoError(t, err)
	gt.NoError(t, os.RemoveAll(dir))

	_, err = repository.New(storage).List(context.Background())
	gt.Error(t, err)
	gt.True(t, !errors.Is(err, adapter.ErrObjectNotFound))
}
