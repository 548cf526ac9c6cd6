package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := newApp(&out, &errOut).Run(context.Background(), append([]string{"aide"}, args...))
	return out.String(), err
}

func TestConversationCommands(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "conversations")

	out, err := runApp(t, "new", "--storage-dir", dir)
	gt.NoError(t, err)
	id := strings.TrimSpace(out)
	gt.NotEqual(t, id, "")

	t.Run("list", func(t *testing.T) {
		out, err := runApp(t, "list", "--storage-dir", dir)
		gt.NoError(t, err)
		gt.S(t, out).Contains(id)
		gt.S(t, out).Contains("0 messages")
	})

	t.Run("show text", func(t *testing.T) {
		out, err := runApp(t, "show", "--storage-dir", dir, id)
		gt.NoError(t, err)
		gt.S(t, out).Contains("Conversation " + id)
	})

	t.Run("show json", func(t *testing.T) {
		out, err := runApp(t, "show", "--storage-dir", dir, "--format", "json", id)
		gt.NoError(t, err)
		gt.S(t, out).Contains(`"id": "` + id + `"`)
		gt.S(t, out).Contains(`"messages": []`)
	})

	t.Run("show yaml", func(t *testing.T) {
		out, err := runApp(t, "show", "--storage-dir", dir, "--format", "yaml", id)
		gt.NoError(t, err)
		gt.S(t, out).Contains("id: " + id)
		gt.S(t, out).Contains("messages: []")
	})

	t.Run("show unknown format", func(t *testing.T) {
		_, err := runApp(t, "show", "--storage-dir", dir, "--format", "xml", id)
		gt.Error(t, err)
	})

	t.Run("delete", func(t *testing.T) {
		out, err := runApp(t, "delete", "--storage-dir", dir, id)
		gt.NoError(t, err)
		gt.S(t, out).Contains("Deleted " + id)

		_, err = runApp(t, "show", "--storage-dir", dir, id)
		gt.Error(t, err)
		gt.S(t, err.Error()).Contains("conversation not found")

		_, err = runApp(t, "delete", "--storage-dir", dir, id)
		gt.Error(t, err)
	})
}

func TestListLimit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "conversations")
	for i := 0; i < 3; i++ {
		_, err := runApp(t, "new", "--storage-dir", dir)
		gt.NoError(t, err)
	}

	out, err := runApp(t, "list", "--storage-dir", dir, "--limit", "2")
	gt.NoError(t, err)
	gt.Equal(t, strings.Count(out, "\n"), 2)
}

func TestConversationIDRequired(t *testing.T) {
	dir := t.TempDir()
	for _, cmd := range []string{"show", "delete"} {
		_, err := runApp(t, cmd, "--storage-dir", dir)
		gt.Error(t, err)
		gt.S(t, err.Error()).Contains("conversation ID is required")
	}
}

func TestAskRequiresGeminiCredentials(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GEMINI_PROJECT_ID", "")

	_, err := runApp(t, "ask", "--storage-dir", t.TempDir(), "Hello")
	gt.Error(t, err)
	gt.S(t, err.Error()).Contains("gemini-api-key or gemini-project is required")
}

func TestNewStorageSelectsBackend(t *testing.T) {
	cfg := &config{storageDir: filepath.Join(t.TempDir(), "docs")}
	storage, err := cfg.newStorage(context.Background())
	gt.NoError(t, err)
	gt.V(t, storage).NotNil()

	cfg = &config{}
	_, err = cfg.newStorage(context.Background())
	gt.Error(t, err)
}
