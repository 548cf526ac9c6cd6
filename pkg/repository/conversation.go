package repository

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/aide-dev/aide/pkg/adapter"
	"github.com/aide-dev/aide/pkg/interfaces"
	"github.com/aide-dev/aide/pkg/model"
	"github.com/aide-dev/aide/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

const documentExt = ".json"

// validID guards against IDs that would escape the storage namespace
var validID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// Conversation implements interfaces.Repository with one JSON document per
// conversation on an adapter.Storage.
//
// Writes are not locked. Two concurrent AddMessage calls on the same
// conversation can lose one of the messages (last write wins).
type Conversation struct {
	storage adapter.Storage
	now     func() time.Time
}

var _ interfaces.Repository = (*Conversation)(nil)

type Option func(*Conversation)

// WithClock replaces time.Now for timestamps
func WithClock(now func() time.Time) Option {
	return func(r *Conversation) {
		r.now = now
	}
}

// New creates a conversation repository on the storage
func New(storage adapter.Storage, opts ...Option) *Conversation {
	r := &Conversation{
		storage: storage,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func documentKey(id model.ConversationID) string {
	return string(id) + documentExt
}

func (r *Conversation) Create(ctx context.Context) (model.ConversationID, error) {
	now := r.now()
	conv := &model.Conversation{
		ID:        model.NewConversationID(),
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []model.Message{},
	}

	if err := r.Save(ctx, conv); err != nil {
		return "", goerr.Wrap(err, "failed to create conversation")
	}

	logging.From(ctx).Info("created new conversation", "conversation_id", conv.ID)
	return conv.ID, nil
}

func (r *Conversation) Save(ctx context.Context, conv *model.Conversation) error {
	if !validID.MatchString(string(conv.ID)) {
		return goerr.New("invalid conversation ID", goerr.V("conversation_id", conv.ID))
	}

	conv.UpdatedAt = r.now()
	if conv.Messages == nil {
		conv.Messages = []model.Message{}
	}

	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to marshal conversation", goerr.V("conversation_id", conv.ID))
	}

	writer, err := r.storage.Put(ctx, documentKey(conv.ID))
	if err != nil {
		return goerr.Wrap(err, "failed to create storage writer", goerr.V("conversation_id", conv.ID))
	}

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return goerr.Wrap(err, "failed to write conversation", goerr.V("conversation_id", conv.ID))
	}

	if err := writer.Close(); err != nil {
		return goerr.Wrap(err, "failed to close storage writer", goerr.V("conversation_id", conv.ID))
	}

	logging.From(ctx).Debug("saved conversation", "conversation_id", conv.ID, "messages", len(conv.Messages))
	return nil
}

// readDocument reads and decodes the document stored under key
func (r *Conversation) readDocument(ctx context.Context, key string) (*model.Conversation, error) {
	reader, err := r.storage.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read conversation", goerr.V("key", key))
	}

	var conv model.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal conversation", goerr.V("key", key))
	}
	if documentKey(conv.ID) != key {
		return nil, goerr.New("conversation ID does not match its key", goerr.V("key", key), goerr.V("conversation_id", conv.ID))
	}
	if conv.Messages == nil {
		conv.Messages = []model.Message{}
	}

	return &conv, nil
}

// Load returns nil without error when the conversation does not exist or its
// document cannot be decoded.
func (r *Conversation) Load(ctx context.Context, id model.ConversationID) (*model.Conversation, error) {
	logger := logging.From(ctx).With("conversation_id", id)

	if !validID.MatchString(string(id)) {
		logger.Warn("invalid conversation ID")
		return nil, nil
	}

	conv, err := r.readDocument(ctx, documentKey(id))
	if err != nil {
		if errors.Is(err, adapter.ErrObjectNotFound) {
			logger.Warn("conversation not found")
		} else {
			logger.Error("failed to load conversation", "error", err)
		}
		return nil, nil
	}

	logger.Debug("loaded conversation")
	return conv, nil
}

func (r *Conversation) List(ctx context.Context) ([]*model.Summary, error) {
	keys, err := r.storage.List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list conversations")
	}

	summaries := make([]*model.Summary, 0, len(keys))
	for _, key := range keys {
		if !strings.HasSuffix(key, documentExt) {
			continue
		}

		conv, err := r.readDocument(ctx, key)
		if err != nil {
			logging.From(ctx).Warn("failed to read conversation document", "key", key, "error", err)
			continue
		}
		summaries = append(summaries, conv.Summary())
	}

	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].UpdatedAt.Equal(summaries[j].UpdatedAt) {
			return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
		}
		return summaries[i].ID < summaries[j].ID
	})

	return summaries, nil
}

func (r *Conversation) Delete(ctx context.Context, id model.ConversationID) (bool, error) {
	logger := logging.From(ctx).With("conversation_id", id)

	if !validID.MatchString(string(id)) {
		logger.Warn("conversation not found for deletion")
		return false, nil
	}

	if err := r.storage.Delete(ctx, documentKey(id)); err != nil {
		if errors.Is(err, adapter.ErrObjectNotFound) {
			logger.Warn("conversation not found for deletion")
			return false, nil
		}
		return false, goerr.Wrap(err, "failed to delete conversation", goerr.V("conversation_id", id))
	}

	logger.Info("deleted conversation")
	return true, nil
}

// AddMessage returns nil without error when the conversation does not exist
func (r *Conversation) AddMessage(ctx context.Context, id model.ConversationID, role model.Role, content string) (*model.Conversation, error) {
	if err := role.Validate(); err != nil {
		return nil, err
	}

	conv, err := r.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, nil
	}

	conv.Messages = append(conv.Messages, model.Message{
		Role:      role,
		Content:   content,
		Timestamp: r.now(),
	})

	if err := r.Save(ctx, conv); err != nil {
		return nil, goerr.Wrap(err, "failed to add message", goerr.V("role", role))
	}

	return conv, nil
}
