package interfaces

import (
	"context"

	"github.com/aide-dev/aide/pkg/model"
)

// Repository defines the interface for conversation persistence. Lookups of
// a missing conversation return nil without error.
type Repository interface {
	// Create stores a new empty conversation and returns its ID
	Create(ctx context.Context) (model.ConversationID, error)

	// Save overwrites the conversation and refreshes its UpdatedAt
	Save(ctx context.Context, conv *model.Conversation) error

	// Load retrieves a conversation by ID
	Load(ctx context.Context, id model.ConversationID) (*model.Conversation, error)

	// List returns summaries of all conversations, most recently updated first
	List(ctx context.Context) ([]*model.Summary, error)

	// Delete removes a conversation. It returns false if it did not exist.
	Delete(ctx context.Context, id model.ConversationID) (bool, error)

	// AddMessage appends a message to a conversation and saves it
	AddMessage(ctx context.Context, id model.ConversationID, role model.Role, content string) (*model.Conversation, error)
}
