package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

type ConversationID string

// NewConversationID generates a new unique ConversationID
func NewConversationID() ConversationID {
	return ConversationID(uuid.New().String())
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Validate checks if the role is valid
func (r Role) Validate() error {
	switch r {
	case RoleUser, RoleAssistant:
		return nil
	default:
		return goerr.New("invalid message role", goerr.V("role", r))
	}
}

// Message is a single turn of a conversation. It is never modified after
// being appended.
type Message struct {
	Role      Role      `json:"role" yaml:"role"`
	Content   string    `json:"content" yaml:"content"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Conversation is a persisted, ordered sequence of messages
type Conversation struct {
	ID        ConversationID `json:"id" yaml:"id"`
	CreatedAt time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" yaml:"updated_at"`
	Messages  []Message      `json:"messages" yaml:"messages"`
}

// Summary is the listing view of a conversation, without messages
type Summary struct {
	ID           ConversationID `json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	MessageCount int            `json:"message_count"`
}

// Summary returns metadata of the conversation
func (c *Conversation) Summary() *Summary {
	return &Summary{
		ID:           c.ID,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		MessageCount: len(c.Messages),
	}
}

// Turn is a role/content pair sent to the model as history
type Turn struct {
	Role    Role
	Content string
}

// Turns returns the last limit messages as history turns. limit <= 0 returns
// all messages.
func (c *Conversation) Turns(limit int) []Turn {
	msgs := c.Messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}

	turns := make([]Turn, 0, len(msgs))
	for _, msg := range msgs {
		turns = append(turns, Turn{Role: msg.Role, Content: msg.Content})
	}
	return turns
}
