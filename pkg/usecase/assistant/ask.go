package assistant

import (
	"context"

	"github.com/aide-dev/aide/pkg/interfaces"
	"github.com/aide-dev/aide/pkg/model"
	"github.com/aide-dev/aide/pkg/prompt"
	"github.com/aide-dev/aide/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

type AskInput struct {
	Prompt string
	// ConversationID is optional; a new conversation is started when it is
	// empty or no longer exists
	ConversationID model.ConversationID
	Model          string

	Temperature     *float32
	MaxOutputTokens *int32
}

type AskOutput struct {
	Response       string
	ConversationID model.ConversationID
	// Created is true when the answer went to a newly started conversation
	Created bool
	Flags   prompt.Flags
}

// Ask answers the prompt within a conversation and records both turns.
// Validation and model failures are returned as *model.ValidationError and
// *model.AssistantError; anything else is an internal error.
func (u *UseCase) Ask(ctx context.Context, input AskInput) (*AskOutput, error) {
	logger := logging.From(ctx).With("prompt_length", len(input.Prompt))

	conv, created, err := u.Resolve(ctx, input.ConversationID)
	if err != nil {
		return nil, err
	}
	logger = logger.With("conversation_id", conv.ID)

	contextual, err := prompt.Build(prompt.Input{
		Prompt:       input.Prompt,
		ExtraContext: u.extraContext,
		Now:          u.now(),
	})
	if err != nil {
		logger.Warn("rejected prompt", "error", err)
		return nil, err
	}
	logger = logger.With(
		"is_sensitive", contextual.Flags.IsSensitive,
		"is_research", contextual.Flags.IsResearch,
		"is_time_sensitive", contextual.Flags.IsTimeSensitive,
	)
	logger.Info("asking assistant")

	answer, err := u.gateway.Generate(logging.With(ctx, logger), interfaces.GenerateInput{
		Prompt:          contextual.Text,
		Model:           input.Model,
		History:         conv.Turns(HistoryLimit),
		Temperature:     input.Temperature,
		MaxOutputTokens: input.MaxOutputTokens,
	})
	if err != nil {
		return nil, err
	}

	// Read-modify-write per message; a concurrent writer on the same
	// conversation can overwrite these turns.
	if _, err := u.addMessage(ctx, conv.ID, model.RoleUser, input.Prompt); err != nil {
		return nil, err
	}
	if _, err := u.addMessage(ctx, conv.ID, model.RoleAssistant, answer); err != nil {
		return nil, err
	}

	return &AskOutput{
		Response:       answer,
		ConversationID: conv.ID,
		Created:        created,
		Flags:          contextual.Flags,
	}, nil
}

// Resolve loads the conversation, or creates a new one when id is empty or
// no longer exists. created reports whether a new conversation was started.
func (u *UseCase) Resolve(ctx context.Context, id model.ConversationID) (*model.Conversation, bool, error) {
	if id != "" {
		conv, err := u.repo.Load(ctx, id)
		if err != nil {
			return nil, false, goerr.Wrap(err, "failed to load conversation", goerr.V("conversation_id", id))
		}
		if conv != nil {
			return conv, false, nil
		}
	}

	newID, err := u.repo.Create(ctx)
	if err != nil {
		return nil, false, goerr.Wrap(err, "failed to create conversation")
	}

	conv, err := u.repo.Load(ctx, newID)
	if err != nil {
		return nil, false, goerr.Wrap(err, "failed to load conversation", goerr.V("conversation_id", newID))
	}
	if conv == nil {
		return nil, false, model.NewAssistantError("Failed to create or load conversation. Please try again.",
			goerr.New("created conversation is not loadable", goerr.V("conversation_id", newID)))
	}
	return conv, true, nil
}

func (u *UseCase) addMessage(ctx context.Context, id model.ConversationID, role model.Role, content string) (*model.Conversation, error) {
	conv, err := u.repo.AddMessage(ctx, id, role, content)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to save message", goerr.V("conversation_id", id), goerr.V("role", role))
	}
	if conv == nil {
		return nil, goerr.New("conversation disappeared while saving message", goerr.V("conversation_id", id), goerr.V("role", role))
	}
	return conv, nil
}
