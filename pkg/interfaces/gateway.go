package interfaces

import (
	"context"

	"github.com/aide-dev/aide/pkg/model"
)

// GenerateInput is a single request to the language model
type GenerateInput struct {
	Prompt  string
	Model   string
	History []model.Turn

	// Nil selects the gateway defaults
	Temperature     *float32
	MaxOutputTokens *int32
}

// Gateway sends a composed prompt to the language model and returns its text.
// Every failure is reported as *model.AssistantError.
type Gateway interface {
	Generate(ctx context.Context, input GenerateInput) (string, error)
}
