package gateway

import (
	"context"
	"errors"
	"strings"

	"github.com/aide-dev/aide/pkg/adapter"
	"github.com/aide-dev/aide/pkg/interfaces"
	"github.com/aide-dev/aide/pkg/model"
	"github.com/aide-dev/aide/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

const (
	DefaultTemperature     float32 = 0.7
	DefaultMaxOutputTokens int32   = 2048

	msgEmptyPrompt  = "Prompt is empty. Please enter a question or request."
	msgNoText       = "The assistant didn't return any text. Try again."
	msgBackendError = "Something went wrong talking to the AI backend. Check logs for details and try again."
)

// Gateway performs the single call to Gemini for a composed prompt. It does
// not retry, stream, or cache.
type Gateway struct {
	gemini          adapter.Gemini
	model           string
	temperature     float32
	maxOutputTokens int32
}

var _ interfaces.Gateway = (*Gateway)(nil)

type Option func(*Gateway)

// WithModel sets the model used when the input does not name one. Empty
// leaves the choice to the Gemini adapter.
func WithModel(model string) Option {
	return func(g *Gateway) {
		g.model = model
	}
}

func WithTemperature(temperature float32) Option {
	return func(g *Gateway) {
		g.temperature = temperature
	}
}

func WithMaxOutputTokens(n int32) Option {
	return func(g *Gateway) {
		g.maxOutputTokens = n
	}
}

func New(gemini adapter.Gemini, opts ...Option) *Gateway {
	g := &Gateway{
		gemini:          gemini,
		temperature:     DefaultTemperature,
		maxOutputTokens: DefaultMaxOutputTokens,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func toContent(turn model.Turn) *genai.Content {
	if turn.Role == model.RoleAssistant {
		return genai.NewContentFromText(turn.Content, genai.RoleModel)
	}
	return genai.NewContentFromText(turn.Content, genai.RoleUser)
}

// Generate returns the model's text for the prompt. All failures are
// *model.AssistantError; provider details are only logged.
func (g *Gateway) Generate(ctx context.Context, input interfaces.GenerateInput) (string, error) {
	modelName := input.Model
	if modelName == "" {
		modelName = g.model
	}

	logger := logging.From(ctx).With(
		"prompt_length", len(input.Prompt),
		"history_length", len(input.History),
		"model", modelName,
	)
	logger.Info("generating response")

	if strings.TrimSpace(input.Prompt) == "" {
		return "", model.NewAssistantError(msgEmptyPrompt, nil)
	}

	contents := make([]*genai.Content, 0, len(input.History)+1)
	for _, turn := range input.History {
		contents = append(contents, toContent(turn))
	}
	contents = append(contents, genai.NewContentFromText(input.Prompt, genai.RoleUser))

	temperature := g.temperature
	if input.Temperature != nil {
		temperature = *input.Temperature
	}
	maxOutputTokens := g.maxOutputTokens
	if input.MaxOutputTokens != nil {
		maxOutputTokens = *input.MaxOutputTokens
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(temperature),
		MaxOutputTokens: maxOutputTokens,
	}

	resp, err := g.gemini.GenerateContent(ctx, modelName, contents, config)
	if err != nil {
		attrs := []any{"error", err}
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			attrs = append(attrs, "api_code", apiErr.Code, "api_status", apiErr.Status)
		}
		logger.Error("unexpected error calling Gemini API", attrs...)
		return "", model.NewAssistantError(msgBackendError, err)
	}

	text := extractText(resp)
	if text == "" {
		attrs := []any{}
		if resp != nil && len(resp.Candidates) > 0 {
			attrs = append(attrs, "finish_reason", resp.Candidates[0].FinishReason)
		}
		logger.Warn("Gemini returned no text", attrs...)
		return "", model.NewAssistantError(msgNoText, goerr.New("empty response from Gemini", goerr.V("model", modelName)))
	}

	logger.Info("generated response", "response_length", len(text))
	return text, nil
}

// extractText prefers the SDK's aggregated text. When that is empty, it
// falls back to the first candidate whose non-thought text parts are not
// blank, joined by newline. Later candidates are never merged in.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	if text := resp.Text(); strings.TrimSpace(text) != "" {
		return text
	}

	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}

		var parts []string
		for _, part := range cand.Content.Parts {
			if part == nil || part.Thought || part.Text == "" {
				continue
			}
			parts = append(parts, part.Text)
		}

		if text := strings.TrimSpace(strings.Join(parts, "\n")); text != "" {
			return text
		}
	}

	return ""
}
