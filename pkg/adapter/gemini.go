package adapter

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

const DefaultGenerativeModel = "gemini-2.5-flash"

type Gemini interface {
	// GenerateContent calls the model once. An empty model name selects the
	// client's default generative model.
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type GeminiClient struct {
	client          *genai.Client
	generativeModel string
}

type geminiConfig struct {
	apiKey          string
	project         string
	location        string
	generativeModel string
}

type GeminiOption func(*geminiConfig)

// WithAPIKey selects the Gemini Developer API backend
func WithAPIKey(apiKey string) GeminiOption {
	return func(cfg *geminiConfig) {
		cfg.apiKey = apiKey
	}
}

// WithVertexAI selects the Vertex AI backend
func WithVertexAI(project, location string) GeminiOption {
	return func(cfg *geminiConfig) {
		cfg.project = project
		cfg.location = location
	}
}

func WithGenerativeModel(model string) GeminiOption {
	return func(cfg *geminiConfig) {
		cfg.generativeModel = model
	}
}

// NewGemini creates a genai client. An API key takes precedence over a
// Vertex AI project; one of them is required.
func NewGemini(ctx context.Context, opts ...GeminiOption) (*GeminiClient, error) {
	cfg := &geminiConfig{
		generativeModel: DefaultGenerativeModel,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var clientConfig *genai.ClientConfig
	switch {
	case cfg.apiKey != "":
		clientConfig = &genai.ClientConfig{
			APIKey:  cfg.apiKey,
			Backend: genai.BackendGeminiAPI,
		}
	case cfg.project != "":
		if cfg.location == "" {
			return nil, goerr.New("location is required for Vertex AI", goerr.V("project", cfg.project))
		}
		clientConfig = &genai.ClientConfig{
			Project:  cfg.project,
			Location: cfg.location,
			Backend:  genai.BackendVertexAI,
		}
	default:
		return nil, goerr.New("either API key or Vertex AI project is required for Gemini")
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}

	return &GeminiClient{
		client:          client,
		generativeModel: cfg.generativeModel,
	}, nil
}

// DefaultModel returns the model used when GenerateContent gets no model name
func (g *GeminiClient) DefaultModel() string {
	return g.generativeModel
}

func (g *GeminiClient) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if model == "" {
		model = g.generativeModel
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content", goerr.V("model", model))
	}
	return resp, nil
}
