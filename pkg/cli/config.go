package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/aide-dev/aide/pkg/adapter"
	"github.com/aide-dev/aide/pkg/repository"
	"github.com/aide-dev/aide/pkg/service/gateway"
	"github.com/aide-dev/aide/pkg/usecase/assistant"
	"github.com/aide-dev/aide/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// config holds configuration values
type config struct {
	logLevel string

	// Gemini
	geminiAPIKey   string
	geminiProject  string
	geminiLocation string
	geminiModel    string
	extraContext   string

	// Storage
	storageDir    string
	storageBucket string
	storagePrefix string
}

// loggingFlags returns the log level flag
func loggingFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Aliases:     []string{"l"},
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("AIDE_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
	}
}

// geminiFlags returns flags for the model backend and prompt context
func geminiFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Usage:       "Gemini Developer API key",
			Sources:     cli.EnvVars("GEMINI_API_KEY"),
			Destination: &cfg.geminiAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini on Vertex AI",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini on Vertex AI",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model name",
			Value:       adapter.DefaultGenerativeModel,
			Sources:     cli.EnvVars("GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
		&cli.StringFlag{
			Name:        "extra-context",
			Usage:       "Additional context added to every prompt",
			Sources:     cli.EnvVars("EXTRA_ASSISTANT_CONTEXT"),
			Destination: &cfg.extraContext,
		},
	}
}

// storageFlags returns flags for conversation storage
func storageFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "storage-dir",
			Usage:       "Local directory for conversation documents",
			Value:       "conversations",
			Sources:     cli.EnvVars("AIDE_CONVERSATIONS_DIR"),
			Destination: &cfg.storageDir,
		},
		&cli.StringFlag{
			Name:        "storage-bucket",
			Usage:       "Cloud Storage bucket for conversation documents (overrides --storage-dir)",
			Sources:     cli.EnvVars("AIDE_STORAGE_BUCKET"),
			Destination: &cfg.storageBucket,
		},
		&cli.StringFlag{
			Name:        "storage-prefix",
			Usage:       "Object name prefix within the bucket",
			Value:       "conversations/",
			Sources:     cli.EnvVars("AIDE_STORAGE_PREFIX"),
			Destination: &cfg.storagePrefix,
		},
	}
}

// configureLogging installs the process logger
func (cfg *config) configureLogging(w io.Writer) *slog.Logger {
	return logging.Configure(cfg.logLevel, w)
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	opts := []adapter.GeminiOption{
		adapter.WithGenerativeModel(cfg.geminiModel),
	}

	switch {
	case cfg.geminiAPIKey != "":
		opts = append(opts, adapter.WithAPIKey(cfg.geminiAPIKey))
	case cfg.geminiProject != "":
		if cfg.geminiLocation == "" {
			return nil, goerr.New("gemini-location is required")
		}
		opts = append(opts, adapter.WithVertexAI(cfg.geminiProject, cfg.geminiLocation))
	default:
		return nil, goerr.New("gemini-api-key or gemini-project is required")
	}

	gemini, err := adapter.NewGemini(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gemini client")
	}
	return gemini, nil
}

// newStorage creates the Storage adapter: Cloud Storage when a bucket is
// configured, a local directory otherwise
func (cfg *config) newStorage(ctx context.Context) (adapter.Storage, error) {
	if cfg.storageBucket != "" {
		storage, err := adapter.NewStorage(ctx, cfg.storageBucket, adapter.WithPrefix(cfg.storagePrefix))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create storage", goerr.V("bucket", cfg.storageBucket))
		}
		return storage, nil
	}

	if cfg.storageDir == "" {
		return nil, goerr.New("storage-dir or storage-bucket is required")
	}
	storage, err := adapter.NewFileStorage(cfg.storageDir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage", goerr.V("dir", cfg.storageDir))
	}
	return storage, nil
}

// newRepository creates the conversation store
func (cfg *config) newRepository(ctx context.Context) (*repository.Conversation, error) {
	storage, err := cfg.newStorage(ctx)
	if err != nil {
		return nil, err
	}
	return repository.New(storage), nil
}

// newUseCase wires the assistant use case and returns it with its store
func (cfg *config) newUseCase(ctx context.Context) (*assistant.UseCase, *repository.Conversation, error) {
	repo, err := cfg.newRepository(ctx)
	if err != nil {
		return nil, nil, err
	}

	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, nil, err
	}

	gw := gateway.New(gemini, gateway.WithModel(cfg.geminiModel))
	uc := assistant.New(repo, gw, assistant.WithExtraContext(cfg.extraContext))
	return uc, repo, nil
}
