// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/markdave123-py/rulecheck/internal/api/handlers"
	"github.com/markdave123-py/rulecheck/internal/config"
	"github.com/markdave123-py/rulecheck/internal/core"
	"github.com/markdave123-py/rulecheck/internal/core/extraction"
	"github.com/markdave123-py/rulecheck/internal/core/llm"
	objectclient "github.com/markdave123-py/rulecheck/internal/core/object-client"
	"github.com/markdave123-py/rulecheck/internal/core/pipeline"
	"github.com/markdave123-py/rulecheck/internal/core/prompt"
	"github.com/markdave123-py/rulecheck/internal/core/verdict"
)

type App struct {
	Pipeline     *pipeline.Pipeline
	ObjectClient core.ObjectClient
	LLM          *llm.GeminiLLM
	Server       *Server
	Logger       *slog.Logger
}

// NewLogger returns the JSON logger every component derives from.
func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	p, llmProvider, err := NewPipeline(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var objects core.ObjectClient
	objClient, err := objectclient.NewS3Client(ctx, cfg, logger)
	switch {
	case err == nil:
		objects = objClient
	case errors.Is(err, objectclient.ErrNotConfigured):
		logger.Info("object storage disabled")
	default:
		_ = llmProvider.Close()
		return nil, err
	}

	checkHandler := handlers.NewCheckHandler(p, objects, cfg.BucketName, cfg.MaxUploadBytes, logger)
	server := NewServer(cfg, checkHandler, logger)

	return &App{
		Pipeline:     p,
		ObjectClient: objects,
		LLM:          llmProvider,
		Server:       server,
		Logger:       logger,
	}, nil
}

// NewPipeline validates cfg and wires the extractor, prompt builder and
// Gemini-backed requester. The caller closes the returned LLM client.
func NewPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pipeline.Pipeline, *llm.GeminiLLM, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	llmProvider, err := llm.NewGeminiLLM(ctx, cfg.AIAPIKey, cfg.GenModel)
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't initialize the llm provider: %w", err)
	}
	logger.Info("llm provider initialized", "model", cfg.GenModel)

	extractor := extraction.NewDocconvExtractor(cfg.TempDir, logger)
	requester, err := verdict.NewRequester(llmProvider, prompt.ResultSchema(), logger)
	if err != nil {
		_ = llmProvider.Close()
		return nil, nil, fmt.Errorf("couldn't initialize the verdict requester: %w", err)
	}
	return pipeline.New(extractor, prompt.NewBuilder(cfg.MaxDocumentChars), requester, logger), llmProvider, nil
}

func (a *App) Close() {
	if a.LLM != nil {
		if err := a.LLM.Close(); err != nil {
			a.Logger.Warn("llm client close failed", "error", err)
		}
	}
}
