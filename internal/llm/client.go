// Package llm wraps the language-model transport behind a minimal
// prompt-in/text-out interface so the pipeline can be tested with fakes.
package llm

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"

	"taskpilot-backend/internal/config"
)

// Model is the language-model call contract: one rendered prompt in, raw
// text out. Implementations may fail or time out; callers classify those
// failures.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client is the production Model backed by langchaingo.
type Client struct {
	model   llms.Model
	timeout time.Duration
}

// New builds a Client for the configured provider ("gemini" or "ollama").
func New(cfg *config.Config) (*Client, error) {
	var (
		model llms.Model
		err   error
	)

	switch cfg.LLMProvider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini API key is required when using the gemini provider. Set GEMINI_API_KEY")
		}
		model, err = googleai.New(
			context.Background(),
			googleai.WithAPIKey(cfg.GeminiAPIKey),
			googleai.WithDefaultModel(cfg.GeminiModel),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gemini LLM: %w", err)
		}
		log.Printf("[LLM] Gemini initialized with model %s.", cfg.GeminiModel)

	case "ollama":
		model, err = ollama.New(
			ollama.WithServerURL(cfg.OllamaEndpoint),
			ollama.WithModel(cfg.OllamaModel),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Ollama LLM: %w", err)
		}
		log.Printf("[LLM] Ollama initialized with model %s at %s.", cfg.OllamaModel, cfg.OllamaEndpoint)

	default:
		return nil, fmt.Errorf("unsupported LLM provider %q (expected \"gemini\" or \"ollama\")", cfg.LLMProvider)
	}

	return &Client{model: model, timeout: cfg.RequestTimeout}, nil
}

// Generate runs one model call with the client's timeout applied. The call
// is one-shot: no retry on failure.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	completion, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt, llms.WithJSONMode())
	if err != nil {
		return "", fmt.Errorf("model call failed: %w", err)
	}
	return completion, nil
}
