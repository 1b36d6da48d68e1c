package repository

import (
	"context"
	"fmt"

	"microcap-trading/config"
	"microcap-trading/pkg/logger"
)

// SystemInstruction is sent with every trading prompt.
const SystemInstruction = "You are a professional portfolio analyst. Always respond with valid JSON in the exact format requested."

// LLMRepository sends one prompt and returns the model's text. It never retries;
// transport and provider failures come back as errors.
type LLMRepository interface {
	Complete(ctx context.Context, prompt string, modelName string) (string, error)
	Provider() string
}

// NewLLMRepository selects the gateway for cfg.LLM.Provider.
func NewLLMRepository(ctx context.Context, cfg *config.Config, log *logger.Logger) (LLMRepository, error) {
	switch cfg.LLM.Provider {
	case "", "openai":
		return NewOpenAIRepository(ctx, cfg, log)
	case "gemini":
		return NewGeminiRepository(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLM.Provider)
	}
}
