package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"microcap-trading/config"
	"microcap-trading/pkg/logger"
	"microcap-trading/pkg/utils"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// geminiRepository sends trading prompts to Google Gemini.
type geminiRepository struct {
	cfg            *config.Config
	logger         *logger.Logger
	models         contentGenerator
	requestLimiter *rate.Limiter
}

func NewGeminiRepository(ctx context.Context, cfg *config.Config, log *logger.Logger) (LLMRepository, error) {
	if cfg.LLM.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	genAiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.LLM.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return newGeminiRepository(cfg, log, genAiClient.Models), nil
}

func newGeminiRepository(cfg *config.Config, log *logger.Logger, models contentGenerator) *geminiRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.LLM.MaxRequestPerMinute)
	return &geminiRepository{
		cfg:            cfg,
		logger:         log,
		models:         models,
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
	}
}

func (r *geminiRepository) Provider() string {
	return "gemini"
}

func (r *geminiRepository) Complete(ctx context.Context, prompt string, modelName string) (string, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return "", err
	}
	if r.cfg.LLM.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.LLM.Timeout)
		defer cancel()
	}

	modelName = firstNonEmpty(modelName, r.cfg.LLM.Model)
	resp, err := r.models.GenerateContent(ctx, modelName, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     utils.ToPointer(r.cfg.LLM.Temperature),
		MaxOutputTokens: int32(r.cfg.LLM.MaxTokens),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: SystemInstruction}},
		},
	})
	if err != nil {
		r.logger.ErrorContext(ctx, "Gemini request failed", logger.ErrorField(err))
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", errors.New("gemini returned an empty response")
	}
	r.logger.InfoContext(ctx, "Gemini response received",
		logger.StringField("model", modelName),
		logger.IntField("chars", len(text)))
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
