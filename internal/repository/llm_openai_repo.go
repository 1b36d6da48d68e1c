package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"microcap-trading/config"
	"microcap-trading/pkg/logger"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"
)

var ErrMissingAPIKey = errors.New("llm api key is not configured")

type chatGenerator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// openAIRepository talks to any OpenAI-compatible chat completion endpoint through eino.
type openAIRepository struct {
	cfg            *config.Config
	logger         *logger.Logger
	chatModel      chatGenerator
	requestLimiter *rate.Limiter
}

func NewOpenAIRepository(ctx context.Context, cfg *config.Config, log *logger.Logger) (LLMRepository, error) {
	if cfg.LLM.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	temperature := cfg.LLM.Temperature
	maxTokens := cfg.LLM.MaxTokens
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create openai chat model: %w", err)
	}

	return newOpenAIRepository(cfg, log, chatModel), nil
}

func newOpenAIRepository(cfg *config.Config, log *logger.Logger, chatModel chatGenerator) *openAIRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.LLM.MaxRequestPerMinute)
	return &openAIRepository{
		cfg:            cfg,
		logger:         log,
		chatModel:      chatModel,
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
	}
}

func (r *openAIRepository) Provider() string {
	return "openai"
}

func (r *openAIRepository) Complete(ctx context.Context, prompt string, modelName string) (string, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return "", err
	}

	var opts []model.Option
	if modelName != "" {
		opts = append(opts, model.WithModel(modelName))
	}

	start := time.Now()
	msg, err := r.chatModel.Generate(ctx, []*schema.Message{
		schema.SystemMessage(SystemInstruction),
		schema.UserMessage(prompt),
	}, opts...)
	if err != nil {
		r.logger.ErrorContext(ctx, "OpenAI request failed", logger.ErrorField(err))
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if msg == nil {
		return "", errors.New("openai returned no message")
	}

	r.logger.InfoContext(ctx, "OpenAI response received",
		logger.StringField("model", firstNonEmpty(modelName, r.cfg.LLM.Model)),
		logger.IntField("chars", len(msg.Content)),
		logger.Field("duration", time.Since(start)))
	return msg.Content, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
