package repository

import (
	"context"

	"microcap-trading/config"
	"microcap-trading/pkg/cache"
	"microcap-trading/pkg/logger"

	"gorm.io/gorm"
)

type Repository struct {
	PortfolioRepo   PortfolioRepository
	BenchmarkRepo   BenchmarkRepository
	ResponseLogRepo ResponseLogRepository
	// LLMRepo is nil until SetLLM is called; graph-only commands never need a key.
	LLMRepo LLMRepository
}

func NewRepository(cfg *config.Config, db *gorm.DB, c cache.Cache, log *logger.Logger) (*Repository, error) {
	benchmarkRepo, err := NewBenchmarkRepository(cfg, c, log)
	if err != nil {
		return nil, err
	}

	return &Repository{
		PortfolioRepo:   NewPortfolioRepository(cfg, log),
		BenchmarkRepo:   benchmarkRepo,
		ResponseLogRepo: NewResponseLogRepository(cfg, db, log),
	}, nil
}

// SetLLM builds the configured LLM gateway.
func (r *Repository) SetLLM(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	llmRepo, err := NewLLMRepository(ctx, cfg, log)
	if err != nil {
		return err
	}
	r.LLMRepo = llmRepo
	return nil
}
