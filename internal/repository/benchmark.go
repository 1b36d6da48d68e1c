package repository

import (
	"context"
	"fmt"
	"time"

	"microcap-trading/config"
	"microcap-trading/internal/model"
	"microcap-trading/pkg/cache"
	"microcap-trading/pkg/logger"
)

// BenchmarkRepository returns daily closes for an index between two dates, inclusive.
type BenchmarkRepository interface {
	GetDailyCloses(ctx context.Context, ticker string, start, end time.Time) ([]model.PricePoint, error)
}

// NewBenchmarkRepository selects the market data provider from config.
func NewBenchmarkRepository(cfg *config.Config, c cache.Cache, log *logger.Logger) (BenchmarkRepository, error) {
	switch cfg.Benchmark.Provider {
	case "", "yahoo":
		return NewYahooFinanceRepository(cfg, c, log), nil
	case "finance_go":
		return NewFinanceGoRepository(cfg, c, log), nil
	default:
		return nil, fmt.Errorf("unknown benchmark provider: %s", cfg.Benchmark.Provider)
	}
}

func benchmarkCacheKey(provider, ticker string, start, end time.Time) string {
	return fmt.Sprintf("benchmark:%s:%s:%s:%s", provider, ticker, start.Format(time.DateOnly), end.Format(time.DateOnly))
}
