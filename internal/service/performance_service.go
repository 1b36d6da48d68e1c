package service

import (
	"context"
	"fmt"

	"microcap-trading/config"
	"microcap-trading/internal/chart"
	"microcap-trading/internal/model"
	"microcap-trading/internal/performance"
	"microcap-trading/internal/repository"
	"microcap-trading/pkg/logger"
)

type PerformanceService interface {
	// Report computes the metrics and the normalized benchmark for the current portfolio log.
	Report(ctx context.Context) (*model.PerformanceReport, error)
	// RenderChart builds the report and writes the chart to the configured path.
	RenderChart(ctx context.Context) (*model.PerformanceReport, error)
}

type performanceService struct {
	cfg           *config.Config
	log           *logger.Logger
	portfolioRepo repository.PortfolioRepository
	benchmarkRepo repository.BenchmarkRepository
	renderer      chart.Renderer
}

func NewPerformanceService(
	cfg *config.Config,
	log *logger.Logger,
	portfolioRepo repository.PortfolioRepository,
	benchmarkRepo repository.BenchmarkRepository,
	renderer chart.Renderer,
) PerformanceService {
	return &performanceService{
		cfg:           cfg,
		log:           log,
		portfolioRepo: portfolioRepo,
		benchmarkRepo: benchmarkRepo,
		renderer:      renderer,
	}
}

func (s *performanceService) Report(ctx context.Context) (*model.PerformanceReport, error) {
	series, err := s.portfolioRepo.LoadEquitySeries(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to load equity series", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to load equity series: %w", err)
	}

	largest, err := performance.LargestGain(series)
	if err != nil {
		return nil, err
	}
	drawdown, err := performance.MaxDrawdown(series)
	if err != nil {
		return nil, err
	}

	baselineDate, err := s.cfg.Portfolio.Baseline()
	if err != nil {
		return nil, fmt.Errorf("invalid baseline date: %w", err)
	}
	_, end, err := performance.DateRange(series)
	if err != nil {
		return nil, err
	}

	ticker := s.cfg.Benchmark.Ticker
	prices, err := s.benchmarkRepo.GetDailyCloses(ctx, ticker, baselineDate, end)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to fetch benchmark", logger.StringField("ticker", ticker), logger.ErrorField(err))
		return nil, fmt.Errorf("failed to fetch benchmark %s: %w", ticker, err)
	}
	prices = performance.ClipRange(prices, baselineDate, end)

	anchor := s.cfg.Benchmark.AnchorPrice
	if anchor <= 0 {
		anchor, err = performance.AnchorPrice(prices, baselineDate)
		if err != nil {
			return nil, err
		}
	}

	baselineEquity := s.cfg.Portfolio.BaselineEquity
	benchmark, err := performance.NormalizeBenchmark(prices, anchor, baselineEquity)
	if err != nil {
		return nil, err
	}

	report := &model.PerformanceReport{
		Portfolio:       series,
		Benchmark:       benchmark,
		BenchmarkTicker: ticker,
		LargestRun:      largest,
		MaxDrawdown:     drawdown,
		BaselineEquity:  baselineEquity,
		FinalReturnPct:  performance.ReturnPct(baselineEquity, series[len(series)-1].TotalEquity),
	}
	if n := len(benchmark); n > 0 {
		report.BenchmarkReturnPct = performance.ReturnPct(baselineEquity, benchmark[n-1].NormalizedValue)
	}

	s.log.InfoContext(ctx, "Performance report computed",
		logger.IntField("observations", len(series)),
		logger.IntField("benchmark_points", len(benchmark)),
		logger.FloatField("largest_gain_pct", largest.GainPct),
		logger.FloatField("max_drawdown_pct", drawdown.DrawdownPct))
	return report, nil
}

func (s *performanceService) RenderChart(ctx context.Context) (*model.PerformanceReport, error) {
	report, err := s.Report(ctx)
	if err != nil {
		return nil, err
	}
	path := s.cfg.Chart.OutputPath
	if err := s.renderer.Render(*report, path, s.cfg.Chart.Title); err != nil {
		s.log.ErrorContext(ctx, "Failed to render chart", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	report.ChartPath = path
	return report, nil
}
