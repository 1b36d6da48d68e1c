package service

import (
	"microcap-trading/config"
	"microcap-trading/internal/chart"
	"microcap-trading/internal/repository"
	"microcap-trading/pkg/logger"
	"microcap-trading/pkg/telegram"
	"microcap-trading/pkg/validation"
)

type Service struct {
	PerformanceService PerformanceService
	AutomationService  AutomationService
	SchedulerService   SchedulerService
	TradeExecutor      TradeExecutor
}

func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
	notifier telegram.Notifier,
) *Service {
	validate := validation.New()
	executor := NewTradeExecutor(log, validate, cfg.Automation.RejectOversell)

	performanceService := NewPerformanceService(cfg, log, repo.PortfolioRepo, repo.BenchmarkRepo, chart.NewRenderer(log))
	automationService := NewAutomationService(cfg, log, repo.PortfolioRepo, repo.LLMRepo, repo.ResponseLogRepo,
		NewResponseParser(validate), executor, notifier)
	schedulerService := NewSchedulerService(cfg, log, automationService, performanceService)

	return &Service{
		PerformanceService: performanceService,
		AutomationService:  automationService,
		SchedulerService:   schedulerService,
		TradeExecutor:      executor,
	}
}
