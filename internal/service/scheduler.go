package service

import (
	"context"
	"fmt"
	"time"

	"microcap-trading/config"
	"microcap-trading/internal/dto"
	"microcap-trading/pkg/logger"
	"microcap-trading/pkg/utils"

	"github.com/robfig/cron/v3"
)

const defaultJobTimeout = 10 * time.Minute

type SchedulerService interface {
	// Start registers the configured jobs and starts the cron loop. It returns once the
	// loop is running.
	Start(ctx context.Context) error
	// Stop waits for running jobs to finish.
	Stop()
	Entries() []cron.Entry
}

type schedulerService struct {
	cfg                *config.Config
	log                *logger.Logger
	cron               *cron.Cron
	automationService  AutomationService
	performanceService PerformanceService
}

func NewSchedulerService(
	cfg *config.Config,
	log *logger.Logger,
	automationService AutomationService,
	performanceService PerformanceService,
) SchedulerService {
	cronLog := cronLogger{log: log}
	c := cron.New(
		cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor)),
		cron.WithLocation(utils.LoadLocation(cfg.App.TimeZone)),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	return &schedulerService{
		cfg:                cfg,
		log:                log,
		cron:               c,
		automationService:  automationService,
		performanceService: performanceService,
	}
}

func (s *schedulerService) Start(ctx context.Context) error {
	if expr := s.cfg.Scheduler.AutomationCron; expr != "" {
		if _, err := s.cron.AddFunc(expr, s.job(ctx, "automation", s.runAutomation)); err != nil {
			return fmt.Errorf("invalid automation cron %q: %w", expr, err)
		}
	}
	if expr := s.cfg.Scheduler.GraphCron; expr != "" {
		if _, err := s.cron.AddFunc(expr, s.job(ctx, "graph", s.runGraph)); err != nil {
			return fmt.Errorf("invalid graph cron %q: %w", expr, err)
		}
	}

	entries := s.cron.Entries()
	if len(entries) == 0 {
		s.log.InfoContext(ctx, "No scheduled jobs configured")
		return nil
	}
	s.cron.Start()
	for _, e := range entries {
		s.log.InfoContext(ctx, "Job scheduled", logger.IntField("entry_id", int(e.ID)))
	}
	return nil
}

func (s *schedulerService) Stop() {
	<-s.cron.Stop().Done()
}

func (s *schedulerService) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *schedulerService) job(parent context.Context, name string, fn func(ctx context.Context) error) func() {
	return func() {
		if parent.Err() != nil {
			s.log.WarnContext(parent, "Job skipped, scheduler is shutting down", logger.StringField("job", name))
			return
		}
		ctx, cancel := context.WithTimeout(parent, defaultJobTimeout)
		defer cancel()

		start := time.Now()
		s.log.InfoContext(ctx, "Job started", logger.StringField("job", name))
		if err := fn(ctx); err != nil {
			s.log.ErrorContext(ctx, "Job failed", logger.StringField("job", name), logger.ErrorField(err))
			return
		}
		s.log.InfoContext(ctx, "Job completed",
			logger.StringField("job", name),
			logger.Field("duration", time.Since(start)))
	}
}

func (s *schedulerService) runAutomation(ctx context.Context) error {
	_, err := s.automationService.Run(ctx, dto.AutomationOptions{DryRun: s.cfg.Automation.DryRun})
	return err
}

func (s *schedulerService) runGraph(ctx context.Context) error {
	_, err := s.performanceService.RenderChart(ctx)
	return err
}

// cronLogger adapts the zap logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
