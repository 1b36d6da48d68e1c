package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"microcap-trading/config"
	"microcap-trading/internal/dto"
	"microcap-trading/internal/model"
	"microcap-trading/internal/repository"
	"microcap-trading/pkg/logger"
	"microcap-trading/pkg/telegram"
	"microcap-trading/pkg/utils"

	"gorm.io/datatypes"
)

var ErrLLMNotConfigured = errors.New("llm gateway is not configured")

type AutomationService interface {
	// Run loads the ledger, asks the model for trades, records the response and
	// executes the proposals unless it is a dry run.
	Run(ctx context.Context, opts dto.AutomationOptions) (*dto.AutomationResult, error)
	// Evaluate parses a response text and executes it against the given state without
	// calling the model or writing the response log.
	Evaluate(ctx context.Context, response string, state *model.PortfolioState) (*dto.Recommendation, *dto.ExecutionResult, error)
}

type automationService struct {
	cfg             *config.Config
	log             *logger.Logger
	portfolioRepo   repository.PortfolioRepository
	llmRepo         repository.LLMRepository
	responseLogRepo repository.ResponseLogRepository
	parser          *ResponseParser
	executor        TradeExecutor
	notifier        telegram.Notifier
	now             func() time.Time
}

func NewAutomationService(
	cfg *config.Config,
	log *logger.Logger,
	portfolioRepo repository.PortfolioRepository,
	llmRepo repository.LLMRepository,
	responseLogRepo repository.ResponseLogRepository,
	parser *ResponseParser,
	executor TradeExecutor,
	notifier telegram.Notifier,
) AutomationService {
	loc := utils.LoadLocation(cfg.App.TimeZone)
	return &automationService{
		cfg:             cfg,
		log:             log,
		portfolioRepo:   portfolioRepo,
		llmRepo:         llmRepo,
		responseLogRepo: responseLogRepo,
		parser:          parser,
		executor:        executor,
		notifier:        notifier,
		now:             func() time.Time { return utils.TimeNowIn(loc) },
	}
}

func (s *automationService) Run(ctx context.Context, opts dto.AutomationOptions) (*dto.AutomationResult, error) {
	if s.llmRepo == nil {
		return nil, ErrLLMNotConfigured
	}

	state, err := s.portfolioRepo.LoadLatestState(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to load portfolio state", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to load portfolio state: %w", err)
	}

	asOf := utils.LastTradingDate(s.now())
	prompt := BuildTradingPrompt(asOf, state.SortedHoldings(), state.Cash, state.TotalEquity())
	result := &dto.AutomationResult{
		AsOf:          asOf,
		Prompt:        prompt,
		DryRun:        opts.DryRun,
		StartingState: state,
	}

	s.log.InfoContext(ctx, "Portfolio loaded",
		logger.TimeField("as_of", asOf),
		logger.StringField("cash", utils.FormatUSD(state.Cash)),
		logger.StringField("total_equity", utils.FormatUSD(state.TotalEquity())),
		logger.IntField("holdings", len(state.Holdings)),
		logger.IntField("prompt_chars", len(prompt)))

	raw, err := s.llmRepo.Complete(ctx, prompt, opts.Model)
	if err != nil {
		return result, &GatewayError{Message: err.Error(), Cause: err}
	}
	result.RawResponse = raw
	s.log.InfoContext(ctx, "Received response", logger.IntField("chars", len(raw)))

	rec, parseErr := s.parser.Parse(raw)

	location, logErr := s.appendResponseLog(ctx, rec, parseErr, raw)
	if logErr != nil {
		s.log.ErrorContext(ctx, "Failed to save response", logger.ErrorField(logErr))
		return result, logErr
	}
	result.ResponseLogPath = location

	if parseErr != nil {
		s.log.ErrorContext(ctx, "Recommendation rejected", logger.ErrorField(parseErr))
		return result, parseErr
	}
	result.Recommendation = rec

	s.log.InfoContext(ctx, "LLM analysis",
		logger.StringField("analysis", rec.Analysis),
		logger.StringField("confidence", fmt.Sprintf("%.1f%%", rec.Confidence*100)),
		logger.IntField("recommended_trades", len(rec.Trades)))

	switch {
	case len(rec.Trades) == 0:
		s.log.InfoContext(ctx, "No trades recommended")
	case opts.DryRun:
		result.PlannedTrades = PlannedTradeLines(rec.Trades)
		s.log.InfoContext(ctx, fmt.Sprintf("DRY RUN - Would execute %d trades", len(rec.Trades)))
	default:
		execution := s.executor.Execute(ctx, state, rec.Trades)
		result.Execution = &execution
	}

	s.notify(ctx, result)
	return result, nil
}

func (s *automationService) Evaluate(ctx context.Context, response string, state *model.PortfolioState) (*dto.Recommendation, *dto.ExecutionResult, error) {
	rec, err := s.parser.Parse(response)
	if err != nil {
		return nil, nil, err
	}
	execution := s.executor.Execute(ctx, state, rec.Trades)
	return rec, &execution, nil
}

// appendResponseLog records every response that came back from the gateway,
// including the ones that failed to parse.
func (s *automationService) appendResponseLog(ctx context.Context, rec *dto.Recommendation, parseErr error, raw string) (string, error) {
	var response json.RawMessage
	if parseErr != nil {
		encoded, err := json.Marshal(map[string]string{"error": parseErr.Error()})
		if err != nil {
			return "", fmt.Errorf("failed to encode response: %w", err)
		}
		response = encoded
	} else {
		response = rec.Document
	}

	entry := &model.LLMResponseLog{
		Timestamp:   s.now(),
		Response:    datatypes.JSON(response),
		RawResponse: raw,
	}
	if err := s.responseLogRepo.Append(ctx, entry); err != nil {
		return "", err
	}
	return s.responseLogRepo.Location(), nil
}

func (s *automationService) notify(ctx context.Context, result *dto.AutomationResult) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, AutomationSummary(result)); err != nil {
		s.log.WarnContext(ctx, "Failed to send automation summary", logger.ErrorField(err))
	}
}

// AutomationSummary is the plain-text digest of a run used for notifications and the CLI.
func AutomationSummary(result *dto.AutomationResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Automated trading run as of %s\n", result.AsOf.Format(time.DateOnly))
	if rec := result.Recommendation; rec != nil {
		fmt.Fprintf(&sb, "Analysis: %s\n", rec.Analysis)
		fmt.Fprintf(&sb, "Confidence: %.1f%%\n", rec.Confidence*100)
		fmt.Fprintf(&sb, "Recommended trades: %d\n", len(rec.Trades))
	}
	switch {
	case len(result.PlannedTrades) > 0:
		fmt.Fprintf(&sb, "DRY RUN - Would execute %d trades\n", len(result.PlannedTrades))
		for _, line := range result.PlannedTrades {
			fmt.Fprintf(&sb, "  %s\n", line)
		}
	case result.Execution != nil:
		for _, line := range result.Execution.Lines() {
			sb.WriteString(line + "\n")
		}
		fmt.Fprintf(&sb, "Cash: %s\n", utils.FormatUSD(result.Execution.State.Cash))
	default:
		sb.WriteString("No trades recommended\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
