package service

import (
	"context"
	"fmt"
	"strings"

	"microcap-trading/internal/dto"
	"microcap-trading/internal/model"
	"microcap-trading/pkg/logger"
	"microcap-trading/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// TradeExecutor applies proposals to a ledger strictly in order. The input state is
// never modified; the returned result carries the new state.
type TradeExecutor interface {
	Execute(ctx context.Context, state *model.PortfolioState, proposals []dto.TradeProposal) dto.ExecutionResult
}

type tradeExecutor struct {
	log            *logger.Logger
	validate       *validator.Validate
	rejectOversell bool
}

func NewTradeExecutor(log *logger.Logger, validate *validator.Validate, rejectOversell bool) TradeExecutor {
	return &tradeExecutor{
		log:            log,
		validate:       validate,
		rejectOversell: rejectOversell,
	}
}

func (e *tradeExecutor) Execute(ctx context.Context, state *model.PortfolioState, proposals []dto.TradeProposal) dto.ExecutionResult {
	ledger := state.Clone()
	result := dto.ExecutionResult{
		State:    ledger,
		Outcomes: make([]dto.TradeOutcome, 0, len(proposals)),
	}

	e.log.InfoContext(ctx, "Executing trade proposals", logger.IntField("count", len(proposals)))

	for _, p := range proposals {
		outcome := dto.TradeOutcome{Proposal: p, CashBefore: ledger.Cash}

		switch p.Action {
		case dto.ActionBuy:
			e.buy(ledger, p, &outcome)
		case dto.ActionSell:
			e.sell(ctx, ledger, p, &outcome)
		case dto.ActionHold:
			outcome.Status = dto.OutcomeHold
			outcome.Line = fmt.Sprintf("HOLD: %s - %s", p.Ticker, p.Reason)
		default:
			outcome.Status = dto.OutcomeUnknownAction
			outcome.Line = fmt.Sprintf("UNKNOWN ACTION: %s for %s", p.Action, p.Ticker)
		}

		outcome.CashAfter = ledger.Cash
		result.Outcomes = append(result.Outcomes, outcome)

		e.log.InfoContext(ctx, outcome.Line,
			logger.StringField("status", string(outcome.Status)),
			logger.DecimalField("cash", ledger.Cash))
	}

	return result
}

func (e *tradeExecutor) valid(p dto.TradeProposal) bool {
	if len(p.Issues) > 0 {
		return false
	}
	return e.validate.Struct(p.OrderCheck()) == nil
}

func (e *tradeExecutor) buy(ledger *model.PortfolioState, p dto.TradeProposal, outcome *dto.TradeOutcome) {
	if !e.valid(p) {
		outcome.Status = dto.OutcomeInvalidOrder
		outcome.Line = "INVALID BUY ORDER: " + describeProposal(p)
		return
	}

	cost := p.Shares.Mul(p.Price)
	if cost.GreaterThan(ledger.Cash) {
		outcome.Status = dto.OutcomeRejectedInsufficientCash
		outcome.Line = fmt.Sprintf("BUY REJECTED: %s - Insufficient cash (need %s, have %s)",
			p.Ticker, utils.FormatUSD(cost), utils.FormatUSD(ledger.Cash))
		return
	}

	ledger.Cash = ledger.Cash.Sub(cost)
	addHolding(ledger, p, cost)

	outcome.Status = dto.OutcomeExecuted
	outcome.Line = fmt.Sprintf("BUY: %s shares of %s at %s (stop: %s) - %s",
		p.Shares, p.Ticker, utils.FormatUSD(p.Price), utils.FormatUSD(p.StopLoss), p.Reason)
	outcome.Detail = fmt.Sprintf("Simulated: Cash reduced by %s, new balance: %s",
		utils.FormatUSD(cost), utils.FormatUSD(ledger.Cash))
}

func (e *tradeExecutor) sell(ctx context.Context, ledger *model.PortfolioState, p dto.TradeProposal, outcome *dto.TradeOutcome) {
	if !e.valid(p) {
		outcome.Status = dto.OutcomeInvalidOrder
		outcome.Line = "INVALID SELL ORDER: " + describeProposal(p)
		return
	}

	held := ledger.Holdings[p.Ticker].Shares
	oversold := p.Shares.GreaterThan(held)
	if oversold && e.rejectOversell {
		outcome.Status = dto.OutcomeRejectedOversell
		outcome.Line = fmt.Sprintf("SELL REJECTED: %s - Insufficient shares (want %s, hold %s)",
			p.Ticker, p.Shares, held)
		return
	}

	proceeds := p.Shares.Mul(p.Price)
	ledger.Cash = ledger.Cash.Add(proceeds)
	reduceHolding(ledger, p.Ticker, p.Shares)

	outcome.Status = dto.OutcomeExecuted
	outcome.Oversold = oversold
	outcome.Line = fmt.Sprintf("SELL: %s shares of %s at %s - %s",
		p.Shares, p.Ticker, utils.FormatUSD(p.Price), p.Reason)
	if oversold {
		outcome.Line += fmt.Sprintf(" (WARNING: only %s shares held)", held)
		e.log.WarnContext(ctx, "Sell exceeds held shares",
			logger.StringField("ticker", p.Ticker),
			logger.DecimalField("shares", p.Shares),
			logger.DecimalField("held", held))
	}
	outcome.Detail = fmt.Sprintf("Simulated: Cash increased by %s, new balance: %s",
		utils.FormatUSD(proceeds), utils.FormatUSD(ledger.Cash))
}

func addHolding(ledger *model.PortfolioState, p dto.TradeProposal, cost decimal.Decimal) {
	h, ok := ledger.Holdings[p.Ticker]
	if !ok {
		h = model.Holding{Ticker: p.Ticker}
	}
	h.Shares = h.Shares.Add(p.Shares)
	h.CostBasis = h.CostBasis.Add(cost)
	h.BuyPrice = h.CostBasis.Div(h.Shares).Round(4)
	if p.StopLoss.IsPositive() {
		h.StopLoss = p.StopLoss
	}
	ledger.Holdings[p.Ticker] = h
}

// reduceHolding scales cost basis down with the shares left and drops the position at zero.
func reduceHolding(ledger *model.PortfolioState, ticker string, shares decimal.Decimal) {
	h, ok := ledger.Holdings[ticker]
	if !ok {
		return
	}
	remaining := h.Shares.Sub(shares)
	if !remaining.IsPositive() {
		delete(ledger.Holdings, ticker)
		return
	}
	h.CostBasis = h.CostBasis.Mul(remaining).Div(h.Shares).Round(2)
	h.Shares = remaining
	ledger.Holdings[ticker] = h
}

func describeProposal(p dto.TradeProposal) string {
	s := fmt.Sprintf("{action: %s, ticker: %q, shares: %s, price: %s, stop_loss: %s, reason: %q}",
		p.Action, p.Ticker, p.Shares, p.Price, p.StopLoss, p.Reason)
	if len(p.Issues) > 0 {
		s += " issues: " + strings.Join(p.Issues, "; ")
	}
	return s
}

// PlannedTradeLines lists proposals the way a dry run prints them.
func PlannedTradeLines(proposals []dto.TradeProposal) []string {
	lines := make([]string, 0, len(proposals))
	for _, p := range proposals {
		action := strings.ToUpper(string(p.Action))
		if action == "" {
			action = "UNKNOWN"
		}
		ticker := p.Ticker
		if ticker == "" {
			ticker = "unknown"
		}
		lines = append(lines, fmt.Sprintf("%s: %s shares of %s at %s",
			action, p.Shares, ticker, utils.FormatUSD(p.Price)))
	}
	return lines
}
