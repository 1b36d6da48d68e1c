package dto

import (
	"microcap-trading/internal/model"

	"github.com/shopspring/decimal"
)

type OutcomeStatus string

const (
	OutcomeExecuted                 OutcomeStatus = "executed"
	OutcomeRejectedInsufficientCash OutcomeStatus = "rejected_insufficient_cash"
	OutcomeRejectedOversell         OutcomeStatus = "rejected_insufficient_shares"
	OutcomeInvalidOrder             OutcomeStatus = "invalid_order"
	OutcomeHold                     OutcomeStatus = "hold"
	OutcomeUnknownAction            OutcomeStatus = "unknown_action"
)

// TradeOutcome is the audit record for one processed proposal.
type TradeOutcome struct {
	Proposal   TradeProposal   `json:"proposal"`
	Status     OutcomeStatus   `json:"status"`
	Line       string          `json:"line"`
	Detail     string          `json:"detail,omitempty"`
	CashBefore decimal.Decimal `json:"cash_before"`
	CashAfter  decimal.Decimal `json:"cash_after"`
	Oversold   bool            `json:"oversold,omitempty"`
}

// ExecutionResult is the ledger after a batch plus one outcome per proposal, in order.
type ExecutionResult struct {
	State    *model.PortfolioState `json:"state"`
	Outcomes []TradeOutcome        `json:"outcomes"`
}

// Lines returns the human-readable audit lines. Details are indented under their outcome.
func (r ExecutionResult) Lines() []string {
	lines := make([]string, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		lines = append(lines, o.Line)
		if o.Detail != "" {
			lines = append(lines, "  "+o.Detail)
		}
	}
	return lines
}

// Count returns how many outcomes have the given status.
func (r ExecutionResult) Count(status OutcomeStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}
