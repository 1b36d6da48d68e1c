package dto

import (
	"microcap-trading/internal/model"
	"time"
)

type AutomationOptions struct {
	DryRun bool   `json:"dry_run"`
	Model  string `json:"model"`
}

// AutomationResult summarises one automation run.
type AutomationResult struct {
	AsOf            time.Time             `json:"as_of"`
	Prompt          string                `json:"prompt"`
	RawResponse     string                `json:"raw_response"`
	Recommendation  *Recommendation       `json:"recommendation,omitempty"`
	DryRun          bool                  `json:"dry_run"`
	PlannedTrades   []string              `json:"planned_trades,omitempty"`
	Execution       *ExecutionResult      `json:"execution,omitempty"`
	StartingState   *model.PortfolioState `json:"starting_state"`
	ResponseLogPath string                `json:"response_log_path,omitempty"`
}
