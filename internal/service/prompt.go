package service

import (
	"fmt"
	"time"

	"microcap-trading/internal/model"
	"microcap-trading/pkg/utils"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
)

const NoHoldingsText = "No current holdings"

// The JSON block below is the contract ParseRecommendation and the executor rely on.
// Field names and shape must not change.
const promptTemplate = `You are a professional portfolio analyst. Here is your current portfolio state as of %s:

[ Holdings ]
%s

[ Snapshot ]
Cash Balance: %s
Total Equity: %s

Rules:
- You have %s in cash available for new positions
- Prefer U.S. micro-cap stocks (<$300M market cap)
- Full shares only, no options or derivatives
- Use stop-losses for risk management
- Be conservative with position sizing

Analyze the current market conditions and provide specific trading recommendations.

Respond with ONLY a JSON object in this exact format:
{
    "analysis": "Brief market analysis",
    "trades": [
        {
            "action": "buy",
            "ticker": "SYMBOL",
            "shares": 100,
            "price": 25.50,
            "stop_loss": 20.00,
            "reason": "Brief rationale"
        }
    ],
    "confidence": 0.8
}

Only recommend trades you are confident about. If no trades are recommended, use an empty trades array.`

// BuildTradingPrompt renders the instruction sent to the model.
func BuildTradingPrompt(asOf time.Time, holdings []model.Holding, cash, totalEquity decimal.Decimal) string {
	cashText := utils.FormatUSD(cash)
	return fmt.Sprintf(promptTemplate,
		asOf.Format(time.DateOnly),
		HoldingsTable(holdings),
		cashText,
		utils.FormatUSD(totalEquity),
		cashText,
	)
}

// HoldingsTable renders holdings as a plain aligned table, or NoHoldingsText.
func HoldingsTable(holdings []model.Holding) string {
	if len(holdings) == 0 {
		return NoHoldingsText
	}
	rows := make([][]string, 0, len(holdings))
	for _, h := range holdings {
		rows = append(rows, []string{
			h.Ticker,
			h.Shares.String(),
			h.StopLoss.StringFixed(2),
			h.BuyPrice.StringFixed(2),
			h.CostBasis.StringFixed(2),
		})
	}
	return table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		Headers("ticker", "shares", "stop_loss", "buy_price", "cost_basis").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			return lipgloss.NewStyle().PaddingRight(2)
		}).
		String()
}
