package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Action is the tag of a trade proposal. Anything outside the known set is kept
// verbatim and executed as an unknown action.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

const (
	DefaultAnalysis = "No analysis provided"
	DefaultReason   = "LLM recommendation"
)

// Recommendation is the schema-checked form of the model's JSON answer.
// Document is the object exactly as the model sent it, in compact form.
type Recommendation struct {
	Analysis   string          `json:"analysis"`
	Trades     []TradeProposal `json:"trades" validate:"dive"`
	Confidence float64         `json:"confidence" validate:"gte=0,lte=1"`
	Document   json.RawMessage `json:"-"`
}

// TradeProposal is an untrusted instruction decoded from the model output.
// Issues lists fields that were present but could not be decoded.
type TradeProposal struct {
	Action   Action          `json:"action"`
	Ticker   string          `json:"ticker"`
	Shares   decimal.Decimal `json:"shares"`
	Price    decimal.Decimal `json:"price"`
	StopLoss decimal.Decimal `json:"stop_loss"`
	Reason   string          `json:"reason"`
	Issues   []string        `json:"issues,omitempty"`
}

// OrderCheck carries the fields a buy or sell must satisfy before it touches the ledger.
type OrderCheck struct {
	Ticker string          `validate:"required"`
	Shares decimal.Decimal `validate:"gt=0"`
	Price  decimal.Decimal `validate:"gt=0"`
}

func (p TradeProposal) OrderCheck() OrderCheck {
	return OrderCheck{Ticker: p.Ticker, Shares: p.Shares, Price: p.Price}
}
