package model

import (
	"sort"

	"github.com/shopspring/decimal"
)

type Holding struct {
	Ticker    string          `json:"ticker"`
	Shares    decimal.Decimal `json:"shares"`
	StopLoss  decimal.Decimal `json:"stop_loss"`
	BuyPrice  decimal.Decimal `json:"buy_price"`
	CostBasis decimal.Decimal `json:"cost_basis"`
}

// PortfolioState is the ledger: holdings keyed by ticker plus the cash balance.
type PortfolioState struct {
	Holdings map[string]Holding `json:"holdings"`
	Cash     decimal.Decimal    `json:"cash"`
}

func NewPortfolioState(cash decimal.Decimal, holdings ...Holding) *PortfolioState {
	s := &PortfolioState{Holdings: make(map[string]Holding, len(holdings)), Cash: cash}
	for _, h := range holdings {
		s.Holdings[h.Ticker] = h
	}
	return s
}

// Clone returns a deep copy of the ledger.
func (s *PortfolioState) Clone() *PortfolioState {
	out := &PortfolioState{Holdings: make(map[string]Holding, len(s.Holdings)), Cash: s.Cash}
	for k, v := range s.Holdings {
		out.Holdings[k] = v
	}
	return out
}

// SortedHoldings returns holdings ordered by ticker.
func (s *PortfolioState) SortedHoldings() []Holding {
	out := make([]Holding, 0, len(s.Holdings))
	for _, h := range s.Holdings {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}

// CostBasisTotal sums cost basis across holdings.
func (s *PortfolioState) CostBasisTotal() decimal.Decimal {
	total := decimal.Zero
	for _, h := range s.Holdings {
		total = total.Add(h.CostBasis)
	}
	return total
}

// TotalEquity is cash plus cost basis, the simplified valuation used for prompting.
func (s *PortfolioState) TotalEquity() decimal.Decimal {
	return s.Cash.Add(s.CostBasisTotal())
}
