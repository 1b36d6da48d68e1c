package model

import "time"

// EquityObservation is one point of the equity curve. Date is the natural key.
type EquityObservation struct {
	Date        time.Time `json:"date"`
	TotalEquity float64   `json:"total_equity"`
}

// PricePoint is a raw benchmark close.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// BenchmarkObservation is a benchmark close rescaled onto the portfolio baseline.
type BenchmarkObservation struct {
	Date            time.Time `json:"date"`
	NormalizedValue float64   `json:"normalized_value"`
}

// RunRecord is the trough-to-peak run with the largest percentage gain.
type RunRecord struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	GainPct   float64   `json:"gain_pct"`
}

// DrawdownRecord is the deepest decline relative to the running maximum. DrawdownPct is <= 0.
type DrawdownRecord struct {
	Date        time.Time `json:"date"`
	EquityValue float64   `json:"equity_value"`
	DrawdownPct float64   `json:"drawdown_pct"`
}

// DrawdownPoint is the drawdown of a single observation.
type DrawdownPoint struct {
	Date        time.Time `json:"date"`
	Equity      float64   `json:"equity"`
	RunningMax  float64   `json:"running_max"`
	DrawdownPct float64   `json:"drawdown_pct"`
}

// PerformanceReport is what the graph flow hands to the chart renderer and returns to callers.
type PerformanceReport struct {
	Portfolio          []EquityObservation    `json:"portfolio"`
	Benchmark          []BenchmarkObservation `json:"benchmark"`
	BenchmarkTicker    string                 `json:"benchmark_ticker"`
	LargestRun         RunRecord              `json:"largest_run"`
	MaxDrawdown        DrawdownRecord         `json:"max_drawdown"`
	BaselineEquity     float64                `json:"baseline_equity"`
	FinalReturnPct     float64                `json:"final_return_pct"`
	BenchmarkReturnPct float64                `json:"benchmark_return_pct"`
	ChartPath          string                 `json:"chart_path,omitempty"`
}
