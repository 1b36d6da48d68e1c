package performance

import (
	"microcap-trading/internal/model"
)

// Drawdowns returns the drawdown of every observation against the running maximum, in date order.
func Drawdowns(series []model.EquityObservation) []model.DrawdownPoint {
	sorted := sortedCopy(series)
	points := make([]model.DrawdownPoint, 0, len(sorted))
	for i, obs := range sorted {
		runMax := obs.TotalEquity
		if i > 0 && points[i-1].RunningMax > runMax {
			runMax = points[i-1].RunningMax
		}
		points = append(points, model.DrawdownPoint{
			Date:        obs.Date,
			Equity:      obs.TotalEquity,
			RunningMax:  runMax,
			DrawdownPct: drawdownPct(obs.TotalEquity, runMax),
		})
	}
	return points
}

// MaxDrawdown returns the deepest drawdown. Ties resolve to the earliest date.
func MaxDrawdown(series []model.EquityObservation) (model.DrawdownRecord, error) {
	if len(series) == 0 {
		return model.DrawdownRecord{}, ErrEmptySeries
	}
	points := Drawdowns(series)
	worst := points[0]
	for _, p := range points[1:] {
		if p.DrawdownPct < worst.DrawdownPct {
			worst = p
		}
	}
	return model.DrawdownRecord{
		Date:        worst.Date,
		EquityValue: worst.Equity,
		DrawdownPct: worst.DrawdownPct,
	}, nil
}

func drawdownPct(equity, runMax float64) float64 {
	if runMax <= 0 || equity >= runMax {
		return 0
	}
	return (equity/runMax - 1) * 100
}
