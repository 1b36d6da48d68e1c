package performance

import (
	"microcap-trading/internal/model"
)

// LargestGain finds the trough-to-peak run with the biggest percentage gain.
// The input is sorted (stable) on a copy; a run closes only when equity falls
// below its peak, and the open run at the end of the series is evaluated too.
// Equal values are a plateau and neither extend nor close the run.
func LargestGain(series []model.EquityObservation) (model.RunRecord, error) {
	if len(series) == 0 {
		return model.RunRecord{}, ErrEmptySeries
	}
	sorted := sortedCopy(series)

	first := sorted[0]
	minVal, minDate := first.TotalEquity, first.Date
	peakVal, peakDate := minVal, minDate
	best := model.RunRecord{StartDate: minDate, EndDate: peakDate}

	closeRun := func() {
		gain := runGain(minVal, peakVal)
		if gain > best.GainPct {
			best = model.RunRecord{StartDate: minDate, EndDate: peakDate, GainPct: gain}
		}
	}

	for _, obs := range sorted[1:] {
		switch {
		case obs.TotalEquity > peakVal:
			peakVal, peakDate = obs.TotalEquity, obs.Date
		case obs.TotalEquity < peakVal:
			closeRun()
			minVal, minDate = obs.TotalEquity, obs.Date
			peakVal, peakDate = minVal, minDate
		}
	}
	closeRun()

	return best, nil
}

// runGain is zero for a non-positive trough, where a percentage is undefined.
func runGain(trough, peak float64) float64 {
	if trough <= 0 {
		return 0
	}
	return (peak - trough) / trough * 100
}
