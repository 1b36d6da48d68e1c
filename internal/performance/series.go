package performance

import (
	"errors"
	"sort"
	"time"

	"microcap-trading/internal/model"
	"microcap-trading/pkg/utils"
)

var (
	ErrEmptySeries  = errors.New("equity series is empty")
	ErrAnchorNotSet = errors.New("benchmark anchor price not found")
	ErrZeroAnchor   = errors.New("benchmark anchor price must be positive")
)

// PrepareSeries puts the baseline in front of rows, sorts by date and keeps the
// last observation for any repeated date.
func PrepareSeries(baseline model.EquityObservation, rows []model.EquityObservation) []model.EquityObservation {
	all := make([]model.EquityObservation, 0, len(rows)+1)
	all = append(all, baseline)
	all = append(all, rows...)
	return Dedupe(all)
}

// Dedupe sorts a copy of series by date and drops earlier duplicates of a date.
func Dedupe(series []model.EquityObservation) []model.EquityObservation {
	sorted := sortedCopy(series)
	out := make([]model.EquityObservation, 0, len(sorted))
	for _, obs := range sorted {
		if n := len(out); n > 0 && utils.SameDate(out[n-1].Date, obs.Date) {
			out[n-1] = obs
			continue
		}
		out = append(out, obs)
	}
	return out
}

func sortedCopy(series []model.EquityObservation) []model.EquityObservation {
	out := make([]model.EquityObservation, len(series))
	copy(out, series)
	sort.SliceStable(out, func(i, j int) bool {
		return utils.CivilDate(out[i].Date).Before(utils.CivilDate(out[j].Date))
	})
	return out
}

// DateRange returns the first and last dates of a sorted series.
func DateRange(series []model.EquityObservation) (time.Time, time.Time, error) {
	if len(series) == 0 {
		return time.Time{}, time.Time{}, ErrEmptySeries
	}
	return series[0].Date, series[len(series)-1].Date, nil
}

// ReturnPct is the percentage change of last against base.
func ReturnPct(base, last float64) float64 {
	if base == 0 {
		return 0
	}
	return (last/base - 1) * 100
}
