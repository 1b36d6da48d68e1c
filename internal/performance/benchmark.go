package performance

import (
	"fmt"
	"sort"
	"time"

	"microcap-trading/internal/model"
	"microcap-trading/pkg/utils"
)

// AnchorPrice returns the close on date, falling back to the last close before it
// when date was not a trading session.
func AnchorPrice(prices []model.PricePoint, date time.Time) (float64, error) {
	day := utils.CivilDate(date)
	found := false
	var anchor float64
	for _, p := range sortedPrices(prices) {
		d := utils.CivilDate(p.Date)
		if d.After(day) {
			break
		}
		anchor, found = p.Close, true
	}
	if !found {
		return 0, fmt.Errorf("%w: no close on or before %s", ErrAnchorNotSet, day.Format(time.DateOnly))
	}
	return anchor, nil
}

// NormalizeBenchmark rescales raw closes so that a close equal to anchor maps to
// baselineEquity exactly.
func NormalizeBenchmark(prices []model.PricePoint, anchor, baselineEquity float64) ([]model.BenchmarkObservation, error) {
	if anchor <= 0 {
		return nil, ErrZeroAnchor
	}
	out := make([]model.BenchmarkObservation, 0, len(prices))
	for _, p := range sortedPrices(prices) {
		out = append(out, model.BenchmarkObservation{
			Date:            p.Date,
			NormalizedValue: p.Close / anchor * baselineEquity,
		})
	}
	return out, nil
}

// ClipRange keeps closes with start <= date <= end, compared by calendar date.
func ClipRange(prices []model.PricePoint, start, end time.Time) []model.PricePoint {
	from, to := utils.CivilDate(start), utils.CivilDate(end)
	out := make([]model.PricePoint, 0, len(prices))
	for _, p := range sortedPrices(prices) {
		d := utils.CivilDate(p.Date)
		if d.Before(from) || d.After(to) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func sortedPrices(prices []model.PricePoint) []model.PricePoint {
	out := make([]model.PricePoint, len(prices))
	copy(out, prices)
	sort.SliceStable(out, func(i, j int) bool { return utils.CivilDate(out[i].Date).Before(utils.CivilDate(out[j].Date)) })
	return out
}
