package repository

import (
	"context"
	"fmt"
	"time"

	"microcap-trading/config"
	"microcap-trading/internal/model"
	"microcap-trading/pkg/cache"
	"microcap-trading/pkg/logger"
	"microcap-trading/pkg/utils"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"golang.org/x/time/rate"
)

// chartFetcher returns raw daily bars as (unix seconds, close) pairs.
type chartFetcher func(ticker string, start, end time.Time) ([]int64, []float64, error)

type financeGoRepository struct {
	cfg            *config.Config
	logger         *logger.Logger
	cache          cache.Cache
	requestLimiter *rate.Limiter
	fetch          chartFetcher
}

func NewFinanceGoRepository(cfg *config.Config, c cache.Cache, log *logger.Logger) BenchmarkRepository {
	return newFinanceGoRepository(cfg, c, log, fetchFinanceGoChart)
}

func newFinanceGoRepository(cfg *config.Config, c cache.Cache, log *logger.Logger, fetch chartFetcher) *financeGoRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.Benchmark.MaxRequestPerMinute)
	return &financeGoRepository{
		cfg:            cfg,
		logger:         log,
		cache:          c,
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
		fetch:          fetch,
	}
}

func fetchFinanceGoChart(ticker string, start, end time.Time) ([]int64, []float64, error) {
	params := &chart.Params{
		Symbol:   ticker,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}

	var (
		stamps []int64
		closes []float64
	)
	iter := chart.Get(params)
	for iter.Next() {
		bar := iter.Bar()
		stamps = append(stamps, int64(bar.Timestamp))
		closes = append(closes, bar.Close.InexactFloat64())
	}
	if err := iter.Err(); err != nil {
		return nil, nil, err
	}
	return stamps, closes, nil
}

func (r *financeGoRepository) GetDailyCloses(ctx context.Context, ticker string, start, end time.Time) ([]model.PricePoint, error) {
	key := benchmarkCacheKey("finance_go", ticker, start, end)
	if cached, ok := cache.GetFromCache[[]model.PricePoint](r.cache, key); ok {
		return cached, nil
	}
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	from := utils.CivilDate(start)
	to := utils.CivilDate(end).AddDate(0, 0, 1)
	stamps, closes, err := r.fetch(ticker, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chart for %s: %w", ticker, err)
	}

	loc := utils.LoadLocation(r.cfg.App.TimeZone)
	points := make([]model.PricePoint, 0, len(stamps))
	for i, ts := range stamps {
		if closes[i] <= 0 {
			continue
		}
		points = append(points, model.PricePoint{
			Date:  utils.CivilDate(time.Unix(ts, 0).In(loc)),
			Close: closes[i],
		})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("no valid closes found for symbol: %s", ticker)
	}

	r.logger.DebugContext(ctx, "Fetched benchmark closes",
		logger.StringField("ticker", ticker),
		logger.IntField("points", len(points)))
	r.cache.Set(key, points, r.cfg.Benchmark.CacheDuration)
	return points, nil
}
