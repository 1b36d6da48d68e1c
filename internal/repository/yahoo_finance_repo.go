package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"microcap-trading/config"
	"microcap-trading/internal/dto"
	"microcap-trading/internal/model"
	"microcap-trading/pkg/cache"
	"microcap-trading/pkg/httpclient"
	"microcap-trading/pkg/logger"
	"microcap-trading/pkg/utils"

	"golang.org/x/time/rate"
)

// yahooFinanceRepository reads daily closes from the Yahoo Finance v8 chart endpoint.
type yahooFinanceRepository struct {
	httpClient     httpclient.HTTPClient
	cfg            *config.Config
	logger         *logger.Logger
	cache          cache.Cache
	requestLimiter *rate.Limiter
}

func NewYahooFinanceRepository(cfg *config.Config, c cache.Cache, log *logger.Logger) BenchmarkRepository {
	return newYahooFinanceRepository(cfg, c, log,
		httpclient.New(cfg.Benchmark.BaseURL, cfg.Benchmark.Timeout, ""))
}

func newYahooFinanceRepository(cfg *config.Config, c cache.Cache, log *logger.Logger, client httpclient.HTTPClient) *yahooFinanceRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.Benchmark.MaxRequestPerMinute)
	return &yahooFinanceRepository{
		httpClient:     client,
		cfg:            cfg,
		logger:         log,
		cache:          c,
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
	}
}

func (r *yahooFinanceRepository) GetDailyCloses(ctx context.Context, ticker string, start, end time.Time) ([]model.PricePoint, error) {
	key := benchmarkCacheKey("yahoo", ticker, start, end)
	if cached, ok := cache.GetFromCache[[]model.PricePoint](r.cache, key); ok {
		r.logger.DebugContext(ctx, "Benchmark served from cache", logger.StringField("ticker", ticker))
		return cached, nil
	}

	if !r.requestLimiter.Allow() {
		r.logger.WarnContext(ctx, "Yahoo Finance API request limit exceeded, waiting",
			logger.IntField("max_request_per_minute", r.cfg.Benchmark.MaxRequestPerMinute))
		if err := r.requestLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	// period2 is exclusive on the Yahoo side
	queryParams := map[string]string{
		"period1":        fmt.Sprintf("%d", utils.CivilDate(start).Unix()),
		"period2":        fmt.Sprintf("%d", utils.CivilDate(end).AddDate(0, 0, 1).Unix()),
		"interval":       "1d",
		"includePrePost": "false",
	}
	headers := map[string]string{
		"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0.0.0 Safari/537.36",
		"Referer":    "https://finance.yahoo.com/",
	}

	var yahooResp dto.YahooChartResponse
	resp, err := r.httpClient.Get(ctx, "/"+url.PathEscape(ticker), queryParams, headers, &yahooResp)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch data from yahoo finance: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		r.logger.ErrorContext(ctx, "Yahoo Finance API returned Non-OK status",
			logger.IntField("status_code", resp.StatusCode),
			logger.StringField("body", string(resp.Body)))
		return nil, fmt.Errorf("yahoo finance api returned status: %d", resp.StatusCode)
	}
	if yahooResp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo finance api error: %s: %s", yahooResp.Chart.Error.Code, yahooResp.Chart.Error.Description)
	}
	if len(yahooResp.Chart.Result) == 0 {
		return nil, fmt.Errorf("no data returned for symbol: %s", ticker)
	}

	result := yahooResp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no quote data available for symbol: %s", ticker)
	}
	closes := result.Indicators.Quote[0].Close
	loc := utils.LoadLocation(result.Meta.ExchangeTimezone)

	points := make([]model.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil || *closes[i] <= 0 {
			continue
		}
		points = append(points, model.PricePoint{
			Date:  utils.CivilDate(time.Unix(ts, 0).In(loc)),
			Close: *closes[i],
		})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("no valid closes found for symbol: %s", ticker)
	}

	r.cache.Set(key, points, r.cfg.Benchmark.CacheDuration)
	return points, nil
}
