package repository

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"microcap-trading/pkg/cache"
	"microcap-trading/pkg/httpclient"
	"microcap-trading/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yahooChartBody = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "^SPX", "exchangeTimezoneName": "America/New_York", "regularMarketPrice": 6200},
      "timestamp": [1751031000, 1751290200, 1751376600],
      "indicators": {"quote": [{"close": [6173.07, null, 6198.01]}]}
    }],
    "error": null
  }
}`

func TestYahooFinanceRepository_GetDailyCloses(t *testing.T) {
	var hits int32
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		gotQuery = map[string]string{
			"period1":  r.URL.Query().Get("period1"),
			"period2":  r.URL.Query().Get("period2"),
			"interval": r.URL.Query().Get("interval"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(yahooChartBody))
	}))
	defer server.Close()

	cfg := testConfig(t.TempDir())
	repo := newYahooFinanceRepository(cfg, cache.NewCache(time.Minute, time.Minute), logger.NewNop(),
		httpclient.New(server.URL, 5*time.Second, ""))

	start := time.Date(2025, 6, 27, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	got, err := repo.GetDailyCloses(context.Background(), "^SPX", start, end)
	require.NoError(t, err)

	require.Len(t, got, 2, "null closes are skipped")
	assert.Equal(t, start, got[0].Date)
	assert.Equal(t, 6173.07, got[0].Close)
	assert.Equal(t, end, got[1].Date)
	assert.Equal(t, "1750982400", gotQuery["period1"])
	assert.Equal(t, "1751414400", gotQuery["period2"], "end date is made inclusive")
	assert.Equal(t, "1d", gotQuery["interval"])

	_, err = repo.GetDailyCloses(context.Background(), "^SPX", start, end)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "second call is served from cache")
}

func TestYahooFinanceRepository_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "non ok status", status: http.StatusTooManyRequests, body: `{}`},
		{name: "api error payload", status: http.StatusOK, body: `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`},
		{name: "empty result", status: http.StatusOK, body: `{"chart":{"result":[]}}`},
		{name: "all closes missing", status: http.StatusOK, body: `{"chart":{"result":[{"timestamp":[1751031000],"indicators":{"quote":[{"close":[null]}]}}]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			repo := newYahooFinanceRepository(testConfig(t.TempDir()), cache.NewCache(time.Minute, time.Minute), logger.NewNop(),
				httpclient.New(server.URL, 5*time.Second, ""))
			_, err := repo.GetDailyCloses(context.Background(), "^SPX", time.Now().AddDate(0, 0, -3), time.Now())
			assert.Error(t, err)
		})
	}
}

func TestFinanceGoRepository_GetDailyCloses(t *testing.T) {
	cfg := testConfig(t.TempDir())
	var gotStart, gotEnd time.Time
	fetch := func(ticker string, start, end time.Time) ([]int64, []float64, error) {
		gotStart, gotEnd = start, end
		return []int64{1751031000, 1751290200}, []float64{6173.07, 0}, nil
	}
	repo := newFinanceGoRepository(cfg, cache.NewCache(time.Minute, time.Minute), logger.NewNop(), fetch)

	start := time.Date(2025, 6, 27, 0, 0, 0, 0, time.UTC)
	got, err := repo.GetDailyCloses(context.Background(), "^SPX", start, start.AddDate(0, 0, 3))
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, start, got[0].Date)
	assert.Equal(t, start, gotStart)
	assert.Equal(t, start.AddDate(0, 0, 4), gotEnd)
}

func TestFinanceGoRepository_FetchError(t *testing.T) {
	fetch := func(string, time.Time, time.Time) ([]int64, []float64, error) {
		return nil, nil, errors.New("remote error")
	}
	repo := newFinanceGoRepository(testConfig(t.TempDir()), cache.NewCache(time.Minute, time.Minute), logger.NewNop(), fetch)
	_, err := repo.GetDailyCloses(context.Background(), "^SPX", time.Now(), time.Now())
	assert.ErrorContains(t, err, "remote error")
}

func TestNewBenchmarkRepository_UnknownProvider(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Benchmark.Provider = "bloomberg"
	_, err := NewBenchmarkRepository(cfg, cache.NewCache(time.Minute, time.Minute), logger.NewNop())
	assert.Error(t, err)
}
