package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"microcap-trading/internal/dto"
	"microcap-trading/internal/model"
	"microcap-trading/internal/service"
	"microcap-trading/pkg/logger"
	"microcap-trading/pkg/validation"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePerformance struct {
	report *model.PerformanceReport
	err    error
}

func (f *fakePerformance) Report(context.Context) (*model.PerformanceReport, error) {
	return f.report, f.err
}

func (f *fakePerformance) RenderChart(context.Context) (*model.PerformanceReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	r := *f.report
	r.ChartPath = "Results.png"
	return &r, nil
}

type fakeAutomation struct {
	runErr  error
	gotOpts dto.AutomationOptions
}

func (f *fakeAutomation) Run(_ context.Context, opts dto.AutomationOptions) (*dto.AutomationResult, error) {
	f.gotOpts = opts
	if f.runErr != nil {
		return nil, f.runErr
	}
	return &dto.AutomationResult{AsOf: time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC), DryRun: opts.DryRun}, nil
}

func (f *fakeAutomation) Evaluate(ctx context.Context, response string, state *model.PortfolioState) (*dto.Recommendation, *dto.ExecutionResult, error) {
	rec, err := service.ParseRecommendation(response)
	if err != nil {
		return nil, nil, err
	}
	res := service.NewTradeExecutor(logger.NewNop(), validation.New(), false).Execute(ctx, state, rec.Trades)
	return rec, &res, nil
}

func newTestServer(perf *fakePerformance, auto *fakeAutomation) *echo.Echo {
	e := echo.New()
	h := NewHttpAPIHandler(context.Background(), e, validation.New(), &service.Service{
		PerformanceService: perf,
		AutomationService:  auto,
	})
	h.SetupRoutes()
	return e
}

func do(e *echo.Echo, method, path, body string) (*httptest.ResponseRecorder, dto.BaseResponse) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var resp dto.BaseResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

func TestGetPerformance(t *testing.T) {
	report := &model.PerformanceReport{
		BenchmarkTicker: "^SPX",
		LargestRun:      model.RunRecord{GainPct: 44.44},
	}

	t.Run("ok", func(t *testing.T) {
		e := newTestServer(&fakePerformance{report: report}, &fakeAutomation{})
		rec, resp := do(e, http.MethodGet, "/api/v1/performance", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, rec.Body.String(), `"gain_pct":44.44`)
	})

	t.Run("service error", func(t *testing.T) {
		e := newTestServer(&fakePerformance{err: errors.New("csv missing")}, &fakeAutomation{})
		rec, resp := do(e, http.MethodGet, "/api/v1/performance", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "csv missing", resp.Message)
	})

	t.Run("chart", func(t *testing.T) {
		e := newTestServer(&fakePerformance{report: report}, &fakeAutomation{})
		rec, resp := do(e, http.MethodPost, "/api/v1/performance/chart", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Chart saved to Results.png", resp.Message)
	})
}

func TestRunAutomation(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		runErr   error
		wantCode int
	}{
		{name: "dry run", body: `{"dry_run":true,"model":"gpt-4o"}`, wantCode: http.StatusOK},
		{name: "malformed body", body: `{"dry_run":`, wantCode: http.StatusBadRequest},
		{name: "model name too long", body: `{"model":"` + strings.Repeat("x", 101) + `"}`, wantCode: http.StatusBadRequest},
		{name: "gateway failure", body: `{}`, runErr: &service.GatewayError{Message: "timeout"}, wantCode: http.StatusBadGateway},
		{name: "unparseable response", body: `{}`, runErr: &service.ParseError{Raw: "nope"}, wantCode: http.StatusUnprocessableEntity},
		{name: "schema violation", body: `{}`, runErr: &service.SchemaError{Field: "confidence", Reason: "out of range"}, wantCode: http.StatusUnprocessableEntity},
		{name: "no llm configured", body: `{}`, runErr: service.ErrLLMNotConfigured, wantCode: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auto := &fakeAutomation{runErr: tt.runErr}
			e := newTestServer(&fakePerformance{}, auto)
			rec, _ := do(e, http.MethodPost, "/api/v1/automation/run", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.name == "dry run" {
				assert.True(t, auto.gotOpts.DryRun)
				assert.Equal(t, "gpt-4o", auto.gotOpts.Model)
			}
		})
	}
}

func TestEvaluateRecommendation(t *testing.T) {
	e := newTestServer(&fakePerformance{}, &fakeAutomation{})

	t.Run("executes against supplied ledger", func(t *testing.T) {
		body := `{
			"response": "{\"analysis\":\"x\",\"trades\":[{\"action\":\"buy\",\"ticker\":\"abc\",\"shares\":10,\"price\":5,\"stop_loss\":4}],\"confidence\":0.8}",
			"cash": "100",
			"holdings": []
		}`
		rec, _ := do(e, http.MethodPost, "/api/v1/recommendations/evaluate", body)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data dto.EvaluateRecommendationResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.Data.Execution)
		assert.True(t, resp.Data.Execution.State.Cash.Equal(decimal.NewFromInt(50)))
		assert.Equal(t, 1, resp.Data.Execution.Count(dto.OutcomeExecuted))
	})

	t.Run("missing response", func(t *testing.T) {
		rec, _ := do(e, http.MethodPost, "/api/v1/recommendations/evaluate", `{"cash":"100"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("negative cash", func(t *testing.T) {
		rec, _ := do(e, http.MethodPost, "/api/v1/recommendations/evaluate", `{"response":"{}","cash":"-1"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unparseable response", func(t *testing.T) {
		rec, _ := do(e, http.MethodPost, "/api/v1/recommendations/evaluate", `{"response":"no json here","cash":"100"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}
