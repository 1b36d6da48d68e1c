package service

import (
	"context"
	"time"

	"microcap-trading/internal/model"

	"github.com/stretchr/testify/mock"
)

type mockPortfolioRepo struct {
	mock.Mock
}

func (m *mockPortfolioRepo) LoadEquitySeries(ctx context.Context) ([]model.EquityObservation, error) {
	args := m.Called(ctx)
	series, _ := args.Get(0).([]model.EquityObservation)
	return series, args.Error(1)
}

func (m *mockPortfolioRepo) LoadLatestState(ctx context.Context) (*model.PortfolioState, error) {
	args := m.Called(ctx)
	state, _ := args.Get(0).(*model.PortfolioState)
	return state, args.Error(1)
}

func (m *mockPortfolioRepo) Path() string {
	return "portfolio.csv"
}

type mockLLMRepo struct {
	mock.Mock
}

func (m *mockLLMRepo) Complete(ctx context.Context, prompt string, modelName string) (string, error) {
	args := m.Called(ctx, prompt, modelName)
	return args.String(0), args.Error(1)
}

func (m *mockLLMRepo) Provider() string {
	return "mock"
}

type mockResponseLog struct {
	mock.Mock
	entries []*model.LLMResponseLog
}

func (m *mockResponseLog) Append(ctx context.Context, entry *model.LLMResponseLog) error {
	m.entries = append(m.entries, entry)
	return m.Called(ctx, entry).Error(0)
}

func (m *mockResponseLog) Location() string {
	return "llm_responses.jsonl"
}

type mockBenchmarkRepo struct {
	mock.Mock
}

func (m *mockBenchmarkRepo) GetDailyCloses(ctx context.Context, ticker string, start, end time.Time) ([]model.PricePoint, error) {
	args := m.Called(ctx, ticker, start, end)
	prices, _ := args.Get(0).([]model.PricePoint)
	return prices, args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, message string) error {
	return m.Called(ctx, message).Error(0)
}

type mockRenderer struct {
	mock.Mock
}

func (m *mockRenderer) Render(report model.PerformanceReport, path string, title string) error {
	return m.Called(report, path, title).Error(0)
}
