package repository

import (
	"time"

	"microcap-trading/config"
)

func testConfig(dataDir string) *config.Config {
	return &config.Config{
		App: config.App{TimeZone: "America/New_York"},
		Portfolio: config.Portfolio{
			DataDir:         dataDir,
			PortfolioFile:   "chatgpt_portfolio_update.csv",
			ResponseLogFile: "llm_responses.jsonl",
			BaselineDate:    "2025-06-27",
			BaselineEquity:  100,
			DefaultCash:     10000,
		},
		Benchmark: config.Benchmark{
			Provider:            "yahoo",
			Ticker:              "^SPX",
			AnchorPrice:         6173.07,
			Timeout:             5 * time.Second,
			MaxRequestPerMinute: 600,
			CacheDuration:       time.Minute,
		},
		LLM: config.LLM{
			Provider:            "openai",
			APIKey:              "test-key",
			Model:               "gpt-4",
			Temperature:         0.3,
			MaxTokens:           1500,
			Timeout:             time.Minute,
			MaxRequestPerMinute: 600,
		},
	}
}
