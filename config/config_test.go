package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Start Your Own", cfg.Portfolio.DataDir)
	assert.Equal(t, "chatgpt_portfolio_update.csv", cfg.Portfolio.PortfolioFile)
	assert.Equal(t, 100.0, cfg.Portfolio.BaselineEquity)
	assert.Equal(t, 10000.0, cfg.Portfolio.DefaultCash)
	assert.Equal(t, "^SPX", cfg.Benchmark.Ticker)
	assert.Equal(t, 6173.07, cfg.Benchmark.AnchorPrice)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4", cfg.LLM.Model)
	assert.Equal(t, 1500, cfg.LLM.MaxTokens)
	assert.InDelta(t, 0.3, cfg.LLM.Temperature, 1e-6)
	assert.Equal(t, 2*time.Minute, cfg.LLM.Timeout)
	assert.Equal(t, "Results.png", cfg.Chart.OutputPath)

	baseline, err := cfg.Portfolio.Baseline()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 27, 0, 0, 0, 0, time.UTC), baseline)
}

func TestLoadFile_OverridesAndValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name: "override data dir and provider",
			yaml: "portfolio:\n  data_dir: Scripts and CSV Files\nllm:\n  provider: gemini\n  model: gemini-2.5-flash\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "Scripts and CSV Files", cfg.Portfolio.DataDir)
				assert.Equal(t, "gemini", cfg.LLM.Provider)
				assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model)
			},
		},
		{
			name:    "unknown llm provider is rejected",
			yaml:    "llm:\n  provider: someone-else\n",
			wantErr: true,
		},
		{
			name:    "malformed baseline date is rejected",
			yaml:    "portfolio:\n  baseline_date: 27/06/2025\n",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Chdir(dir)
			path := filepath.Join(dir, "custom.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			cfg, err := LoadFile(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}
