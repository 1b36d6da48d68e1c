package config

import (
	"fmt"
	"strings"
	"time"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log        Logger         `mapstructure:"logger"`
	App        App            `mapstructure:"app"`
	Portfolio  Portfolio      `mapstructure:"portfolio"`
	Benchmark  Benchmark      `mapstructure:"benchmark"`
	LLM        LLM            `mapstructure:"llm"`
	Automation Automation     `mapstructure:"automation"`
	Chart      Chart          `mapstructure:"chart"`
	DB         Database       `mapstructure:"database"`
	API        API            `mapstructure:"api"`
	Scheduler  Scheduler      `mapstructure:"scheduler"`
	Cache      Cache          `mapstructure:"cache"`
	Telegram   TelegramConfig `mapstructure:"telegram"`
}

type Logger struct {
	Level    string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Encoding string `mapstructure:"encoding" validate:"oneof=console json"`
}

type App struct {
	TimeZone string `mapstructure:"time_zone"`
}

// Portfolio points at the canonical portfolio log. DataDir is passed into every
// repository that touches the filesystem.
type Portfolio struct {
	DataDir         string  `mapstructure:"data_dir" validate:"required"`
	PortfolioFile   string  `mapstructure:"portfolio_file" validate:"required"`
	ResponseLogFile string  `mapstructure:"response_log_file" validate:"required"`
	BaselineDate    string  `mapstructure:"baseline_date" validate:"required,datetime=2006-01-02"`
	BaselineEquity  float64 `mapstructure:"baseline_equity" validate:"gt=0"`
	DefaultCash     float64 `mapstructure:"default_cash" validate:"gte=0"`
}

// Baseline returns the parsed baseline date.
func (p Portfolio) Baseline() (time.Time, error) {
	return time.Parse(time.DateOnly, p.BaselineDate)
}

type Benchmark struct {
	Provider            string        `mapstructure:"provider" validate:"oneof=yahoo finance_go"`
	Ticker              string        `mapstructure:"ticker" validate:"required"`
	AnchorPrice         float64       `mapstructure:"anchor_price" validate:"gte=0"`
	BaseURL             string        `mapstructure:"base_url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute" validate:"gt=0"`
	CacheDuration       time.Duration `mapstructure:"cache_duration"`
}

type LLM struct {
	Provider            string        `mapstructure:"provider" validate:"oneof=openai gemini"`
	APIKey              string        `mapstructure:"api_key"`
	Model               string        `mapstructure:"model" validate:"required"`
	BaseURL             string        `mapstructure:"base_url"`
	Temperature         float32       `mapstructure:"temperature"`
	MaxTokens           int           `mapstructure:"max_tokens" validate:"gt=0"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute" validate:"gt=0"`
}

type Automation struct {
	DryRun         bool `mapstructure:"dry_run"`
	RejectOversell bool `mapstructure:"reject_oversell"`
}

type Chart struct {
	OutputPath string `mapstructure:"output_path" validate:"required"`
	Title      string `mapstructure:"title"`
}

type Database struct {
	Enabled         bool   `mapstructure:"enabled"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	TimeZone        string `mapstructure:"time_zone"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

type API struct {
	Port      int     `mapstructure:"port"`
	RateLimit float64 `mapstructure:"rate_limit" validate:"gt=0"`
	RateBurst int     `mapstructure:"rate_burst" validate:"gt=0"`
}

type Scheduler struct {
	AutomationCron string `mapstructure:"automation_cron"`
	GraphCron      string `mapstructure:"graph_cron"`
}

type Cache struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

type TelegramConfig struct {
	BotToken                  string `mapstructure:"bot_token"`
	ChatID                    int64  `mapstructure:"chat_id"`
	MaxGlobalRequestPerSecond int    `mapstructure:"max_global_request_per_second"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "console")

	v.SetDefault("app.time_zone", "America/New_York")

	v.SetDefault("portfolio.data_dir", "Start Your Own")
	v.SetDefault("portfolio.portfolio_file", "chatgpt_portfolio_update.csv")
	v.SetDefault("portfolio.response_log_file", "llm_responses.jsonl")
	v.SetDefault("portfolio.baseline_date", "2025-06-27")
	v.SetDefault("portfolio.baseline_equity", 100.0)
	v.SetDefault("portfolio.default_cash", 10000.0)

	v.SetDefault("benchmark.provider", "yahoo")
	v.SetDefault("benchmark.ticker", "^SPX")
	v.SetDefault("benchmark.anchor_price", 6173.07)
	v.SetDefault("benchmark.base_url", "https://query1.finance.yahoo.com/v8/finance/chart")
	v.SetDefault("benchmark.timeout", 15*time.Second)
	v.SetDefault("benchmark.max_request_per_minute", 30)
	v.SetDefault("benchmark.cache_duration", time.Hour)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 1500)
	v.SetDefault("llm.timeout", 2*time.Minute)
	v.SetDefault("llm.max_request_per_minute", 10)

	v.SetDefault("chart.output_path", "Results.png")
	v.SetDefault("chart.title", "ChatGPT's Micro Cap Portfolio vs. S&P 500")

	v.SetDefault("api.port", 8080)
	v.SetDefault("api.rate_limit", 10)
	v.SetDefault("api.rate_burst", 30)

	v.SetDefault("cache.default_expiration", time.Hour)
	v.SetDefault("cache.cleanup_interval", 10*time.Minute)

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")

	v.SetDefault("telegram.max_global_request_per_second", 30)
}

func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads the configuration from path, or from ./config.yaml when path is empty.
func LoadFile(path string) (*Config, error) {
	// a missing .env is fine, secrets may come from the real environment
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	_ = v.BindEnv("llm.api_key", "LLM_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("telegram.bot_token", "TELEGRAM_BOT_TOKEN")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := goValidator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// DSN returns the key/value connection string used by the gorm postgres driver.
func (d Database) DSN() string {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		d.Host, d.User, d.Password, d.DBName, d.Port, d.SSLMode)
	if d.TimeZone != "" {
		dsn += fmt.Sprintf(" TimeZone=%s", d.TimeZone)
	}
	return dsn
}

// URL returns the postgres:// form expected by golang-migrate.
func (d Database) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}
