package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// DefaultSymbols is the BIST universe scanned by the menu and the daily broadcast.
var DefaultSymbols = []string{
	"AEFES.IS", "AGHOL.IS", "AKBNK.IS", "AKCNS.IS", "AKGRT.IS", "AKSA.IS", "AKSEN.IS", "ALGYO.IS",
	"ARCLK.IS", "ASELS.IS", "AYGAZ.IS", "BIMAS.IS", "BRISA.IS", "CEMTS.IS", "DEVA.IS", "DOHOL.IS",
	"ECILC.IS", "ENJSA.IS", "ENKAI.IS", "EREGL.IS", "FROTO.IS", "GARAN.IS", "GUBRF.IS", "HEKTS.IS",
	"ISCTR.IS", "ISGYO.IS", "IZDMC.IS", "KARSN.IS", "KCHOL.IS", "KORDS.IS", "KOZAA.IS", "KOZAL.IS",
	"MPARK.IS", "MGROS.IS", "ODAS.IS", "OTKAR.IS", "PETKM.IS", "PGSUS.IS", "SAHOL.IS", "SASA.IS",
	"SISE.IS", "SOKM.IS", "TAVHL.IS", "TCELL.IS", "THYAO.IS", "TKFEN.IS", "TOASO.IS", "TRKCM.IS",
	"TTKOM.IS", "TUPRS.IS", "ULKER.IS", "VAKBN.IS", "VESTL.IS", "YATAS.IS", "YKBNK.IS", "ZOREN.IS",
}

// DefaultBanner heads every bot reply.
const DefaultBanner = "🚨 YATIRIM TAVSİYESİ DEĞİLDİR 🚨\n🔵 Eğitim amaçlıdır 🔵"

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token" envconfig:"BOT_TOKEN"`
		ChatID   string `yaml:"chat_id" envconfig:"CHAT_ID"`
		APIBase  string `yaml:"api_base" envconfig:"API_BASE"`
	} `yaml:"telegram" envconfig:"TELEGRAM"`
	DataSource struct {
		Provider        string        `yaml:"provider" envconfig:"PROVIDER"` // yahoo, http or mock
		BaseURL         string        `yaml:"base_url" envconfig:"BASE_URL"`
		APIKey          string        `yaml:"api_key" envconfig:"API_KEY"`
		Lookback        string        `yaml:"lookback" envconfig:"LOOKBACK"`
		RatePerSecond   float64       `yaml:"rate_per_second" envconfig:"RATE_PER_SECOND"`
		Burst           int           `yaml:"burst" envconfig:"BURST"`
		BreakerFailures uint32        `yaml:"breaker_failures" envconfig:"BREAKER_FAILURES"`
		BreakerTimeout  time.Duration `yaml:"breaker_timeout" envconfig:"BREAKER_TIMEOUT"`
	} `yaml:"data_source" envconfig:"DATA_SOURCE"`
	Universe struct {
		Symbols      []string `yaml:"symbols" envconfig:"SYMBOLS"`
		MarketSuffix string   `yaml:"market_suffix" envconfig:"MARKET_SUFFIX"`
		Banner       string   `yaml:"banner" envconfig:"BANNER"`
	} `yaml:"universe" envconfig:"UNIVERSE"`
	Indicators struct {
		RSIWindow       int     `yaml:"rsi_window" envconfig:"RSI_WINDOW"`
		MomentumWindow  int     `yaml:"momentum_window" envconfig:"MOMENTUM_WINDOW"`
		OversoldRSI     float64 `yaml:"oversold_rsi" envconfig:"OVERSOLD_RSI"`
		DeepOversoldRSI float64 `yaml:"deep_oversold_rsi" envconfig:"DEEP_OVERSOLD_RSI"`
		MomentumDropPct float64 `yaml:"momentum_drop_pct" envconfig:"MOMENTUM_DROP_PCT"`
		TopAccuracy     int     `yaml:"top_accuracy" envconfig:"TOP_ACCURACY"`
		TopOversold     int     `yaml:"top_oversold" envconfig:"TOP_OVERSOLD"`
		TopMomentum     int     `yaml:"top_momentum" envconfig:"TOP_MOMENTUM"`
		TopComposite    int     `yaml:"top_composite" envconfig:"TOP_COMPOSITE"`
	} `yaml:"indicators" envconfig:"INDICATORS"`
	Classifier struct {
		Trees        int     `yaml:"trees" envconfig:"TREES"`
		Seed         int64   `yaml:"seed" envconfig:"SEED"`
		TestFraction float64 `yaml:"test_fraction" envconfig:"TEST_FRACTION"`
		MinBars      int     `yaml:"min_bars" envconfig:"MIN_BARS"`
		MaxDepth     int     `yaml:"max_depth" envconfig:"MAX_DEPTH"`
	} `yaml:"classifier" envconfig:"CLASSIFIER"`
	Scan struct {
		Concurrency int           `yaml:"concurrency" envconfig:"CONCURRENCY"`
		Timeout     time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	} `yaml:"scan" envconfig:"SCAN"`
	Schedule struct {
		DailyCron  string `yaml:"daily_cron" envconfig:"CRON_DAILY"`
		RunOnStart bool   `yaml:"run_on_start" envconfig:"RUN_ON_START"`
	} `yaml:"schedule" envconfig:"SCHEDULE"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`
	} `yaml:"database" envconfig:"DATABASE"`
	HTTP struct {
		Addr string `yaml:"addr" envconfig:"ADDR"`
	} `yaml:"http" envconfig:"HTTP"`
	Log struct {
		Level  string `yaml:"level" envconfig:"LEVEL"`
		Format string `yaml:"format" envconfig:"FORMAT"`
	} `yaml:"log" envconfig:"LOG"`
	Proxy string `yaml:"proxy" envconfig:"HTTPS_PROXY"`
}

// Load reads config from a YAML file, then a .env file if present, then environment
// variable overrides. Nested keys are SECTION_KEY (TELEGRAM_BOT_TOKEN); most also accept
// the bare key (SQLITE_PATH, BOT_TOKEN, RUN_ON_START, CRON_DAILY).
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// godotenv never overrides variables already set in the process environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Telegram.APIBase == "" {
		c.Telegram.APIBase = "https://api.telegram.org"
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
		if c.DataSource.BaseURL != "" {
			c.DataSource.Provider = "http"
		}
	}
	if c.DataSource.Lookback == "" {
		c.DataSource.Lookback = "1y"
	}
	if c.DataSource.RatePerSecond == 0 {
		c.DataSource.RatePerSecond = 5
	}
	if c.DataSource.Burst == 0 {
		c.DataSource.Burst = 5
	}
	if c.DataSource.BreakerFailures == 0 {
		c.DataSource.BreakerFailures = 5
	}
	if c.DataSource.BreakerTimeout == 0 {
		c.DataSource.BreakerTimeout = 30 * time.Second
	}
	if len(c.Universe.Symbols) == 0 {
		c.Universe.Symbols = append([]string(nil), DefaultSymbols...)
	}
	if c.Universe.MarketSuffix == "" {
		c.Universe.MarketSuffix = ".IS"
	}
	if c.Universe.Banner == "" {
		c.Universe.Banner = DefaultBanner
	}
	if c.Indicators.RSIWindow == 0 {
		c.Indicators.RSIWindow = 14
	}
	if c.Indicators.MomentumWindow == 0 {
		c.Indicators.MomentumWindow = 10
	}
	if c.Indicators.OversoldRSI == 0 {
		c.Indicators.OversoldRSI = 40
	}
	if c.Indicators.DeepOversoldRSI == 0 {
		c.Indicators.DeepOversoldRSI = 30
	}
	if c.Indicators.MomentumDropPct == 0 {
		c.Indicators.MomentumDropPct = -5
	}
	if c.Indicators.TopAccuracy == 0 {
		c.Indicators.TopAccuracy = 10
	}
	if c.Indicators.TopOversold == 0 {
		c.Indicators.TopOversold = 10
	}
	if c.Indicators.TopMomentum == 0 {
		c.Indicators.TopMomentum = 10
	}
	if c.Indicators.TopComposite == 0 {
		c.Indicators.TopComposite = 5
	}
	if c.Classifier.Trees == 0 {
		c.Classifier.Trees = 100
	}
	if c.Classifier.Seed == 0 {
		c.Classifier.Seed = 42
	}
	if c.Classifier.TestFraction == 0 {
		c.Classifier.TestFraction = 0.2
	}
	if c.Classifier.MinBars == 0 {
		c.Classifier.MinBars = 2
	}
	if c.Scan.Concurrency == 0 {
		c.Scan.Concurrency = 8
	}
	if c.Scan.Timeout == 0 {
		c.Scan.Timeout = 2 * time.Minute
	}
	if c.Schedule.DailyCron == "" {
		c.Schedule.DailyCron = "0 30 18 * * 1-5"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/bistradar.db"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "http":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the http provider")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not one of yahoo, http, mock", c.DataSource.Provider)
	}
	if len(c.Universe.Symbols) == 0 {
		return fmt.Errorf("universe.symbols must not be empty")
	}
	if c.Indicators.RSIWindow < 1 || c.Indicators.MomentumWindow < 1 {
		return fmt.Errorf("indicator windows must be positive")
	}
	if c.Indicators.DeepOversoldRSI > c.Indicators.OversoldRSI {
		return fmt.Errorf("indicators.deep_oversold_rsi must not exceed indicators.oversold_rsi")
	}
	if c.Classifier.TestFraction <= 0 || c.Classifier.TestFraction >= 1 {
		return fmt.Errorf("classifier.test_fraction must be in (0,1)")
	}
	if c.Classifier.Trees < 1 {
		return fmt.Errorf("classifier.trees must be positive")
	}
	if c.Scan.Concurrency < 1 {
		return fmt.Errorf("scan.concurrency must be positive")
	}
	if _, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow).Parse(c.Schedule.DailyCron); err != nil {
		return fmt.Errorf("schedule.daily_cron: %w", err)
	}
	return nil
}

// ValidateBot checks the extra settings the long-running bot needs.
func (c *Config) ValidateBot() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	return nil
}
