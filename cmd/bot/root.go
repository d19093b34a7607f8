package main

import (
	"fmt"
	"os"

	"BistRadar/internal/classifier"
	"BistRadar/internal/collector"
	"BistRadar/internal/config"
	"BistRadar/internal/engine"
	"BistRadar/internal/logging"
	"BistRadar/internal/metrics"
	"BistRadar/internal/recorder"
	"BistRadar/internal/strategy"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	provider   string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "bistradar",
		Short:         "Technical signal scanner and Telegram bot for Borsa Istanbul",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultConfig := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultConfig = v
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfig, "path to config.yaml")
	root.PersistentFlags().StringVar(&opts.provider, "provider", "", "override data_source.provider (yahoo, http, mock)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log.level")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newAnalyzeCmd(opts))
	root.AddCommand(newScanCmd(opts))
	return root
}

// app bundles the components shared by every command.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	metrics  *metrics.Registry
	recorder recorder.Recorder
	engine   *engine.Engine
}

func (o *rootOptions) load() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	if o.provider != "" {
		cfg.DataSource.Provider = o.provider
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("config validation: %w", err)
	}
	return cfg, logging.New(cfg.Log.Level, cfg.Log.Format), nil
}

// newApp builds the analysis stack.
func newApp(cfg *config.Config, log zerolog.Logger) *app {
	m := metrics.New()

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			rec = sr
		}
	}

	fetcher := newFetcher(cfg)
	log.Info().Str("provider", fetcher.Name()).Msg("data source")
	col := collector.NewCollector(fetcher, collector.Options{
		Lookback:        cfg.DataSource.Lookback,
		RatePerSecond:   cfg.DataSource.RatePerSecond,
		Burst:           cfg.DataSource.Burst,
		BreakerFailures: cfg.DataSource.BreakerFailures,
		BreakerTimeout:  cfg.DataSource.BreakerTimeout,
	}, m, log)

	clf := classifier.New(classifier.Options{
		Trees:        cfg.Classifier.Trees,
		Seed:         cfg.Classifier.Seed,
		TestFraction: cfg.Classifier.TestFraction,
		MinBars:      cfg.Classifier.MinBars,
		MaxDepth:     cfg.Classifier.MaxDepth,
	})

	ind := cfg.Indicators
	eng := engine.New(col, clf, cfg.Universe.Symbols, engine.Options{
		Policy: strategy.Policy{
			OversoldRSI:     ind.OversoldRSI,
			DeepOversoldRSI: ind.DeepOversoldRSI,
			MomentumDropPct: ind.MomentumDropPct,
			TopAccuracy:     ind.TopAccuracy,
			TopOversold:     ind.TopOversold,
			TopMomentum:     ind.TopMomentum,
			TopComposite:    ind.TopComposite,
		},
		RSIWindow:      ind.RSIWindow,
		MomentumWindow: ind.MomentumWindow,
		Concurrency:    cfg.Scan.Concurrency,
		ScanTimeout:    cfg.Scan.Timeout,
	}, rec, m, log)

	return &app{cfg: cfg, log: log, metrics: m, recorder: rec, engine: eng}
}

func newFetcher(cfg *config.Config) collector.Fetcher {
	switch cfg.DataSource.Provider {
	case "http":
		return collector.NewHTTPFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	case "mock":
		return &collector.MockFetcher{}
	}
	return collector.NewYahooFetcher(cfg.Proxy)
}

func (a *app) close() {
	if err := a.recorder.Close(); err != nil {
		a.log.Warn().Err(err).Msg("close recorder")
	}
}
