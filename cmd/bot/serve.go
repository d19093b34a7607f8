package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"BistRadar/internal/bot"
	"BistRadar/internal/notifier"
	"BistRadar/internal/scheduler"
	"BistRadar/internal/server"

	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var noHTTP bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot, the daily broadcast and the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateBot(); err != nil {
				return fmt.Errorf("config validation: %w", err)
			}
			log.Info().Msg("BistRadar starting")

			a := newApp(cfg, log)
			defer a.close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.APIBase, cfg.Proxy, log)
			formatter := notifier.NewFormatter(cfg.Universe.Banner)

			sched := scheduler.NewScheduler(ctx, a.engine, tn, formatter, log)
			if err := sched.RegisterAll(cfg.Schedule.DailyCron); err != nil {
				return fmt.Errorf("register cron tasks: %w", err)
			}
			sched.Start()
			defer sched.Stop()

			var srv *server.Server
			if !noHTTP {
				srv = server.New(server.Config{
					Addr:           cfg.HTTP.Addr,
					Log:            log,
					Analyzer:       a.engine,
					Recorder:       a.recorder,
					Metrics:        a.metrics,
					MarketSuffix:   cfg.Universe.MarketSuffix,
					RequestTimeout: cfg.Scan.Timeout + 30*time.Second,
				})
				go func() {
					if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Error().Err(err).Msg("http server")
						cancel()
					}
				}()
			}

			ctrl := bot.NewController(a.engine, tn, formatter, cfg.Universe.MarketSuffix, log)
			polling := make(chan struct{})
			go func() {
				defer close(polling)
				tn.StartPolling(ctx, ctrl.HandleUpdate)
			}()
			log.Info().Msg("telegram polling started")

			if cfg.Schedule.RunOnStart {
				log.Info().Msg("RUN_ON_START enabled, executing daily task now")
				go sched.RunNow()
			}

			log.Info().Msg("BistRadar is running. Press Ctrl+C to stop.")
			<-ctx.Done()
			log.Info().Msg("shutdown signal received, stopping...")

			if srv != nil {
				shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
				defer done()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					log.Warn().Err(err).Msg("http shutdown")
				}
			}
			<-polling
			log.Info().Msg("BistRadar stopped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&noHTTP, "no-http", false, "do not start the HTTP API")
	return cmd
}
