package scheduler

import (
	"context"
	"fmt"
	"time"

	"BistRadar/internal/engine"
	"BistRadar/internal/model"
	"BistRadar/internal/notifier"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scanner runs universe scans. *engine.Engine satisfies it.
type Scanner interface {
	AnalyzeUniverse(ctx context.Context, mode model.Mode) (*model.UniverseReport, error)
}

// Broadcaster delivers the digest. *notifier.TelegramNotifier satisfies it.
type Broadcaster interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Scanner   Scanner
	Notifier  Broadcaster
	Formatter *notifier.Formatter
	Ctx       context.Context

	log zerolog.Logger
	now func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, sc Scanner, b Broadcaster, f *notifier.Formatter, log zerolog.Logger) *Scheduler {
	l := log.With().Str("component", "scheduler").Logger()
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		Scanner:   sc,
		Notifier:  b,
		Formatter: f,
		Ctx:       ctx,
		log:       l,
		now:       time.Now,
	}
}

// RegisterAll registers the daily composite broadcast.
func (s *Scheduler) RegisterAll(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunNow executes the daily task immediately (for RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.dailyTask()
}

func (s *Scheduler) dailyTask() {
	s.log.Info().Msg("running daily top5 scan")
	ctx := engine.WithSource(s.Ctx, model.SourceCron)
	report, err := s.Scanner.AnalyzeUniverse(ctx, model.ModeComposite)
	if err != nil {
		s.log.Error().Err(err).Msg("daily scan")
		s.trySend(notifier.ScanFailedText)
		return
	}
	s.trySend(s.Formatter.FormatDailyDigest(report, s.now()))
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.log.Error().Err(err).Msg("send notification")
	}
}
