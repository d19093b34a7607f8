// Package engine runs single-symbol and universe analyses on freshly fetched price history.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"BistRadar/internal/calculator"
	"BistRadar/internal/classifier"
	"BistRadar/internal/metrics"
	"BistRadar/internal/model"
	"BistRadar/internal/recorder"
	"BistRadar/internal/strategy"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// SeriesSource fetches one price series per call. *collector.Collector satisfies it.
type SeriesSource interface {
	Collect(ctx context.Context, symbol string) (*model.PriceSeries, error)
}

// Options configures indicator windows, ranking policy and scan limits.
type Options struct {
	Policy         strategy.Policy
	RSIWindow      int
	MomentumWindow int
	Concurrency    int
	ScanTimeout    time.Duration
}

// DefaultOptions returns the stock windows and a scan bounded to two minutes.
func DefaultOptions() Options {
	return Options{
		Policy:         strategy.DefaultPolicy(),
		RSIWindow:      calculator.DefaultRSIWindow,
		MomentumWindow: calculator.DefaultMomentumWindow,
		Concurrency:    8,
		ScanTimeout:    2 * time.Minute,
	}
}

// Engine wires the indicator library, classifier and scoring policy to a price source.
type Engine struct {
	source     SeriesSource
	classifier *classifier.Classifier
	universe   []string
	opts       Options
	recorder   recorder.Recorder
	metrics    *metrics.Registry
	log        zerolog.Logger
}

// New creates an Engine over a fixed symbol universe.
func New(src SeriesSource, clf *classifier.Classifier, universe []string, opts Options,
	rec recorder.Recorder, m *metrics.Registry, log zerolog.Logger) *Engine {
	d := DefaultOptions()
	if opts.RSIWindow <= 0 {
		opts.RSIWindow = d.RSIWindow
	}
	if opts.MomentumWindow <= 0 {
		opts.MomentumWindow = d.MomentumWindow
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = d.Concurrency
	}
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = d.ScanTimeout
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Engine{
		source:     src,
		classifier: clf,
		universe:   append([]string(nil), universe...),
		opts:       opts,
		recorder:   rec,
		metrics:    m,
		log:        log.With().Str("component", "engine").Logger(),
	}
}

// Universe returns the configured symbol list.
func (e *Engine) Universe() []string { return append([]string(nil), e.universe...) }

// AnalyzeOne fetches symbol once and computes what mode needs from that single series.
// It returns an error wrapping model.ErrDataUnavailable or model.ErrInsufficientHistory
// when the symbol cannot be analyzed.
func (e *Engine) AnalyzeOne(ctx context.Context, symbol string, mode model.Mode) (*model.SymbolReport, error) {
	start := time.Now()
	report, err := e.analyzeOne(ctx, symbol, mode)

	run := e.newRun(ctx, mode, symbol, start)
	run.Requested = 1
	if err == nil {
		run.Analyzed, run.Results = 1, 1
	} else {
		run.Skipped = 1
	}
	e.record(run)
	e.metrics.ObserveScan(string(mode), string(run.Source), run.Elapsed, false)
	return report, err
}

func (e *Engine) analyzeOne(ctx context.Context, symbol string, mode model.Mode) (*model.SymbolReport, error) {
	series, err := e.source.Collect(ctx, symbol)
	if err != nil {
		return nil, err
	}
	sig, err := e.computeSignals(ctx, series, mode)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", symbol, err)
	}

	report := &model.SymbolReport{Symbol: symbol, Mode: mode, Signals: sig}
	switch mode {
	case model.ModeMovingAverage:
		if sig.MA == nil {
			return nil, fmt.Errorf("%s moving averages: %w", symbol, model.ErrInsufficientHistory)
		}
		report.Commentary = strategy.MAVerdict(sig.MA)
	case model.ModeClassifier:
		if sig.Classifier == nil {
			return nil, fmt.Errorf("%s classifier: %w", symbol, model.ErrInsufficientHistory)
		}
		report.Commentary = strategy.DirectionLabel(sig.Classifier.Direction)
	case model.ModeRSI:
		if sig.RSI == nil {
			return nil, fmt.Errorf("%s rsi: %w", symbol, model.ErrInsufficientHistory)
		}
		report.Commentary = strategy.RSICommentary(sig.RSI.RSI)
	case model.ModeMomentum:
		if sig.Momentum == nil {
			return nil, fmt.Errorf("%s momentum: %w", symbol, model.ErrInsufficientHistory)
		}
		report.Commentary = strategy.MomentumCommentary(sig.Momentum.MomentumPct)
	case model.ModeComposite:
		report.Score = strategy.Evaluate(sig, e.opts.Policy)
	default:
		return nil, fmt.Errorf("unsupported mode %q", mode)
	}
	return report, nil
}

// AnalyzeUniverse scans every symbol in parallel and ranks the results for mode.
// Symbols whose fetch fails are skipped. When the scan timeout expires, fetches and
// classifier fits in flight stop, the report holds whatever finished and Partial is set.
// Cancelling ctx aborts the scan.
func (e *Engine) AnalyzeUniverse(ctx context.Context, mode model.Mode) (*model.UniverseReport, error) {
	switch mode {
	case model.ModeMovingAverage, model.ModeClassifier, model.ModeRSI, model.ModeMomentum, model.ModeComposite:
	default:
		return nil, fmt.Errorf("unsupported mode %q", mode)
	}
	start := time.Now()
	scanCtx, cancel := context.WithTimeout(ctx, e.opts.ScanTimeout)
	defer cancel()

	results := make([]*model.Signals, len(e.universe))
	failures := make([]error, len(e.universe))

	var g errgroup.Group
	g.SetLimit(e.opts.Concurrency)
	for i, symbol := range e.universe {
		g.Go(func() error {
			if scanCtx.Err() != nil {
				failures[i] = scanCtx.Err()
				return nil
			}
			series, err := e.source.Collect(scanCtx, symbol)
			if err != nil {
				failures[i] = err
				return nil
			}
			sig, err := e.computeSignals(scanCtx, series, mode)
			if err != nil {
				failures[i] = err
				return nil
			}
			results[i] = sig
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("universe scan %s: %w", mode, err)
	}

	report := &model.UniverseReport{Mode: mode, Requested: len(e.universe)}
	var entries []*model.Signals
	for i, sig := range results {
		if sig == nil {
			report.Skipped = append(report.Skipped, e.universe[i])
			e.metrics.SkipSymbol(skipReason(failures[i]))
			e.log.Warn().Err(failures[i]).Str("symbol", e.universe[i]).Msg("skip symbol")
			continue
		}
		entries = append(entries, sig)
	}
	report.Analyzed = len(entries)
	// Partial only when the deadline cut symbols off, not when it fired after the last one finished.
	report.Partial = scanCtx.Err() != nil && len(report.Skipped) > 0

	if mode == model.ModeComposite {
		scores := make([]*model.SymbolScore, len(entries))
		for i, sig := range entries {
			scores[i] = strategy.Evaluate(sig, e.opts.Policy)
		}
		report.Scores = strategy.TopComposite(scores, e.opts.Policy.TopComposite)
	} else {
		report.Entries = strategy.Rank(mode, entries, e.opts.Policy)
	}
	report.Elapsed = time.Since(start)

	run := e.newRun(ctx, mode, "", start)
	run.Requested, run.Analyzed, run.Skipped, run.Results = report.Requested, report.Analyzed, len(report.Skipped), report.Len()
	run.Partial = report.Partial
	e.record(run)
	e.metrics.ObserveScan(string(mode), string(run.Source), report.Elapsed, true)

	ev := e.log.Info()
	if report.Partial {
		ev = e.log.Warn()
	}
	ev.Str("mode", string(mode)).
		Int("analyzed", report.Analyzed).
		Int("skipped", len(report.Skipped)).
		Int("results", report.Len()).
		Dur("elapsed", report.Elapsed).
		Bool("partial", report.Partial).
		Msg("universe scan finished")
	return report, nil
}

// computeSignals derives every signal mode needs from one series. It fails only when ctx
// is done, so a scan deadline also bounds classifier fits.
func (e *Engine) computeSignals(ctx context.Context, series *model.PriceSeries, mode model.Mode) (*model.Signals, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sig := &model.Signals{Symbol: series.Symbol}
	all := mode == model.ModeComposite
	l := e.log.With().Str("symbol", series.Symbol).Logger()

	if all || mode == model.ModeMovingAverage {
		if ma, err := calculator.MovingAverages(series.Bars); err != nil {
			l.Debug().Err(err).Msg("moving averages absent")
		} else {
			sig.MA = ma
		}
	}
	if all || mode == model.ModeRSI {
		if rsi, err := calculator.RSI(series.Bars, e.opts.RSIWindow); err != nil {
			l.Debug().Err(err).Msg("rsi absent")
		} else {
			sig.RSI = rsi
		}
	}
	if all || mode == model.ModeMomentum {
		if mom, err := calculator.Momentum(series.Bars, e.opts.MomentumWindow); err != nil {
			l.Debug().Err(err).Msg("momentum absent")
		} else {
			sig.Momentum = mom
		}
	}
	if all || mode == model.ModeClassifier {
		start := time.Now()
		res, err := e.classifier.Predict(ctx, series.Bars)
		e.metrics.ObserveFit(time.Since(start))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err != nil {
			l.Debug().Err(err).Msg("classifier absent")
		} else {
			sig.Classifier = res
		}
	}
	return sig, nil
}

func (e *Engine) newRun(ctx context.Context, mode model.Mode, target string, start time.Time) *recorder.ScanRun {
	if target == "" {
		target = "UNIVERSE"
	}
	return &recorder.ScanRun{
		ID:        uuid.NewString(),
		Source:    SourceFrom(ctx),
		Mode:      mode,
		Target:    target,
		StartedAt: start,
		Elapsed:   time.Since(start),
	}
}

func (e *Engine) record(run *recorder.ScanRun) {
	if err := e.recorder.RecordScan(run); err != nil {
		e.log.Error().Err(err).Str("run_id", run.ID).Msg("record scan")
	}
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, model.ErrDataUnavailable):
		return "data_unavailable"
	case err == nil:
		return "unknown"
	}
	return "error"
}
