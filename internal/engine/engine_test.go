package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"BistRadar/internal/classifier"
	"BistRadar/internal/collector"
	"BistRadar/internal/model"
	"BistRadar/internal/recorder"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRecorder struct {
	mu   sync.Mutex
	runs []*recorder.ScanRun
}

func (m *memRecorder) RecordScan(run *recorder.ScanRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *memRecorder) RecentScans(int) ([]recorder.ScanRun, error) { return nil, nil }
func (m *memRecorder) Close() error                                { return nil }

// countingFetcher records how often each symbol is fetched.
type countingFetcher struct {
	collector.Fetcher
	mu    sync.Mutex
	calls map[string]int
}

func (c *countingFetcher) FetchDailyHistory(ctx context.Context, symbol, lookback string) ([]model.Bar, error) {
	c.mu.Lock()
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[symbol]++
	c.mu.Unlock()
	return c.Fetcher.FetchDailyHistory(ctx, symbol, lookback)
}

func linearBars(n int, first, last float64) []model.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	step := (last - first) / float64(n-1)
	bars := make([]model.Bar, n)
	for i := range bars {
		c := first + step*float64(i)
		bars[i] = model.Bar{Time: start.AddDate(0, 0, i), Open: c, High: c * 1.01, Low: c * 0.99, Close: c}
	}
	return bars
}

func newTestEngine(t *testing.T, f collector.Fetcher, universe []string, opts Options) (*Engine, *memRecorder) {
	t.Helper()
	col := collector.NewCollector(f, collector.Options{}, nil, zerolog.Nop())
	clf := classifier.New(classifier.Options{Trees: 10, Seed: 42})
	rec := &memRecorder{}
	return New(col, clf, universe, opts, rec, nil, zerolog.Nop()), rec
}

func TestAnalyzeOne_MovingAverages(t *testing.T) {
	f := &collector.MockFetcher{Data: map[string][]model.Bar{"AAA.IS": linearBars(200, 10, 30)}}
	e, rec := newTestEngine(t, f, nil, Options{})

	ctx := WithSource(context.Background(), model.SourceTelegram)
	r, err := e.AnalyzeOne(ctx, "AAA.IS", model.ModeMovingAverage)
	require.NoError(t, err)
	require.NotNil(t, r.Signals.MA)
	require.NotNil(t, r.Signals.MA.MA200)
	assert.InDelta(t, 20.0, *r.Signals.MA.MA200, 1e-9)
	assert.Equal(t, "Alınmaz", r.Commentary)
	assert.Nil(t, r.Signals.RSI, "only the requested signal is computed")
	assert.Nil(t, r.Score)

	require.Len(t, rec.runs, 1)
	assert.Equal(t, model.SourceTelegram, rec.runs[0].Source)
	assert.Equal(t, "AAA.IS", rec.runs[0].Target)
	assert.Equal(t, 1, rec.runs[0].Analyzed)
	assert.NotEmpty(t, rec.runs[0].ID)
}

func TestAnalyzeOne_Composite(t *testing.T) {
	f := &collector.MockFetcher{Data: map[string][]model.Bar{"AAA.IS": linearBars(200, 10, 30)}}
	e, _ := newTestEngine(t, f, nil, Options{})

	r, err := e.AnalyzeOne(context.Background(), "AAA.IS", model.ModeComposite)
	require.NoError(t, err)
	require.NotNil(t, r.Score)
	assert.NotNil(t, r.Signals.MA)
	assert.NotNil(t, r.Signals.RSI)
	assert.NotNil(t, r.Signals.Momentum)
	assert.NotNil(t, r.Signals.Classifier)
	assert.Len(t, r.Score.Factors, 4)
	// Steady uptrend: above every MA, RSI 100, positive momentum. Only the classifier can score.
	assert.LessOrEqual(t, r.Score.Score, 3.0)
}

func TestAnalyzeOne_UnknownSymbol(t *testing.T) {
	f := &collector.MockFetcher{Data: map[string][]model.Bar{"AAA.IS": linearBars(50, 10, 20)}}
	e, rec := newTestEngine(t, f, nil, Options{})

	_, err := e.AnalyzeOne(context.Background(), "NOPE.IS", model.ModeRSI)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrDataUnavailable))
	require.Len(t, rec.runs, 1)
	assert.Equal(t, 1, rec.runs[0].Skipped)
	assert.Equal(t, model.SourceCLI, rec.runs[0].Source)
}

func TestAnalyzeOne_ShortHistory(t *testing.T) {
	f := &collector.MockFetcher{Data: map[string][]model.Bar{
		"AAA.IS":  linearBars(8, 10, 12),
		"TINY.IS": linearBars(4, 10, 12),
	}}
	e, _ := newTestEngine(t, f, nil, Options{})

	for _, mode := range []model.Mode{model.ModeRSI, model.ModeMomentum} {
		_, err := e.AnalyzeOne(context.Background(), "AAA.IS", mode)
		assert.True(t, errors.Is(err, model.ErrInsufficientHistory), "mode %s: %v", mode, err)
	}

	r, err := e.AnalyzeOne(context.Background(), "AAA.IS", model.ModeMovingAverage)
	require.NoError(t, err)
	assert.Nil(t, r.Signals.MA.MA50)
	assert.Contains(t, r.Commentary, "Belirsiz")

	// Three labeled pairs leave nothing to hold out.
	r, err = e.AnalyzeOne(context.Background(), "TINY.IS", model.ModeClassifier)
	require.NoError(t, err)
	assert.Nil(t, r.Signals.Classifier.Accuracy)
	assert.Equal(t, "Al", r.Commentary)
}

func TestAnalyzeUniverse_SkipsFailuresAndRanks(t *testing.T) {
	f := &collector.MockFetcher{
		Data: map[string][]model.Bar{
			"UP.IS":   linearBars(60, 10, 20),
			"FLAT.IS": linearBars(60, 10, 10.5),
			"DOWN.IS": linearBars(60, 20, 10),
		},
		Fail: map[string]error{"BAD.IS": errors.New("boom")},
	}
	universe := []string{"DOWN.IS", "BAD.IS", "FLAT.IS", "UP.IS", "MISSING.IS"}
	e, rec := newTestEngine(t, f, universe, Options{Concurrency: 2})

	r, err := e.AnalyzeUniverse(context.Background(), model.ModeMomentum)
	require.NoError(t, err)
	assert.Equal(t, 5, r.Requested)
	assert.Equal(t, 3, r.Analyzed)
	assert.Equal(t, []string{"BAD.IS", "MISSING.IS"}, r.Skipped)
	assert.False(t, r.Partial)

	var got []string
	for _, s := range r.Entries {
		got = append(got, s.Symbol)
	}
	assert.Equal(t, []string{"UP.IS", "FLAT.IS", "DOWN.IS"}, got)

	require.Len(t, rec.runs, 1)
	assert.Equal(t, "UNIVERSE", rec.runs[0].Target)
	assert.Equal(t, 2, rec.runs[0].Skipped)
	assert.Equal(t, 3, rec.runs[0].Results)
}

func TestAnalyzeUniverse_OversoldFilter(t *testing.T) {
	f := &collector.MockFetcher{Data: map[string][]model.Bar{
		"UP.IS":   linearBars(60, 10, 20),
		"DOWN.IS": linearBars(60, 20, 10),
	}}
	e, _ := newTestEngine(t, f, []string{"UP.IS", "DOWN.IS"}, Options{})

	r, err := e.AnalyzeUniverse(context.Background(), model.ModeRSI)
	require.NoError(t, err)
	require.Len(t, r.Entries, 1)
	assert.Equal(t, "DOWN.IS", r.Entries[0].Symbol)
	assert.InDelta(t, 0.0, r.Entries[0].RSI.RSI, 1e-9)
}

func TestAnalyzeUniverse_CompositeDeterministic(t *testing.T) {
	universe := []string{"A.IS", "B.IS", "C.IS", "D.IS", "E.IS", "F.IS", "G.IS", "H.IS"}
	f := &collector.MockFetcher{Days: 220}
	e, _ := newTestEngine(t, f, universe, Options{Concurrency: 4})

	first, err := e.AnalyzeUniverse(context.Background(), model.ModeComposite)
	require.NoError(t, err)
	require.Len(t, first.Scores, 5)
	for i := 1; i < len(first.Scores); i++ {
		assert.GreaterOrEqual(t, first.Scores[i-1].Score, first.Scores[i].Score)
	}

	second, err := e.AnalyzeUniverse(context.Background(), model.ModeComposite)
	require.NoError(t, err)
	for i := range first.Scores {
		assert.Equal(t, first.Scores[i].Symbol, second.Scores[i].Symbol)
		assert.Equal(t, first.Scores[i].Score, second.Scores[i].Score)
	}
}

func TestAnalyzeUniverse_TimeoutGivesPartialReport(t *testing.T) {
	f := &collector.MockFetcher{Days: 60, Delay: time.Second}
	e, _ := newTestEngine(t, f, []string{"A.IS", "B.IS"}, Options{ScanTimeout: 20 * time.Millisecond})

	r, err := e.AnalyzeUniverse(context.Background(), model.ModeMomentum)
	require.NoError(t, err)
	assert.True(t, r.Partial)
	assert.Equal(t, 0, r.Analyzed)
	assert.Equal(t, []string{"A.IS", "B.IS"}, r.Skipped)
}

func TestAnalyzeUniverse_TimeoutBoundsClassifierFits(t *testing.T) {
	f := &collector.MockFetcher{Days: 250}
	col := collector.NewCollector(f, collector.Options{}, nil, zerolog.Nop())
	clf := classifier.New(classifier.Options{Trees: 20000, Seed: 42})
	timeout := 50 * time.Millisecond
	e := New(col, clf, []string{"A.IS", "B.IS", "C.IS", "D.IS"}, Options{ScanTimeout: timeout}, nil, nil, zerolog.Nop())

	start := time.Now()
	r, err := e.AnalyzeUniverse(context.Background(), model.ModeClassifier)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Less(t, elapsed, timeout+500*time.Millisecond)
	assert.True(t, r.Partial)
	assert.Equal(t, 0, r.Analyzed)
	assert.Equal(t, []string{"A.IS", "B.IS", "C.IS", "D.IS"}, r.Skipped)
}

func TestAnalyzeOne_FetchesOncePerRequest(t *testing.T) {
	f := &countingFetcher{Fetcher: &collector.MockFetcher{Days: 220}}
	e, _ := newTestEngine(t, f, nil, Options{})

	r, err := e.AnalyzeOne(context.Background(), "AAA.IS", model.ModeComposite)
	require.NoError(t, err)
	assert.NotNil(t, r.Signals.MA)
	assert.NotNil(t, r.Signals.RSI)
	assert.NotNil(t, r.Signals.Momentum)
	assert.NotNil(t, r.Signals.Classifier)
	assert.Equal(t, map[string]int{"AAA.IS": 1}, f.calls)
}

func TestAnalyzeUniverse_FetchesEachSymbolOnce(t *testing.T) {
	universe := []string{"A.IS", "B.IS", "C.IS", "D.IS", "E.IS", "F.IS"}
	f := &countingFetcher{Fetcher: &collector.MockFetcher{Days: 220}}
	e, _ := newTestEngine(t, f, universe, Options{Concurrency: 3})

	r, err := e.AnalyzeUniverse(context.Background(), model.ModeComposite)
	require.NoError(t, err)
	assert.Equal(t, len(universe), r.Analyzed)
	require.Len(t, f.calls, len(universe))
	for _, symbol := range universe {
		assert.Equal(t, 1, f.calls[symbol], symbol)
	}
}

func TestAnalyzeUniverse_CancelledContext(t *testing.T) {
	f := &collector.MockFetcher{Days: 60}
	e, _ := newTestEngine(t, f, []string{"A.IS"}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.AnalyzeUniverse(ctx, model.ModeMomentum)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUnsupportedMode(t *testing.T) {
	e, _ := newTestEngine(t, &collector.MockFetcher{}, []string{"A.IS"}, Options{})

	_, err := e.AnalyzeUniverse(context.Background(), model.Mode("bogus"))
	assert.Error(t, err)
	_, err = e.AnalyzeOne(context.Background(), "A.IS", model.Mode("bogus"))
	assert.Error(t, err)
}

func TestSourceFrom(t *testing.T) {
	assert.Equal(t, model.SourceCLI, SourceFrom(context.Background()))
	assert.Equal(t, model.SourceHTTP, SourceFrom(WithSource(context.Background(), model.SourceHTTP)))
}
