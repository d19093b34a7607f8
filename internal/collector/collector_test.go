package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"BistRadar/internal/model"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartJSON = `{"chart":{"result":[{
  "timestamp":[1700179200,1700006400,1700092800,1700265600],
  "indicators":{"quote":[{
    "open":[10.5,10.0,null,11.0],
    "high":[11.0,10.4,null,11.5],
    "low":[10.2,9.8,null,10.8],
    "close":[10.8,10.2,null,11.2],
    "volume":[1200,1000,null,1500]
  }]}}],"error":null}}`

func TestYahooFetcher_ParsesAndSorts(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		w.Write([]byte(chartJSON))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	bars, err := f.FetchDailyHistory(context.Background(), "THYAO.IS", "1y")
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/THYAO.IS", gotPath)
	assert.Contains(t, gotQuery, "interval=1d")
	assert.Contains(t, gotQuery, "range=1y")

	require.Len(t, bars, 3, "null bar must be skipped")
	assert.Equal(t, 10.2, bars[0].Close)
	assert.Equal(t, 10.8, bars[1].Close)
	assert.Equal(t, 11.2, bars[2].Close)
	assert.True(t, bars[0].Time.Before(bars[1].Time))
}

func TestYahooFetcher_FillsMissingPricesFromClose(t *testing.T) {
	const partial = `{"chart":{"result":[{
  "timestamp":[1700006400,1700092800],
  "indicators":{"quote":[{
    "open":[10.0,null],
    "high":[10.4,null],
    "low":[9.8],
    "close":[10.2,10.6],
    "volume":[1000,null]
  }]}}],"error":null}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(partial))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	bars, err := f.FetchDailyHistory(context.Background(), "THYAO.IS", "1y")
	require.NoError(t, err)

	require.Len(t, bars, 2)
	assert.Equal(t, model.Bar{Time: bars[1].Time, Open: 10.6, High: 10.6, Low: 10.6, Close: 10.6}, bars[1])
	assert.Equal(t, 9.8, bars[0].Low)
}

func TestYahooFetcher_SymbolMap(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(chartJSON))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	_, err := f.FetchDailyHistory(context.Background(), "BIST100", "")
	require.NoError(t, err)
	assert.Equal(t, "/v8/finance/chart/XU100.IS", gotPath)
}

func TestYahooFetcher_Unavailable(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"not found", http.StatusNotFound, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`},
		{"api error", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"delisted"}}}`},
		{"empty result", http.StatusOK, `{"chart":{"result":[],"error":null}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			f := NewYahooFetcher("")
			f.BaseURL = srv.URL
			_, err := f.FetchDailyHistory(context.Background(), "NOPE.IS", "1y")
			assert.ErrorIs(t, err, model.ErrDataUnavailable)
		})
	}
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "GARAN.IS", r.URL.Query().Get("symbol"))
		w.Write([]byte(`[{"timestamp":1700092800,"close":2},{"timestamp":1700006400,"close":1}]`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL, "secret", "")
	bars, err := f.FetchDailyHistory(context.Background(), "GARAN.IS", "1y")
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 1.0, bars[0].Close)
}

type countingFetcher struct {
	calls atomic.Int32
	err   error
	bars  []model.Bar
}

func (c *countingFetcher) Name() string { return "counting" }

func (c *countingFetcher) FetchDailyHistory(context.Context, string, string) ([]model.Bar, error) {
	c.calls.Add(1)
	return c.bars, c.err
}

func TestCollector_EmptySeriesIsUnavailable(t *testing.T) {
	col := NewCollector(&countingFetcher{}, Options{}, nil, zerolog.Nop())
	_, err := col.Collect(context.Background(), "AKBNK.IS")
	assert.ErrorIs(t, err, model.ErrDataUnavailable)
}

func TestCollector_WrapsProviderErrors(t *testing.T) {
	col := NewCollector(&countingFetcher{err: errors.New("connection reset")}, Options{}, nil, zerolog.Nop())
	_, err := col.Collect(context.Background(), "AKBNK.IS")
	assert.ErrorIs(t, err, model.ErrDataUnavailable)
	assert.True(t, strings.Contains(err.Error(), "connection reset"))
}

func TestCollector_ReturnsSeries(t *testing.T) {
	col := NewCollector(&MockFetcher{Days: 30}, Options{}, nil, zerolog.Nop())
	series, err := col.Collect(context.Background(), "SISE.IS")
	require.NoError(t, err)
	assert.Equal(t, "SISE.IS", series.Symbol)
	assert.Equal(t, "mock", series.Source)
	assert.Len(t, series.Bars, 30)
}

func TestCollector_BreakerOpensOnProviderFailures(t *testing.T) {
	f := &countingFetcher{err: errors.New("503")}
	col := NewCollector(f, Options{BreakerFailures: 2, BreakerTimeout: time.Minute}, nil, zerolog.Nop())

	for i := 0; i < 2; i++ {
		_, err := col.Collect(context.Background(), "X.IS")
		require.Error(t, err)
	}
	_, err := col.Collect(context.Background(), "X.IS")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.ErrorIs(t, err, model.ErrDataUnavailable)
	assert.Equal(t, int32(2), f.calls.Load(), "open breaker must not reach the provider")
}

func TestCollector_UnknownSymbolDoesNotTripBreaker(t *testing.T) {
	f := &countingFetcher{err: model.ErrDataUnavailable}
	col := NewCollector(f, Options{BreakerFailures: 1, BreakerTimeout: time.Minute}, nil, zerolog.Nop())
	for i := 0; i < 3; i++ {
		_, err := col.Collect(context.Background(), "NOPE.IS")
		assert.ErrorIs(t, err, model.ErrDataUnavailable)
	}
	assert.Equal(t, int32(3), f.calls.Load())
}

func TestMockFetcher(t *testing.T) {
	m := &MockFetcher{Days: 60}
	a, err := m.FetchDailyHistory(context.Background(), "A.IS", "")
	require.NoError(t, err)
	b, err := m.FetchDailyHistory(context.Background(), "A.IS", "")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 60)

	boom := errors.New("boom")
	m = &MockFetcher{Fail: map[string]error{"B.IS": boom}}
	_, err = m.FetchDailyHistory(context.Background(), "B.IS", "")
	assert.ErrorIs(t, err, boom)
}
