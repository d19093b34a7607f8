package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"BistRadar/internal/metrics"
	"BistRadar/internal/model"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Options tunes how the Collector talks to its provider.
type Options struct {
	Lookback        string
	RatePerSecond   float64 // 0 disables rate limiting
	Burst           int
	BreakerFailures uint32 // consecutive failures that open the breaker; 0 disables it
	BreakerTimeout  time.Duration
}

// Collector fetches one PriceSeries per request through a rate limiter and circuit breaker.
type Collector struct {
	Fetcher Fetcher
	opts    Options
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	metrics *metrics.Registry
	log     zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, opts Options, m *metrics.Registry, log zerolog.Logger) *Collector {
	if opts.Lookback == "" {
		opts.Lookback = DefaultLookback
	}
	c := &Collector{
		Fetcher: fetcher,
		opts:    opts,
		metrics: m,
		log:     log.With().Str("component", "collector").Str("provider", fetcher.Name()).Logger(),
	}
	if opts.RatePerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}
	if opts.BreakerFailures > 0 {
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    fetcher.Name(),
			Timeout: opts.BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= opts.BreakerFailures
			},
			// An unknown symbol or a cancelled or timed-out scan says nothing about provider health.
			IsSuccessful: func(err error) bool {
				return err == nil ||
					errors.Is(err, model.ErrDataUnavailable) ||
					errors.Is(err, context.Canceled) ||
					errors.Is(err, context.DeadlineExceeded)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				c.log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("provider breaker state change")
				c.metrics.SetBreakerOpen(name, to == gobreaker.StateOpen)
			},
		})
	}
	return c
}

// Collect fetches the daily history for symbol. Any failure, and an empty series,
// is reported as model.ErrDataUnavailable.
func (c *Collector) Collect(ctx context.Context, symbol string) (*model.PriceSeries, error) {
	start := time.Now()
	bars, err := c.fetch(ctx, symbol)
	if err != nil {
		c.metrics.ObserveFetch(c.Fetcher.Name(), "error", time.Since(start))
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("fetch daily history failed")
		if errors.Is(err, model.ErrDataUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("fetch %s: %w: %w", symbol, model.ErrDataUnavailable, err)
	}
	if len(bars) == 0 {
		c.metrics.ObserveFetch(c.Fetcher.Name(), "empty", time.Since(start))
		return nil, fmt.Errorf("fetch %s: empty series: %w", symbol, model.ErrDataUnavailable)
	}
	c.metrics.ObserveFetch(c.Fetcher.Name(), "ok", time.Since(start))
	c.log.Debug().Str("symbol", symbol).Int("bars", len(bars)).Dur("elapsed", time.Since(start)).Msg("fetched daily history")

	return &model.PriceSeries{
		Symbol:    symbol,
		Bars:      bars,
		Source:    c.Fetcher.Name(),
		FetchedAt: time.Now(),
	}, nil
}

func (c *Collector) fetch(ctx context.Context, symbol string) ([]model.Bar, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}
	if c.breaker == nil {
		return c.Fetcher.FetchDailyHistory(ctx, symbol, c.opts.Lookback)
	}
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.Fetcher.FetchDailyHistory(ctx, symbol, c.opts.Lookback)
	})
	if err != nil {
		return nil, err
	}
	return out.([]model.Bar), nil
}
