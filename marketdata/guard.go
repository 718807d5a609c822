package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/rustyeddy/riskbench/internal/telemetry"
	"github.com/rustyeddy/riskbench/market"
)

// GuardOptions tune a Guarded provider. Zero values take the defaults,
// except MaxRetries where zero disables retries.
type GuardOptions struct {
	Name            string
	RatePerSecond   float64
	Burst           int
	MaxRetries      int
	BackoffBase     time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

func DefaultGuardOptions() GuardOptions {
	return GuardOptions{
		Name:            "bars",
		RatePerSecond:   10,
		Burst:           5,
		MaxRetries:      3,
		BackoffBase:     200 * time.Millisecond,
		BreakerFailures: 5,
		BreakerTimeout:  30 * time.Second,
	}
}

func (o GuardOptions) withDefaults() GuardOptions {
	d := DefaultGuardOptions()
	if o.Name == "" {
		o.Name = d.Name
	}
	if o.RatePerSecond <= 0 {
		o.RatePerSecond = d.RatePerSecond
	}
	if o.Burst <= 0 {
		o.Burst = d.Burst
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = d.BackoffBase
	}
	if o.BreakerFailures == 0 {
		o.BreakerFailures = d.BreakerFailures
	}
	if o.BreakerTimeout <= 0 {
		o.BreakerTimeout = d.BreakerTimeout
	}
	return o
}

// Guarded rate-limits calls to Next, retries transient failures with
// exponential backoff and stops calling Next while the breaker is open.
// A *market.DataError from Next is final: it is neither retried nor counted
// as a breaker failure.
type Guarded struct {
	Next    market.Provider
	Log     zerolog.Logger
	opts    GuardOptions
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	tel     *telemetry.Metrics
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewGuarded(next market.Provider, opts GuardOptions, log zerolog.Logger, tel *telemetry.Metrics) *Guarded {
	opts = opts.withDefaults()
	g := &Guarded{
		Next:    next,
		Log:     log,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.Burst),
		tel:     tel,
		sleep:   sleepCtx,
	}

	st := gobreaker.Settings{Name: opts.Name, Timeout: opts.BreakerTimeout}
	st.ReadyToTrip = func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= opts.BreakerFailures }
	st.IsSuccessful = func(err error) bool { return err == nil || permanent(err) }
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		g.Log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("provider breaker state change")
		g.tel.SetBreakerState(int(to))
	}
	g.breaker = gobreaker.NewCircuitBreaker(st)
	return g
}

// State reports the breaker state.
func (g *Guarded) State() gobreaker.State { return g.breaker.State() }

func (g *Guarded) Bars(ctx context.Context, symbol string, start, end time.Time) (market.Series, error) {
	var lastErr error
	for attempt := 0; attempt <= g.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			d := g.opts.BackoffBase << (attempt - 1)
			g.Log.Debug().Str("symbol", symbol).Int("attempt", attempt).Dur("backoff", d).Err(lastErr).Msg("retrying bar fetch")
			if err := g.sleep(ctx, d); err != nil {
				return nil, err
			}
		}
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		out, err := g.breaker.Execute(func() (interface{}, error) {
			return g.Next.Bars(ctx, symbol, start, end)
		})
		if err == nil {
			return out.(market.Series), nil
		}

		switch {
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case permanent(err):
			return nil, err
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			g.tel.ProviderError("breaker_open")
			return nil, fmt.Errorf("marketdata: %s: %w", symbol, err)
		}
		g.tel.ProviderError("transient")
		lastErr = err
	}
	return nil, fmt.Errorf("marketdata: %s: giving up after %d attempts: %w", symbol, g.opts.MaxRetries+1, lastErr)
}

func permanent(err error) bool {
	var de *market.DataError
	return errors.As(err, &de)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
