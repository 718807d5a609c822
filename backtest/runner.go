package backtest

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/riskbench/market"
	"github.com/rustyeddy/riskbench/signals"
)

// Runner wires a provider, the signal extractor and a backend registry.
// It keeps no state between runs.
type Runner struct {
	Registry *Registry
	Provider market.Provider
}

// NewRunner returns a Runner. A nil registry means DefaultRegistry().
func NewRunner(reg *Registry, p market.Provider) *Runner {
	if reg == nil {
		reg = DefaultRegistry()
	}
	return &Runner{Registry: reg, Provider: p}
}

// Run validates cfg, fetches bars, extracts signals and simulates.
// Configuration problems are returned as *ConfigError before any work is
// done. Provider failures are absorbed into a Partial result. ctx is checked
// once, before the fetch.
func (r *Runner) Run(ctx context.Context, cfg Config, spec signals.Spec) (Result, error) {
	backend, err := r.prepare(cfg)
	if err != nil {
		return Result{}, err
	}
	if r.Provider == nil {
		return Result{}, fmt.Errorf("backtest: Provider is required")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	bars, err := r.Provider.Bars(ctx, cfg.Symbol, cfg.Start, cfg.End)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Result{}, err
		}
		var de *market.DataError
		if !errors.As(err, &de) {
			de = &market.DataError{Symbol: cfg.Symbol, Index: -1, Err: err}
		}
		res := backend.Run(nil, signals.Series{}, cfg)
		res.Reason = de.Error()
		return res, nil
	}

	return backend.Run(bars, signals.Extract(bars, spec), cfg), nil
}

// Simulate runs already-fetched bars and signals through the selected backend.
func (r *Runner) Simulate(cfg Config, bars market.Series, sig signals.Series) (Result, error) {
	backend, err := r.prepare(cfg)
	if err != nil {
		return Result{}, err
	}
	return backend.Run(bars, sig, cfg), nil
}

func (r *Runner) prepare(cfg Config) (Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	reg := r.Registry
	if reg == nil {
		reg = DefaultRegistry()
	}
	return reg.Resolve(cfg.Engine)
}

// Job is one entry of a batch.
type Job struct {
	Config Config       `json:"config"`
	Spec   signals.Spec `json:"strategy"`
}

// Outcome pairs a job's result with its error.
type Outcome struct {
	Result Result
	Err    error
}

// RunBatch runs jobs concurrently with at most workers in flight (0 means one
// per job). Outcomes are in input order. A failing job does not stop the
// others. The returned error is ctx.Err() when the batch was cancelled.
func (r *Runner) RunBatch(ctx context.Context, jobs []Job, workers int) ([]Outcome, error) {
	out := make([]Outcome, len(jobs))
	if workers <= 0 {
		workers = len(jobs)
	}

	var g errgroup.Group
	g.SetLimit(max(workers, 1))
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			res, err := r.Run(ctx, job.Config, job.Spec)
			out[i] = Outcome{Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out, ctx.Err()
}
