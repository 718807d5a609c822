// Package research runs the evaluation pipeline: backtest a strategy, assess
// its risk and optionally record the outcome in the journal.
package research

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/riskbench/backtest"
	"github.com/rustyeddy/riskbench/internal/telemetry"
	"github.com/rustyeddy/riskbench/journal"
	"github.com/rustyeddy/riskbench/pkg/id"
	"github.com/rustyeddy/riskbench/risk"
	"github.com/rustyeddy/riskbench/signals"
)

// ErrNoJournal is returned by lookups when the service has no journal.
var ErrNoJournal = errors.New("research: no journal configured")

// Request is one strategy evaluation.
type Request struct {
	Config   backtest.Config `json:"config"`
	Strategy signals.Spec    `json:"strategy"`
	Persist  bool            `json:"persist"`
}

// Report is the combined outcome of a request.
type Report struct {
	ID         string          `json:"id"`
	Result     backtest.Result `json:"result"`
	Assessment risk.Assessment `json:"assessment"`
	Saved      bool            `json:"saved"`
}

// Service is safe for concurrent use when its journal is.
type Service struct {
	Runner    *backtest.Runner
	Assessor  *risk.Assessor
	Journal   journal.Journal
	Log       zerolog.Logger
	Telemetry *telemetry.Metrics
	NewID     func() string
}

func New(runner *backtest.Runner, assessor *risk.Assessor, j journal.Journal, log zerolog.Logger, tel *telemetry.Metrics) *Service {
	if assessor == nil {
		assessor = risk.NewAssessor(risk.DefaultPolicy())
	}
	return &Service{
		Runner:    runner,
		Assessor:  assessor,
		Journal:   j,
		Log:       log,
		Telemetry: tel,
		NewID:     id.New,
	}
}

// Evaluate runs, assesses and, when req.Persist is set and a journal is
// configured, saves one request. Config errors come back before any run.
// A journal failure is returned alongside the otherwise complete report.
func (s *Service) Evaluate(ctx context.Context, req Request) (Report, error) {
	start := time.Now()
	res, err := s.Runner.Run(ctx, req.Config, req.Strategy)
	if err != nil {
		return Report{}, err
	}
	s.observeRun(res, time.Since(start))
	return s.finish(ctx, req, res)
}

func (s *Service) finish(ctx context.Context, req Request, res backtest.Result) (Report, error) {
	res.ID = s.newID()
	a := s.Assessor.Assess(res, req.Strategy.Notes)
	s.Telemetry.ObserveAssessment(string(a.RiskLevel))

	rep := Report{ID: res.ID, Result: res, Assessment: a}
	s.Log.Info().
		Str("run_id", rep.ID).
		Str("symbol", res.Config.Symbol).
		Str("backend", res.Backend).
		Bool("partial", res.Partial).
		Int("trades", res.Metrics.TotalTrades).
		Float64("total_return", res.Metrics.TotalReturn).
		Str("risk_level", string(a.RiskLevel)).
		Msg("strategy evaluated")

	if !req.Persist || s.Journal == nil {
		return rep, nil
	}
	_, err := s.Journal.Save(ctx, journal.Record{
		ID:         rep.ID,
		Created:    time.Now().UTC(),
		Notes:      req.Strategy.Notes,
		Result:     res,
		Assessment: &a,
	})
	if err != nil {
		s.Log.Error().Err(err).Str("run_id", rep.ID).Msg("journal save failed")
		return rep, fmt.Errorf("research: persist %s: %w", rep.ID, err)
	}
	rep.Saved = true
	return rep, nil
}

// BatchItem is one entry of EvaluateBatch; Err is per request.
type BatchItem struct {
	Report Report `json:"report"`
	Err    error  `json:"-"`
}

// EvaluateBatch evaluates reqs concurrently (workers <= 0 means one per
// request). Items are in input order and one failure does not affect the
// others. The returned error is set only when ctx was cancelled.
func (s *Service) EvaluateBatch(ctx context.Context, reqs []Request, workers int) ([]BatchItem, error) {
	jobs := make([]backtest.Job, len(reqs))
	for i, r := range reqs {
		jobs[i] = backtest.Job{Config: r.Config, Spec: r.Strategy}
	}

	start := time.Now()
	outs, err := s.Runner.RunBatch(ctx, jobs, workers)
	elapsed := time.Since(start)

	items := make([]BatchItem, len(outs))
	for i, o := range outs {
		if o.Err != nil {
			items[i].Err = o.Err
			continue
		}
		s.observeRun(o.Result, elapsed/time.Duration(max(len(outs), 1)))
		items[i].Report, items[i].Err = s.finish(ctx, reqs[i], o.Result)
	}
	return items, err
}

// AssessResult scores an already computed result without running anything.
func (s *Service) AssessResult(res backtest.Result, notes string) risk.Assessment {
	a := s.Assessor.Assess(res, notes)
	s.Telemetry.ObserveAssessment(string(a.RiskLevel))
	return a
}

func (s *Service) Get(ctx context.Context, runID string) (journal.Record, error) {
	if s.Journal == nil {
		return journal.Record{}, ErrNoJournal
	}
	return s.Journal.Get(ctx, runID)
}

func (s *Service) List(ctx context.Context, f journal.Filter) ([]journal.Summary, error) {
	if s.Journal == nil {
		return nil, ErrNoJournal
	}
	return s.Journal.List(ctx, f)
}

func (s *Service) observeRun(res backtest.Result, d time.Duration) {
	s.Telemetry.ObserveRun(res.Backend, res.Partial, d)
	if res.Partial {
		s.Log.Warn().Str("symbol", res.Config.Symbol).Str("reason", res.Reason).Msg("partial backtest result")
	}
}

func (s *Service) newID() string {
	if s.NewID == nil {
		return id.New()
	}
	return s.NewID()
}
