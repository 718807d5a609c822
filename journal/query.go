package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rustyeddy/riskbench/backtest"
	"github.com/rustyeddy/riskbench/risk"
)

// Get loads a full run by id.
func (j *SQLite) Get(ctx context.Context, runID string) (Record, error) {
	var (
		rec         Record
		cfgJSON     string
		metricsJSON string
		openJSON    sql.NullString
	)
	rec.ID = runID

	row := j.db.QueryRowContext(ctx, `
		SELECT created, backend, partial, reason, cash, notes, config_json, metrics_json, open_position_json
		FROM runs
		WHERE run_id = ?`, runID)
	err := row.Scan(
		&rec.Created,
		&rec.Result.Backend,
		&rec.Result.Partial,
		&rec.Result.Reason,
		&rec.Result.Cash,
		&rec.Notes,
		&cfgJSON,
		&metricsJSON,
		&openJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, fmt.Errorf("%w: %q", ErrNotFound, runID)
		}
		return Record{}, fmt.Errorf("journal: get %s: %w", runID, err)
	}

	rec.Result.ID = runID
	if err := json.Unmarshal([]byte(cfgJSON), &rec.Result.Config); err != nil {
		return Record{}, fmt.Errorf("journal: decode config: %w", err)
	}
	if err := json.Unmarshal([]byte(metricsJSON), &rec.Result.Metrics); err != nil {
		return Record{}, fmt.Errorf("journal: decode metrics: %w", err)
	}
	if openJSON.Valid {
		var p backtest.Position
		if err := json.Unmarshal([]byte(openJSON.String), &p); err != nil {
			return Record{}, fmt.Errorf("journal: decode open position: %w", err)
		}
		rec.Result.OpenPosition = &p
	}

	if rec.Result.Trades, err = j.Trades(ctx, runID); err != nil {
		return Record{}, err
	}
	if rec.Result.Equity, err = j.Equity(ctx, runID); err != nil {
		return Record{}, err
	}
	if rec.Assessment, err = j.assessment(ctx, runID); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Trades returns a run's completed trades in order.
func (j *SQLite) Trades(ctx context.Context, runID string) ([]backtest.Trade, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT entry_date, entry_price, exit_date, exit_price, shares, gross_pnl, commission, net_pnl
		FROM trades
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("journal: trades %s: %w", runID, err)
	}
	defer rows.Close()

	out := []backtest.Trade{}
	for rows.Next() {
		var t backtest.Trade
		if err := rows.Scan(
			&t.EntryDate,
			&t.EntryPrice,
			&t.ExitDate,
			&t.ExitPrice,
			&t.Shares,
			&t.GrossPnL,
			&t.Commission,
			&t.NetPnL,
		); err != nil {
			return nil, fmt.Errorf("journal: scan trade: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Equity returns a run's equity curve in order.
func (j *SQLite) Equity(ctx context.Context, runID string) ([]backtest.EquityPoint, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT date, value
		FROM equity
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("journal: equity %s: %w", runID, err)
	}
	defer rows.Close()

	out := []backtest.EquityPoint{}
	for rows.Next() {
		var p backtest.EquityPoint
		if err := rows.Scan(&p.Date, &p.Value); err != nil {
			return nil, fmt.Errorf("journal: scan equity: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (j *SQLite) assessment(ctx context.Context, runID string) (*risk.Assessment, error) {
	var report string
	err := j.db.QueryRowContext(ctx, `SELECT report_json FROM assessments WHERE run_id = ?`, runID).Scan(&report)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("journal: assessment %s: %w", runID, err)
	}
	var a risk.Assessment
	if err := json.Unmarshal([]byte(report), &a); err != nil {
		return nil, fmt.Errorf("journal: decode assessment: %w", err)
	}
	return &a, nil
}

// List returns run summaries, newest first.
func (j *SQLite) List(ctx context.Context, f Filter) ([]Summary, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT r.run_id, r.created, r.symbol, r.backend, r.partial, r.total_return, r.sharpe,
		       r.max_drawdown, r.trade_count, a.risk_level, a.compliance_score
		FROM runs r
		LEFT JOIN assessments a ON a.run_id = r.run_id
		WHERE (? = '' OR r.symbol = ?)
		ORDER BY r.run_id DESC
		LIMIT ?`, f.Symbol, f.Symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: list: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var (
			s          Summary
			level      sql.NullString
			compliance sql.NullFloat64
		)
		if err := rows.Scan(
			&s.ID,
			&s.Created,
			&s.Symbol,
			&s.Backend,
			&s.Partial,
			&s.TotalReturn,
			&s.Sharpe,
			&s.MaxDrawdown,
			&s.Trades,
			&level,
			&compliance,
		); err != nil {
			return nil, fmt.Errorf("journal: scan summary: %w", err)
		}
		s.RiskLevel = level.String
		if compliance.Valid {
			c := compliance.Float64
			s.ComplianceScore = &c
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
