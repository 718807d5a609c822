package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/riskbench/pkg/id"
)

type SQLite struct {
	db *sql.DB
}

var _ Journal = (*SQLite)(nil)

// NewSQLite opens (or creates) the database at path and applies Schema.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	// one writer at a time keeps concurrent saves from hitting SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (j *SQLite) Save(ctx context.Context, rec Record) (string, error) {
	if rec.ID == "" {
		rec.ID = id.New()
	}
	if rec.Created.IsZero() {
		rec.Created = time.Now().UTC()
	}
	res := rec.Result

	cfgJSON, err := json.Marshal(res.Config)
	if err != nil {
		return "", fmt.Errorf("journal: encode config: %w", err)
	}
	metricsJSON, err := json.Marshal(res.Metrics)
	if err != nil {
		return "", fmt.Errorf("journal: encode metrics: %w", err)
	}
	var openJSON sql.NullString
	if res.OpenPosition != nil {
		b, err := json.Marshal(res.OpenPosition)
		if err != nil {
			return "", fmt.Errorf("journal: encode open position: %w", err)
		}
		openJSON = sql.NullString{String: string(b), Valid: true}
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("journal: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"trades", "equity", "assessments", "runs"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE run_id = ?", rec.ID); err != nil {
			return "", fmt.Errorf("journal: replace %s: %w", table, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(run_id, created, symbol, backend, start_date, end_date, initial_capital, commission_rate,
		 partial, reason, cash, total_return, sharpe, max_drawdown, trade_count, notes,
		 config_json, metrics_json, open_position_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Created, res.Config.Symbol, res.Backend, res.Config.Start, res.Config.End,
		res.Config.InitialCapital, res.Config.CommissionRate, res.Partial, res.Reason, res.Cash,
		res.Metrics.TotalReturn, res.Metrics.Sharpe, res.Metrics.MaxDrawdown, len(res.Trades), rec.Notes,
		string(cfgJSON), string(metricsJSON), openJSON,
	)
	if err != nil {
		return "", fmt.Errorf("journal: insert run: %w", err)
	}

	for i, t := range res.Trades {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO trades
			(run_id, seq, entry_date, entry_price, exit_date, exit_price, shares, gross_pnl, commission, net_pnl)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, i, t.EntryDate, t.EntryPrice, t.ExitDate, t.ExitPrice, t.Shares, t.GrossPnL, t.Commission, t.NetPnL,
		)
		if err != nil {
			return "", fmt.Errorf("journal: insert trade %d: %w", i, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO equity (run_id, seq, date, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("journal: prepare equity: %w", err)
	}
	defer stmt.Close()
	for i, p := range res.Equity {
		if _, err := stmt.ExecContext(ctx, rec.ID, i, p.Date, p.Value); err != nil {
			return "", fmt.Errorf("journal: insert equity %d: %w", i, err)
		}
	}

	if a := rec.Assessment; a != nil {
		report, err := json.Marshal(a)
		if err != nil {
			return "", fmt.Errorf("journal: encode assessment: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO assessments
			(run_id, overall_risk_score, risk_level, compliance_score, partial, report_json)
			VALUES (?, ?, ?, ?, ?, ?)`,
			rec.ID, a.OverallRiskScore, string(a.RiskLevel), a.ComplianceScore, a.Partial, string(report),
		)
		if err != nil {
			return "", fmt.Errorf("journal: insert assessment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("journal: commit: %w", err)
	}
	return rec.ID, nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
