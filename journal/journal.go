// Package journal persists backtest runs and their risk assessments.
package journal

import (
	"context"
	"errors"
	"time"

	"github.com/rustyeddy/riskbench/backtest"
	"github.com/rustyeddy/riskbench/risk"
)

var ErrNotFound = errors.New("journal: run not found")

// Record is one stored run.
type Record struct {
	ID         string           `json:"id"`
	Created    time.Time        `json:"created"`
	Notes      string           `json:"notes,omitempty"`
	Result     backtest.Result  `json:"result"`
	Assessment *risk.Assessment `json:"assessment,omitempty"`
}

// Summary is the list view of a run.
type Summary struct {
	ID              string    `json:"id"`
	Created         time.Time `json:"created"`
	Symbol          string    `json:"symbol"`
	Backend         string    `json:"backend"`
	Partial         bool      `json:"partial"`
	TotalReturn     float64   `json:"total_return"`
	Sharpe          float64   `json:"sharpe_ratio"`
	MaxDrawdown     float64   `json:"max_drawdown"`
	Trades          int       `json:"total_trades"`
	RiskLevel       string    `json:"risk_level,omitempty"`
	ComplianceScore *float64  `json:"compliance_score,omitempty"`
}

// Filter narrows List. Zero values match everything; Limit 0 means 100.
type Filter struct {
	Symbol string
	Limit  int
}

type Journal interface {
	// Save stores rec and returns its id, assigning one when rec.ID is empty.
	Save(ctx context.Context, rec Record) (string, error)
	Get(ctx context.Context, id string) (Record, error)
	List(ctx context.Context, f Filter) ([]Summary, error)
	Close() error
}
