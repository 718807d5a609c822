// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	backend TEXT NOT NULL,
	start_date DATETIME,
	end_date DATETIME,
	initial_capital REAL NOT NULL,
	commission_rate REAL NOT NULL,
	partial INTEGER NOT NULL,
	reason TEXT NOT NULL,
	cash REAL NOT NULL,
	total_return REAL NOT NULL,
	sharpe REAL NOT NULL,
	max_drawdown REAL NOT NULL,
	trade_count INTEGER NOT NULL,
	notes TEXT NOT NULL,
	config_json TEXT NOT NULL,
	metrics_json TEXT NOT NULL,
	open_position_json TEXT
);

CREATE TABLE IF NOT EXISTS trades (
	run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	entry_date DATETIME NOT NULL,
	entry_price REAL NOT NULL,
	exit_date DATETIME NOT NULL,
	exit_price REAL NOT NULL,
	shares INTEGER NOT NULL,
	gross_pnl REAL NOT NULL,
	commission REAL NOT NULL,
	net_pnl REAL NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	date DATETIME NOT NULL,
	value REAL NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS assessments (
	run_id TEXT PRIMARY KEY REFERENCES runs(run_id) ON DELETE CASCADE,
	overall_risk_score REAL NOT NULL,
	risk_level TEXT NOT NULL,
	compliance_score REAL NOT NULL,
	partial INTEGER NOT NULL,
	report_json TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_symbol ON runs(symbol, created);
`
