package journal

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"text/template"
	"time"
)

var orgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"cents":  cents,
	"date":   func(t time.Time) string { return t.Format(time.DateOnly) },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var orgTemplate = template.Must(template.New("run").Funcs(orgFuncs).Parse(RunOrgTemplate))

// WriteOrg renders rec as an org-mode entry.
func WriteOrg(w io.Writer, rec Record) error {
	if err := orgTemplate.Execute(w, rec); err != nil {
		return fmt.Errorf("journal: render org: %w", err)
	}
	return nil
}

// WriteOrgFile renders rec to path.
func WriteOrgFile(path string, rec Record) error {
	buf := new(bytes.Buffer)
	if err := WriteOrg(buf, rec); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

const RunOrgTemplate = `* BACKTEST: {{.Result.Config.Symbol}} ({{.Result.Backend}})
:PROPERTIES:
:RUN_ID:      {{if .ID}}{{.ID}}{{else}}(run-id?){{end}}
:SYMBOL:      {{.Result.Config.Symbol}}
:BACKEND:     {{.Result.Backend}}
:START_CAP:   {{cents .Result.Config.InitialCapital}}
:COMMISSION:  {{printf "%.4f" .Result.Config.CommissionRate}}
:RETURN_PCT:  {{printf "%.2f" (mul100 .Result.Metrics.TotalReturn)}}
:MAX_DD_PCT:  {{printf "%.2f" (mul100 .Result.Metrics.MaxDrawdown)}}
:SHARPE:      {{printf "%.2f" .Result.Metrics.Sharpe}}
:TRADES:      {{.Result.Metrics.TotalTrades}}
:PARTIAL:     {{.Result.Partial}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:
{{- if .Notes}}

** Strategy
{{.Notes}}
{{- end}}

** Performance Summary
- Net P/L:          *{{cents .Result.NetPnL}}*
- Final Equity:     *{{cents .Result.FinalEquity}}*
- Return:           *{{printf "%.2f" (mul100 .Result.Metrics.TotalReturn)}}%*
- Volatility:       *{{printf "%.2f" (mul100 .Result.Metrics.Volatility)}}%*
- Win Rate:         *{{printf "%.2f" (mul100 .Result.Metrics.WinRate)}}%*
- VaR 95:           *{{printf "%.2f" (mul100 .Result.Metrics.VaR95)}}%*
{{- if .Result.Reason}}
- Reason:           {{.Result.Reason}}
{{- end}}
{{- if .Result.Trades}}

** Trades
| Entry | Price | Exit | Price | Shares | Net P/L |
|-------+-------+------+-------+--------+---------|
{{- range .Result.Trades}}
| {{date .EntryDate}} | {{cents .EntryPrice}} | {{date .ExitDate}} | {{cents .ExitPrice}} | {{.Shares}} | {{cents .NetPnL}} |
{{- end}}
{{- end}}
{{- with .Assessment}}

** Risk Assessment
- Risk Level:       *{{.RiskLevel}}* ({{printf "%.1f" .OverallRiskScore}})
- Compliance:       *{{printf "%.0f" .ComplianceScore}}*
{{- range .Violations}}
- VIOLATION: {{.}}
{{- end}}
{{- range .Warnings}}
- WARNING: {{.}}
{{- end}}
{{- if .Recommendations}}

** Next Actions
{{- range .Recommendations}}
- [ ] {{.}}
{{- end}}
{{- end}}
{{- end}}
`
