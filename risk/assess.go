package risk

import (
	"fmt"
	"math"
	"strings"

	"github.com/rustyeddy/riskbench/backtest"
	"github.com/rustyeddy/riskbench/metrics"
)

type Level string

const (
	Low    Level = "Low"
	Medium Level = "Medium"
	High   Level = "High"
)

// Finding codes.
const (
	CodeMaxDrawdown  = "MAX_DRAWDOWN"
	CodeSharpe       = "SHARPE_TOO_LOW"
	CodeVaR          = "VAR_TOO_LOW"
	CodeVolatility   = "VOLATILITY_TOO_HIGH"
	CodeLeverage     = "LEVERAGE"
	CodeNoStopLoss   = "NO_STOP_LOSS"
	CodeManipulation = "MANIPULATION"
	CodeWashTrading  = "WASH_TRADING"
	CodePartial      = "PARTIAL_RESULT"
	CodeQuantFailed  = "QUANT_ANALYSIS_FAILED"
	CodeQualFailed   = "TEXT_ANALYSIS_FAILED"
)

const (
	// NeutralSubScore replaces a sub-score that could not be computed.
	NeutralSubScore = 50.0
	// QualitativeFloor is the lowest overall score once a qualitative
	// violation fired.
	QualitativeFloor = 80.0

	violationPenalty = 20.0
	warningPenalty   = 5.0

	weightDrawdown   = 40.0
	weightVolatility = 30.0
	weightSharpe     = 30.0
)

// Finding is one rule that fired.
type Finding struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Msg      string   `json:"msg"`
}

// Assessment is the risk and compliance report.
type Assessment struct {
	OverallRiskScore float64        `json:"overall_risk_score"`
	RiskLevel        Level          `json:"risk_level"`
	Violations       []string       `json:"violations"`
	Warnings         []string       `json:"warnings"`
	Recommendations  []string       `json:"recommendations"`
	ComplianceScore  float64        `json:"compliance_score"`
	Partial          bool           `json:"partial"`
	Patterns         []PatternMatch `json:"patterns,omitempty"`
	Findings         []Finding      `json:"findings"`
}

func (a *Assessment) add(sev Severity, code, msg string) {
	a.Findings = append(a.Findings, Finding{Code: code, Severity: sev, Msg: msg})
	if sev == Violation {
		a.Violations = append(a.Violations, msg)
	} else {
		a.Warnings = append(a.Warnings, msg)
	}
}

func (a *Assessment) fired(code string) bool {
	for _, f := range a.Findings {
		if f.Code == code {
			return true
		}
	}
	return false
}

// Assessor scores backtest results against a Policy. It never fails.
type Assessor struct {
	Policy Policy

	classify func(string) []PatternMatch // nil means Classify
}

// NewAssessor returns an Assessor. An invalid policy falls back to DefaultPolicy.
func NewAssessor(p Policy) *Assessor {
	if p.Validate() != nil {
		p = DefaultPolicy()
	}
	return &Assessor{Policy: p}
}

// Assess scores a backtest result and the strategy's free-text notes.
func (a *Assessor) Assess(r backtest.Result, notes string) Assessment {
	return a.AssessMetrics(r.Metrics, r.Partial, notes)
}

// AssessMetrics scores a metrics report directly. When partial is true the
// quantitative checks are skipped and a neutral sub-score is used.
func (a *Assessor) AssessMetrics(m metrics.Report, partial bool, notes string) Assessment {
	p := a.Policy
	if p.Validate() != nil {
		p = DefaultPolicy()
	}

	out := Assessment{
		Violations: []string{},
		Warnings:   []string{},
		Partial:    partial,
	}

	score := NeutralSubScore
	if partial {
		out.add(Warning, CodePartial, "backtest result is partial; quantitative checks skipped")
	} else if s, err := quantitative(&out, p, m); err != nil {
		out.add(Warning, CodeQuantFailed, fmt.Sprintf("quantitative analysis failed: %v", err))
	} else {
		score = s
	}

	classify := a.classify
	if classify == nil {
		classify = Classify
	}
	patterns, err := qualitative(&out, classify, notes)
	if err != nil {
		out.add(Warning, CodeQualFailed, fmt.Sprintf("text analysis failed: %v", err))
	}
	out.Patterns = patterns

	escalate := out.fired(CodeManipulation) || out.fired(CodeWashTrading)
	if escalate {
		score = math.Max(score, QualitativeFloor)
	}
	out.OverallRiskScore = clamp(score)
	out.RiskLevel = p.level(out.OverallRiskScore)
	if escalate {
		out.RiskLevel = High
	}

	out.ComplianceScore = ComplianceScore(len(out.Violations), len(out.Warnings))
	out.Recommendations = recommend(&out)
	return out
}

// ComplianceScore is 100 minus 20 per violation and 5 per warning, in [0,100].
func ComplianceScore(violations, warnings int) float64 {
	return clamp(100 - violationPenalty*float64(violations) - warningPenalty*float64(warnings))
}

// Score blends drawdown, volatility and Sharpe shortfall, each normalized
// by its policy limit and capped at 1, into [0,100].
func (p Policy) Score(m metrics.Report) float64 {
	dd := math.Min(1, math.Abs(m.MaxDrawdown)/p.MaxDrawdown)
	vol := math.Min(1, math.Max(0, m.Volatility)/p.MaxVolatility)
	sh := math.Min(1, math.Max(0, p.MinSharpe-m.Sharpe)/p.MinSharpe)
	return clamp(weightDrawdown*dd + weightVolatility*vol + weightSharpe*sh)
}

func (p Policy) level(score float64) Level {
	switch {
	case score <= p.LowMax:
		return Low
	case score <= p.MediumMax:
		return Medium
	}
	return High
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// quantitative runs the threshold table and returns the quantitative score.
func quantitative(out *Assessment, p Policy, m metrics.Report) (score float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if !finite(m.MaxDrawdown, m.Sharpe, m.VaR95, m.Volatility) {
		return 0, fmt.Errorf("metrics contain non-finite values")
	}

	if m.MaxDrawdown > p.MaxDrawdown {
		out.add(Violation, CodeMaxDrawdown, fmt.Sprintf("max_drawdown %.2f%% exceeds limit %.2f%%", 100*m.MaxDrawdown, 100*p.MaxDrawdown))
	}
	if m.Sharpe < p.MinSharpe {
		out.add(Violation, CodeSharpe, fmt.Sprintf("sharpe_ratio %.2f below minimum %.2f", m.Sharpe, p.MinSharpe))
	}
	if m.VaR95 < p.MinVaR95 {
		out.add(Violation, CodeVaR, fmt.Sprintf("value_at_risk_95 %.2f%% below limit %.2f%%", 100*m.VaR95, 100*p.MinVaR95))
	}
	if m.Volatility > p.MaxVolatility {
		out.add(Violation, CodeVolatility, fmt.Sprintf("volatility %.2f%% exceeds limit %.2f%%", 100*m.Volatility, 100*p.MaxVolatility))
	}
	return p.Score(m), nil
}

var patternCodes = map[RiskPattern]string{
	Leverage:     CodeLeverage,
	NoStopLoss:   CodeNoStopLoss,
	Manipulation: CodeManipulation,
	WashTrading:  CodeWashTrading,
}

var patternMessages = map[RiskPattern]string{
	Leverage:     "leverage or margin usage mentioned",
	NoStopLoss:   "no stop-loss or exit rule described",
	Manipulation: "market manipulation indicated",
	WashTrading:  "wash trading indicated",
}

func qualitative(out *Assessment, classify func(string) []PatternMatch, notes string) (matches []PatternMatch, err error) {
	defer func() {
		if r := recover(); r != nil {
			matches, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	matches = classify(notes)
	for _, m := range matches {
		msg := patternMessages[m.Pattern]
		if len(m.Terms) > 0 {
			msg += fmt.Sprintf(" (terms: %s)", strings.Join(m.Terms, ", "))
		}
		out.add(m.Pattern.Severity(), patternCodes[m.Pattern], msg)
	}
	return matches, nil
}

type rule struct {
	when func(*Assessment) bool
	text string
}

func firedAny(codes ...string) func(*Assessment) bool {
	return func(a *Assessment) bool {
		for _, c := range codes {
			if a.fired(c) {
				return true
			}
		}
		return false
	}
}

// recommendation rules, in output order.
var rules = []rule{
	{func(a *Assessment) bool { return a.RiskLevel == High }, "Reduce position sizing to limit exposure"},
	{firedAny(CodeMaxDrawdown), "Cap drawdown with a portfolio-level stop or a smaller allocation"},
	{firedAny(CodeVolatility, CodeVaR), "Reduce position sizing to limit exposure"},
	{firedAny(CodeSharpe), "Improve risk-adjusted returns before deployment"},
	{firedAny(CodeNoStopLoss), "Add stop-loss risk management"},
	{firedAny(CodeLeverage), "Document and cap leverage and margin usage"},
	{firedAny(CodeManipulation, CodeWashTrading), "Escalate to compliance review before any deployment"},
	{firedAny(CodePartial), "Re-run the backtest with complete price data"},
	{firedAny(CodeQuantFailed, CodeQualFailed), "Review the inputs; part of the analysis could not be completed"},
}

func recommend(a *Assessment) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, r := range rules {
		if r.when(a) && !seen[r.text] {
			seen[r.text] = true
			out = append(out, r.text)
		}
	}
	if len(out) == 0 {
		out = append(out, "Strategy is within policy; continue monitoring")
	}
	return out
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return NeutralSubScore
	}
	return math.Min(100, math.Max(0, v))
}
