package signals

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Generator identifies one of the canonical signal generators.
type Generator string

const (
	MACross     Generator = "ma_cross"
	EMACross    Generator = "ema_cross"
	RSIReversal Generator = "rsi"
	MACDCross   Generator = "macd"
	Hold        Generator = "hold"
)

// Generators lists the supported generators in a stable order.
func Generators() []Generator {
	return []Generator{MACross, EMACross, RSIReversal, MACDCross, Hold}
}

var generatorAliases = map[string]Generator{
	"ma_cross":     MACross,
	"ma-cross":     MACross,
	"sma-cross":    MACross,
	"sma_cross":    MACross,
	"crossover":    MACross,
	"ema_cross":    EMACross,
	"ema-cross":    EMACross,
	"rsi":          RSIReversal,
	"rsi-reversal": RSIReversal,
	"macd":         MACDCross,
	"macd-cross":   MACDCross,
	"hold":         Hold,
	"buy-and-hold": Hold,
	"buy_and_hold": Hold,
}

// ParseGenerator maps a user-facing name to a Generator.
func ParseGenerator(name string) (Generator, bool) {
	g, ok := generatorAliases[strings.ToLower(strings.TrimSpace(name))]
	return g, ok
}

// Spec describes a strategy. Generator may be empty, in which case Notes is
// scanned to pick one.
type Spec struct {
	Generator Generator `json:"generator,omitempty" yaml:"generator"`

	Fast int `json:"fast,omitempty" yaml:"fast"` // ma_cross/ema_cross fast window, macd fast EMA
	Slow int `json:"slow,omitempty" yaml:"slow"` // ma_cross/ema_cross slow window, macd slow EMA

	RSIPeriod int     `json:"rsi_period,omitempty" yaml:"rsi_period"`
	RSILow    float64 `json:"rsi_low,omitempty" yaml:"rsi_low"`
	RSIHigh   float64 `json:"rsi_high,omitempty" yaml:"rsi_high"`

	SignalPeriod int `json:"signal_period,omitempty" yaml:"signal_period"` // macd signal EMA

	Notes string `json:"notes,omitempty" yaml:"notes"`
}

// Defaults per generator.
const (
	DefaultFast      = 10
	DefaultSlow      = 30
	DefaultRSIPeriod = 14
	DefaultRSILow    = 30
	DefaultRSIHigh   = 70
	DefaultMACDFast  = 12
	DefaultMACDSlow  = 26
	DefaultMACDSig   = 9
)

// WithDefaults fills zero or inconsistent parameters for the selected generator.
func (s Spec) WithDefaults() Spec {
	switch s.Generator {
	case MACross, EMACross:
		if s.Fast <= 0 || s.Slow <= 0 || s.Fast >= s.Slow {
			s.Fast, s.Slow = DefaultFast, DefaultSlow
		}
	case RSIReversal:
		if s.RSIPeriod <= 0 {
			s.RSIPeriod = DefaultRSIPeriod
		}
		if s.RSILow <= 0 || s.RSIHigh >= 100 || s.RSIHigh <= 0 || s.RSILow >= s.RSIHigh {
			s.RSILow, s.RSIHigh = DefaultRSILow, DefaultRSIHigh
		}
	case MACDCross:
		if s.Fast <= 0 || s.Slow <= 0 || s.Fast >= s.Slow {
			s.Fast, s.Slow = DefaultMACDFast, DefaultMACDSlow
		}
		if s.SignalPeriod <= 0 {
			s.SignalPeriod = DefaultMACDSig
		}
	}
	return s
}

var (
	reMACD     = regexp.MustCompile(`(?i)\bmacd\b|convergence[- ]divergence`)
	reRSI      = regexp.MustCompile(`(?i)\brsi\b|relative strength`)
	reEMA      = regexp.MustCompile(`(?i)\bema\b|exponential`)
	reMA       = regexp.MustCompile(`(?i)\b(sma|ema|ma)\b|moving[- ]average|cross(?:over|es|ing)?\b|golden cross`)
	reRSIPer   = regexp.MustCompile(`(?i)\brsi\s*\(?\s*(\d{1,3})\b`)
	reBelow    = regexp.MustCompile(`(?i)\b(?:below|under)\s+(\d{1,2}(?:\.\d+)?)|<\s*(\d{1,2}(?:\.\d+)?)`)
	reAbove    = regexp.MustCompile(`(?i)\b(?:above|over)\s+(\d{1,2}(?:\.\d+)?)|>\s*(\d{1,2}(?:\.\d+)?)`)
	reWindowAB = regexp.MustCompile(`(?i)\b(\d{1,3})\s*(?:/|and|vs\.?|x)\s*(\d{1,3})\b`)
	reWindowN  = regexp.MustCompile(`(?i)\b(\d{1,3})[- ]?(?:day|period|bar)s?\b`)
)

// Resolve returns a spec with a concrete Generator. An explicit generator is
// kept; otherwise the free-text notes are scanned, falling back to Hold.
// Parameters are normalized with WithDefaults.
func Resolve(s Spec) Spec {
	if s.Generator != "" {
		if g, ok := ParseGenerator(string(s.Generator)); ok {
			s.Generator = g
		} else {
			s.Generator = Hold
		}
		return s.WithDefaults()
	}

	notes := s.Notes
	switch {
	case reMACD.MatchString(notes):
		s.Generator = MACDCross
	case reRSI.MatchString(notes):
		s.Generator = RSIReversal
		if m := reRSIPer.FindStringSubmatch(notes); m != nil {
			s.RSIPeriod, _ = strconv.Atoi(m[1])
		}
		if v, ok := firstNumber(reBelow, notes); ok {
			s.RSILow = v
		}
		if v, ok := firstNumber(reAbove, notes); ok {
			s.RSIHigh = v
		}
	case reMA.MatchString(notes):
		s.Generator = MACross
		if reEMA.MatchString(notes) {
			s.Generator = EMACross
		}
		s.Fast, s.Slow = windows(notes)
	default:
		s.Generator = Hold
	}
	return s.WithDefaults()
}

func firstNumber(re *regexp.Regexp, text string) (float64, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	for _, g := range m[1:] {
		if g == "" {
			continue
		}
		v, err := strconv.ParseFloat(g, 64)
		return v, err == nil
	}
	return 0, false
}

// windows extracts fast/slow lengths from text such as "10/50 crossover" or
// "20-day and 50-day averages". Zeros mean "not found".
func windows(text string) (fast, slow int) {
	if m := reWindowAB.FindStringSubmatch(text); m != nil {
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[2])
		return order(a, b)
	}
	var found []int
	for _, m := range reWindowN.FindAllStringSubmatch(text, -1) {
		n, _ := strconv.Atoi(m[1])
		found = append(found, n)
	}
	if len(found) < 2 {
		return 0, 0
	}
	sort.Ints(found)
	return found[0], found[len(found)-1]
}

func order(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}
