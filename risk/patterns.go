package risk

import (
	"fmt"
	"regexp"
	"strings"
)

// RiskPattern is a qualitative risk tag found in strategy text.
type RiskPattern int

const (
	Leverage RiskPattern = iota + 1
	NoStopLoss
	Manipulation
	WashTrading
)

// Patterns lists every tag in report order.
var Patterns = []RiskPattern{Leverage, NoStopLoss, Manipulation, WashTrading}

func (p RiskPattern) String() string {
	switch p {
	case Leverage:
		return "leverage"
	case NoStopLoss:
		return "no_stop_loss"
	case Manipulation:
		return "manipulation"
	case WashTrading:
		return "wash_trading"
	}
	return fmt.Sprintf("RiskPattern(%d)", int(p))
}

func (p RiskPattern) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *RiskPattern) UnmarshalText(b []byte) error {
	for _, c := range Patterns {
		if c.String() == string(b) {
			*p = c
			return nil
		}
	}
	return fmt.Errorf("risk: unknown pattern %q", b)
}

// Severity is how a pattern counts in the report.
type Severity int

const (
	Warning Severity = iota
	Violation
)

func (p RiskPattern) Severity() Severity {
	if p == Manipulation || p == WashTrading {
		return Violation
	}
	return Warning
}

// PatternMatch is one classified tag with the phrases that triggered it.
type PatternMatch struct {
	Pattern    RiskPattern `json:"pattern"`
	Confidence float64     `json:"confidence"`
	Terms      []string    `json:"terms,omitempty"`
}

type term struct {
	words []string
	conf  float64
}

func terms(conf float64, phrases ...string) []term {
	out := make([]term, len(phrases))
	for i, p := range phrases {
		out[i] = term{words: tokenize(p), conf: conf}
	}
	return out
}

var (
	leverageTerms = append(
		terms(0.9, "leverage", "leveraged", "margin", "margin account", "buying on margin"),
		terms(0.6, "borrow", "borrowed", "borrowing")...,
	)
	stopTerms = append(
		terms(0.9, "stop loss", "stoploss", "stop losses", "trailing stop", "stop order", "protective stop"),
		terms(0.7, "take profit", "exit rule", "exit rules", "exit", "exits", "risk management")...,
	)
	manipulationTerms = terms(0.9,
		"pump and dump", "spoofing", "spoof", "layering", "front running", "frontrunning",
		"corner the market", "cornering", "painting the tape", "marking the close", "bear raid",
		"insider information", "insider trading",
	)
	washTerms = terms(0.9,
		"wash trade", "wash trades", "wash trading", "wash sale", "wash sales", "self trade",
		"self trading", "matched orders", "circular trading", "trade with myself",
	)

	// families maps each term list to the pattern it feeds. Exit terms feed
	// NoStopLoss inversely.
	families = []struct {
		pattern RiskPattern
		terms   []term
	}{
		{Leverage, leverageTerms},
		{NoStopLoss, stopTerms},
		{Manipulation, manipulationTerms},
		{WashTrading, washTerms},
	}

	negators = map[string]bool{
		"no": true, "not": true, "without": true, "never": true, "avoid": true,
		"avoids": true, "avoiding": true, "dont": true, "doesnt": true, "zero": true,
	}
	// trailing negation: "stop loss is not used", "Leverage: none".
	postNegators = map[string]bool{"not": true, "none": true}
	copulas      = map[string]bool{"is": true, "are": true, "was": true, "were": true, "be": true}
	// answerWords may make up a whole sentence answering the one before it.
	answerWords = map[string]bool{
		"no": true, "not": true, "none": true, "never": true, "zero": true, "nope": true,
		"used": true, "applied": true, "allowed": true, "applicable": true, "na": true, "n": true, "a": true,
	}
	conjunctions = map[string]bool{"or": true, "nor": true, "and": true}

	reMultiple = regexp.MustCompile(`^([2-9]|[1-9][0-9]+)x$`)
	reNonWord  = regexp.MustCompile(`[^a-z0-9]+`)
	reSentence = regexp.MustCompile(`[.;:!?()\n]+`)
)

// negationWindow is how many preceding words in the same clause may negate a term.
const negationWindow = 3

// comma marks a clause break inside a sentence.
const comma = ","

func tokenize(text string) []string {
	text = strings.ReplaceAll(strings.ToLower(text), "'", "")
	return strings.Fields(reNonWord.ReplaceAllString(text, " "))
}

type hit struct {
	pattern    RiskPattern
	term       string
	conf       float64
	start, end int
	negated    bool
}

// sentences splits text on hard punctuation. Commas survive as comma tokens
// so that lists can carry a negation while a plain clause break stops it.
func sentences(text string) [][]string {
	var out [][]string
	for _, s := range reSentence.Split(text, -1) {
		var words []string
		for _, part := range strings.Split(s, comma) {
			w := tokenize(part)
			if len(w) == 0 {
				continue
			}
			if len(words) > 0 {
				words = append(words, comma)
			}
			words = append(words, w...)
		}
		if len(words) > 0 {
			out = append(out, words)
		}
	}
	return out
}

// scan returns the term occurrences in one sentence, in word order, with
// negation resolved. Overlapping terms resolve to the longest. next is the
// following sentence, or nil.
func scan(words, next []string) []hit {
	var hits []hit
	for i := 0; i < len(words); {
		if h, ok := longest(words, i); ok {
			hits = append(hits, h)
			i = h.end
			continue
		}
		if reMultiple.MatchString(words[i]) {
			hits = append(hits, hit{pattern: Leverage, term: words[i], conf: 0.7, start: i, end: i + 1})
		}
		i++
	}

	for k := range hits {
		h := &hits[k]
		h.negated = negatedBefore(words, h.start) || negatedAfter(words, h.end, next)
		if h.negated {
			continue
		}
		// "no spoofing, layering or wash trading"
		if prev := previous(hits[:k], h.start); prev != nil && prev.negated && listGap(words, prev.end, h.start) {
			h.negated = true
		}
	}
	return hits
}

// longest returns the longest term starting at words[i].
func longest(words []string, i int) (hit, bool) {
	var best hit
	for _, f := range families {
		for _, t := range f.terms {
			if len(t.words) > best.end-best.start && hasPrefixAt(words, i, t.words) {
				best = hit{pattern: f.pattern, term: strings.Join(t.words, " "), conf: t.conf, start: i, end: i + len(t.words)}
			}
		}
	}
	return best, best.end > i
}

// previous returns the latest hit ending at or before pos.
func previous(hits []hit, pos int) *hit {
	var best *hit
	for k := range hits {
		if hits[k].end <= pos && (best == nil || hits[k].end > best.end) {
			best = &hits[k]
		}
	}
	return best
}

// listGap reports whether words[from:to] only joins list items. A bare comma
// counts when a conjunction closes the list later in the sentence.
func listGap(words []string, from, to int) bool {
	if from >= to {
		return false
	}
	joined := false
	for _, w := range words[from:to] {
		switch {
		case conjunctions[w]:
			joined = true
		case w != comma:
			return false
		}
	}
	if joined {
		return true
	}
	for _, w := range words[to:] {
		if conjunctions[w] {
			return true
		}
	}
	return false
}

func hasPrefixAt(words []string, i int, seq []string) bool {
	if len(seq) == 0 || i+len(seq) > len(words) {
		return false
	}
	for j, w := range seq {
		if words[i+j] != w {
			return false
		}
	}
	return true
}

func negatedBefore(words []string, i int) bool {
	for j := i - 1; j >= 0 && j >= i-negationWindow; j-- {
		if words[j] == comma {
			return false
		}
		if negators[words[j]] {
			return true
		}
	}
	return false
}

func negatedAfter(words []string, end int, next []string) bool {
	tail := words[end:]
	for len(tail) > 0 && copulas[tail[0]] {
		tail = tail[1:]
	}
	if len(tail) > 0 {
		return postNegators[tail[0]]
	}
	if len(next) == 0 {
		return false
	}
	for _, w := range next {
		if !answerWords[w] {
			return false
		}
	}
	return true
}

// affirmed builds a match from the non-negated hits of pattern p.
func affirmed(p RiskPattern, hits []hit) (PatternMatch, bool) {
	m := PatternMatch{Pattern: p}
	seen := map[string]bool{}
	for _, h := range hits {
		if h.pattern != p || h.negated {
			continue
		}
		m.Confidence = max(m.Confidence, h.conf)
		if !seen[h.term] {
			seen[h.term] = true
			m.Terms = append(m.Terms, h.term)
		}
	}
	return m, m.Confidence > 0
}

// Classify tags free-text strategy notes. Blank text yields no matches.
//
// A term does not count when a negation ("no", "without", "never" ...)
// precedes it within three words of the same clause, when the negation
// carries to it through a list ("no spoofing or wash trading"), or when
// it is denied afterwards ("stop loss is not used", "Stop-loss? None.").
// The stop-loss tag fires when no exit concept is affirmed: with higher
// confidence when one is explicitly negated.
func Classify(text string) []PatternMatch {
	sents := sentences(text)
	if len(sents) == 0 {
		return nil
	}
	var hits []hit
	for i, words := range sents {
		var next []string
		if i+1 < len(sents) {
			next = sents[i+1]
		}
		hits = append(hits, scan(words, next)...)
	}

	var out []PatternMatch
	if m, ok := affirmed(Leverage, hits); ok {
		out = append(out, m)
	}
	if _, ok := affirmed(NoStopLoss, hits); !ok {
		m := PatternMatch{Pattern: NoStopLoss, Confidence: 0.5}
		for _, h := range hits {
			if h.pattern == NoStopLoss && h.negated {
				m.Confidence = 0.9
				m.Terms = append(m.Terms, h.term)
			}
		}
		out = append(out, m)
	}
	if m, ok := affirmed(Manipulation, hits); ok {
		out = append(out, m)
	}
	if m, ok := affirmed(WashTrading, hits); ok {
		out = append(out, m)
	}
	return out
}

func (s Severity) String() string {
	if s == Violation {
		return "violation"
	}
	return "warning"
}

func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Severity) UnmarshalText(b []byte) error {
	switch string(b) {
	case "violation":
		*s = Violation
	case "warning":
		*s = Warning
	default:
		return fmt.Errorf("risk: unknown severity %q", b)
	}
	return nil
}
