// Package signals turns a strategy Spec into entry/exit boolean
// series aligned with a price series.
package signals

import (
	"errors"
	"fmt"
)

var (
	ErrLength  = errors.New("signal length does not match price series")
	ErrOverlap = errors.New("entry and exit set on the same bar")
)

// Series holds per-bar entry and exit intent. Entries[i] and Exits[i] are
// never both true.
type Series struct {
	Entries []bool `json:"entries"`
	Exits   []bool `json:"exits"`
}

// NewSeries returns an all-false series of length n.
func NewSeries(n int) Series {
	return Series{
		Entries: make([]bool, n),
		Exits:   make([]bool, n),
	}
}

// Len returns the number of bars covered.
func (s Series) Len() int { return len(s.Entries) }

// Validate checks the series against a price series of n bars.
func (s Series) Validate(n int) error {
	if len(s.Entries) != n || len(s.Exits) != n {
		return fmt.Errorf("%w: entries=%d exits=%d bars=%d", ErrLength, len(s.Entries), len(s.Exits), n)
	}
	for i := range s.Entries {
		if s.Entries[i] && s.Exits[i] {
			return fmt.Errorf("%w: index %d", ErrOverlap, i)
		}
	}
	return nil
}

// Count returns how many entry and exit flags are set.
func (s Series) Count() (entries, exits int) {
	for i := range s.Entries {
		if s.Entries[i] {
			entries++
		}
		if i < len(s.Exits) && s.Exits[i] {
			exits++
		}
	}
	return entries, exits
}
