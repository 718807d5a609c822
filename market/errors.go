package market

import (
	"errors"
	"fmt"
)

var (
	ErrNoData    = errors.New("no price data")
	ErrNonFinite = errors.New("non-finite price field")
	ErrUnordered = errors.New("bars not in ascending date order")
)

// DataError describes missing, empty or malformed upstream price data.
// The core absorbs it into a partial result instead of failing the run.
type DataError struct {
	Symbol string
	Index  int // offending bar, -1 when the whole series is affected
	Err    error
}

func (e *DataError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("market data %s: %v", e.Symbol, e.Err)
	}
	return fmt.Sprintf("market data %s: bar %d: %v", e.Symbol, e.Index, e.Err)
}

func (e *DataError) Unwrap() error { return e.Err }
