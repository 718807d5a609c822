// Package marketdata implements market.Provider over in-memory series, CSV
// and Parquet files, and wraps providers with a Redis cache and a guard
// (rate limit, circuit breaker, retry).
package marketdata

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rustyeddy/riskbench/market"
)

var (
	_ market.Provider = (*Memory)(nil)
	_ market.Provider = (*CSV)(nil)
	_ market.Provider = (*Parquet)(nil)
	_ market.Provider = (*Cached)(nil)
	_ market.Provider = (*Guarded)(nil)
)

// Memory serves bars stored in process. Safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	bars map[string]market.Series
}

func NewMemory() *Memory {
	return &Memory{bars: make(map[string]market.Series)}
}

// Put replaces the series for symbol with a copy of s.
func (m *Memory) Put(symbol string, s market.Series) {
	cp := make(market.Series, len(s))
	copy(cp, s)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.bars[normSymbol(symbol)] = cp
}

// Symbols returns the stored symbols in no particular order.
func (m *Memory) Symbols() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.bars))
	for s := range m.bars {
		out = append(out, s)
	}
	return out
}

func (m *Memory) Bars(ctx context.Context, symbol string, start, end time.Time) (market.Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	s, ok := m.bars[normSymbol(symbol)]
	m.mu.RUnlock()
	if !ok {
		return nil, noData(symbol)
	}
	return s.Between(start, end), nil
}

func normSymbol(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

func noData(symbol string) error {
	return &market.DataError{Symbol: symbol, Index: -1, Err: market.ErrNoData}
}
