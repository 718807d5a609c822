package marketdata

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/rustyeddy/riskbench/market"
)

// BarRecord is the on-disk schema for daily bars.
type BarRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"`
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
}

// Parquet reads bars laid out one file per symbol and year:
//
//	<Dir>/<Market>/daily/<SYMBOL>/<YYYY>.parquet
type Parquet struct {
	Dir    string
	Market string
}

func NewParquet(dir, mkt string) *Parquet {
	if mkt == "" {
		mkt = "us"
	}
	return &Parquet{Dir: dir, Market: mkt}
}

func (p *Parquet) barPath(symbol string, year int) string {
	return filepath.Join(p.Dir, p.Market, "daily", symbol, strconv.Itoa(year)+".parquet")
}

// Bars reads the year files overlapping [start, end]. A zero start or end
// reads every year present for the symbol.
func (p *Parquet) Bars(ctx context.Context, symbol string, start, end time.Time) (market.Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sym := normSymbol(symbol)
	years, err := p.years(sym, start, end)
	if err != nil {
		return nil, err
	}

	var out market.Series
	for _, y := range years {
		path := p.barPath(sym, y)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		recs, err := parquet.ReadFile[BarRecord](path)
		if err != nil {
			return nil, fmt.Errorf("marketdata: read %s/%d: %w", sym, y, err)
		}
		for _, r := range recs {
			out = append(out, fromRecord(r))
		}
	}
	if len(out) == 0 {
		return nil, noData(sym)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out.Between(start, end), nil
}

func (p *Parquet) years(sym string, start, end time.Time) ([]int, error) {
	if !start.IsZero() && !end.IsZero() {
		var ys []int
		for y := start.Year(); y <= end.Year(); y++ {
			ys = append(ys, y)
		}
		return ys, nil
	}

	entries, err := os.ReadDir(filepath.Join(p.Dir, p.Market, "daily", sym))
	if errors.Is(err, os.ErrNotExist) {
		return nil, noData(sym)
	}
	if err != nil {
		return nil, fmt.Errorf("marketdata: list %s: %w", sym, err)
	}
	var ys []int
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".parquet" {
			continue
		}
		y, err := strconv.Atoi(name[:len(name)-len(".parquet")])
		if err != nil {
			continue
		}
		if (!start.IsZero() && y < start.Year()) || (!end.IsZero() && y > end.Year()) {
			continue
		}
		ys = append(ys, y)
	}
	sort.Ints(ys)
	return ys, nil
}

// WriteBars merges s into the year files for symbol. Bars already on disk
// with the same timestamp are replaced.
func (p *Parquet) WriteBars(symbol string, s market.Series) error {
	sym := normSymbol(symbol)
	groups := make(map[int][]BarRecord)
	for _, b := range s {
		y := b.Date.Year()
		groups[y] = append(groups[y], toRecord(sym, b))
	}

	for y, recs := range groups {
		path := p.barPath(sym, y)
		existing, _ := parquet.ReadFile[BarRecord](path)
		merged := mergeRecords(existing, recs)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("marketdata: mkdir: %w", err)
		}
		if err := parquet.WriteFile(path, merged); err != nil {
			return fmt.Errorf("marketdata: write %s/%d: %w", sym, y, err)
		}
	}
	return nil
}

func mergeRecords(existing, incoming []BarRecord) []BarRecord {
	seen := make(map[int64]BarRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.Timestamp] = r
	}
	for _, r := range incoming {
		seen[r.Timestamp] = r
	}
	out := make([]BarRecord, 0, len(seen))
	for _, r := range seen {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out
}

func toRecord(sym string, b market.Bar) BarRecord {
	return BarRecord{
		Symbol:    sym,
		Timestamp: b.Date.UnixMilli(),
		Open:      b.Open,
		High:      b.High,
		Low:       b.Low,
		Close:     b.Close,
		Volume:    b.Volume,
	}
}

func fromRecord(r BarRecord) market.Bar {
	return market.Bar{
		Date:   time.UnixMilli(r.Timestamp).UTC(),
		Open:   r.Open,
		High:   r.High,
		Low:    r.Low,
		Close:  r.Close,
		Volume: r.Volume,
	}
}
