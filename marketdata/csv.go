package marketdata

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/rustyeddy/riskbench/market"
)

// Header is the column layout of a bar CSV file.
var Header = []string{"date", "open", "high", "low", "close", "volume"}

// CSV reads <Dir>/<SYMBOL>.csv, falling back to <Dir>/<SYMBOL>.csv.xz.
type CSV struct {
	Dir string
}

func NewCSV(dir string) *CSV { return &CSV{Dir: dir} }

func (c *CSV) Bars(ctx context.Context, symbol string, start, end time.Time) (market.Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sym := normSymbol(symbol)

	path := filepath.Join(c.Dir, sym+".csv")
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		path += ".xz"
		f, err = os.Open(path)
	}
	if errors.Is(err, os.ErrNotExist) {
		return nil, noData(sym)
	}
	if err != nil {
		return nil, fmt.Errorf("marketdata: open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".xz") {
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("marketdata: %s: %w", path, err)
		}
		r = xr
	}

	bars, err := ReadBarsCSV(r)
	if err != nil {
		return nil, fmt.Errorf("marketdata: %s: %w", path, err)
	}
	return bars.Between(start, end), nil
}

// ReadBarsCSV parses bar rows. The header row is optional. Rows are sorted
// by date; the result is not otherwise validated.
func ReadBarsCSV(r io.Reader) (market.Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out market.Series
	line := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(row[0]), "date") {
			continue
		}
		b, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func parseRow(row []string) (market.Bar, error) {
	if len(row) < 5 {
		return market.Bar{}, fmt.Errorf("bad row (need date,open,high,low,close[,volume]): %v", row)
	}
	d, err := parseDate(row[0])
	if err != nil {
		return market.Bar{}, err
	}

	var vals [5]float64
	for i := 1; i < len(row) && i <= 5; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
		if err != nil {
			return market.Bar{}, fmt.Errorf("bad %s %q: %w", Header[i], row[i], err)
		}
		vals[i-1] = v
	}
	return market.Bar{
		Date:   d,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q: %w", s, err)
	}
	return t.UTC(), nil
}

// WriteBarsCSV writes s with a header row.
func WriteBarsCSV(w io.Writer, s market.Series) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	for _, b := range s {
		row := []string{b.Date.Format(time.DateOnly), f(b.Open), f(b.High), f(b.Low), f(b.Close), f(b.Volume)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the series for symbol under Dir, xz-compressed when
// compress is set. It returns the path written.
func (c *CSV) WriteFile(symbol string, s market.Series, compress bool) (string, error) {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return "", fmt.Errorf("marketdata: mkdir %s: %w", c.Dir, err)
	}
	path := filepath.Join(c.Dir, normSymbol(symbol)+".csv")
	if compress {
		path += ".xz"
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("marketdata: create %s: %w", path, err)
	}

	var w io.Writer = f
	var xw *xz.Writer
	if compress {
		if xw, err = xz.NewWriter(f); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("marketdata: %s: %w", path, err)
		}
		w = xw
	}
	werr := WriteBarsCSV(w, s)
	if xw != nil {
		if cerr := xw.Close(); werr == nil {
			werr = cerr
		}
	}
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return "", fmt.Errorf("marketdata: write %s: %w", path, werr)
	}
	return path, nil
}
