package series

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/finwindow/internal/core"
)

// Layout names the key and time columns of a flat file. Price columns are
// always open, high, low, close and volume.
type Layout struct {
	KeyColumn  string
	TimeColumn string
}

// DefaultLayout matches aggregate flat files.
var DefaultLayout = Layout{KeyColumn: "ticker", TimeColumn: "window_start"}

type columnIndex struct {
	key, time                           int
	open, high, low, close, volume, txn int
}

func indexColumns(header []string, layout Layout) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.ToLower(strings.TrimSpace(h))] = i
	}
	lookup := func(name string) int {
		if i, ok := pos[strings.ToLower(name)]; ok {
			return i
		}
		return -1
	}

	idx := columnIndex{
		key:    lookup(layout.KeyColumn),
		time:   lookup(layout.TimeColumn),
		open:   lookup("open"),
		high:   lookup("high"),
		low:    lookup("low"),
		close:  lookup("close"),
		volume: lookup("volume"),
		txn:    lookup("transactions"),
	}
	if idx.key < 0 {
		return idx, core.WrapError(core.ErrMalformedRow, fmt.Errorf("missing key column %q", layout.KeyColumn))
	}
	if idx.time < 0 {
		return idx, core.WrapError(core.ErrMalformedRow, fmt.Errorf("missing time column %q", layout.TimeColumn))
	}
	return idx, nil
}

// BarReader decodes a CSV flat file with a header row, one bar at a time.
// Rows that cannot be decoded are skipped and counted; blank price cells
// become null values.
type BarReader struct {
	cr        *csv.Reader
	idx       columnIndex
	width     int
	malformed int
}

// NewBarReader reads the header and locates the layout's columns. An empty
// input yields a reader whose first Next returns io.EOF.
func NewBarReader(r io.Reader, layout Layout) (*BarReader, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &BarReader{cr: cr}, nil
	}
	if err != nil {
		return nil, core.WrapError(core.ErrMalformedRow, fmt.Errorf("reading header: %w", err))
	}
	idx, err := indexColumns(header, layout)
	if err != nil {
		return nil, err
	}
	return &BarReader{cr: cr, idx: idx, width: len(header)}, nil
}

// Next returns the next well-formed bar, or io.EOF at the end of input.
func (br *BarReader) Next() (core.Bar, error) {
	if br.width == 0 {
		return core.Bar{}, io.EOF
	}
	for {
		rec, err := br.cr.Read()
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				br.malformed++
				continue
			}
			return core.Bar{}, err
		}
		if len(rec) != br.width {
			br.malformed++
			continue
		}
		bar, ok := decodeBar(rec, br.idx)
		if !ok {
			br.malformed++
			continue
		}
		return bar, nil
	}
}

// Malformed returns how many rows were skipped so far.
func (br *BarReader) Malformed() int {
	return br.malformed
}

// ReadBars decodes a whole flat file. See BarReader.
func ReadBars(r io.Reader, layout Layout) (bars []core.Bar, malformed int, err error) {
	br, err := NewBarReader(r, layout)
	if err != nil {
		return nil, 0, err
	}
	for {
		bar, err := br.Next()
		if errors.Is(err, io.EOF) {
			return bars, br.Malformed(), nil
		}
		if err != nil {
			return nil, br.Malformed(), err
		}
		bars = append(bars, bar)
	}
}

func decodeBar(rec []string, idx columnIndex) (core.Bar, bool) {
	key := strings.TrimSpace(rec[idx.key])
	if key == "" {
		return core.Bar{}, false
	}
	ts, err := ParseTime(rec[idx.time])
	if err != nil {
		return core.Bar{}, false
	}

	bar := core.Bar{Ticker: key, Time: ts}
	fields := []struct {
		col int
		dst *core.Value
	}{
		{idx.open, &bar.Open},
		{idx.high, &bar.High},
		{idx.low, &bar.Low},
		{idx.close, &bar.Close},
		{idx.volume, &bar.Volume},
	}
	for _, f := range fields {
		if f.col < 0 {
			continue
		}
		v, err := ParseValue(rec[f.col])
		if err != nil {
			return core.Bar{}, false
		}
		*f.dst = v
	}
	if idx.txn >= 0 {
		if s := strings.TrimSpace(rec[idx.txn]); s != "" {
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return core.Bar{}, false
			}
			bar.Transactions = n
		}
	}
	return bar, true
}

// ParseValue decodes one numeric cell. Empty cells and "null" are null;
// "NaN" and "Inf" are kept as defined non-finite values.
func ParseValue(s string) (core.Value, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return core.Null(), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return core.Null(), err
	}
	return core.Some(f), nil
}

// ParseTime decodes a time cell: integer epochs (seconds, milliseconds or
// nanoseconds, chosen by magnitude), RFC 3339, or a plain date.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		abs := math.Abs(float64(n))
		switch {
		case abs >= 1e17:
			return time.Unix(0, n).UTC(), nil
		case abs >= 1e14:
			return time.UnixMicro(n).UTC(), nil
		case abs >= 1e11:
			return time.UnixMilli(n).UTC(), nil
		default:
			return time.Unix(n, 0).UTC(), nil
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}
