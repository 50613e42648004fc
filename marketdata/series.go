// Package marketdata loads daily closes and intraday bars, and turns them into
// the aligned return series fed to the state space models.
package marketdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Series is a daily close price series sorted by date.
type Series struct {
	Name  string
	Dates []time.Time
	Close []float64
}

// Len returns the number of observations.
func (s Series) Len() int {
	return len(s.Dates)
}

// CSVOptions selects the columns of a CSV price file.
type CSVOptions struct {
	DateColumn  string   // Header of the date column, defaults to "Date".
	CloseColumn string   // Header of the close column, defaults to "Close".
	DateLayouts []string // Tried in order, defaults to "2006-01-02" then "2006/01/02".
}

// DefaultDateLayouts are tried when CSVOptions.DateLayouts is empty.
var DefaultDateLayouts = []string{"2006-01-02", "2006/01/02"}

func (o CSVOptions) withDefaults() CSVOptions {
	if o.DateColumn == "" {
		o.DateColumn = "Date"
	}
	if o.CloseColumn == "" {
		o.CloseColumn = "Close"
	}
	if len(o.DateLayouts) == 0 {
		o.DateLayouts = DefaultDateLayouts
	}
	return o
}

// ParseDate parses s with the first matching layout.
func ParseDate(s string, layouts []string) (time.Time, error) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q matches none of %v", s, layouts)
}

// ReadCSV reads a price series. Lines starting with '#' are ignored, as are
// rows whose close is empty, "NA" or "null". The result is sorted by date and
// two priced rows on the same day are an error.
func ReadCSV(name string, r io.Reader, opts CSVOptions) (Series, error) {
	opts = opts.withDefaults()
	rd := csv.NewReader(r)
	rd.Comment = '#'
	rd.FieldsPerRecord = -1
	rd.TrimLeadingSpace = true

	header, err := rd.Read()
	if err != nil {
		return Series{}, fmt.Errorf("%s: reading header: %w", name, err)
	}
	dateCol, closeCol := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case opts.DateColumn:
			dateCol = i
		case opts.CloseColumn:
			closeCol = i
		}
	}
	if dateCol < 0 || closeCol < 0 {
		return Series{}, fmt.Errorf("%s: columns %q and %q required, got %v", name, opts.DateColumn, opts.CloseColumn, header)
	}

	s := Series{Name: name}
	for line := 2; ; line++ {
		rec, err := rd.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Series{}, fmt.Errorf("%s: %w", name, err)
		}
		if len(rec) <= dateCol || len(rec) <= closeCol {
			return Series{}, fmt.Errorf("%s: line %d has %d fields", name, line, len(rec))
		}
		raw := strings.TrimSpace(rec[closeCol])
		if isMissing(raw) {
			continue
		}
		date, err := ParseDate(strings.TrimSpace(rec[dateCol]), opts.DateLayouts)
		if err != nil {
			return Series{}, fmt.Errorf("%s: line %d: %w", name, line, err)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Series{}, fmt.Errorf("%s: line %d: %w", name, line, err)
		}
		s.Dates = append(s.Dates, date)
		s.Close = append(s.Close, v)
	}
	sort.Sort(byDate(s))
	for k := 1; k < len(s.Dates); k++ {
		if day(s.Dates[k]).Equal(day(s.Dates[k-1])) {
			return Series{}, fmt.Errorf("%s: duplicate date %s", name, s.Dates[k].Format("2006-01-02"))
		}
	}
	return s, nil
}

func isMissing(v string) bool {
	switch strings.ToLower(v) {
	case "", "na", "nan", "null":
		return true
	}
	return false
}

type byDate Series

func (s byDate) Len() int           { return len(s.Dates) }
func (s byDate) Less(i, j int) bool { return s.Dates[i].Before(s.Dates[j]) }
func (s byDate) Swap(i, j int) {
	s.Dates[i], s.Dates[j] = s.Dates[j], s.Dates[i]
	s.Close[i], s.Close[j] = s.Close[j], s.Close[i]
}

// Returns is a series of log returns.
type Returns struct {
	Name   string
	Dates  []time.Time
	Values []float64
}

// LogReturns returns scale*(ln p_t - ln p_{t-1}) dated at t. The first
// observation has no return and is dropped.
func (s Series) LogReturns(scale float64) (Returns, error) {
	r := Returns{Name: s.Name}
	if s.Len() < 2 {
		return r, fmt.Errorf("%s: at least two closes are needed, got %d", s.Name, s.Len())
	}
	r.Dates = make([]time.Time, 0, s.Len()-1)
	r.Values = make([]float64, 0, s.Len()-1)
	for t := 1; t < s.Len(); t++ {
		if s.Close[t] <= 0 || s.Close[t-1] <= 0 {
			return Returns{}, fmt.Errorf("%s: non positive close around %s", s.Name, s.Dates[t].Format("2006-01-02"))
		}
		r.Dates = append(r.Dates, s.Dates[t])
		r.Values = append(r.Values, scale*(math.Log(s.Close[t])-math.Log(s.Close[t-1])))
	}
	return r, nil
}

// Pair holds two return series aligned on their common dates.
type Pair struct {
	Dates []time.Time
	X, Y  []float64
}

// Len returns the number of common dates.
func (p Pair) Len() int {
	return len(p.Dates)
}

// Join aligns x and y on the dates present in both (inner join).
// Both inputs must be sorted by date with at most one value per day, as
// ReadCSV guarantees.
func Join(x, y Returns) Pair {
	var p Pair
	i, j := 0, 0
	for i < len(x.Dates) && j < len(y.Dates) {
		switch dx, dy := day(x.Dates[i]), day(y.Dates[j]); {
		case dx.Before(dy):
			i++
		case dy.Before(dx):
			j++
		default:
			p.Dates = append(p.Dates, dx)
			p.X = append(p.X, x.Values[i])
			p.Y = append(p.Y, y.Values[j])
			i++
			j++
		}
	}
	return p
}

// Between keeps the dates within [start, end]. A zero bound is open.
func (p Pair) Between(start, end time.Time) Pair {
	var out Pair
	for k, d := range p.Dates {
		if !start.IsZero() && d.Before(start) {
			continue
		}
		if !end.IsZero() && d.After(end) {
			continue
		}
		out.Dates = append(out.Dates, d)
		out.X = append(out.X, p.X[k])
		out.Y = append(out.Y, p.Y[k])
	}
	return out
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
