package msv

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"time"
)

// BandColumn is a named posterior band, one entry per date.
type BandColumn struct {
	Name string
	Band []Quantiles
}

// Column is a named series, one value per date.
type Column struct {
	Name   string
	Values []float64
}

// WriteBandsCSV writes, for each date, the lower, median and upper values of
// every band followed by the extra columns. NaN values are written empty.
func WriteBandsCSV(w io.Writer, dates []time.Time, bands []BandColumn, extra ...Column) error {
	header := []string{"date"}
	for _, b := range bands {
		if len(b.Band) != len(dates) {
			return fmt.Errorf("band %s has %d values for %d dates", b.Name, len(b.Band), len(dates))
		}
		header = append(header, b.Name+"_lower", b.Name+"_median", b.Name+"_upper")
	}
	for _, c := range extra {
		if len(c.Values) != len(dates) {
			return fmt.Errorf("column %s has %d values for %d dates", c.Name, len(c.Values), len(dates))
		}
		header = append(header, c.Name)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for t, d := range dates {
		rec := []string{d.Format("2006-01-02")}
		for _, b := range bands {
			q := b.Band[t]
			rec = append(rec, ff(q.Lower), ff(q.Median), ff(q.Upper))
		}
		for _, c := range extra {
			if math.IsNaN(c.Values[t]) {
				rec = append(rec, "")
			} else {
				rec = append(rec, ff(c.Values[t]))
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
