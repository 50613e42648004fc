package msv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
)

// Draws holds the posterior draws of every chain, one row per draw.
type Draws struct {
	Columns []string
	Rows    [][]float64
	index   map[string]int
}

// Column returns the draws of the named column.
func (d *Draws) Column(name string) ([]float64, bool) {
	c, ok := d.index[name]
	if !ok {
		return nil, false
	}
	vals := make([]float64, len(d.Rows))
	for i, row := range d.Rows {
		vals[i] = row[c]
	}
	return vals, true
}

// ReadDraws reads and concatenates CmdStan CSV files. Comment lines are
// skipped and every file must have the same header.
func ReadDraws(paths ...string) (*Draws, error) {
	if len(paths) == 0 {
		return nil, errors.New("no draws file")
	}
	d := &Draws{}
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, err
		}
		err = d.read(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	return d, nil
}

// ParseDraws reads one CmdStan CSV stream.
func ParseDraws(r io.Reader) (*Draws, error) {
	d := &Draws{}
	if err := d.read(r); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Draws) read(r io.Reader) error {
	rd := csv.NewReader(r)
	rd.Comment = '#'
	header, err := rd.Read()
	if err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	if d.Columns == nil {
		d.Columns = header
		d.index = make(map[string]int, len(header))
		for i, h := range header {
			d.index[h] = i
		}
	} else if !slices.Equal(d.Columns, header) {
		return errors.New("header differs from the previous chains")
	}
	for {
		rec, err := rd.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		row := make([]float64, len(rec))
		for i, v := range rec {
			if row[i], err = strconv.ParseFloat(v, 64); err != nil {
				return fmt.Errorf("column %s: %w", d.Columns[i], err)
			}
		}
		d.Rows = append(d.Rows, row)
	}
}
