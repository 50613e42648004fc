package marketdata

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

const stockCSV = `Date,Open,High,Low,Close,Volume
2023-01-06,10,10,10,110,1
2023-01-04,10,10,10,100,1
# holiday
2023-01-05,10,10,10,,1
2023-01-09,10,10,10,NA,1
2023-01-10,10,10,10,121,1
`

func TestReadCSV(t *testing.T) {
	s, err := ReadCSV("9501.JP", strings.NewReader(stockCSV), CSVOptions{})
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())
	assert.Equal(t, date(2023, 1, 4), s.Dates[0])
	assert.Equal(t, []float64{100, 110, 121}, s.Close)

	_, err = ReadCSV("bad", strings.NewReader("date,price\n2023/01/04,1\n"), CSVOptions{})
	assert.Error(t, err)

	usd, err := ReadCSV("usdjpy", strings.NewReader("date,price\n2023/01/05,131.2\n2023/01/04,130.1\n"), CSVOptions{DateColumn: "date", CloseColumn: "price"})
	require.NoError(t, err)
	assert.Equal(t, []float64{130.1, 131.2}, usd.Close)

	_, err = ReadCSV("bad", strings.NewReader("Date,Close\n04.01.2023,1\n"), CSVOptions{})
	assert.Error(t, err)
	_, err = ReadCSV("bad", strings.NewReader("Date,Close\n2023-01-04,abc\n"), CSVOptions{})
	assert.Error(t, err)
}

func TestReadCSVDuplicateDates(t *testing.T) {
	_, err := ReadCSV("dup", strings.NewReader("Date,Close\n2023-01-04,1\n2023-01-05,2\n2023/01/04,3\n"), CSVOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate date 2023-01-04")

	// A missing close does not count as a second row.
	s, err := ReadCSV("dup", strings.NewReader("Date,Close\n2023-01-04,1\n2023-01-04,NA\n"), CSVOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestLogReturns(t *testing.T) {
	s := Series{Name: "s", Dates: []time.Time{date(2023, 1, 4), date(2023, 1, 5), date(2023, 1, 6)}, Close: []float64{100, 110, 99}}
	r, err := s.LogReturns(100)
	require.NoError(t, err)
	require.Len(t, r.Values, 2)
	assert.Equal(t, date(2023, 1, 5), r.Dates[0])
	assert.InDelta(t, 100*math.Log(1.1), r.Values[0], 1e-12)
	assert.InDelta(t, 100*math.Log(0.9), r.Values[1], 1e-12)

	_, err = Series{Dates: s.Dates[:1], Close: s.Close[:1]}.LogReturns(100)
	assert.Error(t, err)
	_, err = Series{Dates: s.Dates[:2], Close: []float64{0, 1}}.LogReturns(100)
	assert.Error(t, err)
}

func TestJoin(t *testing.T) {
	x := Returns{Dates: []time.Time{date(2023, 1, 4), date(2023, 1, 5), date(2023, 1, 7)}, Values: []float64{1, 2, 3}}
	y := Returns{Dates: []time.Time{date(2023, 1, 5), date(2023, 1, 6), date(2023, 1, 7), date(2023, 1, 8)}, Values: []float64{10, 20, 30, 40}}
	p := Join(x, y)
	assert.Equal(t, []time.Time{date(2023, 1, 5), date(2023, 1, 7)}, p.Dates)
	assert.Equal(t, []float64{2, 3}, p.X)
	assert.Equal(t, []float64{10, 30}, p.Y)

	b := p.Between(date(2023, 1, 6), time.Time{})
	assert.Equal(t, 1, b.Len())
	assert.Equal(t, 3.0, b.X[0])
	assert.Equal(t, 2, p.Between(time.Time{}, time.Time{}).Len())
	assert.Equal(t, 0, p.Between(date(2023, 1, 6), date(2023, 1, 6)).Len())
}
