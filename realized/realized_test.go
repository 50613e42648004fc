package realized

import (
	"math"
	"testing"
	"time"

	"github.com/quantscripts/statespace/marketdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// barsFrom returns 5 minute bars starting at start, with closes following the
// provided percentage log returns from 100.
func barsFrom(start time.Time, rets []float64) []marketdata.Bar {
	bars := make([]marketdata.Bar, len(rets)+1)
	c := 100.0
	bars[0] = marketdata.Bar{OpenTime: start, Close: c}
	for i, r := range rets {
		c *= math.Exp(r / 100)
		bars[i+1] = marketdata.Bar{OpenTime: start.Add(time.Duration(i+1) * 5 * time.Minute), Close: c}
	}
	return bars
}

func TestConstants(t *testing.T) {
	assert.InDelta(t, math.Sqrt(2/math.Pi), μ1, 1e-12)
	assert.InDelta(t, 0.8309, μ43, 1e-4)
}

func TestDailyMeasuresHandComputed(t *testing.T) {
	// 21:00 UTC is 06:00 JST, the start of the 31st.
	start := time.Date(2023, 10, 30, 21, 0, 0, 0, time.UTC)
	r := []float64{0.2, -0.1, 0.3}
	days, err := DailyMeasures(barsFrom(start, r), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, days, 1)
	d := days[0]
	assert.Equal(t, time.Date(2023, 10, 31, 0, 0, 0, 0, time.UTC), d.Date)
	assert.Equal(t, 4, d.N)
	assert.InDelta(t, 0.04+0.01+0.09, d.RV, 1e-9)
	assert.InDelta(t, (0.1*0.2+0.3*0.1)/(μ1*μ1), d.BV, 1e-9)
	assert.InDelta(t, 4*math.Pow(0.3*0.1*0.2, 4.0/3)/math.Pow(μ43, 3), d.TQ, 1e-9)
	assert.InDelta(t, d.RV, d.J+d.C, 1e-12)
}

func TestDailyMeasuresAcrossSessions(t *testing.T) {
	first := barsFrom(time.Date(2023, 10, 30, 21, 0, 0, 0, time.UTC), []float64{0.1, 0.1})
	second := barsFrom(time.Date(2023, 10, 31, 21, 0, 0, 0, time.UTC), []float64{-0.2})
	// The second session opens 0.5% above the last close of the first one.
	gap := first[len(first)-1].Close * math.Exp(0.005)
	second[0].Close = gap
	second[1].Close = gap * math.Exp(-0.002)

	days, err := DailyMeasures(append(first, second...), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, 3, days[0].N)
	assert.Equal(t, 2, days[1].N)
	assert.InDelta(t, 0.5*0.5+0.2*0.2, days[1].RV, 1e-9)
	// The lag does not cross sessions: only (0.5, 0.2) contributes.
	assert.InDelta(t, 0.5*0.2/(μ1*μ1), days[1].BV, 1e-9)
}

func TestDailyMeasuresJumps(t *testing.T) {
	calm := make([]float64, 59)
	for i := range calm {
		calm[i] = 0.01
		if i%2 == 1 {
			calm[i] = -0.01
		}
	}
	jumpy := append([]float64(nil), calm...)
	jumpy[30] = 2

	calmBars := barsFrom(time.Date(2023, 11, 1, 21, 0, 0, 0, time.UTC), calm)
	jumpBars := barsFrom(time.Date(2023, 11, 2, 21, 0, 0, 0, time.UTC), jumpy)
	days, err := DailyMeasures(append(calmBars, jumpBars...), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, days, 2)

	assert.False(t, days[0].IsJump())
	assert.Equal(t, 0.0, days[0].J)
	assert.Equal(t, days[0].RV, days[0].C)

	assert.True(t, days[1].IsJump(), days[1].String())
	assert.Greater(t, days[1].Z, 1.645)
	assert.InDelta(t, days[1].RV-days[1].BV, days[1].J, 1e-12)
	assert.InDelta(t, days[1].BV, days[1].C, 1e-12)

	s := Summarize(days)
	assert.Equal(t, 2, s.Days)
	assert.Equal(t, 1, s.JumpDays)
	assert.Equal(t, 1, s.NoJumpDays)
}

func TestSummarize(t *testing.T) {
	days := []Day{
		{RV: 2, BV: 2, J: 0, C: 2},
		{RV: 5, BV: 2, J: 3, C: 2},
		{RV: 4, BV: 3, J: 1, C: 3},
	}
	s := Summarize(days)
	assert.Equal(t, Summary{Days: 3, JumpDays: 2, NoJumpDays: 1, MeanRV: 11.0 / 3, MeanJ: 4.0 / 3}, s)
	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestDailyMeasuresErrors(t *testing.T) {
	start := time.Date(2023, 10, 30, 21, 0, 0, 0, time.UTC)
	_, err := DailyMeasures(barsFrom(start, nil), DefaultOptions())
	assert.Error(t, err)

	bars := barsFrom(start, []float64{0.1, 0.2})
	bars[1], bars[2] = bars[2], bars[1]
	_, err = DailyMeasures(bars, DefaultOptions())
	assert.Error(t, err)

	_, err = DailyMeasures(barsFrom(start, []float64{0.1}), Options{Alpha: 1.5})
	assert.Error(t, err)
}
