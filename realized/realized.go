// Package realized computes daily realized volatility measures from intraday
// bars and splits them into jump and continuous components.
package realized

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/quantscripts/statespace/marketdata"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	μ1  = math.Sqrt2 * math.Gamma(1) / math.Gamma(0.5)
	μ43 = math.Pow(2, 2.0/3) * math.Gamma(7.0/6) / math.Gamma(0.5)
)

// Options of DailyMeasures.
type Options struct {
	// SessionOffset is added to the UTC open time of each bar before taking its
	// date. An offset of 3h starts each day at 06:00 JST.
	SessionOffset time.Duration
	Alpha         float64 // Jump test level, defaults to 0.95.
	Scale         float64 // Return scale, defaults to 100 (percent).
}

// DefaultOptions returns the options used for USD/JPY 5 minute bars.
func DefaultOptions() Options {
	return Options{SessionOffset: 9*time.Hour - 6*time.Hour, Alpha: 0.95, Scale: 100}
}

// Day holds the measures of one session.
type Day struct {
	Date time.Time
	N    int     // Number of bars in the session.
	RV   float64 // Realized variance.
	BV   float64 // Bipower variation.
	TQ   float64 // Tripower quarticity.
	Z    float64 // Jump test statistic.
	J    float64 // Jump component.
	C    float64 // Continuous component.
}

// IsJump returns whether a jump was detected on this day.
func (d Day) IsJump() bool {
	return d.J > 0
}

func (d Day) String() string {
	return fmt.Sprintf("%s n=%d RV=%f BV=%f z=%f J=%f", d.Date.Format("2006-01-02"), d.N, d.RV, d.BV, d.Z, d.J)
}

// DailyMeasures computes the measures of each session from bars ordered by time.
// Returns are computed over the whole series, so the first return of a session
// spans the gap from the previous session; lags are only taken within a session.
func DailyMeasures(bars []marketdata.Bar, opts Options) ([]Day, error) {
	if len(bars) < 2 {
		return nil, fmt.Errorf("at least two bars are needed, got %d", len(bars))
	}
	if opts.Alpha == 0 {
		opts.Alpha = 0.95
	}
	if opts.Scale == 0 {
		opts.Scale = 100
	}
	if opts.Alpha <= 0 || opts.Alpha >= 1 {
		return nil, fmt.Errorf("invalid test level %f", opts.Alpha)
	}
	threshold := distuv.UnitNormal.Quantile(opts.Alpha)

	rets := make([]float64, len(bars))
	rets[0] = math.NaN()
	for i := 1; i < len(bars); i++ {
		if bars[i].OpenTime.Before(bars[i-1].OpenTime) {
			return nil, fmt.Errorf("bars not ordered by time at %s", bars[i].OpenTime)
		}
		if bars[i].Close <= 0 || bars[i-1].Close <= 0 {
			return nil, fmt.Errorf("non positive close at %s", bars[i].OpenTime)
		}
		rets[i] = opts.Scale * (math.Log(bars[i].Close) - math.Log(bars[i-1].Close))
	}

	sessions := make(map[time.Time][]float64)
	for i, b := range bars {
		d := sessionDate(b.OpenTime, opts.SessionOffset)
		sessions[d] = append(sessions[d], rets[i])
	}
	days := make([]Day, 0, len(sessions))
	for date, r := range sessions {
		days = append(days, measure(date, r, threshold))
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days, nil
}

func sessionDate(t time.Time, offset time.Duration) time.Time {
	y, m, d := t.UTC().Add(offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// measure computes the measures of one session. NaN returns (no previous
// close) are skipped in every sum.
func measure(date time.Time, r []float64, threshold float64) Day {
	n := len(r)
	var rv, bv, tq float64
	for i, ri := range r {
		if math.IsNaN(ri) {
			continue
		}
		rv += ri * ri
		if i >= 1 && !math.IsNaN(r[i-1]) {
			bv += math.Abs(ri) * math.Abs(r[i-1])
		}
		if i >= 2 && !math.IsNaN(r[i-1]) && !math.IsNaN(r[i-2]) {
			tq += math.Pow(math.Abs(ri)*math.Abs(r[i-1])*math.Abs(r[i-2]), 4.0/3)
		}
	}
	bv /= μ1 * μ1
	tq *= float64(n) / math.Pow(μ43, 3)

	day := Day{Date: date, N: n, RV: rv, BV: bv, TQ: tq}
	day.Z = (math.Log(rv) - math.Log(bv)) / math.Sqrt((math.Pow(μ1, -4)+2*math.Pow(μ1, -2)-5)*tq/(bv*bv)/float64(n))
	if day.Z > threshold {
		day.J = rv - bv
	}
	day.C = rv - day.J
	return day
}

// Summary counts the jump and no jump days.
type Summary struct {
	Days, JumpDays, NoJumpDays int
	MeanRV, MeanJ              float64
}

// Summarize returns the jump counts and the mean RV and J of the provided days.
func Summarize(days []Day) Summary {
	s := Summary{Days: len(days)}
	if len(days) == 0 {
		return s
	}
	rv := make([]float64, len(days))
	j := make([]float64, len(days))
	for k, d := range days {
		if d.IsJump() {
			s.JumpDays++
		} else {
			s.NoJumpDays++
		}
		rv[k], j[k] = d.RV, d.J
	}
	s.MeanRV = stat.Mean(rv, nil)
	s.MeanJ = stat.Mean(j, nil)
	return s
}
