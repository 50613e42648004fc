package msv

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// ParamSummary summarizes the posterior of one scalar parameter.
type ParamSummary struct {
	Name         string
	Mean, SD     float64
	Q5, Q50, Q95 float64
}

// Summarize summarizes the columns whose base name (before the first '.') is
// one of params, or every non sampler column if params is empty.
func Summarize(d *Draws, params ...string) []ParamSummary {
	var out []ParamSummary
	for _, name := range d.Columns {
		if !selected(name, params) {
			continue
		}
		vals, _ := d.Column(name)
		sort.Float64s(vals)
		mean, sd := stat.MeanStdDev(vals, nil)
		out = append(out, ParamSummary{
			Name: name,
			Mean: mean,
			SD:   sd,
			Q5:   stat.Quantile(0.05, stat.LinInterp, vals, nil),
			Q50:  stat.Quantile(0.5, stat.LinInterp, vals, nil),
			Q95:  stat.Quantile(0.95, stat.LinInterp, vals, nil),
		})
	}
	return out
}

func selected(column string, params []string) bool {
	if len(params) == 0 {
		return column == "lp__" || !strings.HasSuffix(column, "__")
	}
	base, _, _ := strings.Cut(column, ".")
	for _, p := range params {
		if base == p {
			return true
		}
	}
	return false
}

// WriteSummaryCSV writes one line per parameter.
func WriteSummaryCSV(w io.Writer, sums []ParamSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", "mean", "sd", "5%", "50%", "95%"}); err != nil {
		return err
	}
	for _, s := range sums {
		if err := cw.Write([]string{s.Name, ff(s.Mean), ff(s.SD), ff(s.Q5), ff(s.Q50), ff(s.Q95)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ff(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// Quantiles is the 2.5%, 50% and 97.5% posterior quantiles of one time index.
type Quantiles struct {
	Lower, Median, Upper float64
}

// Band returns the quantiles of the indexed columns prefix.1, prefix.2, ...
// e.g. "volatility.1" for the volatility of the first series or "rho".
func Band(d *Draws, prefix string) ([]Quantiles, error) {
	var band []Quantiles
	for t := 1; ; t++ {
		vals, ok := d.Column(prefix + "." + strconv.Itoa(t))
		if !ok {
			break
		}
		sort.Float64s(vals)
		band = append(band, Quantiles{
			Lower:  stat.Quantile(0.025, stat.LinInterp, vals, nil),
			Median: stat.Quantile(0.5, stat.LinInterp, vals, nil),
			Upper:  stat.Quantile(0.975, stat.LinInterp, vals, nil),
		})
	}
	if len(band) == 0 {
		return nil, fmt.Errorf("no column %s.1", prefix)
	}
	return band, nil
}

// RollingCorrelation returns the Pearson correlation of x and y over the
// trailing window ending at each index. The first window-1 values are NaN.
func RollingCorrelation(x, y []float64, window int) ([]float64, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("series of %d and %d values", len(x), len(y))
	}
	if window < 2 {
		return nil, fmt.Errorf("window of %d", window)
	}
	out := make([]float64, len(x))
	for t := range out {
		if t+1 < window {
			out[t] = math.NaN()
			continue
		}
		out[t] = stat.Correlation(x[t+1-window:t+1], y[t+1-window:t+1], nil)
	}
	return out, nil
}
