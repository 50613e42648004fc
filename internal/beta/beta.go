// Package beta estimates a time varying CAPM alpha and beta with the local
// level regression y_t = alpha_t + beta_t*x_t + v_t.
package beta

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/quantscripts/statespace"
	"github.com/quantscripts/statespace/marketdata"
)

// Options of Run.
type Options struct {
	PriorVariance float64 // C0 = PriorVariance*I, m0 = 0.
	Level         float64 // Interval level, e.g. 0.95.
	BurnIn        int     // Estimates skipped by the export and the NIS test.
	MaxIterations int     // Optimizer iterations, 0 for the default.
}

// DefaultOptions returns a vague prior, 95% intervals and a burn-in of 50 steps.
func DefaultOptions() Options {
	return Options{PriorVariance: 1e7, Level: 0.95, BurnIn: 50}
}

// Report holds everything estimated from one stock and market pair.
type Report struct {
	Dates    []time.Time
	Fit      *statespace.FitResult
	Model    statespace.Model
	Filtered []*statespace.FilterEstimate
	Smoothed []*statespace.SmoothEstimate
	NIS      statespace.ChiSquareTest
	Static   *mat.VecDense // Posterior mean of the static regression (alpha, beta).
	FitErr   error         // Reported by the minimizer at the returned location, if any.
	opts     Options
}

// Run fits the variances by maximum likelihood from (0, 0), then filters and
// smooths the pair with the fitted model. X is the market and Y the stock.
func Run(pair marketdata.Pair, opts Options) (*Report, error) {
	if pair.Len() <= opts.BurnIn+1 {
		return nil, fmt.Errorf("%d observations for a burn-in of %d", pair.Len(), opts.BurnIn)
	}
	design := statespace.RegressionDesign(pair.X)
	y := statespace.Scalars(pair.Y)
	m0 := mat.NewVecDense(2, nil)
	C0 := statespace.ScaledIdentity(2, opts.PriorVariance)
	G := statespace.Identity(2)

	obj := statespace.Objective{Dims: 2, Y: y, G: G, Design: design, M0: m0, C0: C0}
	est := statespace.Estimator{}
	if opts.MaxIterations > 0 {
		settings := statespace.DefaultFitSettings()
		settings.MajorIterations = opts.MaxIterations
		est.Settings = settings
	}
	fit, fitErr := est.Fit(obj, []float64{0, 0})
	if fit == nil {
		return nil, fmt.Errorf("fitting variances: %w", fitErr)
	}
	model, err := obj.Model(fit.LogParams)
	if err != nil {
		return nil, err
	}
	filtered, err := statespace.Run(model, y, m0, C0)
	if err != nil {
		return nil, fmt.Errorf("filtering: %w", err)
	}
	smoothed, err := statespace.SmoothAll(model, filtered)
	if err != nil {
		return nil, fmt.Errorf("smoothing: %w", err)
	}
	nis, err := statespace.NewChiSquare(filtered, opts.BurnIn, opts.Level)
	if err != nil {
		return nil, err
	}

	static, err := statespace.NewBatchRegression(m0, C0, model.V)
	if err != nil {
		return nil, err
	}
	for k := range y {
		if err := static.Add(y[k], design.At(k)); err != nil {
			return nil, err
		}
	}
	staticMean, _, err := static.Solve()
	if err != nil {
		return nil, fmt.Errorf("static regression: %w", err)
	}

	return &Report{
		Dates:    pair.Dates,
		Fit:      fit,
		Model:    model,
		Filtered: filtered,
		Smoothed: smoothed,
		NIS:      nis,
		Static:   staticMean,
		FitErr:   fitErr,
		opts:     opts,
	}, nil
}

// Headers are the series written by Export.
var Headers = []string{"alpha_filtered", "beta_filtered", "alpha_smoothed", "beta_smoothed"}

// Export writes the filtered and smoothed alpha and beta with their intervals,
// skipping the burn-in.
func (r *Report) Export(e statespace.Exporter) error {
	bands := [][]statespace.Band{
		statespace.Bands(r.Filtered, 0, r.opts.Level),
		statespace.Bands(r.Filtered, 1, r.opts.Level),
		statespace.Bands(r.Smoothed, 0, r.opts.Level),
		statespace.Bands(r.Smoothed, 1, r.opts.Level),
	}
	for k := r.opts.BurnIn; k < len(r.Dates); k++ {
		row := make([]statespace.Band, len(bands))
		for i, b := range bands {
			row[i] = b[k]
		}
		if err := e.Write(r.Dates[k], row...); err != nil {
			return fmt.Errorf("%s: %w", r.Dates[k].Format(statespace.DateLayout), err)
		}
	}
	return nil
}

// LastBeta returns the last smoothed beta with its interval.
func (r *Report) LastBeta() statespace.Band {
	return statespace.Bands(r.Smoothed[len(r.Smoothed)-1:], 1, r.opts.Level)[0]
}
