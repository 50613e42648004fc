package statespace

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"
)

// Estimator finds the log variances minimizing an Objective.
// The gradient is always approximated by central finite differences.
type Estimator struct {
	Method   optimize.Method    // Defaults to BFGS.
	Settings *optimize.Settings // Defaults to DefaultFitSettings() if nil.
	Step     float64            // Finite difference step, gonum default if zero.
}

// DefaultFitSettings stops when the gradient norm falls below 1e-5 or after 200 iterations.
func DefaultFitSettings() *optimize.Settings {
	return &optimize.Settings{
		GradientThreshold: 1e-5,
		MajorIterations:   200,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-10,
			Iterations: 20,
		},
	}
}

// FitResult is returned by Estimator.Fit.
type FitResult struct {
	LogParams           []float64 // (log σ²_W, log σ²_V)
	ProcessVariance     float64   // σ²_W
	ObservationVariance float64   // σ²_V
	NegLogLik           float64
	Status              optimize.Status
	Iterations          int
	FuncEvaluations     int
	Runtime             time.Duration
}

func (r FitResult) String() string {
	return fmt.Sprintf("σ²_W=%g σ²_V=%g -loglik=%f status=%s iter=%d evals=%d", r.ProcessVariance, r.ObservationVariance, r.NegLogLik, r.Status, r.Iterations, r.FuncEvaluations)
}

// Fit minimizes the negative log likelihood starting at x0.
// A failure of the filter during the search (e.g. a singular Q) aborts the fit
// and is returned as is. If the minimizer itself reports an error, the last
// location is returned alongside that error.
func (e *Estimator) Fit(obj Objective, x0 []float64) (*FitResult, error) {
	if len(x0) != 2 {
		return nil, fmt.Errorf("expected a starting point of size 2, got %d", len(x0))
	}
	var evalErr error
	f := func(x []float64) float64 {
		if evalErr != nil {
			return math.Inf(1)
		}
		v, err := obj.NegLogLik(x)
		if err != nil {
			evalErr = fmt.Errorf("log σ²_W=%g log σ²_V=%g: %w", x[0], x[1], err)
			return math.Inf(1)
		}
		return v
	}
	fdSettings := &fd.Settings{Formula: fd.Central, Step: e.Step}
	problem := optimize.Problem{
		Func: f,
		Grad: func(grad, x []float64) {
			fd.Gradient(grad, f, x, fdSettings)
		},
	}

	method := e.Method
	if method == nil {
		method = &optimize.BFGS{}
	}
	settings := e.Settings
	if settings == nil {
		settings = DefaultFitSettings()
	}
	start := append([]float64(nil), x0...)
	res, err := optimize.Minimize(problem, start, settings, method)
	if evalErr != nil {
		return nil, evalErr
	}
	if res == nil {
		return nil, err
	}
	return &FitResult{
		LogParams:           res.X,
		ProcessVariance:     math.Exp(res.X[0]),
		ObservationVariance: math.Exp(res.X[1]),
		NegLogLik:           res.F,
		Status:              res.Status,
		Iterations:          res.MajorIterations,
		FuncEvaluations:     res.FuncEvaluations,
		Runtime:             res.Runtime,
	}, err
}
