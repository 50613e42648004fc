package statespace

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// MonteCarloRuns stores the negative log likelihood of each candidate
// hyperparameter vector, evaluated on many independently simulated datasets.
type MonteCarloRuns struct {
	runs       int
	Candidates [][]float64 // log variances of each candidate
	Runs       []MonteCarloRun
}

// MonteCarloRun stores the results of an MC run.
type MonteCarloRun struct {
	NegLogLik []float64 // One value per candidate.
}

// Mean returns the mean negative log likelihood of the given candidate over all runs.
func (mc MonteCarloRuns) Mean(candidate int) float64 {
	return stat.Mean(mc.samples(candidate), nil)
}

// StdDev returns the standard deviation of the negative log likelihood of the given candidate.
func (mc MonteCarloRuns) StdDev(candidate int) float64 {
	return stat.StdDev(mc.samples(candidate), nil)
}

// Best returns the index of the candidate with the lowest mean negative log likelihood.
func (mc MonteCarloRuns) Best() int {
	best, bestMean := -1, math.Inf(1)
	for c := range mc.Candidates {
		if m := mc.Mean(c); m < bestMean {
			best, bestMean = c, m
		}
	}
	return best
}

func (mc MonteCarloRuns) samples(candidate int) []float64 {
	vals := make([]float64, len(mc.Runs))
	for r, run := range mc.Runs {
		vals[r] = run.NegLogLik[candidate]
	}
	return vals
}

// AsCSV is used as a CSV serializer: one line per run, one column per candidate,
// followed by the mean and standard deviation lines. Includes a header.
func (mc MonteCarloRuns) AsCSV(headers []string) string {
	lines := make([]string, 0, mc.runs+3)
	lines = append(lines, "run,"+strings.Join(headers, ","))
	for r, run := range mc.Runs {
		vals := make([]string, len(run.NegLogLik))
		for c, v := range run.NegLogLik {
			vals[c] = fmt.Sprintf("%f", v)
		}
		lines = append(lines, fmt.Sprintf("%d,%s", r, strings.Join(vals, ",")))
	}
	means := make([]string, len(mc.Candidates))
	devs := make([]string, len(mc.Candidates))
	for c := range mc.Candidates {
		means[c] = fmt.Sprintf("%f", mc.Mean(c))
		devs[c] = fmt.Sprintf("%f", mc.StdDev(c))
	}
	lines = append(lines, "mean,"+strings.Join(means, ","), "stddev,"+strings.Join(devs, ","))
	return strings.Join(lines, "\n")
}

// NewMonteCarloRuns simulates `samples` datasets from the model with W = exp(truth[0])*I and
// V = exp(truth[1])*I, starting at x0, and evaluates the negative log likelihood of each
// candidate on each of them. Run r uses the noise seed `seed+r`.
func NewMonteCarloRuns(samples int, G mat.Matrix, design Design, x0, m0 mat.Vector, C0 mat.Symmetric, truth []float64, candidates [][]float64, seed uint64) (MonteCarloRuns, error) {
	if samples < 1 {
		return MonteCarloRuns{}, fmt.Errorf("must request at least one run, got %d", samples)
	}
	dims := x0.Len()
	obsDims, _ := design.At(0).Dims()
	W := ScaledIdentity(dims, math.Exp(truth[0]))
	V := ScaledIdentity(obsDims, math.Exp(truth[1]))
	model := Model{G: G, Design: design, W: W, V: V}

	runs := make([]MonteCarloRun, samples)
	for r := 0; r < samples; r++ {
		sim, err := Simulate(model, x0, NewAWGN(W, V, seed+uint64(r)))
		if err != nil {
			return MonteCarloRuns{}, err
		}
		obj := Objective{Dims: dims, Y: sim.Observations, G: G, Design: design, M0: m0, C0: C0}
		run := MonteCarloRun{NegLogLik: make([]float64, len(candidates))}
		for c, params := range candidates {
			if run.NegLogLik[c], err = obj.NegLogLik(params); err != nil {
				return MonteCarloRuns{}, fmt.Errorf("run #%d candidate #%d: %w", r, c, err)
			}
		}
		runs[r] = run
	}
	return MonteCarloRuns{samples, candidates, runs}, nil
}
