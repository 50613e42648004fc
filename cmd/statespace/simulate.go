package main

import (
	"fmt"
	"math"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/quantscripts/statespace"
)

// SimulateCmd checks the estimation on a simulated local level model.
type SimulateCmd struct {
	Steps   int     `short:"n" default:"500" help:"Number of observations."`
	W       float64 `default:"0.5" help:"State noise variance."`
	V       float64 `default:"2" help:"Observation noise variance."`
	Runs    int     `default:"20" help:"Monte Carlo runs comparing the true and fitted variances."`
	Seed    uint64  `default:"1" help:"Noise seed."`
	BurnIn  int     `default:"10" help:"Steps skipped by the NIS test."`
	Level   float64 `default:"0.95" help:"NIS test level."`
	Verbose bool    `short:"v" help:"Log every filtering step."`
}

// Run implements the simulate command.
func (c *SimulateCmd) Run(rc *runContext) error {
	G := mat1(1)
	design := statespace.ConstantDesign{F: mat1(1), T: c.Steps}
	W := statespace.ScaledIdentity(1, c.W)
	V := statespace.ScaledIdentity(1, c.V)
	model := statespace.Model{G: G, Design: design, W: W, V: V}
	x0 := statespace.Scalars([]float64{0})[0]

	sim, err := statespace.Simulate(model, x0, statespace.NewAWGN(W, V, c.Seed))
	if err != nil {
		return err
	}
	m0 := statespace.Scalars([]float64{0})[0]
	C0 := statespace.ScaledIdentity(1, 1e7)
	obj := statespace.Objective{Dims: 1, Y: sim.Observations, G: G, Design: design, M0: m0, C0: C0}
	fit, err := (&statespace.Estimator{}).Fit(obj, []float64{0, 0})
	if fit == nil {
		return err
	}
	if err != nil {
		rc.log.WithError(err).Warn("minimizer stopped early")
	}

	fitted, err := obj.Model(fit.LogParams)
	if err != nil {
		return err
	}
	ests, err := statespace.Run(fitted, sim.Observations, m0, C0)
	if err != nil {
		return err
	}
	smoothed, err := statespace.SmoothAll(fitted, ests)
	if err != nil {
		return err
	}
	if c.Verbose {
		for k, est := range ests {
			rc.log.WithFields(logrus.Fields{"k": k, "m": est.State().AtVec(0), "s": smoothed[k].State().AtVec(0)}).Debug("step")
		}
	}
	truth := statespace.NewBatchGroundTruth(sim.States)
	within := 0
	for k, est := range smoothed {
		if truth.Error(k, est).IsWithinNσ(2) {
			within++
		}
	}
	nis, err := statespace.NewChiSquare(ests, c.BurnIn, c.Level)
	if err != nil {
		return err
	}

	trueParams := []float64{math.Log(c.W), math.Log(c.V)}
	mc, err := statespace.NewMonteCarloRuns(c.Runs, G, design, x0, m0, C0, trueParams, [][]float64{trueParams, fit.LogParams}, c.Seed+1)
	if err != nil {
		return err
	}

	tw := newTable(rc.out, table.Row{"quantity", "truth", "estimate"})
	tw.AppendRows([]table.Row{
		{"σ²_W", c.W, fmt.Sprintf("%.4f", fit.ProcessVariance)},
		{"σ²_V", c.V, fmt.Sprintf("%.4f", fit.ObservationVariance)},
		{"mean -log likelihood over runs", fmt.Sprintf("%.3f ± %.3f", mc.Mean(0), mc.StdDev(0)), fmt.Sprintf("%.3f ± %.3f", mc.Mean(1), mc.StdDev(1))},
		{"smoothed within 2σ of truth", "", fmt.Sprintf("%d / %d", within, len(smoothed))},
		{"NIS", "", fmt.Sprintf("%s consistent=%t", nis, nis.Consistent())},
		{"optimizer", "", fit.String()},
	})
	tw.Render()
	return nil
}

func mat1(v float64) *mat.Dense {
	return mat.NewDense(1, 1, []float64{v})
}
