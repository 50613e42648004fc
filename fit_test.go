package statespace

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/optimize"
)

func TestFitLocalLevel(t *testing.T) {
	T := 400
	G, design := localLevel(T)
	W, V := scalarSym(0.5), scalarSym(2)
	model := Model{G: G, Design: design, W: W, V: V}
	sim, err := Simulate(model, scalar(0), NewAWGN(W, V, 7))
	require.NoError(t, err)

	obj := Objective{Dims: 1, Y: sim.Observations, G: G, Design: design, M0: scalar(0), C0: scalarSym(1e7)}
	est := Estimator{}
	res, err := est.Fit(obj, []float64{0, 0})
	if err != nil {
		t.Logf("minimizer: %s", err)
	}
	require.NotNil(t, res)
	t.Log(res)

	atTruth, err := obj.NegLogLik([]float64{math.Log(0.5), math.Log(2)})
	require.NoError(t, err)
	assert.LessOrEqual(t, res.NegLogLik, atTruth+1e-6)
	assert.InDelta(t, math.Exp(res.LogParams[0]), res.ProcessVariance, 1e-12)
	assert.Greater(t, res.ProcessVariance, 0.1)
	assert.Less(t, res.ProcessVariance, 2.0)
	assert.Greater(t, res.ObservationVariance, 0.8)
	assert.Less(t, res.ObservationVariance, 4.0)
	assert.Greater(t, res.FuncEvaluations, 0)
}

func TestDefaultFitSettings(t *testing.T) {
	s := DefaultFitSettings()
	assert.Equal(t, 1e-5, s.GradientThreshold)
	assert.Equal(t, 200, s.MajorIterations)
	conv, ok := s.Converger.(*optimize.FunctionConverge)
	require.True(t, ok)
	assert.Equal(t, 1e-10, conv.Absolute)
	assert.Equal(t, 20, conv.Iterations)
}

func TestFitErrors(t *testing.T) {
	G, design := localLevel(2)
	obj := Objective{Dims: 1, Y: Scalars([]float64{1, 2}), G: G, Design: design, M0: scalar(0), C0: scalarSym(0)}
	est := Estimator{}
	_, err := est.Fit(obj, []float64{0})
	assert.Error(t, err)

	_, err = est.Fit(obj, []float64{-1000, -1000})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSingular))
}
