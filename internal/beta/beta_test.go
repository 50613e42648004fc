package beta

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/quantscripts/statespace"
	"github.com/quantscripts/statespace/marketdata"
)

// constantBetaPair simulates y = 0.1 + 1.2*x + v with standard normal x and v.
func constantBetaPair(T int) marketdata.Pair {
	r := rand.New(rand.NewSource(2024))
	p := marketdata.Pair{}
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for t := 0; t < T; t++ {
		x := r.NormFloat64()
		p.Dates = append(p.Dates, start.AddDate(0, 0, t))
		p.X = append(p.X, x)
		p.Y = append(p.Y, 0.1+1.2*x+r.NormFloat64())
	}
	return p
}

func TestRun(t *testing.T) {
	opts := DefaultOptions()
	opts.BurnIn = 20
	pair := constantBetaPair(300)
	rep, err := Run(pair, opts)
	require.NoError(t, err)
	t.Log(rep.Fit)

	require.Len(t, rep.Filtered, 300)
	require.Len(t, rep.Smoothed, 300)
	assert.InDelta(t, 1.2, rep.Static.AtVec(1), 0.15)
	assert.InDelta(t, 1.2, rep.LastBeta().Estimate, 0.4)
	assert.Less(t, rep.LastBeta().Lower, rep.LastBeta().Upper)
	assert.InDelta(t, 1, rep.Fit.ObservationVariance, 0.4)
	assert.Equal(t, 280, rep.NIS.Steps)

	// The fit is at least as good as the starting point.
	obj := statespace.Objective{Dims: 2, Y: statespace.Scalars(pair.Y), G: statespace.Identity(2), Design: statespace.RegressionDesign(pair.X), M0: mat.NewVecDense(2, nil), C0: statespace.ScaledIdentity(2, opts.PriorVariance)}
	start, err := obj.NegLogLik([]float64{0, 0})
	require.NoError(t, err)
	assert.LessOrEqual(t, rep.Fit.NegLogLik, start)

	var buf bytes.Buffer
	e, err := statespace.NewCSVWriterExporter(Headers, &buf)
	require.NoError(t, err)
	require.NoError(t, rep.Export(e))
	require.NoError(t, e.Close())
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	// Creation comment, header, rows, closing comment.
	assert.Len(t, lines, 2+280+1)
	assert.True(t, strings.HasPrefix(lines[2], "2020-01-21,"))
	assert.Len(t, strings.Split(lines[2], ","), 1+3*len(Headers))
}

func TestRunErrors(t *testing.T) {
	_, err := Run(constantBetaPair(10), DefaultOptions())
	assert.Error(t, err)

	// Constant regressors make the static posterior lean on the prior only.
	pair := constantBetaPair(80)
	for i := range pair.X {
		pair.X[i] = 0
	}
	opts := DefaultOptions()
	opts.BurnIn = 5
	opts.MaxIterations = 5
	rep, err := Run(pair, opts)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(rep.LastBeta().Estimate))
}
