package statespace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNIS(t *testing.T) {
	est, err := Filter(scalar(2), scalar(0), scalarSym(1), scalarMat(1), scalarMat(1), scalarSym(1), scalarSym(2))
	require.NoError(t, err)
	nis, err := NIS([]*FilterEstimate{est})
	require.NoError(t, err)
	// e = 2, Q = 4
	assert.InDelta(t, 1, nis[0], 1e-12)

	_, err = NIS(nil)
	assert.Error(t, err)
}

func TestChiSquareConsistentFilter(t *testing.T) {
	T := 500
	G, design := localLevel(T)
	W, V := scalarSym(0.5), scalarSym(2)
	model := Model{G: G, Design: design, W: W, V: V}
	sim, err := Simulate(model, scalar(0), NewAWGN(W, V, 11))
	require.NoError(t, err)

	ests, err := Run(model, sim.Observations, scalar(0), scalarSym(1e7))
	require.NoError(t, err)
	test, err := NewChiSquare(ests, 10, 0.9999)
	require.NoError(t, err)
	t.Log(test)
	assert.Equal(t, T-10, test.Steps)
	assert.Less(t, test.Lower, 1.0)
	assert.Greater(t, test.Upper, 1.0)
	assert.True(t, test.Consistent())

	// A filter believing in a much smaller observation noise is overconfident.
	wrong := Model{G: G, Design: design, W: scalarSym(0.01), V: scalarSym(0.01)}
	ests, err = Run(wrong, sim.Observations, scalar(0), scalarSym(1e7))
	require.NoError(t, err)
	test, err = NewChiSquare(ests, 10, 0.99)
	require.NoError(t, err)
	assert.False(t, test.Consistent())

	_, err = NewChiSquare(ests, T, 0.99)
	assert.Error(t, err)
}
