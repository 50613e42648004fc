package statespace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	_ Noise = Noiseless{}
	_ Noise = Replay{}
	_ Noise = (*AWGN)(nil)
)

func TestNoiseless(t *testing.T) {
	w, v := NewNoiseless(Identity(2), Identity(3)).Sample(4)
	assert.Equal(t, 2, w.Len())
	assert.Equal(t, 3, v.Len())
	assert.True(t, IsNil(w) && IsNil(v))
	assertPanic(t, func() {
		NewNoiseless(nil, Identity(1))
	})
}

func TestReplay(t *testing.T) {
	n := Replay{
		W: []*mat.VecDense{mat.NewVecDense(2, []float64{1, 2}), mat.NewVecDense(2, []float64{3, 4})},
		V: []*mat.VecDense{scalar(-1), scalar(-2)},
	}
	for k := 0; k < 2; k++ {
		w, v := n.Sample(k)
		assert.Same(t, n.W[k], w)
		assert.Same(t, n.V[k], v)
	}
	assertPanic(t, func() {
		n.Sample(2)
	})
}

func TestAWGN(t *testing.T) {
	assertPanic(t, func() {
		NewAWGN(mat.NewSymDense(2, []float64{1, 2, 2, 1}), Identity(1), 1)
	})
	assertPanic(t, func() {
		NewAWGN(Identity(2), mat.NewSymDense(1, []float64{-1}), 1)
	})

	W := mat.NewSymDense(2, []float64{4, 0, 0, 0.25})
	V := scalarSym(9)
	a, b := NewAWGN(W, V, 3), NewAWGN(W, V, 3)
	const draws = 20000
	w0, w1, v0 := make([]float64, draws), make([]float64, draws), make([]float64, draws)
	for k := 0; k < draws; k++ {
		wa, va := a.Sample(k)
		wb, vb := b.Sample(k)
		require.Truef(t, mat.Equal(wa, wb) && mat.Equal(va, vb), "seeded draws differ at k=%d", k)
		w0[k], w1[k], v0[k] = wa.AtVec(0), wa.AtVec(1), va.AtVec(0)
	}
	assert.InDelta(t, 4, stat.Variance(w0, nil), 0.2)
	assert.InDelta(t, 0.25, stat.Variance(w1, nil), 0.0125)
	assert.InDelta(t, 9, stat.Variance(v0, nil), 0.45)
	assert.InDelta(t, 0, stat.Mean(v0, nil), 0.1)
}
