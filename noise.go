package statespace

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// Noise draws the process noise w_k and the observation noise v_k of a simulated step.
type Noise interface {
	Sample(k int) (w, v *mat.VecDense)
}

// Noiseless draws zero vectors.
type Noiseless struct {
	StateDims, ObsDims int
}

// NewNoiseless returns a Noiseless sized after W and V.
func NewNoiseless(W, V mat.Symmetric) Noiseless {
	if W == nil || V == nil {
		panic("W and V must be specified")
	}
	return Noiseless{W.SymmetricDim(), V.SymmetricDim()}
}

// Sample implements the Noise interface.
func (n Noiseless) Sample(int) (w, v *mat.VecDense) {
	return mat.NewVecDense(n.StateDims, nil), mat.NewVecDense(n.ObsDims, nil)
}

// Replay returns pre-generated samples, W[k] and V[k] at step k.
type Replay struct {
	W, V []*mat.VecDense
}

// Sample implements the Noise interface. It panics past the recorded steps.
func (n Replay) Sample(k int) (w, v *mat.VecDense) {
	if k >= len(n.W) || k >= len(n.V) {
		panic(fmt.Errorf("no recorded noise at k=%d", k))
	}
	return n.W[k], n.V[k]
}

// AWGN draws additive white Gaussian noise of covariances W and V.
type AWGN struct {
	process, obs *distmv.Normal
}

// NewAWGN panics unless W and V are positive definite. A given seed always
// yields the same draws.
func NewAWGN(W, V mat.Symmetric, seed uint64) *AWGN {
	src := rand.New(rand.NewSource(seed))
	process, ok := distmv.NewNormal(make([]float64, W.SymmetricDim()), W, src)
	if !ok {
		panic("W is not positive definite")
	}
	obs, ok := distmv.NewNormal(make([]float64, V.SymmetricDim()), V, src)
	if !ok {
		panic("V is not positive definite")
	}
	return &AWGN{process, obs}
}

// Sample implements the Noise interface.
func (n *AWGN) Sample(int) (w, v *mat.VecDense) {
	return mat.NewVecDense(n.process.Dim(), n.process.Rand(nil)), mat.NewVecDense(n.obs.Dim(), n.obs.Rand(nil))
}
