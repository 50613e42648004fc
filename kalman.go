package statespace

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Estimate is returned from Filter and Smooth.
type Estimate interface {
	IsWithinNσ(N float64) bool // IsWithinNσ returns whether the estimation is within the N*σ bounds.
	State() *mat.VecDense      // Returns the state mean (m_t or s_t)
	Covariance() mat.Symmetric // Returns the state covariance (C_t or S_t)
	String() string            // Must implement the stringer interface.
}

// Design provides the observation matrix F_t of each time step.
type Design interface {
	At(t int) mat.Matrix
	Len() int
}

// RegressionDesign is the design of a time varying regression y_t = alpha_t + beta_t*x_t,
// i.e. F_t = [1, x_t].
type RegressionDesign []float64

// At implements the Design interface.
func (d RegressionDesign) At(t int) mat.Matrix {
	return mat.NewDense(1, 2, []float64{1, d[t]})
}

// Len implements the Design interface.
func (d RegressionDesign) Len() int {
	return len(d)
}

// ConstantDesign uses the same observation matrix for all T steps.
type ConstantDesign struct {
	F mat.Matrix
	T int
}

// At implements the Design interface.
func (d ConstantDesign) At(t int) mat.Matrix {
	return d.F
}

// Len implements the Design interface.
func (d ConstantDesign) Len() int {
	return d.T
}

// Model is a linear Gaussian state space model:
//
//	x_t = G*x_{t-1} + w_t, w_t ~ N(0, W)
//	y_t = F_t*x_t + v_t,   v_t ~ N(0, V)
type Model struct {
	G      mat.Matrix
	Design Design
	W, V   mat.Symmetric
}

func (m Model) String() string {
	return fmt.Sprintf("G=%v\nW=%v\nV=%v\nT=%d", mat.Formatted(m.G, mat.Prefix("  ")), mat.Formatted(m.W, mat.Prefix("  ")), mat.Formatted(m.V, mat.Prefix("  ")), m.Design.Len())
}

// baseEstimate holds a mean and a covariance only.
type baseEstimate struct {
	state *mat.VecDense
	covar mat.Symmetric
}

// IsWithinNσ returns whether the estimation is within the N*σ bounds.
func (e baseEstimate) IsWithinNσ(N float64) bool {
	return isWithinNσ(e.state, e.covar, N)
}

// State implements the Estimate interface.
func (e baseEstimate) State() *mat.VecDense {
	return e.state
}

// Covariance implements the Estimate interface.
func (e baseEstimate) Covariance() mat.Symmetric {
	return e.covar
}

func (e baseEstimate) String() string {
	state := mat.Formatted(e.State(), mat.Prefix("  "))
	covar := mat.Formatted(e.Covariance(), mat.Prefix("  "))
	return fmt.Sprintf("{\ns=%v\nP=%v\n}", state, covar)
}

func isWithinNσ(state mat.Vector, covar mat.Symmetric, N float64) bool {
	for i := 0; i < state.Len(); i++ {
		nσ := N * math.Sqrt(covar.At(i, i))
		if state.AtVec(i) > nσ || state.AtVec(i) < -nσ {
			return false
		}
	}
	return true
}
