package statespace

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// BatchGroundTruth computes the error of a given estimate from a known batch of states.
type BatchGroundTruth struct {
	states []*mat.VecDense
}

// NewBatchGroundTruth initializes a new batch ground truth.
func NewBatchGroundTruth(states []*mat.VecDense) *BatchGroundTruth {
	return &BatchGroundTruth{states}
}

// Error returns an ErrorEstimate after comparing the provided state with the ground truth of step k.
// The error keeps the covariance of the estimate, so IsWithinNσ tells whether the truth is
// within the N*σ bounds of the estimate.
func (t *BatchGroundTruth) Error(k int, est Estimate) ErrorEstimate {
	if k >= len(t.states) {
		panic(fmt.Errorf("no ground truth at step k=%d", k))
	}
	trueState := t.states[k]
	esR := est.State().Len()
	if esR != trueState.Len() {
		panic(fmt.Errorf("ground truth state size different from estimated state size (k=%d)", k))
	}
	var errState mat.VecDense
	errState.SubVec(est.State(), trueState)
	return ErrorEstimate{baseEstimate{&errState, est.Covariance()}}
}

// MaxAbsError returns the largest absolute error of any component over the steps
// from `from` (included) to the end of the estimates.
func MaxAbsError[E Estimate](t *BatchGroundTruth, ests []E, from int) float64 {
	var worst float64
	for k := from; k < len(ests); k++ {
		e := mat.VecDenseCopyOf(t.Error(k, ests[k]).State())
		worst = math.Max(worst, floats.Norm(e.RawVector().Data, math.Inf(1)))
	}
	return worst
}

// ErrorEstimate implements the Estimate interface and is used to show the error of an estimate.
type ErrorEstimate struct {
	baseEstimate
}
