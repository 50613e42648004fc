package statespace

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Smooth performs one step of the Rauch-Tung-Striebel backward recursion and
// returns the smoothed distribution of step t.
// Parameters:
// - sNext, SNext: smoothed mean and covariance of step t+1
// - m, C: filtering mean and covariance of step t
// - aNext, RNext: predictive mean and covariance of step t+1
// - G: state transition matrix from t to t+1
//
// Returns an error wrapping ErrSingular if RNext cannot be inverted.
func Smooth(sNext mat.Vector, SNext mat.Symmetric, m mat.Vector, C mat.Symmetric, aNext mat.Vector, RNext mat.Symmetric, G mat.Matrix) (*SmoothEstimate, error) {
	if err := checkAllDims(
		dimCheck{m, C, "m", "C", rows2cols},
		dimCheck{G, C, "G", "C", rowsAndcols},
		dimCheck{SNext, C, "S_{t+1}", "C", rowsAndcols},
		dimCheck{RNext, C, "R_{t+1}", "C", rowsAndcols},
		dimCheck{sNext, m, "s_{t+1}", "m", rowsAndcols},
		dimCheck{aNext, m, "a_{t+1}", "m", rowsAndcols},
	); err != nil {
		return nil, err
	}

	// Smoothing gain A = C*G'*inv(R_{t+1})
	var Rinv, CGt, A mat.Dense
	if err := Rinv.Inverse(RNext); err != nil {
		return nil, fmt.Errorf("could not invert `R_{t+1}`: %w (%s)", ErrSingular, err)
	}
	CGt.Mul(C, G.T())
	A.Mul(&CGt, &Rinv)

	// s = m + A*(s_{t+1} - a_{t+1})
	var Δs, AΔs, s mat.VecDense
	Δs.SubVec(sNext, aNext)
	AΔs.MulVec(&A, &Δs)
	s.AddVec(m, &AΔs)

	// S = C + A*(S_{t+1} - R_{t+1})*A'
	var ΔS, AΔS, AΔSAt, S mat.Dense
	ΔS.Sub(SNext, RNext)
	AΔS.Mul(&A, &ΔS)
	AΔSAt.Mul(&AΔS, A.T())
	S.Add(C, &AΔSAt)

	SSym, err := AsSymDense(&S)
	if err != nil {
		return nil, err
	}
	return &SmoothEstimate{baseEstimate{&s, SSym}}, nil
}

// SmoothAll runs the backward smoothing pass over the estimates of a complete
// forward pass of the model. The last smoothed estimate is the last filtering
// estimate, and the recursion goes down to and including the first step.
func SmoothAll(model Model, ests []*FilterEstimate) ([]*SmoothEstimate, error) {
	T := len(ests)
	if T == 0 {
		return nil, errors.New("no estimates to smooth")
	}
	smoothed := make([]*SmoothEstimate, T)
	last := ests[T-1]
	smoothed[T-1] = &SmoothEstimate{baseEstimate{last.State(), last.Covariance()}}
	for k := T - 2; k >= 0; k-- {
		next := ests[k+1]
		est, err := Smooth(smoothed[k+1].State(), smoothed[k+1].covar, ests[k].State(), ests[k].Covariance(), next.PredState(), next.PredCovariance(), model.G)
		if err != nil {
			return nil, fmt.Errorf("k=%d %w", k, err)
		}
		smoothed[k] = est
	}
	return smoothed, nil
}

// SmoothEstimate is the output of each smoothing step.
// It implements the Estimate interface.
type SmoothEstimate struct {
	baseEstimate
}
