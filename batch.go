package statespace

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// BatchRegression is the static Bayesian linear regression y_k = F_k*x + v_k,
// v_k ~ N(0, V), with the prior x ~ N(m0, C0). It accumulates the normal
// equations one observation at a time and is solved once at the end.
// With G = I and W = 0, the Kalman filter reaches the same posterior.
type BatchRegression struct {
	Λ    *mat.Dense    // Information matrix inv(C0) + Σ F'*inv(V)*F
	N    *mat.VecDense // Information vector inv(C0)*m0 + Σ F'*inv(V)*y
	Vinv *mat.Dense
	step int
}

// NewBatchRegression returns a new BatchRegression from the provided prior and observation noise.
func NewBatchRegression(m0 mat.Vector, C0, V mat.Symmetric) (*BatchRegression, error) {
	if err := checkMatDims(m0, C0, "m0", "C0", rows2cols); err != nil {
		return nil, err
	}
	var C0inv, Vinv mat.Dense
	if err := C0inv.Inverse(C0); err != nil {
		return nil, fmt.Errorf("could not invert `C0`: %w (%s)", ErrSingular, err)
	}
	if err := Vinv.Inverse(V); err != nil {
		return nil, fmt.Errorf("could not invert `V`: %w (%s)", ErrSingular, err)
	}
	var N mat.VecDense
	N.MulVec(&C0inv, m0)
	return &BatchRegression{&C0inv, &N, &Vinv, 0}, nil
}

// Add adds the next observation y and its observation matrix F.
func (b *BatchRegression) Add(y mat.Vector, F mat.Matrix) error {
	if err := checkAllDims(
		dimCheck{F, b.N, "F", "N", cols2rows},
		dimCheck{y, F, "y", "F", rows2rows},
		dimCheck{b.Vinv, y, "V", "y", rows2rows},
	); err != nil {
		return fmt.Errorf("k=%d %w", b.step, err)
	}
	var FtVinv, FtVinvF mat.Dense
	FtVinv.Mul(F.T(), b.Vinv)
	FtVinvF.Mul(&FtVinv, F)
	b.Λ.Add(b.Λ, &FtVinvF)

	var FtVinvy mat.VecDense
	FtVinvy.MulVec(&FtVinv, y)
	b.N.AddVec(b.N, &FtVinvy)
	b.step++
	return nil
}

// Solve returns the posterior mean and covariance of x, or an error.
func (b *BatchRegression) Solve() (xHat *mat.VecDense, P *mat.SymDense, err error) {
	Λ, err := AsSymDense(b.Λ)
	if err != nil {
		return nil, nil, err
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(Λ); !ok {
		return nil, nil, fmt.Errorf("information matrix is not positive definite: %w", ErrSingular)
	}
	xHat = mat.NewVecDense(b.N.Len(), nil)
	if err = chol.SolveVecTo(xHat, b.N); err != nil {
		return nil, nil, fmt.Errorf("%w (%s)", ErrSingular, err)
	}
	P = mat.NewSymDense(b.N.Len(), nil)
	if err = chol.InverseTo(P); err != nil {
		return nil, nil, fmt.Errorf("%w (%s)", ErrSingular, err)
	}
	return xHat, P, nil
}
