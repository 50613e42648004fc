package statespace

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// Identity returns an identity matrix of the provided size.
func Identity(n int) *mat.SymDense {
	return ScaledIdentity(n, 1)
}

// ScaledIdentity returns an identity matrix of the provided size multiplied by s.
func ScaledIdentity(n int, s float64) *mat.SymDense {
	m := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		m.SetSym(i, i, s)
	}
	return m
}

// IsNil returns whether the provided matrix only has zero values
func IsNil(m mat.Matrix) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if m.At(i, j) != 0 {
				return false
			}
		}
	}
	return true
}

// AsSymDense returns the symmetric part (m+m')/2 of the provided square matrix.
// Every covariance produced by a recursion in this package goes through here.
func AsSymDense(m mat.Matrix) (*mat.SymDense, error) {
	r, c := m.Dims()
	if r != c {
		return nil, errors.New("matrix must be square")
	}
	sym := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			sym.SetSym(i, j, (m.At(i, j)+m.At(j, i))/2)
		}
	}
	return sym, nil
}

// IsPSD returns whether all the eigenvalues of s are greater than -tol.
func IsPSD(s mat.Symmetric, tol float64) bool {
	var eig mat.EigenSym
	if ok := eig.Factorize(s, false); !ok {
		return false
	}
	for _, λ := range eig.Values(nil) {
		if λ < -tol {
			return false
		}
	}
	return true
}

// Scalars wraps each scalar observation into a vector of size one.
func Scalars(y []float64) []mat.Vector {
	obs := make([]mat.Vector, len(y))
	for t, v := range y {
		obs[t] = mat.NewVecDense(1, []float64{v})
	}
	return obs
}
