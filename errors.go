package statespace

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrSingular is returned when a covariance which must be inverted is singular,
// e.g. the predictive observation covariance Q or the predictive state covariance R.
var ErrSingular = errors.New("singular covariance matrix")

const dimErrMsg = "dimensions must agree: "

// DimensionAgreement defines how two matrices' dimensions should agree.
type DimensionAgreement uint8

const (
	rows2cols DimensionAgreement = iota + 1 // rows of the first, columns of the second
	cols2rows                               // product m1*m2
	cols2cols
	rows2rows
	rowsAndcols // same shape
)

func (a DimensionAgreement) agree(r1, c1, r2, c2 int) bool {
	switch a {
	case rows2cols:
		return r1 == c2
	case cols2rows:
		return c1 == r2
	case cols2cols:
		return c1 == c2
	case rows2rows:
		return r1 == r2
	case rowsAndcols:
		return r1 == r2 && c1 == c2
	}
	return true
}

func (a DimensionAgreement) String() string {
	switch a {
	case rows2cols:
		return "rows vs cols"
	case cols2rows:
		return "cols vs rows"
	case cols2cols:
		return "cols"
	case rows2rows:
		return "rows"
	case rowsAndcols:
		return "shape"
	}
	return "unknown"
}

type dimCheck struct {
	m1, m2       mat.Matrix
	name1, name2 string
	method       DimensionAgreement
}

// checkMatDims returns an error naming both operands when their dimensions do not agree.
func checkMatDims(m1, m2 mat.Matrix, name1, name2 string, method DimensionAgreement) error {
	r1, c1 := m1.Dims()
	r2, c2 := m2.Dims()
	if method.agree(r1, c1, r2, c2) {
		return nil
	}
	return fmt.Errorf("%s%s(%dx%d) %s(%dx%d) [%s]", dimErrMsg, name1, r1, c1, name2, r2, c2, method)
}

// checkAllDims returns the first failing check.
func checkAllDims(checks ...dimCheck) error {
	for _, c := range checks {
		if err := checkMatDims(c.m1, c.m2, c.name1, c.name2, c.method); err != nil {
			return err
		}
	}
	return nil
}
