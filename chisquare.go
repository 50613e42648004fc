package statespace

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// NIS returns the normalized innovation squared e_t'*inv(Q_t)*e_t of each filter estimate.
// For a consistent filter, each NIS is χ² distributed with as many degrees of freedom
// as the observation has dimensions.
func NIS(ests []*FilterEstimate) ([]float64, error) {
	if len(ests) == 0 {
		return nil, errors.New("NIS requires at least one estimate")
	}
	nis := make([]float64, len(ests))
	for k, est := range ests {
		var Qinv mat.Dense
		if err := Qinv.Inverse(est.ForecastCovariance()); err != nil {
			return nil, fmt.Errorf("k=%d %w (%s)", k, ErrSingular, err)
		}
		nis[k] = mat.Inner(est.Innovation(), &Qinv, est.Innovation())
	}
	return nis, nil
}

// ChiSquareTest is the result of a NIS consistency test.
type ChiSquareTest struct {
	MeanNIS      float64
	Lower, Upper float64 // Acceptance region of the mean NIS.
	Steps        int
}

// Consistent returns whether the mean NIS falls within the acceptance region.
func (c ChiSquareTest) Consistent() bool {
	return c.MeanNIS >= c.Lower && c.MeanNIS <= c.Upper
}

func (c ChiSquareTest) String() string {
	return fmt.Sprintf("mean NIS=%f [%f, %f] over %d steps", c.MeanNIS, c.Lower, c.Upper, c.Steps)
}

// NewChiSquare runs the NIS χ² test on the estimates of a forward pass, skipping
// the first `burnIn` estimates. The sum of N NIS values of p dimensional
// observations is χ² with N*p degrees of freedom, which gives the two sided
// acceptance region of the mean at the provided level.
func NewChiSquare(ests []*FilterEstimate, burnIn int, level float64) (ChiSquareTest, error) {
	if burnIn < 0 || burnIn >= len(ests) {
		return ChiSquareTest{}, fmt.Errorf("burn-in of %d for %d estimates", burnIn, len(ests))
	}
	nis, err := NIS(ests[burnIn:])
	if err != nil {
		return ChiSquareTest{}, err
	}
	N := float64(len(nis))
	p := float64(ests[burnIn].Innovation().Len())
	χ2 := distuv.ChiSquared{K: N * p}
	return ChiSquareTest{
		MeanNIS: stat.Mean(nis, nil),
		Lower:   χ2.Quantile((1-level)/2) / N,
		Upper:   χ2.Quantile((1+level)/2) / N,
		Steps:   len(nis),
	}, nil
}
