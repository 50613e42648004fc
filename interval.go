package statespace

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Band is a point estimate of one state component with its two sided interval.
type Band struct {
	Estimate, StdErr, Lower, Upper float64
}

func (b Band) String() string {
	return fmt.Sprintf("%f [%f, %f]", b.Estimate, b.Lower, b.Upper)
}

// Interval returns the two sided normal interval at the provided level (e.g. 0.95).
func Interval(mean, variance, level float64) Band {
	sd := math.Sqrt(variance)
	lo := distuv.UnitNormal.Quantile((1 - level) / 2)
	hi := distuv.UnitNormal.Quantile((1 + level) / 2)
	return Band{Estimate: mean, StdErr: sd, Lower: mean + lo*sd, Upper: mean + hi*sd}
}

// Bands returns the interval of the idx-th state component of each estimate.
func Bands[E Estimate](ests []E, idx int, level float64) []Band {
	bands := make([]Band, len(ests))
	for k, est := range ests {
		bands[k] = Interval(est.State().AtVec(idx), est.Covariance().At(idx, idx), level)
	}
	return bands
}
