package statespace

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Filter performs one step of the covariance form Kalman filter and returns the
// filtering, predictive and one step ahead forecast distributions of this step.
// Parameters:
// - y: observation at step t
// - m, C: filtering mean and covariance of step t-1 (or the prior at t=0)
// - G: state transition matrix
// - F: observation matrix of step t
// - W: process noise covariance
// - V: observation noise covariance
//
// Returns an error wrapping ErrSingular if F*R*F' + V cannot be inverted.
func Filter(y, m mat.Vector, C mat.Symmetric, G, F mat.Matrix, W, V mat.Symmetric) (*FilterEstimate, error) {
	// Let's check the dimensions of everything here to return an error ASAP.
	if err := checkAllDims(
		dimCheck{m, C, "m", "C", rows2cols},
		dimCheck{G, C, "G", "C", rowsAndcols},
		dimCheck{W, C, "W", "C", rowsAndcols},
		dimCheck{F, m, "F", "m", cols2rows},
		dimCheck{y, F, "y", "F", rows2rows},
		dimCheck{V, y, "V", "y", rows2rows},
	); err != nil {
		return nil, err
	}

	// One step ahead predictive distribution: a = G*m, R = G*C*G' + W
	var a mat.VecDense
	a.MulVec(G, m)
	var GC, R mat.Dense
	GC.Mul(G, C)
	R.Mul(&GC, G.T())
	R.Add(&R, W)

	// One step ahead forecast of the observation: f = F*a, Q = F*R*F' + V
	var f mat.VecDense
	f.MulVec(F, &a)
	var RFt, Q mat.Dense
	RFt.Mul(&R, F.T())
	Q.Mul(F, &RFt)
	Q.Add(&Q, V)

	// Kalman gain
	var Qinv, K mat.Dense
	if err := Qinv.Inverse(&Q); err != nil {
		return nil, fmt.Errorf("could not invert `F*R*F' + V`: %w (%s)", ErrSingular, err)
	}
	K.Mul(&RFt, &Qinv)

	// Measurement update: m = a + K*(y - f), C = R - K*F*R
	var innov, Kinnov, mNext mat.VecDense
	innov.SubVec(y, &f)
	Kinnov.MulVec(&K, &innov)
	mNext.AddVec(&a, &Kinnov)

	var KF, KFR, CNext mat.Dense
	KF.Mul(&K, F)
	KFR.Mul(&KF, &R)
	CNext.Sub(&R, &KFR)

	RSym, err := AsSymDense(&R)
	if err != nil {
		return nil, err
	}
	QSym, err := AsSymDense(&Q)
	if err != nil {
		return nil, err
	}
	CSym, err := AsSymDense(&CNext)
	if err != nil {
		return nil, err
	}
	return &FilterEstimate{&mNext, CSym, &a, RSym, &f, QSym, &innov, &K}, nil
}

// Run performs the complete forward filtering pass of the model over the observations.
// The i-th estimate corresponds to the i-th observation.
func Run(model Model, y []mat.Vector, m0 mat.Vector, C0 mat.Symmetric) ([]*FilterEstimate, error) {
	if model.Design == nil {
		return nil, fmt.Errorf("model has no design")
	}
	if len(y) != model.Design.Len() {
		return nil, fmt.Errorf("%d observations for a design of %d steps", len(y), model.Design.Len())
	}
	ests := make([]*FilterEstimate, len(y))
	m, C := m0, C0
	for k := range y {
		est, err := Filter(y[k], m, C, model.G, model.Design.At(k), model.W, model.V)
		if err != nil {
			return nil, fmt.Errorf("k=%d %w", k, err)
		}
		ests[k] = est
		m, C = est.State(), est.Covariance()
	}
	return ests, nil
}

// FilterEstimate is the output of each filtering step.
// It implements the Estimate interface.
type FilterEstimate struct {
	state         *mat.VecDense // m_t
	covar         mat.Symmetric // C_t
	predState     *mat.VecDense // a_t
	predCovar     mat.Symmetric // R_t
	forecast      *mat.VecDense // f_t
	forecastCovar mat.Symmetric // Q_t
	innovation    *mat.VecDense // y_t - f_t
	gain          *mat.Dense    // K_t
}

// IsWithinNσ returns whether the estimation is within the N*σ bounds.
func (e FilterEstimate) IsWithinNσ(N float64) bool {
	return isWithinNσ(e.state, e.covar, N)
}

// State implements the Estimate interface.
func (e FilterEstimate) State() *mat.VecDense {
	return e.state
}

// Covariance implements the Estimate interface.
func (e FilterEstimate) Covariance() mat.Symmetric {
	return e.covar
}

// PredState returns the one step ahead predictive state mean a_t.
func (e FilterEstimate) PredState() *mat.VecDense {
	return e.predState
}

// PredCovariance returns the one step ahead predictive state covariance R_t.
func (e FilterEstimate) PredCovariance() mat.Symmetric {
	return e.predCovar
}

// Forecast returns the one step ahead forecast of the observation f_t.
func (e FilterEstimate) Forecast() *mat.VecDense {
	return e.forecast
}

// ForecastCovariance returns the covariance Q_t of the one step ahead forecast.
func (e FilterEstimate) ForecastCovariance() mat.Symmetric {
	return e.forecastCovar
}

// Innovation returns y_t - f_t.
func (e FilterEstimate) Innovation() *mat.VecDense {
	return e.innovation
}

// Gain returns the Kalman gain K_t.
func (e FilterEstimate) Gain() mat.Matrix {
	return e.gain
}

// Scalar returns f_t and Q_t as scalars. It panics if the observation is not one dimensional.
func (e FilterEstimate) Scalar() (f, Q float64) {
	if e.forecast.Len() != 1 {
		panic(fmt.Errorf("forecast has %d dimensions, not a scalar", e.forecast.Len()))
	}
	return e.forecast.AtVec(0), e.forecastCovar.At(0, 0)
}

func (e FilterEstimate) String() string {
	state := mat.Formatted(e.State(), mat.Prefix("  "))
	covar := mat.Formatted(e.Covariance(), mat.Prefix("  "))
	gain := mat.Formatted(e.Gain(), mat.Prefix("  "))
	innov := mat.Formatted(e.Innovation(), mat.Prefix("  "))
	predp := mat.Formatted(e.PredCovariance(), mat.Prefix("   "))
	q := mat.Formatted(e.ForecastCovariance(), mat.Prefix("  "))
	return fmt.Sprintf("{\nm=%v\nC=%v\nK=%v\nR=%v\ne=%v\nQ=%v\n}", state, covar, gain, predp, innov, q)
}
