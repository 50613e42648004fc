package statespace

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// NegLogLik returns the negative Gaussian log likelihood of the observations
// given the log variances params = (log σ²_W, log σ²_V). The process noise is
// W = σ²_W*I (dims x dims) and the observation noise V = σ²_V*I.
// The 2π constant is omitted.
func NegLogLik(params []float64, dims int, y []mat.Vector, G mat.Matrix, design Design, m0 mat.Vector, C0 mat.Symmetric) (float64, error) {
	obj := Objective{Dims: dims, Y: y, G: G, Design: design, M0: m0, C0: C0}
	return obj.NegLogLik(params)
}

// Objective bundles everything the likelihood needs besides the hyperparameters.
type Objective struct {
	Dims   int
	Y      []mat.Vector
	G      mat.Matrix
	Design Design
	M0     mat.Vector
	C0     mat.Symmetric
}

// Model returns the model with W = exp(params[0])*I and V = exp(params[1])*I.
func (o Objective) Model(params []float64) (Model, error) {
	if len(params) != 2 {
		return Model{}, fmt.Errorf("expected (log σ²_W, log σ²_V), got %d parameters", len(params))
	}
	if len(o.Y) == 0 {
		return Model{}, errors.New("no observations")
	}
	obsDims := o.Y[0].Len()
	return Model{
		G:      o.G,
		Design: o.Design,
		W:      ScaledIdentity(o.Dims, math.Exp(params[0])),
		V:      ScaledIdentity(obsDims, math.Exp(params[1])),
	}, nil
}

// NegLogLik runs a full forward pass and returns the negative log likelihood.
func (o Objective) NegLogLik(params []float64) (float64, error) {
	model, err := o.Model(params)
	if err != nil {
		return 0, err
	}
	ests, err := Run(model, o.Y, o.M0, o.C0)
	if err != nil {
		return 0, err
	}
	return NegLogLikOf(ests)
}

// NegLogLikOf returns 1/2*Σ log det(Q_t) + 1/2*Σ e_t'*inv(Q_t)*e_t for the
// provided filter estimates, where e_t is the innovation. For scalar
// observations this is 1/2*Σ log(Q_t) + 1/2*Σ (y_t - f_t)²/Q_t.
func NegLogLikOf(ests []*FilterEstimate) (float64, error) {
	var logDet, mahalanobis float64
	for k, est := range ests {
		e := est.Innovation()
		Q := est.ForecastCovariance()
		if e.Len() == 1 {
			q := Q.At(0, 0)
			if q <= 0 {
				return 0, fmt.Errorf("k=%d Q=%g: %w", k, q, ErrSingular)
			}
			logDet += math.Log(q)
			mahalanobis += e.AtVec(0) * e.AtVec(0) / q
			continue
		}
		var chol mat.Cholesky
		if ok := chol.Factorize(Q); !ok {
			return 0, fmt.Errorf("k=%d Q not positive definite: %w", k, ErrSingular)
		}
		var Qinve mat.VecDense
		if err := chol.SolveVecTo(&Qinve, e); err != nil {
			return 0, fmt.Errorf("k=%d %w (%s)", k, ErrSingular, err)
		}
		logDet += chol.LogDet()
		mahalanobis += mat.Dot(e, &Qinve)
	}
	return logDet/2 + mahalanobis/2, nil
}
