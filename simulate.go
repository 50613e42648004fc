package statespace

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Simulation stores a simulated state trajectory and its observations.
type Simulation struct {
	States       []*mat.VecDense
	Observations []mat.Vector
}

// Simulate generates a trajectory of the model starting from x0 (the state
// before the first step) with the provided noise:
// x_k = G*x_{k-1} + w_k and y_k = F_k*x_k + v_k.
// The covariances of the model are not used, only the noise samples are.
func Simulate(model Model, x0 mat.Vector, noise Noise) (*Simulation, error) {
	if err := checkMatDims(model.G, x0, "G", "x0", cols2rows); err != nil {
		return nil, err
	}
	T := model.Design.Len()
	sim := &Simulation{States: make([]*mat.VecDense, T), Observations: make([]mat.Vector, T)}
	prev := mat.VecDenseCopyOf(x0)
	for k := 0; k < T; k++ {
		F := model.Design.At(k)
		w, v := noise.Sample(k)
		if err := checkMatDims(w, x0, "w", "x0", rowsAndcols); err != nil {
			return nil, fmt.Errorf("k=%d %w", k, err)
		}
		var x mat.VecDense
		x.MulVec(model.G, prev)
		x.AddVec(&x, w)

		if err := checkMatDims(F, v, "F", "v", rows2rows); err != nil {
			return nil, fmt.Errorf("k=%d %w", k, err)
		}
		var y mat.VecDense
		y.MulVec(F, &x)
		y.AddVec(&y, v)

		sim.States[k] = &x
		sim.Observations[k] = &y
		prev = &x
	}
	return sim, nil
}
