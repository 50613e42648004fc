// Package msv runs the multivariate stochastic volatility models with CmdStan
// and summarizes their posterior draws.
package msv

import (
	"encoding/json"
	"fmt"
	"os"
)

// Variant is one model of the family. Name selects the compiled executable
// model_<Name> and the output files.
type Variant struct {
	Name  string `yaml:"name"`
	Inits string `yaml:"inits"` // CmdStan init argument, empty for the default.
}

// DefaultVariants returns v0 to v4. v4 starts from inits within (-0.1, 0.1).
func DefaultVariants() []Variant {
	return []Variant{
		{Name: "v0"},
		{Name: "v1"},
		{Name: "v2"},
		{Name: "v2_1"},
		{Name: "v3"},
		{Name: "v4", Inits: "0.1"},
	}
}

// Data is the model input: P series of N returns, Y being P x N.
type Data struct {
	N int         `json:"n"`
	P int         `json:"p"`
	Y [][]float64 `json:"y"`
}

// NewData stacks the series as the rows of Y. All series must have the same length.
func NewData(series ...[]float64) (Data, error) {
	if len(series) == 0 {
		return Data{}, fmt.Errorf("no series")
	}
	n := len(series[0])
	for i, s := range series {
		if len(s) != n {
			return Data{}, fmt.Errorf("series #%d has %d values, expected %d", i, len(s), n)
		}
	}
	if n == 0 {
		return Data{}, fmt.Errorf("empty series")
	}
	return Data{N: n, P: len(series), Y: series}, nil
}

// WriteJSON writes the data in the CmdStan JSON format.
func (d Data) WriteJSON(path string) error {
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
