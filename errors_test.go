package statespace

import (
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestCheckDims(t *testing.T) {
	i22 := Identity(2)
	i33 := Identity(3)
	m23 := mat.NewDense(2, 3, nil)
	for _, method := range []DimensionAgreement{rows2cols, cols2rows, cols2cols, rows2rows, rowsAndcols} {
		if err := checkMatDims(i22, i33, "i22", "i33", method); err == nil {
			t.Fatalf("checkMatDims(%s) should fail on 2x2 and 3x3", method)
		} else if !strings.HasPrefix(err.Error(), dimErrMsg) {
			t.Fatalf("unexpected error %s", err)
		}
		if err := checkMatDims(i22, i22, "i22", "i22", method); err != nil {
			t.Fatalf("checkMatDims(%s) failed on equal sizes: %s", method, err)
		}
	}
	if err := checkMatDims(m23, i33, "m23", "i33", cols2rows); err != nil {
		t.Fatal(err)
	}
	if err := checkMatDims(m23, i33, "m23", "i33", rows2rows); err == nil {
		t.Fatal("rows2rows should fail")
	}
	if err := checkAllDims(
		dimCheck{i22, i22, "a", "b", rowsAndcols},
		dimCheck{m23, i22, "m23", "i22", cols2cols},
	); err == nil || !strings.Contains(err.Error(), "m23") {
		t.Fatalf("expected the second check to fail, got %v", err)
	}
}
