package standardizer

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var ErrMissingValues = errors.New("standardizer: matrix has missing values")

// DiagKtoN scales the whole matrix X so that the diagonal of the kernel X Xᵀ
// sums to the number of individuals. It is usually applied after Unit, since
// missing values must already have been filled.
type DiagKtoN struct{}

func (DiagKtoN) Standardize(val *mat.Dense) (Standardizer, error) {
	rows, cols := val.Dims()

	sumSquares := 0.0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := val.At(i, j)
			if math.IsNaN(v) {
				return nil, ErrMissingValues
			}
			sumSquares += v * v
		}
	}

	if sumSquares == 0 {
		return nil, fmt.Errorf("DiagKtoN: every value is zero, so the diagonal cannot be rescaled")
	}

	trained := DiagKtoNTrained{Factor: math.Sqrt(float64(rows) / sumSquares)}
	return trained.Standardize(val)
}

func (DiagKtoN) String() string {
	return "DiagKtoN()"
}

// DiagKtoNTrained multiplies every value by a fixed factor.
type DiagKtoNTrained struct {
	Factor float64
}

func (s DiagKtoNTrained) Standardize(val *mat.Dense) (Standardizer, error) {
	val.Scale(s.Factor, val)
	return s, nil
}

func (s DiagKtoNTrained) String() string {
	return fmt.Sprintf("DiagKtoNTrained(%g)", s.Factor)
}
