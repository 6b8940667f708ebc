package standardizer

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ColumnStats summarizes the non-missing values of one column.
type ColumnStats struct {
	Mean   float64
	StdDev float64 // population standard deviation
	N      int     // non-missing count
}

// columnStats computes per-column statistics over non-missing values. A column
// with no observed values has a NaN mean.
func columnStats(val *mat.Dense) []ColumnStats {
	rows, cols := val.Dims()
	out := make([]ColumnStats, cols)
	observed := make([]float64, 0, rows)

	for j := 0; j < cols; j++ {
		observed = observed[:0]
		for i := 0; i < rows; i++ {
			if v := val.At(i, j); !math.IsNaN(v) {
				observed = append(observed, v)
			}
		}

		if len(observed) == 0 {
			out[j] = ColumnStats{Mean: math.NaN(), StdDev: math.NaN()}
			continue
		}

		mean, variance := stat.PopMeanVariance(observed, nil)
		out[j] = ColumnStats{Mean: mean, StdDev: math.Sqrt(variance), N: len(observed)}
	}

	return out
}

// centerAndScale replaces each value with (v - mean) * scale, and missing
// values with 0. A non-finite scale or mean zeroes the whole column.
func centerAndScale(val *mat.Dense, j int, mean, scale float64) {
	rows, _ := val.Dims()
	degenerate := math.IsNaN(mean) || math.IsNaN(scale) || math.IsInf(scale, 0)

	for i := 0; i < rows; i++ {
		v := val.At(i, j)
		if degenerate || math.IsNaN(v) {
			val.Set(i, j, 0)
			continue
		}
		val.Set(i, j, (v-mean)*scale)
	}
}
