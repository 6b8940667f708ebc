package hwe

import "math"

// Counts tallies the genotypes of one variant.
type Counts struct {
	HomA1   int64
	Het     int64
	HomA2   int64
	Missing int64
}

// Called is the number of non-missing genotypes.
func (c Counts) Called() int64 {
	return c.HomA1 + c.Het + c.HomA2
}

// A1Frequency is the frequency of allele 1 among called genotypes.
func (c Counts) A1Frequency() float64 {
	if c.Called() == 0 {
		return math.NaN()
	}
	return float64(2*c.HomA1+c.Het) / float64(2*c.Called())
}

// Exact is the exact Hardy-Weinberg P-value of these counts.
func (c Counts) Exact() float64 {
	return memoizedExact(c.HomA1, c.Het, c.HomA2)
}

// Count tallies a column of allele-1 counts. Dosages are rounded to the nearest
// hardcall and NaN is missing.
func Count(a1Counts []float64) Counts {
	var c Counts
	for _, v := range a1Counts {
		if math.IsNaN(v) {
			c.Missing++
			continue
		}

		switch math.Round(v) {
		case 2:
			c.HomA1++
		case 1:
			c.Het++
		case 0:
			c.HomA2++
		default:
			c.Missing++
		}
	}

	return c
}
