package hwe

import "github.com/BenLubar/memoize"

// Sites across a file repeat the same genotype counts constantly, so both
// tests are memoized.
var (
	memoizedExact       = memoize.Memoize(Exact).(func(int64, int64, int64) float64)
	memoizedApproximate = memoize.Memoize(Approximate).(func(float64, float64, float64) float64)
)

// Fast uses the chi square approximation, and only when that falls below cutoff
// computes and returns the exact P-value instead.
func Fast(AA, Aa, aa int64, cutoff float64) float64 {
	p := memoizedApproximate(float64(AA), float64(Aa), float64(aa))
	if p < cutoff {
		return memoizedExact(AA, Aa, aa)
	}

	return p
}
