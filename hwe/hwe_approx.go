package hwe

import (
	"math"

	"github.com/tokenme/probab/dst"
)

// Approximate returns the P-value of a 1 degree of freedom chi square test of
// Hardy-Weinberg equilibrium. It is quick but unreliable for rare alleles.
func Approximate(AA, Aa, aa float64) (p float64) {
	// The CDF panics on some degenerate inputs; those sites are treated as
	// being in equilibrium.
	p = 1.0
	defer func() { recover() }()

	p = 1.0 - dst.ChiSquareCDF(1)(ChiSquare(AA, Aa, aa))

	return
}

// ChiSquare compares the observed genotype counts with those expected from the
// observed allele frequencies.
func ChiSquare(AA, Aa, aa float64) float64 {
	A := 2*AA + Aa
	a := 2*aa + Aa

	// A monomorphic site matches its expectation exactly; returning early
	// avoids dividing by a zero expectation.
	if A == 0 || a == 0 {
		return 0.0
	}

	N := AA + Aa + aa
	pA := A / (A + a)
	pa := a / (A + a)

	chi := 0.0
	for _, pair := range [][2]float64{
		{AA, pA * pA * N},
		{Aa, 2 * pA * pa * N},
		{aa, pa * pa * N},
	} {
		chi += math.Pow(pair[0]-pair[1], 2) / pair[1]
	}

	return chi
}
