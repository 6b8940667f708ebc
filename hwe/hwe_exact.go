// Package hwe tests genotype counts for Hardy-Weinberg equilibrium, the usual
// per-variant quality check on genotyping calls.
package hwe

// Exact computes the exact Hardy-Weinberg equilibrium P-value of Wigginton,
// Cutler and Abecasis (2005): the total probability, given the observed allele
// counts, of every heterozygote count that is no more likely than the one
// observed. AA and aa are the two homozygote counts, in either order. Exact is
// safe to call from concurrent goroutines. Truth values can be checked at
// https://www.cog-genomics.org/software/stats
func Exact(AA, Aa, aa int64) float64 {
	homCommon, homRare := AA, aa
	if homRare > homCommon {
		homCommon, homRare = homRare, homCommon
	}

	genotypes := homCommon + Aa + homRare
	if genotypes == 0 || Aa < 0 || homRare < 0 {
		return 1
	}
	rareCopies := 2*homRare + Aa

	// hetProbs[k] holds the relative likelihood of k heterozygotes. Only
	// values of k with the same parity as rareCopies are reachable.
	hetProbs := make([]float64, rareCopies+1)

	// Start from the most likely heterozygote count and walk outwards, which
	// keeps every term well inside floating point range.
	mid := rareCopies * (2*genotypes - rareCopies) / (2 * genotypes)
	if mid%2 != rareCopies%2 {
		mid++
	}

	hetProbs[mid] = 1
	sum := 1.0

	hets, rare, common := mid, (rareCopies-mid)/2, genotypes-mid-(rareCopies-mid)/2
	for ; hets > 1; hets -= 2 {
		hetProbs[hets-2] = hetProbs[hets] * float64(hets) * float64(hets-1) / (4 * float64(rare+1) * float64(common+1))
		sum += hetProbs[hets-2]
		rare++
		common++
	}

	hets, rare, common = mid, (rareCopies-mid)/2, genotypes-mid-(rareCopies-mid)/2
	for ; hets <= rareCopies-2; hets += 2 {
		hetProbs[hets+2] = hetProbs[hets] * 4 * float64(rare) * float64(common) / (float64(hets+2) * float64(hets+1))
		sum += hetProbs[hets+2]
		rare--
		common--
	}

	observed := hetProbs[Aa]
	p := 0.0
	for _, prob := range hetProbs {
		if prob <= observed {
			p += prob
		}
	}
	p /= sum

	if p > 1 {
		return 1
	}

	return p
}
