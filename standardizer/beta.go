package standardizer

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Beta centers every column and weights it by the Beta(A, B) density at the
// column's minor allele frequency, so that with the customary A=1, B=25 rare
// variants count for more. Values are expected to be allele counts; missing
// values become 0.
type Beta struct {
	A float64
	B float64
}

func (s Beta) Standardize(val *mat.Dense) (Standardizer, error) {
	stats := columnStats(val)
	weights := make([]float64, len(stats))
	for j, st := range stats {
		weights[j] = betaWeight(st.Mean, s.A, s.B)
	}

	trained := BetaTrained{A: s.A, B: s.B, Means: make([]float64, len(stats)), Weights: weights}
	for j, st := range stats {
		trained.Means[j] = st.Mean
	}

	return trained.Standardize(val)
}

func (s Beta) String() string {
	return fmt.Sprintf("Beta(%g,%g)", s.A, s.B)
}

// BetaTrained applies fixed per-column means and weights.
type BetaTrained struct {
	A       float64
	B       float64
	Means   []float64
	Weights []float64
}

func (s BetaTrained) Standardize(val *mat.Dense) (Standardizer, error) {
	if _, cols := val.Dims(); cols != len(s.Means) {
		return nil, fmt.Errorf("%s: trained on %d variants but given %d", s, len(s.Means), cols)
	}

	for j := range s.Means {
		centerAndScale(val, j, s.Means[j], s.Weights[j])
	}

	return s, nil
}

func (s BetaTrained) ColumnCount() int {
	return len(s.Means)
}

func (s BetaTrained) Columns(start, stop int) (Standardizer, error) {
	if err := checkColumns(s, start, stop, len(s.Means)); err != nil {
		return nil, err
	}
	return BetaTrained{A: s.A, B: s.B, Means: s.Means[start:stop], Weights: s.Weights[start:stop]}, nil
}

func (s BetaTrained) String() string {
	return fmt.Sprintf("BetaTrained(%g,%g; %d variants)", s.A, s.B, len(s.Means))
}

// betaWeight is the Beta(a, b) density at the minor allele frequency implied by
// a mean allele count.
func betaWeight(mean, a, b float64) float64 {
	if math.IsNaN(mean) {
		return math.NaN()
	}

	maf := mean / 2
	if maf > 0.5 {
		maf = 1 - maf
	}

	if maf <= 0 {
		// The density's limit at 0; evaluating (a-1)*log(0) directly would
		// give NaN when a is 1.
		switch {
		case a < 1:
			return math.Inf(1)
		case a > 1:
			return 0
		}
		lgA, _ := math.Lgamma(a)
		lgB, _ := math.Lgamma(b)
		lgAB, _ := math.Lgamma(a + b)
		return math.Exp(lgAB - lgA - lgB)
	}

	return distuv.Beta{Alpha: a, Beta: b}.Prob(maf)
}
