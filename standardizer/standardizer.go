// Package standardizer rescales genotype matrices (individuals × variants) in
// place. Every Standardizer returns a trained form of itself: a constant
// standardizer that applies exactly the same transformation to other data,
// such as a test set standardized with training-set statistics.
package standardizer

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Standardizer mutates val in place and returns its trained form.
type Standardizer interface {
	Standardize(val *mat.Dense) (Standardizer, error)
	String() string
}

// PerColumn is implemented by trained standardizers that hold one set of
// parameters per variant, so that they can be applied to a block of variants.
type PerColumn interface {
	Standardizer
	ColumnCount() int

	// Columns restricts the parameters to variants [start, stop).
	Columns(start, stop int) (Standardizer, error)
}

func checkColumns(s Standardizer, start, stop, n int) error {
	if start < 0 || stop < start || stop > n {
		return fmt.Errorf("%s: columns [%d, %d) out of range", s, start, stop)
	}
	return nil
}

// Identity leaves data untouched.
type Identity struct{}

func (s Identity) Standardize(val *mat.Dense) (Standardizer, error) {
	return s, nil
}

func (Identity) String() string {
	return "Identity()"
}

// Parse builds a Standardizer from its name: identity, unit, beta,
// beta(a,b) or diag_k_to_n. Names are case-insensitive.
func Parse(name string) (Standardizer, error) {
	lower := strings.ToLower(strings.TrimSpace(name))

	switch lower {
	case "identity", "identity()":
		return Identity{}, nil
	case "unit", "unit()":
		return Unit{}, nil
	case "beta", "beta()":
		return Beta{A: 1, B: 25}, nil
	case "diag_k_to_n", "diagkton", "diagkton()":
		return DiagKtoN{}, nil
	}

	if strings.HasPrefix(lower, "beta(") && strings.HasSuffix(lower, ")") {
		params := strings.Split(strings.TrimSuffix(strings.TrimPrefix(lower, "beta("), ")"), ",")
		if len(params) != 2 {
			return nil, fmt.Errorf("beta takes 2 parameters, got %q", name)
		}
		a, err := strconv.ParseFloat(strings.TrimSpace(params[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("beta parameter a: %w", err)
		}
		b, err := strconv.ParseFloat(strings.TrimSpace(params[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("beta parameter b: %w", err)
		}
		if a <= 0 || b <= 0 {
			return nil, fmt.Errorf("beta parameters must be positive, got %v and %v", a, b)
		}
		return Beta{A: a, B: b}, nil
	}

	return nil, fmt.Errorf("unknown standardizer %q", name)
}
