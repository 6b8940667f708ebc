// Package kernelstandardizer rescales kernel (individual × individual
// similarity) matrices in place.
package kernelstandardizer

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// KernelStandardizer mutates k in place and returns a constant, trained form of
// itself that repeats the same transformation on other kernels.
type KernelStandardizer interface {
	StandardizeKernel(k *mat.SymDense) (KernelStandardizer, error)
	String() string
}

// Identity does nothing to kernel data.
type Identity struct{}

func (s Identity) StandardizeKernel(k *mat.SymDense) (KernelStandardizer, error) {
	return s, nil
}

func (Identity) String() string {
	return "Identity()"
}

// DiagKtoN scales a kernel so that its diagonal sums to the number of
// individuals.
type DiagKtoN struct{}

func (DiagKtoN) StandardizeKernel(k *mat.SymDense) (KernelStandardizer, error) {
	n := k.Symmetric()
	trace := mat.Trace(k)
	if math.IsNaN(trace) {
		return nil, fmt.Errorf("DiagKtoN: kernel diagonal has missing values")
	}
	if trace == 0 {
		return nil, fmt.Errorf("DiagKtoN: kernel trace is zero")
	}

	trained := DiagKtoNTrained{Factor: float64(n) / trace}
	return trained.StandardizeKernel(k)
}

func (DiagKtoN) String() string {
	return "DiagKtoN()"
}

// DiagKtoNTrained multiplies a kernel by a fixed factor.
type DiagKtoNTrained struct {
	Factor float64
}

func (s DiagKtoNTrained) StandardizeKernel(k *mat.SymDense) (KernelStandardizer, error) {
	k.ScaleSym(s.Factor, k)
	return s, nil
}

func (s DiagKtoNTrained) String() string {
	return fmt.Sprintf("DiagKtoNTrained(%g)", s.Factor)
}

// Parse builds a KernelStandardizer from its name: identity or diag_k_to_n.
func Parse(name string) (KernelStandardizer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "identity", "identity()", "":
		return Identity{}, nil
	case "diag_k_to_n", "diagkton", "diagkton()":
		return DiagKtoN{}, nil
	}

	return nil, fmt.Errorf("unknown kernel standardizer %q", name)
}
