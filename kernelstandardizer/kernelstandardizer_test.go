package kernelstandardizer

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestDiagKtoN(t *testing.T) {
	k := mat.NewSymDense(3, []float64{
		2, 1, 0,
		1, 4, 1,
		0, 1, 6,
	})

	trained, err := DiagKtoN{}.StandardizeKernel(k)
	if err != nil {
		t.Fatal(err)
	}
	if trace := mat.Trace(k); math.Abs(trace-3) > 1e-12 {
		t.Fatalf("Expected trace 3, got %v", trace)
	}
	if f := trained.(DiagKtoNTrained).Factor; math.Abs(f-0.25) > 1e-12 {
		t.Fatalf("Expected factor 0.25, got %v", f)
	}
	if v := k.At(0, 1); math.Abs(v-0.25) > 1e-12 {
		t.Fatalf("Expected off-diagonal 0.25, got %v", v)
	}

	// The trained form applies the same factor regardless of the new trace
	other := mat.NewSymDense(1, []float64{8})
	if _, err := trained.StandardizeKernel(other); err != nil {
		t.Fatal(err)
	}
	if other.At(0, 0) != 2 {
		t.Fatalf("Expected 2, got %v", other.At(0, 0))
	}
}

func TestDiagKtoNZeroTrace(t *testing.T) {
	if _, err := (DiagKtoN{}).StandardizeKernel(mat.NewSymDense(2, nil)); err == nil {
		t.Fatal("Expected an error for a zero trace")
	}
}

func TestIdentity(t *testing.T) {
	k := mat.NewSymDense(2, []float64{1, 2, 2, 5})
	trained, err := Identity{}.StandardizeKernel(k)
	if err != nil {
		t.Fatal(err)
	}
	if trained != (Identity{}) || k.At(1, 1) != 5 {
		t.Fatal("Identity changed the kernel")
	}
}

func TestParse(t *testing.T) {
	for name, expected := range map[string]KernelStandardizer{
		"":            Identity{},
		"identity":    Identity{},
		"diag_k_to_n": DiagKtoN{},
		"DiagKtoN()":  DiagKtoN{},
	} {
		got, err := Parse(name)
		if err != nil {
			t.Fatalf("%q: %v", name, err)
		}
		if got != expected {
			t.Errorf("Parse(%q) = %v, expected %v", name, got, expected)
		}
	}

	if _, err := Parse("unit"); err == nil {
		t.Fatal("Expected an error for a per-variant standardizer name")
	}
}
