package kernelreader

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/carbocation/snptools/kernelstandardizer"
	"github.com/carbocation/snptools/snpreader"
	"github.com/carbocation/snptools/standardizer"
	"gonum.org/v1/gonum/mat"
)

func testGenotypes(t *testing.T, withMissing bool) *snpreader.Data {
	t.Helper()

	values := []float64{
		0, 1, 2, 0, 1,
		1, 1, 0, 2, 2,
		2, 0, 1, 1, 0,
		0, 2, 1, 0, 1,
	}
	if withMissing {
		values[7] = math.NaN()
	}

	iids := make([]snpreader.IID, 4)
	for i := range iids {
		iids[i] = snpreader.IID{FID: fmt.Sprint(i), IID: fmt.Sprint(i)}
	}
	variants := make([]snpreader.Variant, 5)
	for j := range variants {
		variants[j] = snpreader.Variant{ID: fmt.Sprint("rs", j)}
	}

	d, err := snpreader.NewData(iids, variants, mat.NewDense(4, 5, values))
	if err != nil {
		t.Fatal(err)
	}
	return d
}

// directKernel standardizes a copy of all the data at once and multiplies.
func directKernel(t *testing.T, d *snpreader.Data, s standardizer.Standardizer) *mat.Dense {
	t.Helper()

	copied, err := d.Read(context.Background(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := copied.Standardize(s); err != nil {
		t.Fatal(err)
	}

	var k mat.Dense
	k.Mul(copied.Val, copied.Val.T())
	return &k
}

func TestFromSnpsMatchesDirect(t *testing.T) {
	for _, v := range []struct {
		Standardizer standardizer.Standardizer
		BlockSize    int
		Missing      bool
	}{
		{standardizer.Identity{}, 2, false},
		{standardizer.Unit{}, 2, true},
		{standardizer.Unit{}, 100, true},
		{standardizer.Beta{A: 1, B: 25}, 3, true},
		{nil, 1, false},
	} {
		d := testGenotypes(t, v.Missing)
		var s standardizer.Standardizer = standardizer.Identity{}
		if v.Standardizer != nil {
			s = v.Standardizer
		}
		expected := directKernel(t, d, s)

		k, err := FromSnps(context.Background(), d, Options{Standardizer: v.Standardizer, BlockSize: v.BlockSize})
		if err != nil {
			t.Fatalf("%v: %v", v.Standardizer, err)
		}

		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				if math.Abs(k.Val.At(i, j)-expected.At(i, j)) > 1e-9 {
					t.Fatalf("%v, block size %d: K(%d, %d) = %v, expected %v", v.Standardizer, v.BlockSize, i, j, k.Val.At(i, j), expected.At(i, j))
				}
			}
		}
	}
}

func TestFromSnpsDiagKtoN(t *testing.T) {
	d := testGenotypes(t, false)

	k, err := FromSnps(context.Background(), d, Options{Standardizer: standardizer.DiagKtoN{}, BlockSize: 2})
	if err != nil {
		t.Fatal(err)
	}
	if trace := mat.Trace(k.Val); math.Abs(trace-4) > 1e-9 {
		t.Fatalf("Expected trace 4, got %v", trace)
	}

	// Same result as scaling the genotypes before multiplying
	expected := directKernel(t, d, standardizer.DiagKtoN{})
	if math.Abs(k.Val.At(0, 1)-expected.At(0, 1)) > 1e-9 {
		t.Fatalf("Expected %v, got %v", expected.At(0, 1), k.Val.At(0, 1))
	}
}

func TestFromSnpsTrained(t *testing.T) {
	d := testGenotypes(t, true)

	for _, s := range []standardizer.Standardizer{standardizer.Unit{}, standardizer.Beta{A: 1, B: 25}} {
		copied, err := d.Read(context.Background(), nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		trained, err := copied.Standardize(s)
		if err != nil {
			t.Fatal(err)
		}
		expected := directKernel(t, d, s)

		k, err := FromSnps(context.Background(), d, Options{Standardizer: trained, BlockSize: 2})
		if err != nil {
			t.Fatalf("%v: %v", trained, err)
		}
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				if math.Abs(k.Val.At(i, j)-expected.At(i, j)) > 1e-9 {
					t.Fatalf("%v: K(%d, %d) = %v, expected %v", trained, i, j, k.Val.At(i, j), expected.At(i, j))
				}
			}
		}
	}

	// Trained on fewer variants than the reader has
	short := standardizer.UnitTrained{Stats: make([]standardizer.ColumnStats, 2)}
	if _, err := FromSnps(context.Background(), d, Options{Standardizer: short, BlockSize: 2}); err == nil {
		t.Fatal("Expected an error for a standardizer trained on 2 of 5 variants")
	}
}

func TestFromSnpsDiagKtoNPointer(t *testing.T) {
	d := testGenotypes(t, false)

	k, err := FromSnps(context.Background(), d, Options{Standardizer: &standardizer.DiagKtoN{}, BlockSize: 2})
	if err != nil {
		t.Fatal(err)
	}
	if trace := mat.Trace(k.Val); math.Abs(trace-4) > 1e-9 {
		t.Fatalf("Expected trace 4, got %v", trace)
	}
}

func TestFromSnpsMissingValues(t *testing.T) {
	d := testGenotypes(t, true)

	_, err := FromSnps(context.Background(), d, Options{Standardizer: standardizer.Identity{}, BlockSize: 2})
	if !errors.Is(err, standardizer.ErrMissingValues) {
		t.Fatalf("Expected ErrMissingValues, got %v", err)
	}
}

func TestFromSnpsSubset(t *testing.T) {
	d := testGenotypes(t, false)
	view := snpreader.Subset(d, []int{3, 1}, nil)

	k, err := FromSnps(context.Background(), view, Options{})
	if err != nil {
		t.Fatal(err)
	}

	full, err := FromSnps(context.Background(), d, Options{})
	if err != nil {
		t.Fatal(err)
	}
	sub, err := full.Read([]int{3, 1})
	if err != nil {
		t.Fatal(err)
	}

	if len(k.IIDs) != 2 || k.IIDs[0] != sub.IIDs[0] {
		t.Fatalf("Unexpected IIDs %v", k.IIDs)
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if math.Abs(k.Val.At(i, j)-sub.Val.At(i, j)) > 1e-9 {
				t.Fatalf("K(%d, %d) = %v, expected %v", i, j, k.Val.At(i, j), sub.Val.At(i, j))
			}
		}
	}
}

func TestKernelDataStandardize(t *testing.T) {
	kd, err := NewKernelData([]snpreader.IID{{FID: "a", IID: "a"}, {FID: "b", IID: "b"}}, mat.NewSymDense(2, []float64{3, 1, 1, 1}))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := kd.Standardize(kernelstandardizer.DiagKtoN{}); err != nil {
		t.Fatal(err)
	}
	if kd.Val.At(0, 0) != 1.5 || kd.Val.At(0, 1) != 0.5 {
		t.Fatalf("Unexpected kernel %v", mat.Formatted(kd.Val))
	}

	if _, err := kd.Read([]int{2}); !errors.Is(err, snpreader.ErrIndexOutOfRange) {
		t.Fatalf("Expected ErrIndexOutOfRange, got %v", err)
	}
	if _, err := NewKernelData(nil, mat.NewSymDense(1, nil)); !errors.Is(err, snpreader.ErrShape) {
		t.Fatalf("Expected ErrShape, got %v", err)
	}
}
