package snpreader

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

const (
	testFam = "F1 I1 0 0 1 -9\nF2 I2 0 0 2 -9\nF3 I3 0 0 1 -9\n"
	testBim = "1\trs1\t0\t100\tA\tG\n1\trs2\t0.25\t200\tC\tT\n"
)

// Three individuals by two variants, as counts of allele 1:
//
//	I1: 2   0
//	I2: NaN 1
//	I3: 1   2
var testCountA1 = [][]float64{
	{2, 0},
	{math.NaN(), 1},
	{1, 2},
}

// PLINK 1 bytes for testCountA1. Variant-major records are one byte per
// variant; individual-major records are one byte per individual.
var (
	testBedVariantMajor    = []byte{plinkMagic0, plinkMagic1, bedVariantMajor, 0x24, 0x0b}
	testBedIndividualMajor = []byte{plinkMagic0, plinkMagic1, bedIndividualMajor, 0x0c, 0x09, 0x02}
)

func writeFiles(t *testing.T, dir string, files map[string][]byte) {
	t.Helper()
	for name, contents := range files {
		if err := os.WriteFile(filepath.Join(dir, name), contents, 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func sameFloat(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return math.Abs(a-b) < 1e-9
}

func checkValues(t *testing.T, d *Data, expected [][]float64) {
	t.Helper()

	rows, cols := d.Dims()
	if rows != len(expected) {
		t.Fatalf("Expected %d rows, got %d", len(expected), rows)
	}
	for i := range expected {
		if cols != len(expected[i]) {
			t.Fatalf("Expected %d columns, got %d", len(expected[i]), cols)
		}
		for j := range expected[i] {
			if got := d.At(i, j); !sameFloat(got, expected[i][j]) {
				t.Errorf("At(%d, %d) = %v, expected %v", i, j, got, expected[i][j])
			}
		}
	}
}

func flipped(values [][]float64) [][]float64 {
	out := make([][]float64, len(values))
	for i, row := range values {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = 2 - v
		}
	}
	return out
}
