package snpreader

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// testGrid is a 4x5 Data whose value at (i, j) is 10*i+j.
func testGrid(t *testing.T) *Data {
	t.Helper()

	iids := make([]IID, 4)
	for i := range iids {
		iids[i] = IID{FID: fmt.Sprint("F", i), IID: fmt.Sprint("I", i)}
	}
	variants := make([]Variant, 5)
	for j := range variants {
		variants[j] = Variant{ID: fmt.Sprint("rs", j)}
	}
	val := mat.NewDense(4, 5, nil)
	for i := 0; i < 4; i++ {
		for j := 0; j < 5; j++ {
			val.Set(i, j, float64(10*i+j))
		}
	}

	d, err := NewData(iids, variants, val)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestSubsetCompose(t *testing.T) {
	d := testGrid(t)
	ctx := context.Background()

	outer := Subset(d, []int{3, 1, 0}, Range(1, 5))
	inner := Subset(outer, []int{2, 0}, []int{3, 0})

	if _, ok := inner.(*subset).inner.(*Data); !ok {
		t.Fatal("Expected nested subsets to collapse onto the Data")
	}

	got, err := inner.Read(ctx, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	// Rows 0 and 3, columns 4 and 1 of the grid
	checkValues(t, got, [][]float64{{4, 1}, {34, 31}})

	// Reading a subset of the view composes a third time
	got, err = inner.Read(ctx, []int{1}, []int{1})
	if err != nil {
		t.Fatal(err)
	}
	checkValues(t, got, [][]float64{{31}})

	sids, err := SIDs(inner)
	if err != nil {
		t.Fatal(err)
	}
	if len(sids) != 2 || sids[0] != "rs4" || sids[1] != "rs1" {
		t.Fatalf("Unexpected SIDs %v", sids)
	}
}

func TestSubsetOutOfRange(t *testing.T) {
	d := testGrid(t)
	ctx := context.Background()

	// Construction never fails; the error surfaces on use
	bad := Subset(d, []int{7}, nil)
	if _, err := bad.IIDs(); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("Expected ErrIndexOutOfRange, got %v", err)
	}
	if _, err := bad.Read(ctx, nil, nil); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("Expected ErrIndexOutOfRange, got %v", err)
	}

	// An index past the end of a view is an error even if the underlying
	// reader has that many rows
	view := Subset(d, []int{0, 1}, nil)
	if _, err := view.Read(ctx, []int{2}, nil); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("Expected ErrIndexOutOfRange, got %v", err)
	}
	nested := Subset(view, []int{3}, nil)
	if _, err := nested.Read(ctx, nil, nil); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("Expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestSubsetEmpty(t *testing.T) {
	got, err := Subset(testGrid(t), nil, []int{}).Read(context.Background(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if rows, cols := got.Dims(); rows != 4 || cols != 0 {
		t.Fatalf("Expected 4x0, got %dx%d", rows, cols)
	}
}

func TestIndexLookups(t *testing.T) {
	d := testGrid(t)

	iidIndex, err := IIDIndex(d, []IID{{"F2", "I2"}, {"F0", "I0"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(iidIndex) != 2 || iidIndex[0] != 2 || iidIndex[1] != 0 {
		t.Fatalf("Unexpected IID index %v", iidIndex)
	}

	sidIndex, err := SIDIndex(d, []string{"rs3"})
	if err != nil {
		t.Fatal(err)
	}
	if len(sidIndex) != 1 || sidIndex[0] != 3 {
		t.Fatalf("Unexpected SID index %v", sidIndex)
	}

	if _, err := IIDIndex(d, []IID{{"F9", "I9"}}); err == nil {
		t.Fatal("Expected an error for an unknown IID")
	}
	if _, err := SIDIndex(d, []string{"rs99"}); err == nil {
		t.Fatal("Expected an error for an unknown SID")
	}

	if n, _ := IIDCount(d); n != 4 {
		t.Fatalf("Expected 4 IIDs, got %d", n)
	}
	if n, _ := SIDCount(d); n != 5 {
		t.Fatalf("Expected 5 SIDs, got %d", n)
	}
}

func TestRange(t *testing.T) {
	if r := Range(2, 5); len(r) != 3 || r[0] != 2 || r[2] != 4 {
		t.Fatalf("Unexpected range %v", r)
	}
	if r := Range(5, 2); r == nil || len(r) != 0 {
		t.Fatalf("Expected an empty, non-nil range, got %v", r)
	}
}

func TestNewDataShape(t *testing.T) {
	iids := []IID{{"F", "I"}}
	variants := []Variant{{ID: "a"}, {ID: "b"}}

	if _, err := NewData(iids, variants, mat.NewDense(2, 1, nil)); !errors.Is(err, ErrShape) {
		t.Fatalf("Expected ErrShape, got %v", err)
	}
	if _, err := NewData(iids, variants, nil); !errors.Is(err, ErrShape) {
		t.Fatalf("Expected ErrShape, got %v", err)
	}
	if _, err := NewData(iids, nil, nil); err != nil {
		t.Fatal(err)
	}
}
