package snpreader

import (
	"context"
	"fmt"
	"math"

	"github.com/carbocation/snptools/standardizer"
	"gonum.org/v1/gonum/mat"
)

// Data is a fully loaded matrix. It is itself a Reader, so it can be subset and
// re-read like any file-backed reader.
type Data struct {
	iids     []IID
	variants []Variant

	// Val holds one row per individual and one column per variant. It is nil
	// when either dimension is empty, since gonum has no zero-sized matrices.
	Val *mat.Dense

	// Name describes where the data came from.
	Name string
}

// NewData checks that val is len(iids) × len(variants). val may be nil only if
// one of the dimensions is zero.
func NewData(iids []IID, variants []Variant, val *mat.Dense) (*Data, error) {
	if len(iids) == 0 || len(variants) == 0 {
		if val != nil {
			return nil, fmt.Errorf("%w: %d iids and %d variants need a nil matrix", ErrShape, len(iids), len(variants))
		}
	} else {
		if val == nil {
			return nil, fmt.Errorf("%w: %d iids and %d variants need a matrix", ErrShape, len(iids), len(variants))
		}
		if r, c := val.Dims(); r != len(iids) || c != len(variants) {
			return nil, fmt.Errorf("%w: matrix is %dx%d but there are %d iids and %d variants", ErrShape, r, c, len(iids), len(variants))
		}
	}

	return &Data{iids: iids, variants: variants, Val: val, Name: "Data"}, nil
}

// newFilledData allocates a NaN-filled matrix for the given rows and columns.
func newFilledData(name string, iids []IID, variants []Variant) *Data {
	d := &Data{iids: iids, variants: variants, Name: name}
	if len(iids) == 0 || len(variants) == 0 {
		return d
	}

	backing := make([]float64, len(iids)*len(variants))
	for i := range backing {
		backing[i] = math.NaN()
	}
	d.Val = mat.NewDense(len(iids), len(variants), backing)

	return d
}

func (d *Data) IIDs() ([]IID, error) {
	return d.iids, nil
}

func (d *Data) Variants() ([]Variant, error) {
	return d.variants, nil
}

// Dims returns the number of individuals and variants.
func (d *Data) Dims() (int, int) {
	return len(d.iids), len(d.variants)
}

// At returns one value.
func (d *Data) At(i, j int) float64 {
	return d.Val.At(i, j)
}

func (d *Data) String() string {
	return d.Name
}

// Read copies the selected rows and columns into a new Data.
func (d *Data) Read(ctx context.Context, iidIndex, sidIndex []int) (*Data, error) {
	iidIndex, err := checkIndex(iidIndex, len(d.iids), "iid")
	if err != nil {
		return nil, err
	}
	sidIndex, err = checkIndex(sidIndex, len(d.variants), "sid")
	if err != nil {
		return nil, err
	}

	out := newFilledData(d.Name, pickIIDs(d.iids, iidIndex), pickVariants(d.variants, sidIndex))
	if out.Val == nil {
		return out, nil
	}

	for i, row := range iidIndex {
		for j, col := range sidIndex {
			out.Val.Set(i, j, d.Val.At(row, col))
		}
	}

	return out, nil
}

// Standardize applies s to the values in place and returns the trained form of
// s, which repeats the same transformation on other data.
func (d *Data) Standardize(s standardizer.Standardizer) (standardizer.Standardizer, error) {
	if d.Val == nil {
		return s, nil
	}

	return s.Standardize(d.Val)
}

func pickIIDs(all []IID, index []int) []IID {
	out := make([]IID, len(index))
	for i, idx := range index {
		out[i] = all[idx]
	}
	return out
}

func pickVariants(all []Variant, index []int) []Variant {
	out := make([]Variant, len(index))
	for i, idx := range index {
		out[i] = all[idx]
	}
	return out
}
