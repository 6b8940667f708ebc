// Package kernelreader builds and holds kernel matrices: symmetric
// individual × individual similarities, most often K = X Xᵀ computed from
// standardized genotypes.
package kernelreader

import (
	"fmt"

	"github.com/carbocation/snptools/kernelstandardizer"
	"github.com/carbocation/snptools/snpreader"
	"gonum.org/v1/gonum/mat"
)

// KernelData is an in-memory kernel. Val is nil when there are no individuals.
type KernelData struct {
	IIDs []snpreader.IID
	Val  *mat.SymDense
}

func NewKernelData(iids []snpreader.IID, val *mat.SymDense) (*KernelData, error) {
	switch {
	case len(iids) == 0 && val != nil:
		return nil, fmt.Errorf("%w: no iids but a %dx%[2]d kernel", snpreader.ErrShape, val.Symmetric())
	case len(iids) > 0 && val == nil:
		return nil, fmt.Errorf("%w: %d iids but no kernel", snpreader.ErrShape, len(iids))
	case val != nil && val.Symmetric() != len(iids):
		return nil, fmt.Errorf("%w: %d iids but a %dx%[3]d kernel", snpreader.ErrShape, len(iids), val.Symmetric())
	}

	return &KernelData{IIDs: iids, Val: val}, nil
}

// Standardize applies ks in place and returns its trained form.
func (k *KernelData) Standardize(ks kernelstandardizer.KernelStandardizer) (kernelstandardizer.KernelStandardizer, error) {
	if k.Val == nil {
		return ks, nil
	}

	return ks.StandardizeKernel(k.Val)
}

// Read copies the kernel restricted to the given individuals, in order. A nil
// index selects everyone.
func (k *KernelData) Read(iidIndex []int) (*KernelData, error) {
	if iidIndex == nil {
		iidIndex = snpreader.Range(0, len(k.IIDs))
	}

	iids := make([]snpreader.IID, len(iidIndex))
	for a, i := range iidIndex {
		if i < 0 || i >= len(k.IIDs) {
			return nil, fmt.Errorf("%w: iid index %d with %d iids", snpreader.ErrIndexOutOfRange, i, len(k.IIDs))
		}
		iids[a] = k.IIDs[i]
	}
	if len(iids) == 0 {
		return &KernelData{IIDs: iids}, nil
	}

	val := mat.NewSymDense(len(iids), nil)
	for a, i := range iidIndex {
		for b := a; b < len(iidIndex); b++ {
			val.SetSym(a, b, k.Val.At(i, iidIndex[b]))
		}
	}

	return &KernelData{IIDs: iids, Val: val}, nil
}
