// Package snpreader exposes genotype files as a matrix of individuals (rows)
// by variants (columns). Readers load their row and column metadata lazily and
// decode only the values that are asked for, so a Subset of a large on-disk
// file costs nothing until it is read.
package snpreader

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"
)

var (
	ErrBadMagic          = errors.New("snpreader: file does not begin with the PLINK magic bytes")
	ErrUnsupportedMode   = errors.New("snpreader: unsupported storage mode")
	ErrUnsupportedRecord = errors.New("snpreader: unsupported variant record type")
	ErrIndexOutOfRange   = errors.New("snpreader: index out of range")
	ErrShape             = errors.New("snpreader: inconsistent matrix shape")
)

// IID identifies one individual by family ID and within-family ID, the first
// two columns of a .fam file.
type IID struct {
	FID string
	IID string
}

func (i IID) String() string {
	return i.FID + " " + i.IID
}

// Variant describes one column. ID is the variant's SID; the remaining fields
// are its position and alleles.
type Variant struct {
	ID              string
	Chromosome      string
	GeneticDistance float64
	Position        uint32
	Allele1         string
	Allele2         string
}

// Reader is a lazily evaluated individuals × variants matrix.
//
// Read returns the values at the intersection of iidIndex and sidIndex, in the
// order given. A nil index selects every row (or column); an empty, non-nil
// index selects none. Missing values are NaN.
type Reader interface {
	IIDs() ([]IID, error)
	Variants() ([]Variant, error)
	Read(ctx context.Context, iidIndex, sidIndex []int) (*Data, error)
	String() string
}

// Options configures the file-backed readers. The zero value reads every
// sidecar from disk and counts allele 2.
type Options struct {
	// CountA1 counts allele 1 (the PLINK standard) rather than allele 2.
	CountA1 bool

	// IIDs and Variants, when set, are used instead of reading the sidecar
	// files.
	IIDs     []IID
	Variants []Variant

	// SkipFormatCheck skips validating header bytes and file sizes.
	SkipFormatCheck bool

	// StorageClient is required for gs:// paths.
	StorageClient *storage.Client

	// Workers bounds the goroutines that decode variants. Zero means one per
	// CPU.
	Workers int

	// SampleFile is an Oxford .sample file naming BGEN samples.
	SampleFile string

	// BGIPath overrides the default <file>.bgi BGEN index path.
	BGIPath string
}

// IIDCount returns the number of rows of r.
func IIDCount(r Reader) (int, error) {
	iids, err := r.IIDs()
	return len(iids), err
}

// SIDCount returns the number of columns of r.
func SIDCount(r Reader) (int, error) {
	variants, err := r.Variants()
	return len(variants), err
}

// SIDs returns the variant IDs of r.
func SIDs(r Reader) ([]string, error) {
	variants, err := r.Variants()
	if err != nil {
		return nil, err
	}

	out := make([]string, len(variants))
	for i, v := range variants {
		out[i] = v.ID
	}

	return out, nil
}

// IIDIndex finds the row of each requested individual.
func IIDIndex(r Reader, iids []IID) ([]int, error) {
	all, err := r.IIDs()
	if err != nil {
		return nil, err
	}

	lookup := make(map[IID]int, len(all))
	for i, iid := range all {
		lookup[iid] = i
	}

	out := make([]int, len(iids))
	for i, iid := range iids {
		idx, exists := lookup[iid]
		if !exists {
			return nil, fmt.Errorf("iid %q not found in %s", iid.String(), r)
		}
		out[i] = idx
	}

	return out, nil
}

// SIDIndex finds the column of each requested variant ID.
func SIDIndex(r Reader, sids []string) ([]int, error) {
	all, err := r.Variants()
	if err != nil {
		return nil, err
	}

	lookup := make(map[string]int, len(all))
	for i, v := range all {
		lookup[v.ID] = i
	}

	out := make([]int, len(sids))
	for i, sid := range sids {
		idx, exists := lookup[sid]
		if !exists {
			return nil, fmt.Errorf("sid %q not found in %s", sid, r)
		}
		out[i] = idx
	}

	return out, nil
}

// Range returns the indices start, start+1, ..., stop-1.
func Range(start, stop int) []int {
	if stop < start {
		return []int{}
	}

	out := make([]int, 0, stop-start)
	for i := start; i < stop; i++ {
		out = append(out, i)
	}

	return out
}

// checkIndex validates an index against a dimension of length n, expanding a
// nil index to every position.
func checkIndex(index []int, n int, what string) ([]int, error) {
	if index == nil {
		return Range(0, n), nil
	}

	for _, i := range index {
		if i < 0 || i >= n {
			return nil, fmt.Errorf("%w: %s index %d with %d %ss", ErrIndexOutOfRange, what, i, n, what)
		}
	}

	return index, nil
}
