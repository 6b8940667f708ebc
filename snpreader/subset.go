package snpreader

import (
	"context"
	"fmt"
	"sync"
)

type subset struct {
	inner    Reader
	iidIndex []int
	sidIndex []int

	mu       sync.Mutex
	iids     []IID
	variants []Variant
}

// Subset returns a lazy view of r restricted to the given rows and columns. No
// data is read until the view is. Nested subsets collapse into a single view of
// the innermost reader.
func Subset(r Reader, iidIndex, sidIndex []int) Reader {
	if s, ok := r.(*subset); ok {
		return &subset{
			inner:    s.inner,
			iidIndex: compose(s.iidIndex, iidIndex),
			sidIndex: compose(s.sidIndex, sidIndex),
		}
	}

	return &subset{inner: r, iidIndex: iidIndex, sidIndex: sidIndex}
}

// compose maps an index into an already-subset dimension back to the original
// dimension. Out-of-range positions are carried through as -1 so that the error
// surfaces when the view is used.
func compose(outer, inner []int) []int {
	if inner == nil {
		return outer
	}
	if outer == nil {
		return inner
	}

	out := make([]int, len(inner))
	for i, idx := range inner {
		if idx < 0 || idx >= len(outer) {
			out[i] = -1
			continue
		}
		out[i] = outer[idx]
	}

	return out
}

func (s *subset) String() string {
	return fmt.Sprintf("%s[%s,%s]", s.inner, describeIndex(s.iidIndex), describeIndex(s.sidIndex))
}

func describeIndex(index []int) string {
	switch {
	case index == nil:
		return ":"
	case len(index) == 1:
		return fmt.Sprint(index[0])
	}

	return fmt.Sprintf("%d items", len(index))
}

func (s *subset) IIDs() ([]IID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.iids != nil {
		return s.iids, nil
	}

	all, err := s.inner.IIDs()
	if err != nil {
		return nil, err
	}
	index, err := checkIndex(s.iidIndex, len(all), "iid")
	if err != nil {
		return nil, err
	}
	s.iids = pickIIDs(all, index)

	return s.iids, nil
}

func (s *subset) Variants() ([]Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.variants != nil {
		return s.variants, nil
	}

	all, err := s.inner.Variants()
	if err != nil {
		return nil, err
	}
	index, err := checkIndex(s.sidIndex, len(all), "sid")
	if err != nil {
		return nil, err
	}
	s.variants = pickVariants(all, index)

	return s.variants, nil
}

func (s *subset) Read(ctx context.Context, iidIndex, sidIndex []int) (*Data, error) {
	// Validate against this view's own shape before translating, so that an
	// index past the end of the view is not silently mapped.
	iids, err := s.IIDs()
	if err != nil {
		return nil, err
	}
	variants, err := s.Variants()
	if err != nil {
		return nil, err
	}
	if iidIndex, err = checkIndex(iidIndex, len(iids), "iid"); err != nil {
		return nil, err
	}
	if sidIndex, err = checkIndex(sidIndex, len(variants), "sid"); err != nil {
		return nil, err
	}

	return s.inner.Read(ctx, compose(s.iidIndex, iidIndex), compose(s.sidIndex, sidIndex))
}
