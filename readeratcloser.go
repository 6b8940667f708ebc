package snptools

import "io"

// ReaderAtCloser is the random-access handle that genotype readers decode from.
type ReaderAtCloser interface {
	io.ReaderAt
	io.Closer
}
